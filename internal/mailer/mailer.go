// Package mailer 把队列中的邮件消息渲染成可以直接发送的邮件
package mailer

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	ErrUnknownType = errors.New("不支持的邮件类型")
	ErrMalformed   = errors.New("邮件信息格式错误")
)

type kind struct {
	template string
	subject  string
	data     func() any
}

var kinds = map[string]kind{
	domain.MailTypeWelcome: {
		template: "welcome.html",
		subject:  "Shift Board - ご登録ありがとうございます",
		data:     func() any { return &domain.WelcomeMailData{} },
	},
	domain.MailTypeResetPassword: {
		template: "reset_password.html",
		subject:  "Shift Board - パスワード再設定",
		data:     func() any { return &domain.ResetPasswordMailData{} },
	},
	domain.MailTypeShiftsPublished: {
		template: "shifts_published.html",
		subject:  "Shift Board - シフトが確定しました",
		data:     func() any { return &domain.ShiftsPublishedMailData{} },
	},
	domain.MailTypeSubstituteAccepted: {
		template: "substitute_accepted.html",
		subject:  "Shift Board - シフト交代が成立しました",
		data:     func() any { return &domain.SubstituteAcceptedMailData{} },
	},
}

type Mailer struct {
	from      string
	fromName  string
	templates *template.Template
}

func New(from, fromName string) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Mailer{from: from, fromName: fromName, templates: tmpl}, nil
}

// Render 解码队列中的消息并生成邮件。返回 ErrUnknownType 或 ErrMalformed 时消息不应该重新入队
func (m *Mailer) Render(body []byte) (*mail.Msg, error) {
	var envelope struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	k, ok := kinds[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, envelope.Type)
	}

	data := k.data()
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(envelope.To); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	msg.Subject(k.subject)

	if err := msg.SetBodyHTMLTemplate(m.templates.Lookup(k.template), data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}

	return msg, nil
}
