package mailer

import (
	"errors"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Sender 由 *mail.Client 实现
type Sender interface {
	DialAndSend(messages ...*mail.Msg) error
}

// Acknowledger 由 amqp.Delivery 实现
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type Outcome int

const (
	Sent Outcome = iota
	Dropped
	Requeued
)

// Handle 处理一条队列消息：发送成功时确认，无法解析的消息直接丢弃，发送失败时重新入队
func (m *Mailer) Handle(body []byte, d Acknowledger, sender Sender) Outcome {
	msg, err := m.Render(body)
	if err != nil {
		if errors.Is(err, ErrUnknownType) || errors.Is(err, ErrMalformed) {
			slog.Error("丢弃无法处理的邮件消息", slog.String("error", err.Error()))
		} else {
			slog.Error("无法生成邮件", slog.String("error", err.Error()))
		}
		_ = d.Nack(false, false)
		return Dropped
	}

	if err := sender.DialAndSend(msg); err != nil {
		slog.Error("邮件发送失败", slog.String("error", err.Error()))
		_ = d.Nack(false, true) // 将消息重新入队
		return Requeued
	}

	_ = d.Ack(false)
	return Sent
}
