package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

// publishMail 把邮件投递到消息队列中，由 mail worker 负责真正发送
func (h *Handler) publishMail(msg domain.MailMessage) error {
	mailData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailChannel.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.MailQueue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         mailData,
		},
	)
}

// notify 用于通知类邮件，投递失败只记录日志，不影响请求的结果
func (h *Handler) notify(msg domain.MailMessage) {
	if msg.To == "" {
		return
	}
	if err := h.publishMail(msg); err != nil {
		slog.Warn("无法投递通知邮件", "type", msg.Type, "to", msg.To, "error", err)
	}
}
