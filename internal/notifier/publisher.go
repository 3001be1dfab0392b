package notifier

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-allocator/backend/internal/domain"
)

const QueueName = "notification_queue"

// Publisher 将通知消息发布到消息队列，由 notifier 进程消费后发送邮件
type Publisher interface {
	Publish(msg *domain.NotificationMessage) error
}

type AMQPPublisher struct {
	cfg     *config.Config
	channel *amqp.Channel
}

func NewAMQPPublisher(cfg *config.Config, channel *amqp.Channel) *AMQPPublisher {
	return &AMQPPublisher{
		cfg:     cfg,
		channel: channel,
	}
}

func (p *AMQPPublisher) Publish(msg *domain.NotificationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
