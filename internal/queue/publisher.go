package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher delivers audit events.
type Publisher interface {
	Publish(ctx context.Context, ev AuditEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AuditEvent) error { return nil }

// AMQPPublisher publishes persistent JSON messages to AuditQueueName over a
// fresh connection per event.
type AMQPPublisher struct {
	url string
	log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev AuditEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(AuditQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return ch.PublishWithContext(ctx, "", AuditQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	})
}

// BestEffort wraps a Publisher so that failures are logged and never reach
// the caller. Publishing happens after the request's work has committed.
type BestEffort struct {
	next    Publisher
	log     *zap.Logger
	timeout time.Duration
}

func NewBestEffort(next Publisher, log *zap.Logger) *BestEffort {
	return &BestEffort{next: next, log: log, timeout: 3 * time.Second}
}

func (b *BestEffort) Publish(ctx context.Context, ev AuditEvent) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
	defer cancel()
	if err := b.next.Publish(ctx, ev); err != nil {
		b.log.Warn("audit event not published", zap.String("type", string(ev.Type)), zap.Error(err))
	}
	return nil
}
