package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditPublisher sends audit messages to a durable RabbitMQ queue.  Each
// call dials its own connection.  Failures are logged and returned; the
// request that triggered the message has already committed.
type AuditPublisher struct {
	url     string
	queue   string
	enabled bool
	timeout time.Duration
}

func NewAuditPublisher(url, queue string, enabled bool) *AuditPublisher {
	return &AuditPublisher{url: url, queue: queue, enabled: enabled, timeout: 5 * time.Second}
}

// Enabled reports whether Publish talks to the broker at all.
func (p *AuditPublisher) Enabled() bool { return p != nil && p.enabled }

// Publish marshals payload and publishes it with msgType in the AMQP Type
// property and a fresh UUID as MessageId.  Messages are persistent.
func (p *AuditPublisher) Publish(ctx context.Context, msgType string, payload any) error {
	if !p.Enabled() {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("rabbitmq: marshal %s failed: %v", msgType, err)
		return err
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         msgType,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish %s failed: %v", msgType, err)
		return err
	}
	return nil
}
