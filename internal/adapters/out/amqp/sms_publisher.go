// Package amqp implements the SMS channel by publishing job messages to a
// RabbitMQ queue. A separate communications worker consumes the queue and
// talks to the SMS provider; a publish failure here is a delivery failure of
// the SMS channel, logged by the caller and never fatal.
package amqp

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SMSQueue is the durable queue the communications worker consumes.
const SMSQueue = "sms_jobs"

// smsJob is the message handed to the communications worker.
type smsJob struct {
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// SMSPublisher publishes SMS jobs to RabbitMQ. Implements ports.SMSSender.
type SMSPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewSMSPublisher connects to RabbitMQ and declares the durable SMS queue.
func NewSMSPublisher(url string) (*SMSPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if _, err = ch.QueueDeclare(SMSQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &SMSPublisher{conn: conn, ch: ch}, nil
}

// Send enqueues one SMS job.
func (p *SMSPublisher) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(smsJob{
		Phone:     phone,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx, "", SMSQueue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	})
}

// Close releases the channel and connection.
func (p *SMSPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
