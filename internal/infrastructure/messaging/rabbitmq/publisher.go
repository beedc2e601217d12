// Package rabbitmq implements the event publisher on a RabbitMQ
// headers exchange. Consumers bind with header matches; no routing
// key is used.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher delivers change events to a durable headers exchange over
// a single long-lived channel. Channel access is serialized with a
// mutex so concurrent workflows may publish safely.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger

	mu sync.Mutex
}

// NewPublisher dials the broker and opens the publishing channel.
func NewPublisher(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Publish serializes the message to JSON and delivers it to the
// products exchange tagged with the given headers. The exchange is
// declared on every publish; declaring an existing exchange with
// matching properties is a no-op.
func (p *Publisher) Publish(ctx context.Context, headers map[string]any, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("serialize message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.ExchangeDeclare(
		p.exchange,
		amqp.ExchangeHeaders,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	if err := p.channel.PublishWithContext(ctx,
		p.exchange,
		"", // headers exchange: routing key unused
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Headers:     amqp.Table(headers),
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish to exchange %s: %w", p.exchange, err)
	}

	p.logger.DebugContext(ctx, "Event published",
		slog.String("exchange", p.exchange),
		slog.Any("headers", headers),
	)
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
