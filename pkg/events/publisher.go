package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys of booking lifecycle events
const (
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingCancelled = "booking.cancelled"
	BookingCheckedIn = "booking.checked_in"
)

// AppID identifies this service in the AMQP message properties
const AppID = "hotel-admin-backend"

var ErrEmptyRoutingKey = errors.New("routing key is required")

// channel is the subset of *amqp.Channel used for publishing
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes booking events as JSON to a RabbitMQ topic exchange.
// Consumers bind on the routing keys above, e.g. "booking.*".
type Publisher struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex // serializes publishes on the shared channel
	ch channel

	now func() time.Time
}

// NewPublisher dials RabbitMQ and declares a durable topic exchange
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return newPublisher(conn, ch, exchange), nil
}

func newPublisher(conn *amqp.Connection, ch channel, exchange string) *Publisher {
	return &Publisher{conn: conn, ch: ch, exchange: exchange, now: time.Now}
}

// PublishJSON publishes v under key as a persistent message
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	msg, err := p.message(key, v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *Publisher) message(key string, v any) (amqp.Publishing, error) {
	if key == "" {
		return amqp.Publishing{}, ErrEmptyRoutingKey
	}
	body, err := json.Marshal(v)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s event: %w", key, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         key,
		AppId:        AppID,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}, nil
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopPublisher discards every message. Used when RabbitMQ is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishJSON(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                                   { return nil }
