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
	"github.com/rs/zerolog/log"
)

const (
	defaultDialTimeout = 5 * time.Second
	heartbeat          = 10 * time.Second
)

// RabbitPublisher publishes JSON events to a durable topic exchange over one long-lived
// connection, redialing when the broker drops it.
type RabbitPublisher struct {
	url         string
	exchange    string
	dialTimeout time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitPublisher dials the broker and declares the exchange. dialTimeout bounds the TCP connect
// and the AMQP handshake of every dial, including redials from Publish.
func NewRabbitPublisher(url, exchange string, dialTimeout time.Duration) (*RabbitPublisher, error) {
	if url == "" {
		return nil, errors.New("events: rabbitmq url is empty")
	}
	if exchange == "" {
		return nil, errors.New("events: exchange is empty")
	}

	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	p := &RabbitPublisher{url: url, exchange: exchange, dialTimeout: dialTimeout}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}

	log.Info().Str("exchange", exchange).Msg("Connected to RabbitMQ")
	return p, nil
}

func (p *RabbitPublisher) connectLocked() error {
	_ = p.closeLocked()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel open: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

// Publish sends event as a persistent JSON message with routingKey.
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		if err := p.connectLocked(); err != nil {
			return err
		}
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		Type:         routingKey,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", routingKey, err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

// closeLocked releases whatever is left of the current connection. A channel can die on its own
// while the connection stays open, so both are checked.
func (p *RabbitPublisher) closeLocked() error {
	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return errors.Join(errs...)
}
