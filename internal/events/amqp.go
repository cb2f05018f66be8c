// Package events publishes committed ledger changes to an AMQP broker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/service"
)

const publishTimeout = 5 * time.Second

// Config describes where events are sent.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	Retry      common.RetryOptions
}

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends ledger events to a durable direct exchange.
type Publisher struct {
	conn       *amqp091.Connection
	ch         channel
	exchange   string
	routingKey string
	mu         sync.Mutex
}

// Dial connects to the broker, retrying transient failures, and declares
// the exchange.
func Dial(ctx context.Context, cfg Config) (*Publisher, error) {
	if _, err := amqp091.ParseURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("%w: amqp url: %v", common.ErrInvalidConfig, err)
	}

	var conn *amqp091.Connection
	err := common.WithRetry(ctx, func() error {
		var dialErr error
		conn, dialErr = amqp091.Dial(cfg.URL)
		if errors.Is(dialErr, amqp091.ErrCredentials) {
			return &common.RetryableError{Err: dialErr, Retryable: false}
		}
		return dialErr
	}, cfg.Retry)
	if err != nil {
		return nil, common.NewUserError("Could not connect to the event broker; check amqp.url",
			fmt.Errorf("dial AMQP: %w", err))
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newPublisher(ch, cfg.Exchange, cfg.RoutingKey)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn

	slog.Info("connected to event broker", "exchange", p.exchange, "routing_key", p.routingKey)
	return p, nil
}

func newPublisher(ch channel, exchange, routingKey string) (*Publisher, error) {
	err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// Publish sends event as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, event service.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(
		ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    event.OccurredAt,
			Type:         string(event.Kind),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Kind, err)
	}

	slog.DebugContext(ctx, "published ledger event",
		"kind", event.Kind,
		"transaction_ids", event.TransactionIDs,
		"exchange", p.exchange)
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

// Publish implements service.Publisher.
func (Nop) Publish(context.Context, service.Event) error { return nil }

// Close implements service.Publisher.
func (Nop) Close() error { return nil }

var (
	_ service.Publisher = (*Publisher)(nil)
	_ service.Publisher = Nop{}
)
