// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker/v2"
)

// Broker publishing limits.
const (
	publishTimeout       = 5 * time.Second
	breakerTripFailures  = 5
	breakerOpenTimeout   = 30 * time.Second
	breakerHalfOpenCalls = 1
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// # Broker Connection

// Broker owns the RabbitMQ connection and the channel events are published on.
type Broker struct {
	connection *amqp.Connection
	channel    *amqp.Channel
}

// DialBroker connects to RabbitMQ and declares the durable direct exchange.
func DialBroker(url, exchange string) (*Broker, error) {
	connection, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp: failed to connect: %w", err)
	}

	channel, err := connection.Channel()
	if err != nil {
		_ = connection.Close()
		return nil, fmt.Errorf("amqp: failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		_ = connection.Close()
		return nil, fmt.Errorf("amqp: failed to declare exchange %q: %w", exchange, err)
	}

	return &Broker{connection: connection, channel: channel}, nil
}

// Channel returns the publishing channel.
func (broker *Broker) Channel() *amqp.Channel { return broker.channel }

// Ping reports whether the connection is still open.
func (broker *Broker) Ping(_ context.Context) error {
	if broker.connection.IsClosed() {
		return fmt.Errorf("amqp: connection closed")
	}
	return nil
}

// Close closes the channel and the connection.
func (broker *Broker) Close() error {
	_ = broker.channel.Close()
	return broker.connection.Close()
}

// # Publisher Sink

// AMQPPublisher publishes events to an exchange, routed by outcome.
// A circuit breaker fails fast while the broker is unhealthy.
type AMQPPublisher struct {
	channel  Channel
	exchange string
	breaker  *gobreaker.CircuitBreaker[any]
	now      func() time.Time
}

// NewAMQPPublisher constructs a publisher over channel.
func NewAMQPPublisher(channel Channel, exchange string, logger *slog.Logger) *AMQPPublisher {
	settings := gobreaker.Settings{
		Name:        "amqp_publish",
		MaxRequests: breakerHalfOpenCalls,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit_breaker_state_change",
				slog.String("operation", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &AMQPPublisher{
		channel:  channel,
		exchange: exchange,
		breaker:  gobreaker.NewCircuitBreaker[any](settings),
		now:      time.Now,
	}
}

// Name implements [Sink].
func (publisher *AMQPPublisher) Name() string { return "amqp" }

// RoutingKey is the key an event is published under, e.g. "submission.approved".
func RoutingKey(event Event) string {
	return "submission." + string(event.Kind)
}

// Dispatch implements [Sink]. Publishing is attempted once; an open breaker
// returns [gobreaker.ErrOpenState] without touching the broker.
func (publisher *AMQPPublisher) Dispatch(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("amqp: encode event: %w", err)
	}

	_, err = publisher.breaker.Execute(func() (any, error) {
		publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		return nil, publisher.channel.PublishWithContext(
			publishCtx,
			publisher.exchange,
			RoutingKey(event),
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp.Persistent,
				Timestamp:    publisher.now(),
			},
		)
	})
	return err
}
