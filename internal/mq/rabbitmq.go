package mq

import (
	"Go_Attach/internal/events"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const ExchangeKindTopic = "topic"

// Publisher sends messages to an exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

type Client struct {
	Conn      *amqp.Connection //tcp
	Channel   *amqp.Channel    // AMQP
	exchange  string
	publishMu sync.Mutex
}

// Dial connects and declares the durable topic exchange.
func Dial(url, exchange string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	client := &Client{Conn: conn, Channel: ch, exchange: exchange}
	if err := client.DeclareTopology(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

func (c *Client) DeclareTopology() error {
	return c.Channel.ExchangeDeclare(
		c.exchange,
		ExchangeKindTopic,
		true,
		false,
		false,
		false,
		nil,
	)
}

func (c *Client) Publish(ctx context.Context, routingKey string, body []byte) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	if c.Channel == nil || c.Channel.IsClosed() {
		return amqp.ErrClosed
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}
	return c.Channel.PublishWithContext(
		ctx,
		c.exchange,
		routingKey,
		false,
		false,
		msg,
	)
}

// RoutingKey returns "<kind>.<action>", e.g. "record.delete".
func RoutingKey(ev events.Event) string {
	return fmt.Sprintf("%s.%s", ev.Kind, ev.Action)
}

// EventForwarder publishes every dispatched event. Failures are logged and
// never veto the change.
type EventForwarder struct {
	publisher Publisher
	logger    zerolog.Logger
}

func NewEventForwarder(publisher Publisher, logger zerolog.Logger) *EventForwarder {
	return &EventForwarder{publisher: publisher, logger: logger}
}

func (f *EventForwarder) Kinds() []events.Kind { return nil }

func (f *EventForwarder) Actions() []events.Action { return nil }

func (f *EventForwarder) Handle(ctx context.Context, ev events.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		f.logger.Warn().Err(err).Str("uri", ev.URI).Msg("encode event failed")
		return nil
	}
	if err := f.publisher.Publish(ctx, RoutingKey(ev), body); err != nil {
		f.logger.Warn().Err(err).Str("uri", ev.URI).Str("routing_key", RoutingKey(ev)).Msg("publish event failed")
	}
	return nil
}
