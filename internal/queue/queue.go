package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	// publishing and consuming share ch
	mu sync.Mutex
}

func New(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) EnsureExchangeKind(name string, kind string) error {
	if kind == "" {
		kind = "direct"
	}
	return c.ch.ExchangeDeclare(name, kind, true, false, false, false, nil)
}

func (c *Client) EnsureQueueWithArgs(name string, args amqp.Table) error {
	_, err := c.ch.QueueDeclare(name, true, false, false, false, args)
	return err
}

func (c *Client) BindQueue(queueName, exchange, routingKey string) error {
	return c.ch.QueueBind(queueName, routingKey, exchange, false, nil)
}

// PublishJSON publishes a persistent JSON message.
func (c *Client) PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.publish(ctx, exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Body:         body,
		Timestamp:    time.Now(),
	})
}

func (c *Client) publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
}
