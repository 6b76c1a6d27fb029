package queue

import (
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// AMQPConsumer reads review events from a queue bound to the exchange.
type AMQPConsumer struct {
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPConsumer dials url, declares exchange and limits unacked
// deliveries to prefetch.
func NewAMQPConsumer(url, exchange string, prefetch int) (*AMQPConsumer, error) {
	exchange = exchangeName(exchange)
	conn, ch, err := dialExchange(url, exchange)
	if err != nil {
		return nil, err
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("set amqp qos: %w", err)
		}
	}
	return &AMQPConsumer{exchange: exchange, conn: conn, ch: ch}, nil
}

// Consume declares a durable queue, binds it with bindingKey (e.g. review.*)
// and returns its deliveries. Deliveries must be acked by the caller.
func (c *AMQPConsumer) Consume(queueName, bindingKey string) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch == nil {
		return nil, fmt.Errorf("amqp consumer closed")
	}

	q, err := c.ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	if err := c.ch.QueueBind(q.Name, bindingKey, c.exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue %s to %s: %w", q.Name, bindingKey, err)
	}
	deliveries, err := c.ch.Consume(
		q.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", q.Name, err)
	}
	return deliveries, nil
}

// Close stops deliveries and releases the connection.
func (c *AMQPConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
