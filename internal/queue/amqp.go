// internal/queue/amqp.go
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// AMQPQueue publishes jobs to RabbitMQ. It is publish-only: consumption
// happens in the dedicated delivery worker (cmd/worker), which owns its own
// connection and ack/requeue policy.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialAMQP connects to RabbitMQ and declares the outreach_sends queue.
func DialAMQP(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		TopicOutreachSends,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch}, nil
}

// Publish marshals the payload as JSON onto the named queue.
func (q *AMQPQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return q.ch.Publish(
		"",    // default exchange
		topic, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Subscribe is not supported on the publisher side; the delivery worker
// consumes directly with its own channel.
func (q *AMQPQueue) Subscribe(string, func(payload any) error) error {
	return fmt.Errorf("amqp queue is publish-only; run cmd/worker to consume")
}

// Close releases the channel and connection.
func (q *AMQPQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}
