package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "counseling.refresh"
	ExchangeKind = "fanout"
)

// Envelope is the wire form of a revalidation signal between instances.
type Envelope struct {
	Origin string   `json:"origin"`
	Paths  []string `json:"paths"`
}

func encodeEnvelope(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEnvelope(body []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(body, &e); err != nil {
		return Envelope{}, err
	}
	if len(e.Paths) == 0 {
		return Envelope{}, errors.New("envelope has no paths")
	}
	return e, nil
}

// Publisher forwards revalidation signals to every instance through RabbitMQ.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	origin  string
	mu      sync.Mutex
}

func NewPublisher(url, origin string) (*Publisher, error) {
	conn, ch, err := dialExchange(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch, origin: origin}, nil
}

func (p *Publisher) Revalidate(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	if err := p.Publish(ctx, paths); err != nil {
		log.Printf("refresh_publish_error paths=%v error=%q", paths, err.Error())
	}
}

func (p *Publisher) Publish(ctx context.Context, paths []string) error {
	body, err := encodeEnvelope(Envelope{Origin: p.origin, Paths: paths})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(
		ctx,
		ExchangeName,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Consumer relays signals published by any instance into a local target, usually the Hub.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewConsumer binds a queue to the exchange. An empty queueName declares a
// server-named exclusive queue that disappears with the connection.
func NewConsumer(url, queueName string) (*Consumer, error) {
	conn, ch, err := dialExchange(url)
	if err != nil {
		return nil, err
	}

	durable, autoDelete, exclusive := true, false, false
	if queueName == "" {
		durable, autoDelete, exclusive = false, true, true
	}
	q, err := ch.QueueDeclare(queueName, durable, autoDelete, exclusive, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", ExchangeName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq queue bind: %w", err)
	}

	return &Consumer{conn: conn, channel: ch, queue: q.Name}, nil
}

// Run consumes until ctx is done or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context, target Revalidator) error {
	msgs, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}
	log.Printf("[RabbitMQ] consuming from queue: %s", c.queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			relay(ctx, msg.Body, msg, target)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func relay(ctx context.Context, body []byte, ack acknowledger, target Revalidator) {
	env, err := decodeEnvelope(body)
	if err != nil {
		log.Printf("refresh_consume_error error=%q", err.Error())
		// malformed payloads are dropped, never requeued
		_ = ack.Nack(false, false)
		return
	}
	target.Revalidate(ctx, env.Paths...)
	_ = ack.Ack(false)
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

func dialExchange(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	return conn, ch, nil
}
