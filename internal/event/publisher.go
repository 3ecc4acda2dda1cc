// Package event publishes quiz domain events to RabbitMQ.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"eduquiz-service/internal/domain"
	"github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "quiz.events"

	AttemptCompleted = "attempt.completed"
)

// Envelope is the JSON body of every published event.
type Envelope struct {
	Type       string      `json:"type"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends events to a topic exchange. A publisher built from an
// empty URL is disabled and drops every event.
type Publisher struct {
	conn     *amqp091.Connection
	channel  channel
	exchange string
	enabled  bool
	now      func() time.Time
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if url == "" {
		log.Println("amqp url is empty, event publishing is disabled")
		return &Publisher{enabled: false, now: time.Now}, nil
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		enabled:  true,
		now:      time.Now,
	}, nil
}

// PublishAttemptCompleted announces a graded attempt.
func (p *Publisher) PublishAttemptCompleted(ctx context.Context, result domain.Result) error {
	return p.publish(ctx, AttemptCompleted, result)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	if !p.enabled {
		return nil
	}

	occurred := p.now().UTC()
	body, err := json.Marshal(Envelope{Type: routingKey, Payload: payload, OccurredAt: occurred})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    occurred,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.Printf("close amqp channel: %v", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close amqp connection: %w", err)
		}
	}
	return nil
}
