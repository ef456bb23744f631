package amqp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// Event is the envelope published for every domain event.
type Event struct {
	Type       string    `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher sends events to a topic exchange, routed by event type.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *Publisher) Publish(_ context.Context, eventType string, payload any) error {
	body, err := Encode(eventType, payload, time.Now())
	if err != nil {
		return err
	}

	// amqp.Channel is not safe for concurrent publishes
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         eventType,
			Body:         body,
		},
	)
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Encode renders the JSON body of an event.
func Encode(eventType string, payload any, at time.Time) ([]byte, error) {
	return json.Marshal(Event{Type: eventType, Payload: payload, OccurredAt: at.UTC()})
}
