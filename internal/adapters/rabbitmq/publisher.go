package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/commercegate/ipg-service/internal/domain/ports"
)

// EventsExchange is the topic exchange payment lifecycle events go to.
// Routing keys are payment.captured, payment.declined, payment.cancelled.
const EventsExchange = "payments.events"

const publishTimeout = 3 * time.Second

// Publisher implements ports.EventPublisher on RabbitMQ.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher opens a channel and declares the events exchange so a
// publish never fails due to missing infra.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", EventsExchange, err)
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// Publish sends one payment event with a bounded timeout.
func (p *Publisher) Publish(ctx context.Context, routingKey string, event ports.PaymentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
