package events

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/pkg/rabbitmq"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type amqpClient interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
	Close() error
}

// AMQPPublisher publishes envelopes to the RabbitMQ topic exchange, one message per call.
// The topic is used as the routing key.
type AMQPPublisher struct {
	client amqpClient
}

func NewAMQPPublisher(client *rabbitmq.Client) *AMQPPublisher {
	return &AMQPPublisher{client: client}
}

func (p *AMQPPublisher) Publish(ctx context.Context, topic, _ string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return p.client.Publish(ctx, topic, env.EventID, body)
}

func (p *AMQPPublisher) Close() error { return p.client.Close() }

// AuditHandler logs every received order event. Undecodable bodies are rejected.
func AuditHandler(log zerolog.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var env Envelope
		if err := json.Unmarshal(msg.Body, &env); err != nil {
			return fmt.Errorf("invalid event envelope: %w", err)
		}
		log.Info().
			Str("event_id", env.EventID).
			Str("event_type", env.EventType).
			Str("correlation_id", env.CorrelationID).
			Str("routing_key", msg.RoutingKey).
			RawJSON("payload", env.Payload).
			Msg("order event received")
		return nil
	}
}
