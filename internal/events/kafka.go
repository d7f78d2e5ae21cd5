package events

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/pkg/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

type kafkaProducer interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafkago.Header) error
	Close()
	WaitClosed()
}

// KafkaPublisher enqueues envelopes on the async Kafka producer keyed by order id,
// so events for one order stay on one partition.
type KafkaPublisher struct {
	producer kafkaProducer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return p.producer.Publish(ctx, topic, []byte(key), body,
		kafkago.Header{Key: "event_type", Value: []byte(env.EventType)},
		kafkago.Header{Key: "event_id", Value: []byte(env.EventID)},
	)
}

// Close flushes queued messages before returning.
func (p *KafkaPublisher) Close() error {
	p.producer.Close()
	p.producer.WaitClosed()
	return nil
}
