// Package queue publishes lifecycle signals to Kafka for downstream
// consumers: the refund workflow and the notification pipeline.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pagopay/transactions-service/internal/domain"
)

// RefundTriggerMessage asks the refund service to compensate a transaction
// whose gateway authorization succeeded but whose closure did not.
type RefundTriggerMessage struct {
	TransactionID     string    `json:"transaction_id"`
	PaymentTokens     []string  `json:"payment_tokens"`
	Gateway           string    `json:"gateway"`
	AuthorizationCode string    `json:"authorization_code,omitempty"`
	RRN               string    `json:"rrn,omitempty"`
	Reason            string    `json:"reason"`
	RequestedAt       time.Time `json:"requested_at"`
}

// TransactionEventMessage mirrors an appended domain event for external
// consumers.
type TransactionEventMessage struct {
	TransactionID string    `json:"transaction_id"`
	EventType     string    `json:"event_type"`
	Status        string    `json:"status,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type KafkaPublisher struct {
	refundWriter *kafka.Writer
	eventsWriter *kafka.Writer
}

func NewKafkaPublisher(brokers []string, refundTopic, eventsTopic string) *KafkaPublisher {
	return &KafkaPublisher{
		refundWriter: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    refundTopic,
			Balancer: &kafka.LeastBytes{},
		},
		eventsWriter: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    eventsTopic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (k *KafkaPublisher) PublishRefundTrigger(ctx context.Context, msg RefundTriggerMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return k.refundWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.TransactionID),
		Value: value,
		Time:  time.Now(),
	})
}

func (k *KafkaPublisher) PublishTransactionEvent(ctx context.Context, ev domain.Event, status domain.TransactionStatus) error {
	value, err := json.Marshal(TransactionEventMessage{
		TransactionID: string(ev.TransactionID()),
		EventType:     string(ev.EventType()),
		Status:        string(status),
		OccurredAt:    ev.OccurredAt(),
	})
	if err != nil {
		return err
	}

	return k.eventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.TransactionID()),
		Value: value,
		Time:  time.Now(),
	})
}

func (k *KafkaPublisher) Close() error {
	if err := k.refundWriter.Close(); err != nil {
		return err
	}
	return k.eventsWriter.Close()
}
