package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/rl1809/order-refund/internal/core/domain"
)

const eventTypeHeader = "event_type"

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

func NewKafkaPublisher(log *slog.Logger, producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{log: log, producer: producer, topic: topic}
}

// Publish writes the event keyed by order number so refunds of one order stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.UnitsRefunded) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", domain.UnitsRefundedEventType, err)
	}

	headers := []kafka.Header{{Key: eventTypeHeader, Value: []byte(domain.UnitsRefundedEventType)}}
	headers = injectTraceHeaders(ctx, headers)

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(event.OrderNumber),
		Value:   payload,
		Headers: headers,
	}
	if err := p.producer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("publish failed", "order_number", event.OrderNumber, "err", err)
		return fmt.Errorf("write %s: %w", domain.UnitsRefundedEventType, err)
	}

	p.log.Info("event published", "type", domain.UnitsRefundedEventType, "order_number", event.OrderNumber, "amount", event.Amount)
	return nil
}

func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
