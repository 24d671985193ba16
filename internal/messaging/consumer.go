package messaging

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var consumerTracer = otel.Tracer("tavola/messaging/consumer")

// Handler processes one message payload. A non-nil error stops the
// consume loop before the offset is committed.
type Handler func(ctx context.Context, payload []byte) error

// Consumer reads one topic as part of a consumer group.
type Consumer struct {
	topic   string
	groupID string
	reader  *kafka.Reader
}

type ConsumerOption func(*kafka.ReaderConfig)

func WithStartOffset(offset int64) ConsumerOption {
	return func(cfg *kafka.ReaderConfig) {
		cfg.StartOffset = offset
	}
}

func NewConsumer(brokers []string, topic, groupID string, opts ...ConsumerOption) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer{
		topic:   topic,
		groupID: groupID,
		reader:  kafka.NewReader(cfg),
	}
}

// Consume fetches and handles messages until ctx is cancelled or handler
// fails. The offset commits only after handler returns nil, so a crashed
// consumer re-reads anything it had not finished processing.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return fmt.Errorf("fetch from %s: %w", c.topic, err)
		}

		if err := c.handle(ctx, msg, handler); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit %s offset: %w", c.topic, err)
		}
	}
}

// handle runs the handler inside a consumer span linked to the producer
// span via the trace context in the message headers.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler Handler) error {
	ctx = otel.GetTextMapPropagator().Extract(ctx, NewMessageCarrier(&msg))
	ctx, span := consumerTracer.Start(ctx, "process "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(c.processAttrs(msg)...),
	)
	defer span.End()

	if err := handler(ctx, msg.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Consumer) processAttrs(msg kafka.Message) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.MessagingSystemKafka,
		semconv.MessagingOperationName("process"),
		semconv.MessagingOperationTypeDeliver,
		semconv.MessagingDestinationName(c.topic),
		semconv.MessagingKafkaConsumerGroup(c.groupID),
		semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
		semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
		semconv.MessagingKafkaMessageKey(string(msg.Key)),
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
