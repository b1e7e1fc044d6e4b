package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fraudengine/internal/pkg/logger"
)

const defaultConsumeBackoff = 5 * time.Second

// KafkaReader is the slice of *kafka.Reader the consumer needs.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one consumed message. Returning nil acknowledges the
// message; anything the handler wants dead-lettered it must route itself
// before returning nil. A non-nil error stops the loop without committing.
type Handler func(ctx context.Context, msg kafka.Message) error

// Consumer is a single-threaded poll loop over one topic. Broker-level
// consume errors back off and retry without committing; the offset is
// committed only after the handler returns nil; cancellation unwinds without
// committing.
type Consumer struct {
	reader  KafkaReader
	backoff time.Duration
	tracer  trace.Tracer
}

type ConsumerOption func(*Consumer)

// WithConsumeBackoff sets the fixed delay after a broker-level consume error.
func WithConsumeBackoff(d time.Duration) ConsumerOption {
	return func(c *Consumer) { c.backoff = d }
}

func NewConsumer(reader KafkaReader, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:  reader,
		backoff: defaultConsumeBackoff,
		tracer:  otel.Tracer("fraudengine/mq"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume blocks, polling one message at a time until ctx is cancelled or the
// handler fails.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Ctx(ctx).Info().Msg("🛑 consumer shutting down")
				return ctx.Err()
			}
			logger.Ctx(ctx).Error().Err(err).Dur("backoff", c.backoff).Msg("could not fetch message")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}

		if err := c.handle(ctx, msg, handler); err != nil {
			return errors.Wrapf(err, "handler failed for topic %s", msg.Topic)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Ctx(ctx).Error().Err(err).Str("topic", msg.Topic).Msg("failed to commit offset")
		}
	}
}

func (c *Consumer) handle(parentCtx context.Context, msg kafka.Message, handler Handler) error {
	carrier := KafkaHeaderCarrier(msg.Headers)
	ctx := otel.GetTextMapPropagator().Extract(parentCtx, &carrier)

	ctx, span := c.tracer.Start(ctx, "kafka.consume."+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		))
	defer span.End()

	if err := handler(ctx, msg); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Decode unmarshals a consumed message into the caller's declared type.
func Decode[T any](msg kafka.Message) (T, error) {
	var out T
	if err := json.Unmarshal(msg.Value, &out); err != nil {
		return out, errors.Wrapf(err, "decode message from topic %s", msg.Topic)
	}
	return out, nil
}
