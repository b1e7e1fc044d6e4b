package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"fraudengine/internal/contracts"
	"fraudengine/internal/pkg/logger"
	"fraudengine/internal/pkg/metrics"
)

const (
	defaultMaxAttempts = 3
	defaultBaseBackoff = 2 * time.Second
)

// KafkaWriter is the slice of *kafka.Writer the producer needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Producer publishes messages with acks=all, a bounded exponential-backoff
// retry, and a dead-letter envelope once retries are exhausted. A message is
// serialized once per Publish: retries resend the same bytes.
type Producer struct {
	writer      KafkaWriter
	maxAttempts int
	baseBackoff time.Duration
	tracer      trace.Tracer
}

type ProducerOption func(*Producer)

// WithMaxAttempts bounds the number of delivery attempts per message.
func WithMaxAttempts(n int) ProducerOption {
	return func(p *Producer) { p.maxAttempts = n }
}

// WithBaseBackoff sets the delay before the second attempt; it doubles for
// each attempt after that.
func WithBaseBackoff(d time.Duration) ProducerOption {
	return func(p *Producer) { p.baseBackoff = d }
}

func NewProducer(writer KafkaWriter, opts ...ProducerOption) *Producer {
	p := &Producer{
		writer:      writer,
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
		tracer:      otel.Tracer("fraudengine/mq"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends payload to topic. Transient broker errors are retried with
// exponential backoff; when all attempts fail the payload is wrapped in a
// dead-letter envelope and published to the dead-letter topic instead, which
// counts as handled. Only a failed dead-letter publish returns an error: at
// that point the message is lost and the caller must treat it as critical.
// Publishes already targeting the dead-letter topic are never re-enveloped;
// exhaustion there surfaces as an error.
func (p *Producer) Publish(ctx context.Context, topic string, key, payload []byte) error {
	ctx, span := p.tracer.Start(ctx, "kafka.produce."+topic, trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	msg := kafka.Message{Topic: topic, Key: key, Value: payload}
	carrier := KafkaHeaderCarrier(msg.Headers)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	msg.Headers = carrier

	var lastErr error
	backoff := p.baseBackoff
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		lastErr = p.writer.WriteMessages(ctx, msg)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return errors.Wrapf(lastErr, "publish to %s cancelled", topic)
		}
		logger.Ctx(ctx).Warn().
			Err(lastErr).
			Str("topic", topic).
			Int("attempt", attempt).
			Int("max_attempts", p.maxAttempts).
			Msg("kafka publish failed")
		if attempt < p.maxAttempts {
			select {
			case <-ctx.Done():
				return errors.Wrapf(lastErr, "publish to %s cancelled", topic)
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	// A message already bound for the dead-letter topic must not be wrapped
	// in a second envelope and resent to the same broken topic.
	if topic == contracts.TopicDeadLetter {
		return errors.Wrapf(lastErr, "publish to %s failed", topic)
	}
	return p.publishDeadLetter(ctx, topic, payload, lastErr)
}

func (p *Producer) publishDeadLetter(ctx context.Context, originalTopic string, payload []byte, cause error) error {
	envelope := contracts.DeadLetter{
		OriginalTopic:   originalTopic,
		OriginalPayload: string(payload),
		FailureReason:   cause.Error(),
		Timestamp:       time.Now().UTC(),
		ExceptionType:   fmt.Sprintf("%T", errors.Cause(cause)),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return errors.Wrap(err, "marshal dead letter envelope")
	}

	msg := kafka.Message{
		Topic: contracts.TopicDeadLetter,
		Key:   []byte(originalTopic),
		Value: body,
		Headers: []kafka.Header{
			{Key: HeaderOriginalTopic, Value: []byte(originalTopic)},
			{Key: HeaderFailureReason, Value: []byte(cause.Error())},
			{Key: HeaderTimestamp, Value: []byte(envelope.Timestamp.Format(time.RFC3339Nano))},
		},
	}

	if werr := p.writer.WriteMessages(ctx, msg); werr != nil {
		logger.Ctx(ctx).Error().
			Err(werr).
			Str("original_topic", originalTopic).
			Str("payload", string(payload)).
			Msg("🚨 CRITICAL: dead letter publish failed, message lost")
		return errors.Wrapf(werr, "dead letter publish failed for topic %s", originalTopic)
	}

	metrics.DeadLetters.WithLabelValues(originalTopic).Inc()
	logger.Ctx(ctx).Warn().
		Err(cause).
		Str("original_topic", originalTopic).
		Msg("message routed to dead letter topic after exhausted retries")
	return nil
}

// PublishJSON marshals message once and publishes it via Publish.
func PublishJSON[T any](ctx context.Context, p *Producer, topic string, key []byte, message T) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return errors.Wrapf(err, "marshal message for topic %s", topic)
	}
	return p.Publish(ctx, topic, key, payload)
}
