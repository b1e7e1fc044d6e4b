package infrastructure

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"fraudengine/internal/contracts"
	"fraudengine/internal/pkg/logger"
	"fraudengine/internal/pkg/metrics"
	"fraudengine/internal/transactions/domain"
)

const (
	defaultPublishInterval = 15 * time.Second
	defaultBatchSize       = 100
)

// EventPublisher is the slice of the messaging producer the publisher needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key, payload []byte) error
}

// OutboxPublisher drains pending outbox rows to the transport. It is a single
// long-lived loop that sleeps for the interval after each batch completes, so
// ticks can never overlap. Processed marks are saved once per batch: a crash
// between a publish and the batch save republishes on the next tick, which is
// why consumers must tolerate duplicates.
type OutboxPublisher struct {
	outbox    domain.OutboxRepository
	producer  EventPublisher
	interval  time.Duration
	batchSize int
}

func NewOutboxPublisher(outbox domain.OutboxRepository, producer EventPublisher, interval time.Duration, batchSize int) *OutboxPublisher {
	if interval <= 0 {
		interval = defaultPublishInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &OutboxPublisher{
		outbox:    outbox,
		producer:  producer,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start blocks until ctx is cancelled.
func (p *OutboxPublisher) Start(ctx context.Context) error {
	logger.Ctx(ctx).Info().
		Dur("interval", p.interval).
		Int("batch_size", p.batchSize).
		Msg("✅ outbox publisher started")

	for {
		if err := p.publishBatch(ctx); err != nil && ctx.Err() == nil {
			logger.Ctx(ctx).Error().Err(err).Msg("outbox batch failed")
		}

		select {
		case <-ctx.Done():
			logger.Ctx(ctx).Info().Msg("🛑 outbox publisher stopped")
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

// publishBatch drains one batch. A publish failure for one message is logged
// and the row stays unprocessed for the next tick; it does not abort the rest
// of the batch. Cancellation unwinds before the batch save so no row is
// marked processed.
func (p *OutboxPublisher) publishBatch(ctx context.Context) error {
	messages, err := p.outbox.FetchUnprocessed(ctx, p.batchSize)
	if err != nil {
		return errors.Wrap(err, "fetch unprocessed outbox messages")
	}
	if len(messages) == 0 {
		return nil
	}

	processed := make([]uuid.UUID, 0, len(messages))
	for i := range messages {
		if ctx.Err() != nil {
			break
		}
		msg := &messages[i]

		topic := contracts.TopicForEventType(msg.EventType)
		if topic == contracts.TopicDeadLetter {
			logger.Ctx(ctx).Warn().
				Str("message_id", msg.ID.String()).
				Str("event_type", msg.EventType).
				Msg("unknown outbox event type, routing to dead letter topic")
		}

		if err := p.producer.Publish(ctx, topic, []byte(msg.ID.String()), msg.Payload); err != nil {
			logger.Ctx(ctx).Error().
				Err(err).
				Str("message_id", msg.ID.String()).
				Str("topic", topic).
				Msg("failed to publish outbox message")
			continue
		}

		metrics.OutboxPublished.Inc()
		processed = append(processed, msg.ID)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(processed) == 0 {
		return nil
	}
	if err := p.outbox.MarkProcessed(ctx, processed, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "mark outbox messages processed")
	}
	return nil
}
