package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// OutboxMessage is a pending event row. Created in the same transaction as
// the business write; only the publisher sets ProcessedAt; rows are never
// deleted here (retention is handled elsewhere).
type OutboxMessage struct {
	ID          uuid.UUID
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewOutboxMessage serializes a domain event into an outbox row.
func NewOutboxMessage(event Event) (OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxMessage{}, errors.Wrapf(err, "marshal %s", event.EventType())
	}
	return OutboxMessage{
		ID:        uuid.New(),
		EventType: event.EventType(),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// OutboxRepository persists and drains outbox rows.
type OutboxRepository interface {
	Add(ctx context.Context, msg *OutboxMessage) error
	// FetchUnprocessed returns up to limit unprocessed rows, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]OutboxMessage, error)
	// MarkProcessed stamps the given rows with the processed time in one
	// write.
	MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
