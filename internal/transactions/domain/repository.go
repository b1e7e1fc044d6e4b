package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a lookup matches no transaction.
var ErrNotFound = errors.New("transaction not found")

// TransactionRepository persists the transaction aggregate. Implemented by
// the infrastructure layer.
type TransactionRepository interface {
	Add(ctx context.Context, tx *Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// FindByExternalID backs the idempotency check; returns ErrNotFound when
	// the external id has not been seen.
	FindByExternalID(ctx context.Context, externalID string) (*Transaction, error)
}

// Repos bundles the repositories that participate in one unit of work.
type Repos struct {
	Transactions TransactionRepository
	Outbox       OutboxRepository
}

// UnitOfWork runs fn inside a single atomic transaction: every write made
// through the provided repositories commits together or not at all.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos Repos) error) error
}
