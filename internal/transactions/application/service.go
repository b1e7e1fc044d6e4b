// Package application implements the ingestion commands: idempotent
// transaction creation with an atomic outbox write, and lookup by id.
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"fraudengine/internal/pkg/logger"
	"fraudengine/internal/pkg/metrics"
	"fraudengine/internal/transactions/domain"
)

type TransactionService struct {
	uow          domain.UnitOfWork
	transactions domain.TransactionRepository
}

func NewTransactionService(uow domain.UnitOfWork, transactions domain.TransactionRepository) *TransactionService {
	return &TransactionService{uow: uow, transactions: transactions}
}

// Create ingests a transaction. Re-submission with a previously seen external
// id returns the prior transaction id without creating a new row or a new
// outbox event. The transaction and its outbox row commit atomically: on any
// failure neither survives.
func (s *TransactionService) Create(ctx context.Context, req CreateTransactionRequest) (uuid.UUID, error) {
	if err := req.Validate(time.Now().UTC()); err != nil {
		return uuid.Nil, err
	}

	existing, err := s.transactions.FindByExternalID(ctx, req.ExternalID)
	switch {
	case err == nil:
		logger.Ctx(ctx).Info().
			Str("external_id", req.ExternalID).
			Str("transaction_id", existing.ID.String()).
			Msg("transaction already exists, returning prior id")
		metrics.TransactionsReceived.WithLabelValues("duplicate").Inc()
		return existing.ID, nil
	case !errors.Is(err, domain.ErrNotFound):
		return uuid.Nil, errors.Wrap(err, "lookup by external id")
	}

	tx, events := domain.NewTransaction(
		req.AccountID,
		req.Amount,
		req.MerchantID,
		req.Currency,
		req.Timestamp,
		req.ExternalID,
		req.Metadata,
	)

	err = s.uow.Execute(ctx, func(repos domain.Repos) error {
		if err := repos.Transactions.Add(ctx, tx); err != nil {
			return err
		}
		for _, event := range events {
			msg, err := domain.NewOutboxMessage(event)
			if err != nil {
				return err
			}
			if err := repos.Outbox.Add(ctx, &msg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("external_id", req.ExternalID).Msg("failed to persist transaction")
		return uuid.Nil, errors.Wrap(err, "persist transaction")
	}

	metrics.TransactionsReceived.WithLabelValues("new").Inc()
	logger.Ctx(ctx).Info().
		Str("transaction_id", tx.ID.String()).
		Str("account_id", tx.AccountID.String()).
		Msg("transaction created")
	return tx.ID, nil
}

// Get returns a transaction by id; domain.ErrNotFound when it does not exist.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.transactions.FindByID(ctx, id)
}
