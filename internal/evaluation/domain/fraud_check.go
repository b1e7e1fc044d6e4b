// Package domain holds the evaluation boundary's persisted entities and
// repository contracts.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FraudCheck is the persisted verdict of one pipeline run over one
// transaction. Append-only: created once per evaluation, never updated.
type FraudCheck struct {
	ID               uuid.UUID
	TransactionID    uuid.UUID
	AccountID        uuid.UUID
	IsFlagged        bool
	OverallRiskScore decimal.Decimal
	EvaluatedAt      time.Time
	RuleResults      []RuleResult
}

// RuleResult is one rule's persisted outcome, kept in evaluation order.
type RuleResult struct {
	RuleName  string
	Triggered bool
	RiskScore decimal.Decimal
	Reason    string
}

func NewFraudCheck(transactionID, accountID uuid.UUID, flagged bool, overallRiskScore decimal.Decimal, results []RuleResult) *FraudCheck {
	return &FraudCheck{
		ID:               uuid.New(),
		TransactionID:    transactionID,
		AccountID:        accountID,
		IsFlagged:        flagged,
		OverallRiskScore: overallRiskScore,
		EvaluatedAt:      time.Now().UTC(),
		RuleResults:      results,
	}
}

// FraudCheckRepository persists fraud checks.
type FraudCheckRepository interface {
	Add(ctx context.Context, check *FraudCheck) error
}

// TransactionHistoryRepository answers the velocity rule's data request.
type TransactionHistoryRepository interface {
	RecentTransactionCount(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error)
}
