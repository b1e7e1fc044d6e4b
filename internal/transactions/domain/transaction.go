// Package domain holds the ingestion boundary's aggregate and persistence
// contracts.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is the ingested financial transaction. It is immutable once
// created.
type Transaction struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	Amount     decimal.Decimal
	MerchantID uuid.UUID
	Currency   string
	Timestamp  time.Time
	// ExternalID is the client-supplied idempotency key; globally unique.
	ExternalID string
	Metadata   map[string]string
	CreatedAt  time.Time
}

// NewTransaction builds the aggregate and returns the domain events raised at
// creation. The caller owns persisting both the entity and its events in one
// unit of work; there is no mutable event buffer to clear.
func NewTransaction(
	accountID uuid.UUID,
	amount decimal.Decimal,
	merchantID uuid.UUID,
	currency string,
	timestamp time.Time,
	externalID string,
	metadata map[string]string,
) (*Transaction, []Event) {
	if metadata == nil {
		metadata = map[string]string{}
	}

	tx := &Transaction{
		ID:         uuid.New(),
		AccountID:  accountID,
		Amount:     amount,
		MerchantID: merchantID,
		Currency:   currency,
		Timestamp:  timestamp,
		ExternalID: externalID,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}

	event := TransactionReceivedEvent{
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Amount:        tx.Amount,
		MerchantID:    tx.MerchantID,
		Currency:      tx.Currency,
		Timestamp:     tx.Timestamp,
		Metadata:      tx.Metadata,
	}

	return tx, []Event{event}
}
