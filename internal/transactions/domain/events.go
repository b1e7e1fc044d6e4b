package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fraudengine/internal/contracts"
)

// Event is a domain event raised by an aggregate. Events become outbox rows
// in the same unit of work that persists the aggregate.
type Event interface {
	EventType() string
}

// TransactionReceivedEvent is raised once when a transaction is created. Its
// JSON shape is the transaction.received wire contract.
type TransactionReceivedEvent struct {
	TransactionID uuid.UUID         `json:"transactionId"`
	AccountID     uuid.UUID         `json:"accountId"`
	Amount        decimal.Decimal   `json:"amount"`
	MerchantID    uuid.UUID         `json:"merchantId"`
	Currency      string            `json:"currency"`
	Timestamp     time.Time         `json:"timestamp"`
	Metadata      map[string]string `json:"metadata"`
}

func (TransactionReceivedEvent) EventType() string {
	return contracts.EventTypeTransactionReceived
}
