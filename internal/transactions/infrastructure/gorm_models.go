package infrastructure

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"fraudengine/internal/transactions/domain"
)

// TransactionModel maps the transactions table.
type TransactionModel struct {
	ID         string          `gorm:"type:char(36);primaryKey"`
	AccountID  string          `gorm:"type:char(36);index"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,2)"`
	MerchantID string          `gorm:"type:char(36)"`
	Currency   string          `gorm:"type:char(3)"`
	Timestamp  time.Time
	ExternalID string `gorm:"size:255;uniqueIndex"`
	Metadata   string `gorm:"type:json"`
	CreatedAt  time.Time
}

func (TransactionModel) TableName() string { return "transactions" }

// OutboxMessageModel maps the outbox_messages table. ProcessedAt stays NULL
// until the publisher drains the row.
type OutboxMessageModel struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	EventType   string `gorm:"size:100"`
	Payload     string `gorm:"type:text"`
	CreatedAt   time.Time
	ProcessedAt *time.Time `gorm:"index"`
}

func (OutboxMessageModel) TableName() string { return "outbox_messages" }

func toTransactionModel(tx *domain.Transaction) (TransactionModel, error) {
	metadata, err := json.Marshal(tx.Metadata)
	if err != nil {
		return TransactionModel{}, errors.Wrap(err, "marshal transaction metadata")
	}
	return TransactionModel{
		ID:         tx.ID.String(),
		AccountID:  tx.AccountID.String(),
		Amount:     tx.Amount,
		MerchantID: tx.MerchantID.String(),
		Currency:   tx.Currency,
		Timestamp:  tx.Timestamp,
		ExternalID: tx.ExternalID,
		Metadata:   string(metadata),
		CreatedAt:  tx.CreatedAt,
	}, nil
}

func toDomainTransaction(m *TransactionModel) (*domain.Transaction, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, errors.Wrap(err, "parse transaction id")
	}
	accountID, err := uuid.Parse(m.AccountID)
	if err != nil {
		return nil, errors.Wrap(err, "parse account id")
	}
	merchantID, err := uuid.Parse(m.MerchantID)
	if err != nil {
		return nil, errors.Wrap(err, "parse merchant id")
	}
	metadata := map[string]string{}
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, errors.Wrap(err, "unmarshal transaction metadata")
		}
	}
	return &domain.Transaction{
		ID:         id,
		AccountID:  accountID,
		Amount:     m.Amount,
		MerchantID: merchantID,
		Currency:   m.Currency,
		Timestamp:  m.Timestamp,
		ExternalID: m.ExternalID,
		Metadata:   metadata,
		CreatedAt:  m.CreatedAt,
	}, nil
}

func toOutboxModel(msg *domain.OutboxMessage) OutboxMessageModel {
	return OutboxMessageModel{
		ID:          msg.ID.String(),
		EventType:   msg.EventType,
		Payload:     string(msg.Payload),
		CreatedAt:   msg.CreatedAt,
		ProcessedAt: msg.ProcessedAt,
	}
}

func toDomainOutbox(m *OutboxMessageModel) (domain.OutboxMessage, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.OutboxMessage{}, errors.Wrap(err, "parse outbox message id")
	}
	return domain.OutboxMessage{
		ID:          id,
		EventType:   m.EventType,
		Payload:     []byte(m.Payload),
		CreatedAt:   m.CreatedAt,
		ProcessedAt: m.ProcessedAt,
	}, nil
}
