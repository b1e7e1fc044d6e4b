package contracts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionReceived is the wire message carried on the transaction.received
// topic. It is the only thing the evaluation side knows about an ingested
// transaction.
type TransactionReceived struct {
	TransactionID uuid.UUID         `json:"transactionId"`
	AccountID     uuid.UUID         `json:"accountId"`
	Amount        decimal.Decimal   `json:"amount"`
	MerchantID    uuid.UUID         `json:"merchantId"`
	Currency      string            `json:"currency"`
	Timestamp     time.Time         `json:"timestamp"`
	Metadata      map[string]string `json:"metadata"`
}

// FraudAssessed is the flattened projection of a fraud check carried on the
// fraud.assessed topic.
type FraudAssessed struct {
	FraudCheckID     uuid.UUID       `json:"fraudCheckId"`
	TransactionID    uuid.UUID       `json:"transactionId"`
	IsFlagged        bool            `json:"isFlagged"`
	OverallRiskScore decimal.Decimal `json:"overallRiskScore"`
	RuleResults      []RuleResult    `json:"ruleResults"`
}

// RuleResult is one rule's outcome inside a FraudAssessed message.
type RuleResult struct {
	RuleName  string          `json:"ruleName"`
	Triggered bool            `json:"triggered"`
	RiskScore decimal.Decimal `json:"riskScore"`
	Reason    string          `json:"reason"`
}

// DeadLetter wraps a message that could not be delivered or processed,
// annotated with enough failure context to audit it later.
type DeadLetter struct {
	OriginalTopic   string    `json:"originalTopic"`
	OriginalPayload string    `json:"originalPayload"`
	FailureReason   string    `json:"failureReason"`
	Timestamp       time.Time `json:"timestamp"`
	ExceptionType   string    `json:"exceptionType"`
}
