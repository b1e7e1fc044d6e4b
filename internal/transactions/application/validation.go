package application

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation limits. Validation runs before the unit of work opens so invalid
// input never reaches the transaction boundary.
const (
	maxExternalIDLength    = 255
	maxMetadataPairs       = 50
	maxMetadataKeyLength   = 100
	maxMetadataValueLength = 1000
	maxTimestampSkew       = 5 * time.Minute
	maxTimestampAge        = 10 * 365 * 24 * time.Hour
)

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	maxAmount       = decimal.RequireFromString("999999999999999.99")
)

// FieldError is a single validation failure, surfaced to the caller verbatim.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every failed field check.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// CreateTransactionRequest carries the ingestion command.
type CreateTransactionRequest struct {
	AccountID  uuid.UUID         `json:"accountId"`
	Amount     decimal.Decimal   `json:"amount"`
	MerchantID uuid.UUID         `json:"merchantId"`
	Currency   string            `json:"currency"`
	Timestamp  time.Time         `json:"timestamp"`
	ExternalID string            `json:"externalId"`
	Metadata   map[string]string `json:"metadata"`
}

// Validate checks every field constraint against the given clock reading and
// returns all failures at once.
func (r CreateTransactionRequest) Validate(now time.Time) error {
	var errs ValidationErrors

	if r.AccountID == uuid.Nil {
		errs = append(errs, FieldError{"accountId", "account id is required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{"amount", "amount must be greater than zero"})
	} else if r.Amount.GreaterThan(maxAmount) {
		errs = append(errs, FieldError{"amount", "amount exceeds maximum allowed value"})
	}
	if r.MerchantID == uuid.Nil {
		errs = append(errs, FieldError{"merchantId", "merchant id is required"})
	}
	if !currencyPattern.MatchString(r.Currency) {
		errs = append(errs, FieldError{"currency", "currency must be exactly 3 uppercase letters (ISO 4217)"})
	}
	switch {
	case r.Timestamp.IsZero():
		errs = append(errs, FieldError{"timestamp", "timestamp is required"})
	case r.Timestamp.After(now.Add(maxTimestampSkew)):
		errs = append(errs, FieldError{"timestamp", "timestamp cannot be more than 5 minutes in the future"})
	case r.Timestamp.Before(now.Add(-maxTimestampAge)):
		errs = append(errs, FieldError{"timestamp", "timestamp cannot be more than 10 years in the past"})
	}
	switch {
	case r.ExternalID == "":
		errs = append(errs, FieldError{"externalId", "external id is required"})
	case len(r.ExternalID) > maxExternalIDLength:
		errs = append(errs, FieldError{"externalId", "external id cannot exceed 255 characters"})
	}
	if len(r.Metadata) > maxMetadataPairs {
		errs = append(errs, FieldError{"metadata", "metadata cannot contain more than 50 key-value pairs"})
	}
	for k, v := range r.Metadata {
		if len(k) > maxMetadataKeyLength || len(v) > maxMetadataValueLength {
			errs = append(errs, FieldError{"metadata", "metadata keys are limited to 100 characters and values to 1000"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
