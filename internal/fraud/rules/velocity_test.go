package rules

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"fraudengine/internal/contracts"
	"fraudengine/internal/fraud"
	"fraudengine/internal/fraud/datarequest"
)

func velocityRegistry(t *testing.T, count int, err error) *datarequest.Registry {
	t.Helper()
	reg := datarequest.NewRegistry()
	regErr := datarequest.Register(reg, func(context.Context, datarequest.RecentTransactionCountRequest) (int, error) {
		return count, err
	})
	if regErr != nil {
		t.Fatalf("Register() error = %v", regErr)
	}
	return reg
}

func TestVelocityRuleTriggersAtLimit(t *testing.T) {
	accountID := uuid.New()
	rule := NewVelocityRule(10, time.Hour, decimal.NewFromFloat(0.8))
	ectx := &fraud.Context{
		Transaction: contracts.TransactionReceived{
			AccountID: accountID,
			Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	result, err := rule.Evaluate(context.Background(), ectx, velocityRegistry(t, 12, nil))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !result.Triggered {
		t.Fatal("Evaluate() not triggered at count 12 with limit 10")
	}
	if !result.RiskScore.Equal(decimal.NewFromFloat(0.8)) {
		t.Errorf("RiskScore = %s, want 0.8", result.RiskScore)
	}
	for _, fragment := range []string{accountID.String(), "12", "10"} {
		if !strings.Contains(result.Reason, fragment) {
			t.Errorf("Reason = %q, want %q embedded", result.Reason, fragment)
		}
	}
}

func TestVelocityRuleBelowLimit(t *testing.T) {
	rule := NewVelocityRule(10, time.Hour, decimal.NewFromFloat(0.8))
	ectx := &fraud.Context{Transaction: contracts.TransactionReceived{AccountID: uuid.New()}}

	result, err := rule.Evaluate(context.Background(), ectx, velocityRegistry(t, 9, nil))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Triggered {
		t.Fatal("Evaluate() triggered at count 9 with limit 10")
	}
}

func TestVelocityRulePropagatesResolutionError(t *testing.T) {
	rule := NewVelocityRule(10, time.Hour, decimal.NewFromFloat(0.8))
	ectx := &fraud.Context{Transaction: contracts.TransactionReceived{AccountID: uuid.New()}}

	boom := errors.New("history unavailable")
	_, err := rule.Evaluate(context.Background(), ectx, velocityRegistry(t, 0, boom))
	if !errors.Is(err, boom) {
		t.Fatalf("Evaluate() error = %v, want %v", err, boom)
	}
}

func TestVelocityRuleDataNeedsMatchEvaluate(t *testing.T) {
	rule := NewVelocityRule(10, time.Hour, decimal.NewFromFloat(0.8))
	tx := contracts.TransactionReceived{
		AccountID: uuid.New(),
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	needs := rule.DataNeeds(tx)
	if len(needs) != 1 {
		t.Fatalf("DataNeeds() len = %d, want 1", len(needs))
	}
	declared, ok := needs[0].(datarequest.RecentTransactionCountRequest)
	if !ok {
		t.Fatalf("DataNeeds()[0] is %T", needs[0])
	}
	if derived := datarequest.RecentTransactionCountFromTransaction(tx, time.Hour); declared != derived {
		t.Errorf("declared need %+v differs from derived request %+v", declared, derived)
	}
}
