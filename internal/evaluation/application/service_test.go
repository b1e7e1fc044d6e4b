package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"fraudengine/internal/contracts"
	"fraudengine/internal/evaluation/domain"
	"fraudengine/internal/fraud"
	"fraudengine/internal/fraud/datarequest"
	"fraudengine/internal/fraud/rules"
)

type fakeCheckRepository struct {
	added  []*domain.FraudCheck
	addErr error
}

func (r *fakeCheckRepository) Add(_ context.Context, check *domain.FraudCheck) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.added = append(r.added, check)
	return nil
}

func testPipeline() *fraud.Pipeline {
	return fraud.NewPipeline([]fraud.Rule{
		rules.NewHighAmountRule(decimal.NewFromInt(10000), decimal.NewFromFloat(0.7)),
		rules.NewForeignCountryRule("RSA", decimal.NewFromFloat(0.6)),
	})
}

func receivedTransaction(amount float64, country string) contracts.TransactionReceived {
	return contracts.TransactionReceived{
		TransactionID: uuid.New(),
		AccountID:     uuid.New(),
		Amount:        decimal.NewFromFloat(amount),
		MerchantID:    uuid.New(),
		Currency:      "ZAR",
		Timestamp:     time.Now().UTC(),
		Metadata:      map[string]string{"Country": country},
	}
}

func TestEvaluatePersistsFlaggedCheck(t *testing.T) {
	checks := &fakeCheckRepository{}
	service := NewEvaluationService(testPipeline(), checks, datarequest.NewRegistry())

	tx := receivedTransaction(15000, "USA")
	check, err := service.Evaluate(context.Background(), tx)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if !check.IsFlagged {
		t.Error("IsFlagged = false, want true")
	}
	if want := decimal.NewFromFloat(0.65); !check.OverallRiskScore.Equal(want) {
		t.Errorf("OverallRiskScore = %s, want %s", check.OverallRiskScore, want)
	}
	if check.TransactionID != tx.TransactionID || check.AccountID != tx.AccountID {
		t.Error("check does not mirror the transaction's ids")
	}
	if len(check.RuleResults) != 2 {
		t.Fatalf("RuleResults len = %d, want 2", len(check.RuleResults))
	}

	if len(checks.added) != 1 || checks.added[0] != check {
		t.Fatal("check not persisted through the repository")
	}
}

func TestEvaluateCleanTransaction(t *testing.T) {
	checks := &fakeCheckRepository{}
	service := NewEvaluationService(testPipeline(), checks, datarequest.NewRegistry())

	check, err := service.Evaluate(context.Background(), receivedTransaction(50, "RSA"))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if check.IsFlagged {
		t.Error("IsFlagged = true, want false")
	}
	if !check.OverallRiskScore.IsZero() {
		t.Errorf("OverallRiskScore = %s, want 0", check.OverallRiskScore)
	}
	if len(checks.added) != 1 {
		t.Error("clean checks must still be persisted")
	}
}

func TestEvaluateRepositoryFailure(t *testing.T) {
	checks := &fakeCheckRepository{addErr: errors.New("insert failed")}
	service := NewEvaluationService(testPipeline(), checks, datarequest.NewRegistry())

	if _, err := service.Evaluate(context.Background(), receivedTransaction(50, "RSA")); err == nil {
		t.Fatal("Evaluate() succeeded, want persistence error")
	}
}

func TestEvaluateMissingDataHandlerFails(t *testing.T) {
	pipeline := fraud.NewPipeline([]fraud.Rule{
		rules.NewVelocityRule(10, time.Hour, decimal.NewFromFloat(0.8)),
	})
	service := NewEvaluationService(pipeline, &fakeCheckRepository{}, datarequest.NewRegistry())

	_, err := service.Evaluate(context.Background(), receivedTransaction(50, "RSA"))
	if !errors.Is(err, datarequest.ErrNoHandler) {
		t.Fatalf("Evaluate() error = %v, want ErrNoHandler", err)
	}
}
