// Package rules contains the built-in fraud rules. Each rule is constructed
// with its business parameters and a fixed risk score; defaults for both live
// in the service configuration.
package rules

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fraudengine/internal/contracts"
	"fraudengine/internal/fraud"
	"fraudengine/internal/fraud/datarequest"
)

// HighAmountRule triggers when the transaction amount strictly exceeds a
// threshold. It needs no external data.
type HighAmountRule struct {
	threshold decimal.Decimal
	riskScore decimal.Decimal
}

func NewHighAmountRule(threshold, riskScore decimal.Decimal) HighAmountRule {
	return HighAmountRule{threshold: threshold, riskScore: riskScore}
}

func (HighAmountRule) Name() string { return "HighAmountRule" }

func (HighAmountRule) DataNeeds(contracts.TransactionReceived) []datarequest.Descriptor {
	return nil
}

func (r HighAmountRule) Evaluate(_ context.Context, ectx *fraud.Context, _ *datarequest.Registry) (fraud.EvaluationResult, error) {
	amount := ectx.Transaction.Amount
	if amount.GreaterThan(r.threshold) {
		return fraud.Triggered(
			r.Name(),
			r.riskScore,
			fmt.Sprintf("Transaction amount %s exceeds threshold %s", amount, r.threshold),
		), nil
	}
	return fraud.NotTriggered(r.Name()), nil
}
