package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"fraudengine/internal/contracts"
	"fraudengine/internal/fraud"
	"fraudengine/internal/fraud/datarequest"
)

// VelocityRule triggers when an account's recent transaction count reaches a
// limit within a lookback window. It declares exactly one data request and
// re-derives the identical request when evaluating.
type VelocityRule struct {
	maxTransactions int
	window          time.Duration
	riskScore       decimal.Decimal
}

func NewVelocityRule(maxTransactions int, window time.Duration, riskScore decimal.Decimal) VelocityRule {
	return VelocityRule{maxTransactions: maxTransactions, window: window, riskScore: riskScore}
}

func (VelocityRule) Name() string { return "VelocityRule" }

func (r VelocityRule) DataNeeds(tx contracts.TransactionReceived) []datarequest.Descriptor {
	return []datarequest.Descriptor{
		datarequest.RecentTransactionCountFromTransaction(tx, r.window),
	}
}

func (r VelocityRule) Evaluate(ctx context.Context, ectx *fraud.Context, data *datarequest.Registry) (fraud.EvaluationResult, error) {
	request := datarequest.RecentTransactionCountFromTransaction(ectx.Transaction, r.window)
	count, err := datarequest.Resolve[int](ctx, data, request)
	if err != nil {
		return fraud.EvaluationResult{}, errors.Wrap(err, "resolve recent transaction count")
	}

	if count >= r.maxTransactions {
		return fraud.Triggered(
			r.Name(),
			r.riskScore,
			fmt.Sprintf("Account %s has %d transactions in the last %s, exceeding limit of %d",
				ectx.Transaction.AccountID, count, r.window, r.maxTransactions),
		), nil
	}
	return fraud.NotTriggered(r.Name()), nil
}
