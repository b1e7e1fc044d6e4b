// Package fraud holds the rule-evaluation core: the rule contract, the
// composite pipeline that runs rules and aggregates risk, and the
// specification filter over candidate results.
package fraud

import (
	"context"

	"github.com/shopspring/decimal"

	"fraudengine/internal/contracts"
	"fraudengine/internal/fraud/datarequest"
)

// Context carries everything a rule may inspect during one evaluation. A
// single Context instance is shared by every rule in a pipeline run and is not
// safe for concurrent use.
type Context struct {
	Transaction contracts.TransactionReceived
}

// EvaluationResult is one rule's verdict. It is transient: built fresh per
// evaluation and translated into a persisted rule result afterwards.
type EvaluationResult struct {
	RuleName  string
	Triggered bool
	RiskScore decimal.Decimal
	Reason    string
}

// Triggered builds a triggered result. The reason should embed the concrete
// values that caused the trigger so operators can audit without recomputing.
func Triggered(ruleName string, riskScore decimal.Decimal, reason string) EvaluationResult {
	return EvaluationResult{
		RuleName:  ruleName,
		Triggered: true,
		RiskScore: riskScore,
		Reason:    reason,
	}
}

// NotTriggered builds a clean result for a rule that did not fire.
func NotTriggered(ruleName string) EvaluationResult {
	return EvaluationResult{
		RuleName: ruleName,
		Reason:   "Rule did not trigger",
	}
}

// Rule is the contract every fraud rule implements. New rules plug into the
// system by implementing this interface and being added to the pipeline.
type Rule interface {
	// Name identifies the rule in results and reasons.
	Name() string

	// DataNeeds declares the data requests this rule will resolve during
	// Evaluate. It may be empty: rules that only look at the transaction's
	// own fields have no external needs. Callers may use the declarations
	// to pre-warm data, but Evaluate re-derives its requests itself.
	DataNeeds(tx contracts.TransactionReceived) []datarequest.Descriptor

	// Evaluate runs the rule against the shared context, resolving any
	// declared data needs through the registry.
	Evaluate(ctx context.Context, ectx *Context, data *datarequest.Registry) (EvaluationResult, error)
}

// CheckResult is the aggregate outcome of a pipeline run.
type CheckResult struct {
	IsFlagged        bool
	OverallRiskScore decimal.Decimal
	RuleResults      []EvaluationResult
}
