package fraud

import "github.com/shopspring/decimal"

// Specification decides whether a candidate rule result is interesting enough
// to count. When a pipeline carries one, results it rejects are excluded from
// both the reported list and the risk aggregation.
type Specification interface {
	IsSatisfiedBy(candidate EvaluationResult) bool
}

// HighRiskSpecification keeps only triggered results at or above a risk
// threshold.
type HighRiskSpecification struct {
	threshold decimal.Decimal
}

func NewHighRiskSpecification(threshold decimal.Decimal) HighRiskSpecification {
	return HighRiskSpecification{threshold: threshold}
}

func (s HighRiskSpecification) IsSatisfiedBy(candidate EvaluationResult) bool {
	return candidate.Triggered && candidate.RiskScore.GreaterThanOrEqual(s.threshold)
}
