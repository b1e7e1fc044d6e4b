package fraud

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"fraudengine/internal/contracts"
	"fraudengine/internal/fraud/datarequest"
)

var defaultFlagThreshold = decimal.NewFromFloat(0.5)

// Pipeline composes the evaluation of multiple fraud rules. Rules run
// sequentially in registration order: the shared Context and registry are not
// required to be safe for concurrent use within one evaluation.
type Pipeline struct {
	rules         []Rule
	spec          Specification
	flagThreshold decimal.Decimal
}

// PipelineOption configures optional pipeline behaviour.
type PipelineOption func(*Pipeline)

// WithSpecification installs a filter over candidate results. Filtered-out
// results do not appear in the result list and do not contribute to the
// overall risk score or the flagged decision.
func WithSpecification(spec Specification) PipelineOption {
	return func(p *Pipeline) { p.spec = spec }
}

// WithFlagThreshold overrides the overall-risk threshold at which a
// transaction is flagged. Defaults to 0.5.
func WithFlagThreshold(threshold decimal.Decimal) PipelineOption {
	return func(p *Pipeline) { p.flagThreshold = threshold }
}

func NewPipeline(rules []Rule, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		rules:         rules,
		flagThreshold: defaultFlagThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DataNeeds concatenates every rule's declared needs. Callers can use it to
// pre-warm or batch-fetch data before evaluation; it is not required for
// correctness since rules re-derive their requests lazily in Evaluate.
func (p *Pipeline) DataNeeds(tx contracts.TransactionReceived) []datarequest.Descriptor {
	var needs []datarequest.Descriptor
	for _, rule := range p.rules {
		needs = append(needs, rule.DataNeeds(tx)...)
	}
	return needs
}

// EvaluateAll runs every rule and returns the results that pass the
// specification, or every result when no specification is configured.
func (p *Pipeline) EvaluateAll(ctx context.Context, ectx *Context, data *datarequest.Registry) ([]EvaluationResult, error) {
	results := make([]EvaluationResult, 0, len(p.rules))

	for _, rule := range p.rules {
		result, err := rule.Evaluate(ctx, ectx, data)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %s", rule.Name())
		}
		if p.spec != nil && !p.spec.IsSatisfiedBy(result) {
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

// Evaluate runs EvaluateAll and aggregates: the overall risk score is the
// arithmetic mean over the triggered results that survived the specification
// (zero when none triggered), and the transaction is flagged when that score
// reaches the flag threshold.
func (p *Pipeline) Evaluate(ctx context.Context, ectx *Context, data *datarequest.Registry) (CheckResult, error) {
	results, err := p.EvaluateAll(ctx, ectx, data)
	if err != nil {
		return CheckResult{}, err
	}

	sum := decimal.Zero
	triggered := 0
	for _, r := range results {
		if r.Triggered {
			sum = sum.Add(r.RiskScore)
			triggered++
		}
	}

	overall := decimal.Zero
	if triggered > 0 {
		overall = sum.Div(decimal.NewFromInt(int64(triggered)))
	}

	return CheckResult{
		IsFlagged:        overall.GreaterThanOrEqual(p.flagThreshold),
		OverallRiskScore: overall,
		RuleResults:      results,
	}, nil
}
