// Package application binds one inbound transaction to one rule pipeline run
// and persists the verdict.
package application

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"fraudengine/internal/contracts"
	"fraudengine/internal/evaluation/domain"
	"fraudengine/internal/fraud"
	"fraudengine/internal/fraud/datarequest"
	"fraudengine/internal/pkg/logger"
	"fraudengine/internal/pkg/metrics"
)

// EvaluationService runs the pipeline for a transaction and appends the
// resulting FraudCheck. It carries no retry logic of its own: at-least-once
// delivery is the messaging layer's concern.
type EvaluationService struct {
	pipeline *fraud.Pipeline
	checks   domain.FraudCheckRepository
	data     *datarequest.Registry
}

func NewEvaluationService(pipeline *fraud.Pipeline, checks domain.FraudCheckRepository, data *datarequest.Registry) *EvaluationService {
	return &EvaluationService{pipeline: pipeline, checks: checks, data: data}
}

func (s *EvaluationService) Evaluate(ctx context.Context, tx contracts.TransactionReceived) (*domain.FraudCheck, error) {
	ectx := &fraud.Context{Transaction: tx}

	result, err := s.pipeline.Evaluate(ctx, ectx, s.data)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate transaction %s", tx.TransactionID)
	}

	ruleResults := make([]domain.RuleResult, len(result.RuleResults))
	for i, r := range result.RuleResults {
		ruleResults[i] = domain.RuleResult{
			RuleName:  r.RuleName,
			Triggered: r.Triggered,
			RiskScore: r.RiskScore,
			Reason:    r.Reason,
		}
	}

	check := domain.NewFraudCheck(tx.TransactionID, tx.AccountID, result.IsFlagged, result.OverallRiskScore, ruleResults)
	if err := s.checks.Add(ctx, check); err != nil {
		return nil, errors.Wrapf(err, "persist fraud check for transaction %s", tx.TransactionID)
	}

	metrics.Evaluations.WithLabelValues(strconv.FormatBool(check.IsFlagged)).Inc()
	logger.Ctx(ctx).Info().
		Str("transaction_id", tx.TransactionID.String()).
		Bool("flagged", check.IsFlagged).
		Str("risk_score", check.OverallRiskScore.String()).
		Msg("fraud evaluation completed")
	return check, nil
}
