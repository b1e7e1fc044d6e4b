// Package interfaces adapts inbound kafka messages to the evaluation
// application service.
package interfaces

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"fraudengine/internal/contracts"
	"fraudengine/internal/evaluation/application"
	"fraudengine/internal/pkg/logger"
	"fraudengine/internal/pkg/metrics"
	"fraudengine/internal/pkg/mq"
)

// TransactionEventHandler consumes transaction.received, runs the fraud
// pipeline and publishes the verdict. A message that cannot be decoded,
// evaluated or published is shunted to the dead-letter topic once and
// acknowledged; it is never retried from the original topic. An error is
// returned only when the dead-letter topic itself is unreachable.
type TransactionEventHandler struct {
	service  *application.EvaluationService
	producer *mq.Producer
}

func NewTransactionEventHandler(service *application.EvaluationService, producer *mq.Producer) *TransactionEventHandler {
	return &TransactionEventHandler{service: service, producer: producer}
}

// Handle implements mq.Handler.
func (h *TransactionEventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	tx, err := mq.Decode[contracts.TransactionReceived](msg)
	if err != nil {
		// Redelivery cannot fix a malformed payload.
		return h.deadLetter(ctx, msg.Value, err)
	}

	check, err := h.service.Evaluate(ctx, tx)
	if err != nil {
		// Shunted once, not replayed from the original topic.
		return h.deadLetter(ctx, msg.Value, errors.Wrapf(err, "evaluate transaction %s", tx.TransactionID))
	}

	assessed := contracts.FraudAssessed{
		FraudCheckID:     check.ID,
		TransactionID:    check.TransactionID,
		IsFlagged:        check.IsFlagged,
		OverallRiskScore: check.OverallRiskScore,
		RuleResults:      make([]contracts.RuleResult, len(check.RuleResults)),
	}
	for i, r := range check.RuleResults {
		assessed.RuleResults[i] = contracts.RuleResult{
			RuleName:  r.RuleName,
			Triggered: r.Triggered,
			RiskScore: r.RiskScore,
			Reason:    r.Reason,
		}
	}

	// The producer dead-letters the assessment itself once its retries are
	// exhausted; an error here means even the dead-letter topic is down, so
	// let the message redeliver.
	if err := mq.PublishJSON(ctx, h.producer, contracts.TopicFraudAssessed, check.TransactionID[:], assessed); err != nil {
		return errors.Wrapf(err, "publish assessment for transaction %s", tx.TransactionID)
	}
	return nil
}

func (h *TransactionEventHandler) deadLetter(ctx context.Context, payload []byte, cause error) error {
	envelope := contracts.DeadLetter{
		OriginalTopic:   contracts.TopicTransactionReceived,
		OriginalPayload: string(payload),
		FailureReason:   cause.Error(),
		Timestamp:       time.Now().UTC(),
		ExceptionType:   fmt.Sprintf("%T", errors.Cause(cause)),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return errors.Wrap(err, "marshal dead letter envelope")
	}

	if err := h.producer.Publish(ctx, contracts.TopicDeadLetter, []byte(contracts.TopicTransactionReceived), body); err != nil {
		logger.Ctx(ctx).Error().
			Err(err).
			Str("payload", string(payload)).
			Msg("🚨 CRITICAL: dead letter publish failed, message lost")
		return err
	}

	metrics.DeadLetters.WithLabelValues(contracts.TopicTransactionReceived).Inc()
	logger.Ctx(ctx).Warn().
		Err(cause).
		Msg("transaction message routed to dead letter topic")
	return nil
}
