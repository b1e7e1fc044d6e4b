package interfaces

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"fraudengine/internal/contracts"
	"fraudengine/internal/evaluation/application"
	"fraudengine/internal/evaluation/domain"
	"fraudengine/internal/fraud"
	"fraudengine/internal/fraud/datarequest"
	"fraudengine/internal/fraud/rules"
	"fraudengine/internal/pkg/mq"

	"github.com/segmentio/kafka-go"
)

type memoryCheckRepository struct {
	added  []*domain.FraudCheck
	addErr error
}

func (r *memoryCheckRepository) Add(_ context.Context, check *domain.FraudCheck) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.added = append(r.added, check)
	return nil
}

// flakyWriter fails writes to the given topic, or to every topic when
// failAll is set; everything else succeeds.
type flakyWriter struct {
	failTopic string
	failAll   bool
	written   []kafka.Message
}

func (w *flakyWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	msg := msgs[0]
	if w.failAll || msg.Topic == w.failTopic {
		return context.DeadlineExceeded
	}
	w.written = append(w.written, msg)
	return nil
}

func newHandler(writer *flakyWriter) (*TransactionEventHandler, *memoryCheckRepository) {
	checks := &memoryCheckRepository{}
	pipeline := fraud.NewPipeline([]fraud.Rule{
		rules.NewHighAmountRule(decimal.NewFromInt(10000), decimal.NewFromFloat(0.7)),
	})
	service := application.NewEvaluationService(pipeline, checks, datarequest.NewRegistry())
	producer := mq.NewProducer(writer, mq.WithMaxAttempts(1), mq.WithBaseBackoff(time.Millisecond))
	return NewTransactionEventHandler(service, producer), checks
}

func receivedMessage(t *testing.T, amount float64) kafka.Message {
	t.Helper()
	event := contracts.TransactionReceived{
		TransactionID: uuid.New(),
		AccountID:     uuid.New(),
		Amount:        decimal.NewFromFloat(amount),
		MerchantID:    uuid.New(),
		Currency:      "ZAR",
		Timestamp:     time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return kafka.Message{Topic: contracts.TopicTransactionReceived, Value: payload}
}

func TestHandlePublishesAssessment(t *testing.T) {
	writer := &flakyWriter{}
	handler, checks := newHandler(writer)

	if err := handler.Handle(context.Background(), receivedMessage(t, 15000)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(checks.added) != 1 {
		t.Fatalf("checks persisted = %d, want 1", len(checks.added))
	}
	if len(writer.written) != 1 {
		t.Fatalf("messages written = %d, want 1", len(writer.written))
	}
	msg := writer.written[0]
	if msg.Topic != contracts.TopicFraudAssessed {
		t.Fatalf("topic = %s, want %s", msg.Topic, contracts.TopicFraudAssessed)
	}

	var assessed contracts.FraudAssessed
	if err := json.Unmarshal(msg.Value, &assessed); err != nil {
		t.Fatalf("assessment does not decode: %v", err)
	}
	if !assessed.IsFlagged {
		t.Error("IsFlagged = false, want true at amount 15000")
	}
	if assessed.FraudCheckID != checks.added[0].ID {
		t.Error("assessment does not reference the persisted check")
	}
	if len(assessed.RuleResults) != 1 {
		t.Errorf("RuleResults len = %d, want 1", len(assessed.RuleResults))
	}
}

func TestHandleMalformedPayloadDeadLetters(t *testing.T) {
	writer := &flakyWriter{}
	handler, checks := newHandler(writer)

	msg := kafka.Message{Topic: contracts.TopicTransactionReceived, Value: []byte("not json")}
	if err := handler.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle() error = %v, malformed payloads must be acknowledged", err)
	}

	if len(checks.added) != 0 {
		t.Errorf("checks persisted = %d, want 0", len(checks.added))
	}
	if len(writer.written) != 1 {
		t.Fatalf("messages written = %d, want 1 dead letter", len(writer.written))
	}

	var envelope contracts.DeadLetter
	if err := json.Unmarshal(writer.written[0].Value, &envelope); err != nil {
		t.Fatalf("dead letter does not decode: %v", err)
	}
	if envelope.OriginalTopic != contracts.TopicTransactionReceived {
		t.Errorf("OriginalTopic = %s, want %s", envelope.OriginalTopic, contracts.TopicTransactionReceived)
	}
	if envelope.OriginalPayload != "not json" {
		t.Errorf("OriginalPayload = %q", envelope.OriginalPayload)
	}
}

func TestHandleAssessmentPublishFailureDeadLetters(t *testing.T) {
	writer := &flakyWriter{failTopic: contracts.TopicFraudAssessed}
	handler, checks := newHandler(writer)

	if err := handler.Handle(context.Background(), receivedMessage(t, 15000)); err != nil {
		t.Fatalf("Handle() error = %v, dead-lettered assessments must be acknowledged", err)
	}

	// The check survives even though the outbound event did not.
	if len(checks.added) != 1 {
		t.Errorf("checks persisted = %d, want 1", len(checks.added))
	}
	if len(writer.written) != 1 {
		t.Fatalf("messages written = %d, want 1 dead letter", len(writer.written))
	}
	if writer.written[0].Topic != contracts.TopicDeadLetter {
		t.Errorf("topic = %s, want %s", writer.written[0].Topic, contracts.TopicDeadLetter)
	}

	var envelope contracts.DeadLetter
	if err := json.Unmarshal(writer.written[0].Value, &envelope); err != nil {
		t.Fatalf("dead letter does not decode: %v", err)
	}
	if envelope.OriginalTopic != contracts.TopicFraudAssessed {
		t.Errorf("OriginalTopic = %s, want %s", envelope.OriginalTopic, contracts.TopicFraudAssessed)
	}

	var assessed contracts.FraudAssessed
	if err := json.Unmarshal([]byte(envelope.OriginalPayload), &assessed); err != nil {
		t.Fatalf("dead letter payload is not the assessment: %v", err)
	}
	if assessed.FraudCheckID != checks.added[0].ID {
		t.Error("dead-lettered assessment does not reference the persisted check")
	}
}

func TestHandlePersistenceFailureDeadLetters(t *testing.T) {
	writer := &flakyWriter{}
	handler, checks := newHandler(writer)
	checks.addErr = errors.New("insert failed")

	original := receivedMessage(t, 15000)
	if err := handler.Handle(context.Background(), original); err != nil {
		t.Fatalf("Handle() error = %v, failed evaluations must be shunted and acknowledged", err)
	}

	if len(writer.written) != 1 {
		t.Fatalf("messages written = %d, want 1 dead letter", len(writer.written))
	}
	if writer.written[0].Topic != contracts.TopicDeadLetter {
		t.Errorf("topic = %s, want %s", writer.written[0].Topic, contracts.TopicDeadLetter)
	}

	var envelope contracts.DeadLetter
	if err := json.Unmarshal(writer.written[0].Value, &envelope); err != nil {
		t.Fatalf("dead letter does not decode: %v", err)
	}
	if envelope.OriginalTopic != contracts.TopicTransactionReceived {
		t.Errorf("OriginalTopic = %s, want %s", envelope.OriginalTopic, contracts.TopicTransactionReceived)
	}
	if envelope.OriginalPayload != string(original.Value) {
		t.Error("dead letter does not carry the original inbound payload")
	}
	if envelope.FailureReason == "" {
		t.Error("FailureReason empty")
	}
}

func TestHandleBrokerFullyDownRedelivers(t *testing.T) {
	writer := &flakyWriter{failAll: true}
	handler, _ := newHandler(writer)

	if err := handler.Handle(context.Background(), receivedMessage(t, 15000)); err == nil {
		t.Fatal("Handle() succeeded with the whole cluster down, want error for redelivery")
	}
}
