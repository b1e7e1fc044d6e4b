package main

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"fraudengine/internal/contracts"
	"fraudengine/internal/pkg/bootstrap"
	"fraudengine/internal/pkg/logger"
	"fraudengine/internal/pkg/mq"
)

const serviceName = "dlq-monitor"

// dlq-monitor tails the dead-letter topic and surfaces every entry in the
// logs. It never rejects a message: a dead letter has already failed once and
// there is nothing further to do with it here but record it.
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8082,
		RegisterHandlers: func(app bootstrap.AppCtx) error {
			reader := mq.NewKafkaReader(app.Config.Kafka.Brokers, contracts.TopicDeadLetter, app.Config.Kafka.GroupID+"-dlq")
			consumer := mq.NewConsumer(reader)
			app.Go(func(ctx context.Context) error {
				return consumer.Consume(ctx, handleDeadLetter)
			})
			return nil
		},
	})
}

func handleDeadLetter(ctx context.Context, msg kafka.Message) error {
	event := logger.Ctx(ctx).Error().
		Str("key", string(msg.Key)).
		Int64("offset", msg.Offset)
	for _, h := range msg.Headers {
		event = event.Str("header."+h.Key, string(h.Value))
	}

	var dl contracts.DeadLetter
	if err := json.Unmarshal(msg.Value, &dl); err != nil {
		event.Str("payload", string(msg.Value)).Msg("🚨 dead letter with unreadable envelope")
		return nil
	}

	event.
		Str("original_topic", dl.OriginalTopic).
		Str("failure_reason", dl.FailureReason).
		Str("exception_type", dl.ExceptionType).
		Time("failed_at", dl.Timestamp).
		Str("original_payload", dl.OriginalPayload).
		Msg("🚨 dead letter received")
	return nil
}
