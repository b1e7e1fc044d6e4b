package contracts

// Kafka topic names shared by every service.
const (
	TopicTransactionReceived = "transaction.received"
	TopicFraudAssessed       = "fraud.assessed"
	TopicDeadLetter          = "dlq"
)

// Event type tags stored on outbox rows.
const (
	EventTypeTransactionReceived = "TransactionReceivedEvent"
	EventTypeFraudAssessed       = "FraudAssessedEvent"
)

// TopicForEventType maps an outbox event type tag to its topic. Unknown tags
// route to the dead-letter topic so they are never silently dropped.
func TopicForEventType(eventType string) string {
	switch eventType {
	case EventTypeTransactionReceived:
		return TopicTransactionReceived
	case EventTypeFraudAssessed:
		return TopicFraudAssessed
	default:
		return TopicDeadLetter
	}
}
