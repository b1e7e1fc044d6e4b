// Package mq wraps segmentio/kafka-go with the delivery discipline the system
// relies on: a producer with bounded retry and dead-lettering, and a consumer
// that commits offsets only after the handler succeeds. Trace context travels
// in kafka headers.
package mq

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// Dead-letter metadata header names.
const (
	HeaderOriginalTopic = "original-topic"
	HeaderFailureReason = "failure-reason"
	HeaderTimestamp     = "timestamp"
)

// NewKafkaWriter builds a writer that targets per-message topics with full
// acknowledgement. Broker-level resends are disabled (MaxAttempts 1): the
// producer owns retry so that exhaustion can be observed and dead-lettered.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            1,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaReader builds a consumer-group reader with manual offset commits.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
}

// KafkaHeaderCarrier adapts kafka headers to the otel TextMapCarrier so trace
// context can be injected into produced messages and extracted from consumed
// ones.
type KafkaHeaderCarrier []kafka.Header

func (c *KafkaHeaderCarrier) Get(key string) string {
	for _, h := range *c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *KafkaHeaderCarrier) Set(key, value string) {
	for i, h := range *c {
		if h.Key == key {
			(*c)[i].Value = []byte(value)
			return
		}
	}
	*c = append(*c, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *KafkaHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(*c))
	for _, h := range *c {
		keys = append(keys, h.Key)
	}
	return keys
}
