// Package metrics defines the prometheus counters shared by the services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TransactionsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_transactions_received_total",
		Help: "Transactions accepted by the ingestion API, by status (new/duplicate).",
	}, []string{"status"})

	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_evaluations_total",
		Help: "Completed fraud evaluations, by flagged outcome.",
	}, []string{"flagged"})

	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fraud_outbox_published_total",
		Help: "Outbox messages successfully published to the transport.",
	})

	DeadLetters = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fraud_dead_letters_total",
		Help: "Messages routed to the dead-letter topic, by original topic.",
	}, []string{"original_topic"})
)

// Handler exposes the default registry for the service's /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
