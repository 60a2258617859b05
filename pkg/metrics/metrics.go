// Package metrics provides Prometheus metrics for the Dahlia service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageTransitionsTotal tracks stage moves by target stage and outcome
	StageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dahlia",
			Subsystem: "pipeline",
			Name:      "stage_transitions_total",
			Help:      "Total number of stage transitions by target stage and status",
		},
		[]string{"tenant_id", "to_stage", "status"},
	)

	// BatchItemsTotal tracks batch operation items by operation and outcome
	BatchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dahlia",
			Subsystem: "batch",
			Name:      "items_total",
			Help:      "Total number of batch operation items by operation and status",
		},
		[]string{"tenant_id", "operation", "status"},
	)

	// BatchDuration tracks batch execution duration in seconds
	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dahlia",
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Duration of batch executions in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	// BoardViewDuration tracks board assembly duration in seconds
	BoardViewDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dahlia",
			Subsystem: "board",
			Name:      "view_duration_seconds",
			Help:      "Duration of board view assembly in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	// CollaborationsCreatedTotal tracks collaboration creations
	CollaborationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dahlia",
			Subsystem: "pipeline",
			Name:      "collaborations_created_total",
			Help:      "Total number of collaborations created",
		},
		[]string{"tenant_id", "stage"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dahlia",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// HTTPRequestsTotal tracks outbound HTTP requests to directory services
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dahlia",
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"service", "status_code"},
	)
)

// RecordStageTransition records a stage move outcome
func RecordStageTransition(tenantID, toStage, status string) {
	StageTransitionsTotal.WithLabelValues(tenantID, toStage, status).Inc()
}

// RecordBatchItem records a single batch item outcome
func RecordBatchItem(tenantID, operation, status string) {
	BatchItemsTotal.WithLabelValues(tenantID, operation, status).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
