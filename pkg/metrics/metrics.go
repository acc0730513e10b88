// Package metrics provides Prometheus metrics for the iris service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchSearchesTotal tracks catalog searches by category
	MatchSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "matching",
			Name:      "searches_total",
			Help:      "Total number of catalog match searches by category",
		},
		[]string{"category"},
	)

	// MatchSearchDuration tracks how long a search takes, catalog scan included
	MatchSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iris",
			Subsystem: "matching",
			Name:      "search_duration_seconds",
			Help:      "Duration of catalog match searches in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"category"},
	)

	// MatchCandidatesReturned tracks candidates returned per confidence label
	MatchCandidatesReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "matching",
			Name:      "candidates_total",
			Help:      "Total number of match candidates returned by confidence",
		},
		[]string{"category", "confidence"},
	)

	// MatchRecordsSkipped tracks records skipped because their subtype has no threshold
	MatchRecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "matching",
			Name:      "records_skipped_total",
			Help:      "Catalog records skipped during matching because their subtype has no threshold",
		},
		[]string{"category", "subtype"},
	)

	// DuplicateChecksTotal tracks duplicate checks by verdict
	DuplicateChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "duplicates",
			Name:      "checks_total",
			Help:      "Total number of duplicate checks by verdict",
		},
		[]string{"verdict"},
	)

	// ContactsAddedTotal tracks contacts appended to persons
	ContactsAddedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "contacts",
			Name:      "added_total",
			Help:      "Total number of contacts appended to persons by type",
		},
		[]string{"contact_type"},
	)

	// ContactsDroppedTotal tracks contacts dropped because the list was full
	ContactsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "contacts",
			Name:      "dropped_total",
			Help:      "Total number of contacts dropped because the person's list was full",
		},
		[]string{"contact_type"},
	)

	// ProposalsResolvedTotal tracks reviewed contact proposals
	ProposalsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "contacts",
			Name:      "proposals_resolved_total",
			Help:      "Total number of contact proposals resolved by status",
		},
		[]string{"status"},
	)

	// KafkaMessagesConsumed tracks consumed analyzed requests by outcome
	KafkaMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Total number of Kafka messages consumed by status",
		},
		[]string{"topic", "status"},
	)

	// KafkaMessagesPublished tracks published events
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of Kafka messages published by event type and status",
		},
		[]string{"event_type", "status"},
	)

	// KafkaPublishDuration tracks Kafka publish latency
	KafkaPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iris",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Duration of Kafka publish operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"event_type"},
	)

	// HTTPRequestsTotal tracks inbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "iris",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "iris",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// RecordSearch records a completed match search
func RecordSearch(category string, durationSeconds float64) {
	MatchSearchesTotal.WithLabelValues(category).Inc()
	MatchSearchDuration.WithLabelValues(category).Observe(durationSeconds)
}

// RecordCandidate records one returned candidate
func RecordCandidate(category, confidence string) {
	MatchCandidatesReturned.WithLabelValues(category, confidence).Inc()
}

// RecordSkippedRecord records a record without a subtype threshold
func RecordSkippedRecord(category, subtype string) {
	MatchRecordsSkipped.WithLabelValues(category, subtype).Inc()
}

// RecordDuplicateCheck records a duplicate verdict: duplicate, unique or not_comparable
func RecordDuplicateCheck(verdict string) {
	DuplicateChecksTotal.WithLabelValues(verdict).Inc()
}

// RecordContactAdded records an appended contact
func RecordContactAdded(contactType string) {
	ContactsAddedTotal.WithLabelValues(contactType).Inc()
}

// RecordContactDropped records a contact dropped at capacity
func RecordContactDropped(contactType string) {
	ContactsDroppedTotal.WithLabelValues(contactType).Inc()
}

// RecordProposalResolved records a confirmed or rejected proposal
func RecordProposalResolved(status string) {
	ProposalsResolvedTotal.WithLabelValues(status).Inc()
}

// RecordKafkaConsume records a consumed message
func RecordKafkaConsume(topic, status string) {
	KafkaMessagesConsumed.WithLabelValues(topic, status).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(eventType, status string, durationSeconds float64) {
	KafkaMessagesPublished.WithLabelValues(eventType, status).Inc()
	KafkaPublishDuration.WithLabelValues(eventType).Observe(durationSeconds)
}

// RecordHTTPRequest records an inbound HTTP request
func RecordHTTPRequest(method, route, statusCode string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
