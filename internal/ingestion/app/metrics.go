package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingestion",
			Name:      "messages_processed_total",
			Help:      "Total number of inbound messages processed by pipeline outcome.",
		},
		[]string{"outcome"}, // "processed", "duplicate", "unknown_tenant", "blocked", "store_failed"
	)

	pipelineDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ingestion",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of the inbound message pipeline, webhook receipt to response.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	autoPairCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingestion",
			Name:      "auto_pair_attempts_total",
			Help:      "Total number of auto-pairing attempts by result.",
		},
		[]string{"result"}, // "paired", "no_room", "error"
	)

	classifierFallbackCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ingestion",
			Name:      "classifier_fallbacks_total",
			Help:      "Total number of classifications resolved by the deterministic fallback.",
		},
	)

	outboundSendCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingestion",
			Name:      "outbound_sends_total",
			Help:      "Total number of outbound guest messages by kind and status.",
		},
		[]string{"kind", "status"}, // kind: "confirmation", "rejection"; status: "sent", "failed"
	)

	staffNotifyCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ingestion",
			Name:      "staff_notifications_total",
			Help:      "Total number of staff push fanouts by status.",
		},
		[]string{"status"}, // "sent", "failed", "no_tokens"
	)
)
