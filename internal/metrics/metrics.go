// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "billsplit"

var (
	// RPCRequests counts finished RPCs by procedure and Connect code ("ok" on success).
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "RPCs handled, by procedure and result code.",
	}, []string{"procedure", "code"})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "RPC latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure"})

	// SplitComputations counts split calculations by allocation policy.
	SplitComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "split_computations_total",
		Help:      "Bill split calculations, by allocation policy.",
	}, []string{"policy"})

	// StaleSplitsDropped counts streamed results discarded because a newer
	// recomputation had already started.
	StaleSplitsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_splits_dropped_total",
		Help:      "Split results suppressed because a newer computation superseded them.",
	})

	ReceiptLinesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "receipt_lines_parsed_total",
		Help:      "Non-blank receipt lines considered by the parser.",
	})

	ReceiptLinesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "receipt_lines_accepted_total",
		Help:      "Receipt lines that became item drafts.",
	})

	// ReceiptsProcessed counts ingestions by outcome: parsed, queued, extract_failed.
	ReceiptsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "receipts_processed_total",
		Help:      "Receipt ingestions, by outcome.",
	}, []string{"outcome"})
)
