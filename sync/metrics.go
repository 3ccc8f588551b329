// ABOUTME: Prometheus collectors for sync runs, records, and batch failures
// ABOUTME: Registered on the default registry and served at /metrics
package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zohosync_resource_syncs_total",
		Help: "Resource sync attempts by operation and result",
	}, []string{"operation", "result"})

	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zohosync_resource_sync_duration_seconds",
		Help:    "Resource sync duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	syncRunCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zohosync_runs_total",
		Help: "Full sync runs by outcome",
	}, []string{"outcome"})

	recordCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zohosync_records_fetched_total",
		Help: "Records fetched from Zoho by table",
	}, []string{"table"})

	batchFailureCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zohosync_batch_failures_total",
		Help: "Persistence batches that failed by table",
	}, []string{"table"})
)
