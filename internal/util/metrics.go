package util

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_runs_total",
		Help: "Total number of sync runs by outcome",
	}, []string{"resource", "status"})

	PagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_pages_fetched_total",
		Help: "Total number of remote pages fetched",
	}, []string{"resource"})

	RecordsSyncedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_records_total",
		Help: "Total number of remote records persisted",
	}, []string{"resource"})

	RecordsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_records_skipped_total",
		Help: "Total number of malformed remote records skipped",
	}, []string{"resource"})

	UnresolvedOrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_unresolved_orders_total",
		Help: "Total number of orders whose internal id could not be resolved",
	})

	FetchRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_fetch_retries_total",
		Help: "Total number of retried page fetches",
	}, []string{"resource"})

	FetchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_sync_fetch_latency_seconds",
		Help:    "Latency of remote page fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

// PushMetrics sends the default registry to a Pushgateway. Sync commands
// are short-lived batch jobs and would never be scraped.
func PushMetrics(gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
