// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	UpstreamRequests    *prometheus.CounterVec // labels: endpoint, outcome
	SyncRuns            *prometheus.CounterVec // labels: outcome
	CatalogEntriesAdded prometheus.Counter
	ChatFetches         *prometheus.CounterVec // labels: outcome
	PositionWrites      *prometheus.CounterVec // labels: op (save, clear, purge)

	// Histograms (seconds)
	SyncDuration     prometheus.Observer
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint

	// Gauges
	CatalogSizeGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{Name: "archive_upstream_requests_total", Help: "Requests made to the upstream archive host"}, []string{"endpoint", "outcome"})
		SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{Name: "archive_sync_runs_total", Help: "Catalog reconciliation runs"}, []string{"outcome"})
		CatalogEntriesAdded = promauto.NewCounter(prometheus.CounterOpts{Name: "archive_catalog_entries_added_total", Help: "Catalog entries ingested by reconciliation"})
		ChatFetches = promauto.NewCounterVec(prometheus.CounterOpts{Name: "archive_chat_fetches_total", Help: "Per-second chat archive fetches"}, []string{"outcome"})
		PositionWrites = promauto.NewCounterVec(prometheus.CounterOpts{Name: "archive_position_writes_total", Help: "Playback position store mutations"}, []string{"op"})
		SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "archive_sync_duration_seconds", Help: "Catalog reconciliation duration seconds", Buckets: prometheus.DefBuckets})
		UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "archive_upstream_duration_seconds", Help: "Upstream request latency seconds", Buckets: prometheus.DefBuckets}, []string{"endpoint"})
		CatalogSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "archive_catalog_size", Help: "Number of entries in the local catalog"})
	})
}

// ObserveUpstream records one upstream request outcome. Safe to call before Init.
func ObserveUpstream(endpoint, outcome string, d time.Duration) {
	if UpstreamRequests != nil {
		UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	}
	if UpstreamDuration != nil {
		UpstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// ObserveSync records a reconciliation run.
func ObserveSync(outcome string, added int, d time.Duration) {
	if SyncRuns != nil {
		SyncRuns.WithLabelValues(outcome).Inc()
	}
	if CatalogEntriesAdded != nil && added > 0 {
		CatalogEntriesAdded.Add(float64(added))
	}
	if SyncDuration != nil {
		SyncDuration.Observe(d.Seconds())
	}
}

// SetCatalogSize records current catalog entry count.
func SetCatalogSize(n int) {
	if CatalogSizeGauge != nil {
		CatalogSizeGauge.Set(float64(n))
	}
}

// IncChatFetch counts a chat fetch outcome (ok, empty, error, stale).
func IncChatFetch(outcome string) {
	if ChatFetches != nil {
		ChatFetches.WithLabelValues(outcome).Inc()
	}
}

// IncPositionWrite counts a position store mutation.
func IncPositionWrite(op string) {
	if PositionWrites != nil {
		PositionWrites.WithLabelValues(op).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
