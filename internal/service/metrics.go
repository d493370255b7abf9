package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectorMetrics bundles Prometheus collectors for the sync jobs.
type CollectorMetrics struct {
	Registry          *prometheus.Registry
	GamesSyncedTotal  prometheus.Counter
	ObservationsTotal prometheus.Counter
	SyncErrorsTotal   *prometheus.CounterVec
	SyncDuration      *prometheus.HistogramVec
	TrackedGamesTotal prometheus.Gauge
}

// NewCollectorMetrics constructs and registers all metrics on a
// dedicated registry.
func NewCollectorMetrics() *CollectorMetrics {
	registry := prometheus.NewRegistry()

	gamesSynced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracker_games_synced_total",
		Help: "Total number of games whose metadata was refreshed.",
	})
	observations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracker_price_observations_total",
		Help: "Total number of price observations recorded.",
	})
	syncErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_sync_errors_total",
		Help: "Total sync failures by job.",
	}, []string{"job"})
	syncDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracker_sync_duration_seconds",
		Help:    "Wall-clock duration of sync runs.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"job"})
	trackedGames := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_tracked_games",
		Help: "Number of games currently tracked.",
	})

	registry.MustRegister(gamesSynced, observations, syncErrors, syncDuration, trackedGames)

	return &CollectorMetrics{
		Registry:          registry,
		GamesSyncedTotal:  gamesSynced,
		ObservationsTotal: observations,
		SyncErrorsTotal:   syncErrors,
		SyncDuration:      syncDuration,
		TrackedGamesTotal: trackedGames,
	}
}

func (m *CollectorMetrics) IncGames() {
	if m == nil {
		return
	}
	m.GamesSyncedTotal.Inc()
}

func (m *CollectorMetrics) IncObservations() {
	if m == nil {
		return
	}
	m.ObservationsTotal.Inc()
}

func (m *CollectorMetrics) IncError(job string) {
	if m == nil {
		return
	}
	m.SyncErrorsTotal.WithLabelValues(job).Inc()
}

func (m *CollectorMetrics) ObserveRun(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.SyncDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *CollectorMetrics) SetTracked(n int) {
	if m == nil {
		return
	}
	m.TrackedGamesTotal.Set(float64(n))
}
