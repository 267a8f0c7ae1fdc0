package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RemotePushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_remote_pushes_total",
			Help: "Remote push attempts by entity type, action and outcome",
		},
		[]string{"type", "action", "outcome"},
	)
	PendingQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_pending_queue_depth",
			Help: "Number of failed pushes waiting for replay",
		},
	)
	ReplayedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_replayed_total",
			Help: "Pending queue replay attempts by outcome",
		},
		[]string{"outcome"},
	)
	PersistenceFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storage_persistence_failures_total",
			Help: "Local storage writes that failed and were absorbed",
		},
	)
	RemoteFetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootstrap_remote_fetch_failures_total",
			Help: "Collection refresh fetches that failed",
		},
		[]string{"collection"},
	)
)

var registerOnce sync.Once

// InitMetrics registers the sync metrics. Call once from app wiring; repeat
// calls are no-ops so test setups can share a process.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RemotePushesTotal)
		prometheus.MustRegister(PendingQueueDepth)
		prometheus.MustRegister(ReplayedTotal)
		prometheus.MustRegister(PersistenceFailures)
		prometheus.MustRegister(RemoteFetchFailures)
	})
}
