package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
)

// SyncMetrics holds the Prometheus metrics of the sync layer. A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	// Remote calls
	RemoteCallsTotal *prometheus.CounterVec
	AnalysisSeconds  prometheus.Histogram

	// Store
	StoreMutationsTotal prometheus.Counter

	// Playback
	PlaybackEntriesVisible prometheus.Gauge
}

// DefaultSyncMetrics registers metrics on the default registerer
func DefaultSyncMetrics() *SyncMetrics {
	return NewSyncMetrics(prometheus.DefaultRegisterer)
}

// NewSyncMetrics creates a new set of sync metrics on reg
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)

	return &SyncMetrics{
		RemoteCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "levelus_remote_calls_total",
				Help: "Remote meeting service calls by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		AnalysisSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "levelus_analysis_seconds",
				Help:    "Audio analysis round trip latency",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		),
		StoreMutationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "levelus_store_mutations_total",
				Help: "Effective meeting store mutations",
			},
		),
		PlaybackEntriesVisible: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "levelus_playback_entries_visible",
				Help: "Demo playback entries currently revealed",
			},
		),
	}
}

// RecordRemoteCall counts one remote call
func (m *SyncMetrics) RecordRemoteCall(action, outcome string) {
	if m == nil {
		return
	}
	m.RemoteCallsTotal.WithLabelValues(action, outcome).Inc()
}

// ObserveAnalysis records the duration of an analysis round trip
func (m *SyncMetrics) ObserveAnalysis(d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysisSeconds.Observe(d.Seconds())
}

// RecordMutation counts one effective store change
func (m *SyncMetrics) RecordMutation() {
	if m == nil {
		return
	}
	m.StoreMutationsTotal.Inc()
}

// SetPlaybackVisible reports the number of revealed playback entries
func (m *SyncMetrics) SetPlaybackVisible(n int) {
	if m == nil {
		return
	}
	m.PlaybackEntriesVisible.Set(float64(n))
}
