package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSyncMetrics_Record(t *testing.T) {
	m := NewSyncMetrics(prometheus.NewRegistry())

	m.RecordRemoteCall("create_participant", OutcomeSuccess)
	m.RecordRemoteCall("create_participant", OutcomeSuccess)
	m.RecordRemoteCall("send_transcript", OutcomeFailure)
	m.ObserveAnalysis(2 * time.Second)
	m.RecordMutation()
	m.SetPlaybackVisible(3)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RemoteCallsTotal.WithLabelValues("create_participant", OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RemoteCallsTotal.WithLabelValues("send_transcript", OutcomeFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StoreMutationsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.PlaybackEntriesVisible))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AnalysisSeconds))
}

func TestSyncMetrics_NilIsNoop(t *testing.T) {
	var m *SyncMetrics

	assert.NotPanics(t, func() {
		m.RecordRemoteCall("x", OutcomeSuccess)
		m.ObserveAnalysis(time.Second)
		m.RecordMutation()
		m.SetPlaybackVisible(1)
	})
}
