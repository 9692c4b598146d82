package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("scan", time.Second)
	r.ObserveRunDuration(time.Second)
	r.IncAttemptOutcome("full", "succeeded")
	r.IncVerdict("all_resolved")
	r.AddFindings("syntax", "high", 2)
	r.SetMissingReferences(3)
}

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncAttemptOutcome("basic", "timeout")
	r.IncAttemptOutcome("basic", "timeout")
	r.IncVerdict("build_failed")
	r.AddFindings("syntax", "high", 3)
	r.SetMissingReferences(2)
	r.ObserveStageDuration("scan", 50*time.Millisecond)
	r.ObserveRunDuration(time.Second)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	assert.InDelta(t, 2, testutil.ToFloat64(r.attempts.WithLabelValues("basic", "timeout")), 0.001)
	assert.InDelta(t, 3, testutil.ToFloat64(r.findings.WithLabelValues("syntax", "high")), 0.001)
	assert.InDelta(t, 2, testutil.ToFloat64(r.missingRefs), 0.001)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.IncVerdict("all_resolved")
	r.ObserveRunDuration(time.Second)
	r.AddFindings("other", "low", 1)
}
