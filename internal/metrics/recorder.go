// Package metrics defines observability hooks for pipeline runs.
package metrics

import "time"

// Recorder defines observability hooks for run and stage metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder allows optional injection.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncAttemptOutcome(stage string, outcome string)
	IncVerdict(verdict string)
	AddFindings(category string, severity string, n int)
	SetMissingReferences(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncAttemptOutcome(string, string)           {}
func (NoopRecorder) IncVerdict(string)                          {}
func (NoopRecorder) AddFindings(string, string, int)            {}
func (NoopRecorder) SetMissingReferences(int)                   {}
