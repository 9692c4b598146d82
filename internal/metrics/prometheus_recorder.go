package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	attempts      *prom.CounterVec
	verdicts      *prom.CounterVec
	findings      *prom.CounterVec
	missingRefs   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "texbuilder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "texbuilder",
			Name:      "run_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.attempts = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "texbuilder",
			Name:      "build_attempts_total",
			Help:      "Compiler attempts by stage and outcome",
		}, []string{"stage", "outcome"})
		pr.verdicts = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "texbuilder",
			Name:      "run_verdicts_total",
			Help:      "Run verdicts by final status",
		}, []string{"verdict"})
		pr.findings = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "texbuilder",
			Name:      "findings_total",
			Help:      "Classified compiler log findings",
		}, []string{"category", "severity"})
		pr.missingRefs = prom.NewGauge(prom.GaugeOpts{
			Namespace: "texbuilder",
			Name:      "missing_references",
			Help:      "Unresolved references observed by the last scan",
		})
		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.attempts, pr.verdicts, pr.findings, pr.missingRefs)
	})
	return pr
}

// Handler returns an HTTP handler exposing the recorder's registry, for the
// watch-mode /metrics listener.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncAttemptOutcome(stage, outcome string) {
	if p == nil || p.attempts == nil {
		return
	}
	p.attempts.WithLabelValues(stage, outcome).Inc()
}

func (p *PrometheusRecorder) IncVerdict(verdict string) {
	if p == nil || p.verdicts == nil {
		return
	}
	p.verdicts.WithLabelValues(verdict).Inc()
}

func (p *PrometheusRecorder) AddFindings(category, severity string, n int) {
	if p == nil || p.findings == nil || n <= 0 {
		return
	}
	p.findings.WithLabelValues(category, severity).Add(float64(n))
}

func (p *PrometheusRecorder) SetMissingReferences(n int) {
	if p == nil || p.missingRefs == nil {
		return
	}
	p.missingRefs.Set(float64(n))
}
