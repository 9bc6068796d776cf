// Package telemetry exposes pipeline metrics through Prometheus.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Telemetry aggregates the pipeline's Prometheus collectors. A nil
// *Telemetry is valid and records nothing, so instrumentation never
// forces a registry on tests.
type Telemetry struct {
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	stageDuration *prometheus.HistogramVec
	itemSkips     *prometheus.CounterVec
	tokensUsed    *prometheus.CounterVec
}

// New builds the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func New(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefer_pipeline_runs_total",
			Help: "Pipeline runs by terminal status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "briefer_pipeline_run_duration_seconds",
			Help:    "End-to-end pipeline run duration.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "briefer_pipeline_stage_duration_seconds",
			Help:    "Per-stage execution duration.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"stage"}),
		itemSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefer_pipeline_item_skips_total",
			Help: "Per-item failures tolerated by a stage.",
		}, []string{"stage"}),
		tokensUsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefer_llm_tokens_total",
			Help: "Estimated LLM tokens by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(t.runsTotal, t.runDuration, t.stageDuration, t.itemSkips, t.tokensUsed)
	return t
}

// RecordRun counts a finished run and observes its duration.
func (t *Telemetry) RecordRun(status string, d time.Duration) {
	if t == nil {
		return
	}
	t.runsTotal.WithLabelValues(status).Inc()
	t.runDuration.Observe(d.Seconds())
}

// ObserveStage records one stage execution.
func (t *Telemetry) ObserveStage(stage string, d time.Duration) {
	if t == nil {
		return
	}
	t.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordSkip counts a tolerated per-item failure inside a stage.
func (t *Telemetry) RecordSkip(stage string) {
	if t == nil {
		return
	}
	t.itemSkips.WithLabelValues(stage).Inc()
}

// RecordTokens counts estimated prompt and completion tokens.
func (t *Telemetry) RecordTokens(prompt, completion int) {
	if t == nil {
		return
	}
	t.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	t.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}
