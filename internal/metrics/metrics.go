// Package metrics exposes Prometheus collectors for harvest runs.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "report_harvester"

// Recorder owns a private registry so batch runs can export a textfile for
// node_exporter. All methods are no-ops on a nil Recorder.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal          *prometheus.CounterVec
	recordsTotal       *prometheus.CounterVec
	stageFailuresTotal *prometheus.CounterVec
	artifactBytesTotal prometheus.Counter
	runDuration        prometheus.Histogram
	lastSuccess        prometheus.Gauge
}

// New registers the harvest collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Harvest runs, labeled by mode and result.",
			},
			[]string{"mode", "result"},
		),
		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Discovered records, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		stageFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_failures_total",
				Help:      "Per-record failures, labeled by stage.",
			},
			[]string{"stage"},
		),
		artifactBytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "artifact_bytes_total",
				Help:      "Bytes of artifacts written to local storage.",
			},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of harvest runs.",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		lastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last run that completed without a fatal error.",
			},
		),
	}
}

// ObserveRun records the end of a run.
func (r *Recorder) ObserveRun(full bool, err error, started, finished time.Time) {
	if r == nil {
		return
	}
	mode := "incremental"
	if full {
		mode = "full"
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.runsTotal.WithLabelValues(mode, result).Inc()
	r.runDuration.Observe(finished.Sub(started).Seconds())
	if err == nil {
		r.lastSuccess.Set(float64(finished.Unix()))
	}
}

// ObserveRecord counts one record outcome; stage is empty unless the record failed.
func (r *Recorder) ObserveRecord(outcome, stage string) {
	if r == nil {
		return
	}
	r.recordsTotal.WithLabelValues(strings.ToLower(outcome)).Inc()
	if stage != "" {
		r.stageFailuresTotal.WithLabelValues(stage).Inc()
	}
}

// AddArtifactBytes adds n downloaded bytes.
func (r *Recorder) AddArtifactBytes(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.artifactBytesTotal.Add(float64(n))
}

// WriteTextfile writes the registry in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
