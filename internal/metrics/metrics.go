// Package metrics counts render stages and writes them in the Prometheus
// text format for the node exporter textfile collector.
package metrics

import (
	"github.com/banshee-data/goprotelemetry/internal/chain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Stage is a chain.Observer that updates Prometheus collectors and writes
// them to a textfile when the chain ends.
type Stage struct {
	registry     *prometheus.Registry
	stages       *prometheus.CounterVec
	stageSeconds *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	lastRun      prometheus.Gauge
	file         string
	log          zerolog.Logger
}

// NewStage registers the collectors on a private registry. file may be empty,
// in which case nothing is written.
func NewStage(file string, log zerolog.Logger) *Stage {
	s := &Stage{
		registry: prometheus.NewRegistry(),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gopro_telemetry_stages_total",
			Help: "Evaluated overlay plugins by outcome.",
		}, []string{"plugin", "status"}),
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gopro_telemetry_stage_seconds",
			Help:    "Wall time spent rendering one overlay stage.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"plugin"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gopro_telemetry_runs_total",
			Help: "Finished render chains by outcome.",
		}, []string{"status"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gopro_telemetry_last_run_timestamp_seconds",
			Help: "Unix time of the last finished render chain.",
		}),
		file: file,
		log:  log,
	}
	s.registry.MustRegister(s.stages, s.stageSeconds, s.runs, s.lastRun)
	return s
}

// Registry exposes the collectors for tests and other exporters.
func (s *Stage) Registry() *prometheus.Registry { return s.registry }

func (s *Stage) StageFinished(ev chain.StageEvent) {
	s.stages.WithLabelValues(ev.Plugin, string(ev.Status)).Inc()
	if ev.Status != chain.StatusDisabled {
		s.stageSeconds.WithLabelValues(ev.Plugin).Observe(ev.Duration.Seconds())
	}
}

func (s *Stage) ChainFinished(_ chain.Result, err error) {
	status := "succeeded"
	if err != nil {
		status = "failed"
	}
	s.runs.WithLabelValues(status).Inc()
	s.lastRun.SetToCurrentTime()

	if err := s.Flush(); err != nil {
		s.log.Warn().Err(err).Str("file", s.file).Msg("Failed to write metrics")
	}
}

// Flush writes all collectors to the textfile.
func (s *Stage) Flush() error {
	if s.file == "" {
		return nil
	}
	return prometheus.WriteToTextfile(s.file, s.registry)
}
