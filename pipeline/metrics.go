package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "validation_agent",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 900},
	}, []string{"stage", "outcome"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "validation_agent",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Finished runs by overall result and failed stage.",
	}, []string{"overall_result", "failed_stage"})

	runsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "validation_agent",
		Subsystem: "pipeline",
		Name:      "runs_in_flight",
		Help:      "Runs currently executing.",
	})
)

func recordStage(stage string, err error, took time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	stageDuration.WithLabelValues(stage, outcome).Observe(took.Seconds())
}

func recordRun(overall, failedStage string) {
	runsTotal.WithLabelValues(overall, failedStage).Inc()
}
