package browser

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "validation_agent",
		Subsystem: "browser",
		Name:      "sessions_opened_total",
		Help:      "Browser sessions opened.",
	})
	metricSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "validation_agent",
		Subsystem: "browser",
		Name:      "sessions_active",
		Help:      "Browser sessions currently open.",
	})
	metricNavigationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "validation_agent",
		Subsystem: "browser",
		Name:      "navigation_failures_total",
		Help:      "Session opens that failed to reach the target URL.",
	})
	metricStepOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "validation_agent",
		Subsystem: "browser",
		Name:      "step_outcomes_total",
		Help:      "Steps performed, by action and outcome.",
	}, []string{"action", "outcome"})
	metricStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "validation_agent",
		Subsystem: "browser",
		Name:      "step_duration_seconds",
		Help:      "Time spent performing a step.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"action"})
	metricScreenshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "validation_agent",
		Subsystem: "browser",
		Name:      "screenshot_failures_total",
		Help:      "Screenshots that could not be captured or stored.",
	})
)

func recordSessionOpened() {
	metricSessionsOpened.Inc()
	metricSessionsActive.Inc()
}

func recordSessionClosed() {
	metricSessionsActive.Dec()
}

func recordNavigationFailure() {
	metricNavigationFailures.Inc()
}

func recordStep(action string, out StepOutcome, took time.Duration) {
	outcome := "ok"
	if !out.OK {
		outcome = string(out.Failure)
	}
	metricStepOutcomes.WithLabelValues(action, outcome).Inc()
	metricStepDuration.WithLabelValues(action).Observe(took.Seconds())
}

func recordScreenshotFailure() {
	metricScreenshotFailures.Inc()
}
