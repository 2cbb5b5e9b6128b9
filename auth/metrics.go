package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	manualLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "validation_agent",
		Subsystem: "auth",
		Name:      "manual_logins_total",
		Help:      "Interactive logins by outcome (completed, timeout, cancelled).",
	}, []string{"outcome"})

	manualLoginWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "validation_agent",
		Subsystem: "auth",
		Name:      "manual_login_wait_seconds",
		Help:      "Time spent waiting for a human to finish signing in.",
		Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 900},
	})
)

func recordManualLogin(outcome string, waited time.Duration) {
	manualLogins.WithLabelValues(outcome).Inc()
	manualLoginWait.Observe(waited.Seconds())
}
