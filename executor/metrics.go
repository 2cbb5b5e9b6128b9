package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var scenarioOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "validation_agent",
	Subsystem: "executor",
	Name:      "scenarios_total",
	Help:      "Executed scenarios by status and failure kind.",
}, []string{"status", "failure_kind"})

func recordScenario(res ExecutionResult) {
	scenarioOutcomes.WithLabelValues(string(res.Status), string(res.FailureKind)).Inc()
}
