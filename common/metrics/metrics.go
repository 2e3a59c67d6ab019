package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const verdictLabel = "verdict"

// Collector keeps all prometheus metrics of the judge engine.
// Metrics are registered in Registerer, so each engine can use its own
// registry and several engines may live in one process.
type Collector struct {
	Registerer prometheus.Registerer

	FinishedRuns *prometheus.CounterVec
	TestVerdicts *prometheus.CounterVec
	SolutionTime prometheus.Counter

	QueueSize  prometheus.Gauge
	ActiveRuns prometheus.Gauge

	GeneratedTests prometheus.Counter
	SkippedTests   prometheus.Counter
}

func NewCollector(registerer prometheus.Registerer) *Collector {
	c := &Collector{Registerer: registerer}
	c.setupRunMetrics()
	c.setupGeneratorMetrics()
	return c
}
