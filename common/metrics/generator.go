package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"judge_engine/judge/testgen"
)

func (c *Collector) setupGeneratorMetrics() {
	c.GeneratedTests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "judge",
		Subsystem: "generator",
		Name:      "generated_count",
		Help:      "Number of generated test cases",
	})
	c.Registerer.MustRegister(c.GeneratedTests)

	c.SkippedTests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "judge",
		Subsystem: "generator",
		Name:      "skipped_count",
		Help:      "Number of test cases skipped because of generation failures",
	})
	c.Registerer.MustRegister(c.SkippedTests)
}

// ProcessBatch records the result of one generation batch.
func (c *Collector) ProcessBatch(result *testgen.BatchResult) {
	c.GeneratedTests.Add(float64(len(result.Cases)))
	c.SkippedTests.Add(float64(result.Skipped))
}
