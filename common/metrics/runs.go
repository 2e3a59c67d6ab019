package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"judge_engine/judge/tester"
)

func (c *Collector) setupRunMetrics() {
	c.FinishedRuns = c.createRunCounter(
		"finished_count",
		"Number of finished runs by overall verdict",
	)

	c.TestVerdicts = c.createRunCounter(
		"test_verdicts_count",
		"Number of judged tests by verdict",
	)

	c.SolutionTime = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "judge",
		Subsystem: "runs",
		Name:      "solution_time_seconds_sum",
		Help:      "Total solution execution time across finished runs",
	})
	c.Registerer.MustRegister(c.SolutionTime)

	c.QueueSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "judge",
		Subsystem: "runs",
		Name:      "queue_size",
		Help:      "Number of runs waiting in the judging queue",
	})
	c.Registerer.MustRegister(c.QueueSize)

	c.ActiveRuns = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "judge",
		Subsystem: "runs",
		Name:      "active_count",
		Help:      "Number of runs being judged right now",
	})
	c.Registerer.MustRegister(c.ActiveRuns)
}

func (c *Collector) createRunCounter(
	name string,
	help string,
) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "judge",
			Subsystem: "runs",
			Name:      name,
			Help:      help,
		},
		[]string{verdictLabel},
	)
	c.Registerer.MustRegister(counter)
	return counter
}

// ProcessReport records the metrics of a finished run.
func (c *Collector) ProcessReport(report *tester.Report) {
	c.FinishedRuns.With(prometheus.Labels{verdictLabel: verdictClass(report.Overall)}).Inc()
	c.SolutionTime.Add(report.Stats.TimeMs / 1000)
	for _, test := range report.Tests {
		c.TestVerdicts.With(prometheus.Labels{verdictLabel: string(test.Verdict)}).Inc()
	}
}

// ProcessRunFailure records a run that failed inside the engine before a
// report was produced.
func (c *Collector) ProcessRunFailure() {
	c.FinishedRuns.With(prometheus.Labels{verdictLabel: "JE"}).Inc()
}

// verdictClass cuts the verdict code out of an overall verdict,
// "WA on sample 3" gives "WA".
func verdictClass(overall string) string {
	class, _, _ := strings.Cut(overall, " ")
	return class
}
