package tester

import (
	"fmt"
	"math"

	"judge_engine/common/constants/category"
	"judge_engine/common/constants/verdict"
	"judge_engine/lib/customfields"
)

const (
	inputPreviewSize  = 100
	outputPreviewSize = 50
)

// TestResult is the outcome of a single executed test.
type TestResult struct {
	Category category.Category   `json:"category"`
	Number   int                 `json:"number"`
	Verdict  verdict.Verdict     `json:"verdict"`
	TimeMs   float64             `json:"timeMs"`
	Memory   customfields.Memory `json:"memory"`

	// Detail is the checker message or failure description.
	Detail string `json:"detail,omitempty"`

	// Truncated previews for summary display.
	Input    string `json:"input,omitempty"`
	Output   string `json:"output,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// CompileReport describes the compilation stage of a run.
type CompileReport struct {
	OK bool `json:"ok"`

	// Verdict is CE or JE, filled only when OK is false.
	Verdict verdict.Verdict `json:"verdict,omitempty"`
	Message string          `json:"message,omitempty"`
	TimeMs  float64         `json:"timeMs"`
}

// Stats aggregates verdicts of a test set.
type Stats struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	TimeMs   float64 `json:"timeMs"`
	PassRate float64 `json:"passRate"`
}

// Report is the complete outcome of one judged run.
type Report struct {
	// Overall is the verdict of the first failed test in judging order,
	// labeled with its category and number, or plain "AC"/"CE".
	Overall string `json:"overall"`

	Compile    *CompileReport                       `json:"compile,omitempty"`
	Tests      []*TestResult                        `json:"tests"`
	Categories map[category.Category]*Stats         `json:"categories"`
	Stats      *Stats                               `json:"stats"`
}

// buildReport aggregates ordered test results. Order of results must be the
// judging order, the first non accepted entry names the overall verdict even
// when later tests also failed.
func buildReport(compile *CompileReport, results []*TestResult) *Report {
	report := &Report{
		Compile:    compile,
		Tests:      results,
		Categories: make(map[category.Category]*Stats),
		Stats:      new(Stats),
	}

	// A failed compilation terminates the run with zeroed statistics.
	if compile != nil && !compile.OK {
		report.Overall = string(compile.Verdict)
		return report
	}

	for _, result := range results {
		stats := report.Categories[result.Category]
		if stats == nil {
			stats = new(Stats)
			report.Categories[result.Category] = stats
		}
		stats.add(result)
		report.Stats.add(result)

		if len(report.Overall) == 0 && !result.Verdict.Passed() {
			report.Overall = fmt.Sprintf(
				"%s on %s", result.Verdict, result.Category.TestLabel(result.Number),
			)
		}
	}

	for _, stats := range report.Categories {
		stats.finish()
	}
	report.Stats.finish()

	if len(report.Overall) == 0 {
		report.Overall = string(verdict.AC)
	}
	return report
}

func (s *Stats) add(result *TestResult) {
	s.Total++
	if result.Verdict.Passed() {
		s.Passed++
	} else {
		s.Failed++
	}
	s.TimeMs += result.TimeMs
}

func (s *Stats) finish() {
	s.TimeMs = round(s.TimeMs, 2)
	s.PassRate = round(float64(s.Passed)/math.Max(1, float64(s.Total))*100, 1)
}

func round(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}

// truncate shortens long texts for summary display.
func truncate(text string, size int) string {
	if len(text) <= size {
		return text
	}
	return text[:size] + "..."
}
