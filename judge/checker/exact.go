package checker

import (
	"fmt"
	"strings"

	"judge_engine/common/constants/verdict"
)

type exactChecker struct{}

// normalizeLines strips the text as a whole, strips trailing whitespace from
// every line and drops blank lines. Two outputs differing only in such
// whitespace are considered equal.
func normalizeLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimRight(line, " \t\r")
		if len(line) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func (c *exactChecker) Check(task *Task) *Result {
	answer, failure := readText(task.path(task.AnswerFile))
	if failure != nil {
		return failure
	}
	output, failure := readText(task.path(task.OutputFile))
	if failure != nil {
		return failure
	}

	expected := normalizeLines(answer)
	actual := normalizeLines(output)
	if len(expected) != len(actual) {
		return &Result{
			Verdict: verdict.WA,
			Detail:  fmt.Sprintf("expected %d lines, got %d", len(expected), len(actual)),
		}
	}
	for i := range expected {
		if expected[i] != actual[i] {
			return &Result{Verdict: verdict.WA, Detail: fmt.Sprintf("line %d differs", i+1)}
		}
	}
	return &Result{Verdict: verdict.AC, Detail: "ok"}
}
