package checker

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"judge_engine/common/constants/verdict"
)

type floatChecker struct {
	tolerance float64
}

func (c *floatChecker) Check(task *Task) *Result {
	answer, failure := readText(task.path(task.AnswerFile))
	if failure != nil {
		return failure
	}
	output, failure := readText(task.path(task.OutputFile))
	if failure != nil {
		return failure
	}

	expected := strings.Fields(answer)
	actual := strings.Fields(output)
	if len(expected) != len(actual) {
		return &Result{
			Verdict: verdict.WA,
			Detail:  fmt.Sprintf("expected %d tokens, got %d", len(expected), len(actual)),
		}
	}
	for i := range expected {
		want, err := strconv.ParseFloat(expected[i], 64)
		if err != nil {
			return &Result{
				Verdict: verdict.WA,
				Detail:  fmt.Sprintf("answer token %d is not a number", i+1),
			}
		}
		got, err := strconv.ParseFloat(actual[i], 64)
		if err != nil {
			return &Result{
				Verdict: verdict.WA,
				Detail:  fmt.Sprintf("token %d is not a number", i+1),
			}
		}
		// The tolerance itself is still an accepted difference.
		if math.Abs(want-got) > c.tolerance {
			return &Result{
				Verdict: verdict.WA,
				Detail: fmt.Sprintf(
					"token %d differs: expected %s, got %s", i+1, expected[i], actual[i],
				),
			}
		}
	}
	return &Result{Verdict: verdict.AC, Detail: fmt.Sprintf("%d tokens checked", len(expected))}
}
