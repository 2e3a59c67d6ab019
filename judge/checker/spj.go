package checker

import (
	"bytes"
	"fmt"
	"strings"

	"judge_engine/common/config"
	"judge_engine/common/constants/verdict"
	"judge_engine/judge/sandbox"
	"judge_engine/lib/customfields"
)

// spjOutcome is the decoded special judge decision. Exit codes and testlib
// report outcomes are mapped into it right where they are read, so nothing
// downstream interprets raw codes.
type spjOutcome int

const (
	spjAccepted spjOutcome = iota
	spjWrongAnswer
	spjPresentationError
	spjJudgeFailure
)

func (o spjOutcome) verdict() verdict.Verdict {
	switch o {
	case spjAccepted:
		return verdict.AC
	case spjWrongAnswer:
		return verdict.WA
	case spjPresentationError:
		return verdict.PE
	default:
		return verdict.JE
	}
}

func outcomeFromExitCode(code int) spjOutcome {
	switch code {
	case 0:
		return spjAccepted
	case 1:
		return spjWrongAnswer
	case 2:
		return spjPresentationError
	default:
		return spjJudgeFailure
	}
}

type spjChecker struct {
	binary     string
	testlib    bool
	limits     *config.RunLimitsConfig
	outputHead customfields.Memory
}

const spjReportFile = "check_result.xml"

func (c *spjChecker) Check(task *Task) *Result {
	var stdout, stderr bytes.Buffer
	execConfig := &sandbox.ExecuteConfig{
		RunLimitsConfig: *c.limits,
		Command:         c.binary,
		Args:            []string{task.InputFile, task.OutputFile, task.AnswerFile},
		Stdout:          &sandbox.IORedirect{Output: &stdout},
		Stderr:          &sandbox.IORedirect{Output: &stderr},
		Ctx:             task.Ctx,
	}
	if c.testlib {
		execConfig.Args = append(execConfig.Args, spjReportFile, "-appes")
	}

	runResult := task.Box.Run(execConfig)
	if runResult.Err != nil {
		return &Result{
			Verdict: verdict.JE,
			Detail:  fmt.Sprintf("can not run special judge, error: %v", runResult.Err),
		}
	}
	if runResult.Class == sandbox.TimedOut {
		return &Result{
			Verdict: verdict.JE,
			Detail:  fmt.Sprintf("special judge took more than %v time", c.limits.TimeLimit),
		}
	}

	detail := c.head(stderr.Bytes())
	if len(detail) == 0 {
		detail = c.head(stdout.Bytes())
	}

	if c.testlib {
		return c.parseReport(task, detail)
	}

	outcome := outcomeFromExitCode(runResult.Statistics.ExitCode)
	if outcome == spjJudgeFailure {
		detail = fmt.Sprintf(
			"special judge exited with code %d: %s", runResult.Statistics.ExitCode, detail,
		)
	}
	return &Result{Verdict: outcome.verdict(), Detail: detail}
}

func (c *spjChecker) head(data []byte) string {
	if uint64(len(data)) > c.outputHead.Val() {
		data = data[:c.outputHead.Val()]
	}
	return strings.TrimSpace(string(data))
}
