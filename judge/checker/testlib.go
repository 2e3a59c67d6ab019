package checker

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/net/html/charset"

	"judge_engine/common/constants/verdict"
)

// testlibReport is the appes mode result file written by testlib checkers.
// The xml prolog may declare any encoding, testlib traditionally writes
// windows-1251.
type testlibReport struct {
	Outcome string `xml:"outcome,attr"`
	Value   string `xml:",chardata"`
}

func outcomeFromTestlib(outcome string) (spjOutcome, error) {
	switch outcome {
	case "accepted":
		return spjAccepted, nil
	case "wrong-answer", "unexpected-eof":
		return spjWrongAnswer, nil
	case "presentation-error":
		return spjPresentationError, nil
	case "fail":
		return spjJudgeFailure, nil
	}
	return spjJudgeFailure, fmt.Errorf("unknown testlib outcome %s", outcome)
}

func (c *spjChecker) parseReport(task *Task, fallbackDetail string) *Result {
	file, err := os.Open(filepath.Join(task.Box.Dir(), spjReportFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Result{Verdict: verdict.JE, Detail: "special judge wrote no report file"}
		}
		return &Result{
			Verdict: verdict.JE,
			Detail:  fmt.Sprintf("can not open special judge report, error: %v", err),
		}
	}
	defer file.Close()

	report := new(testlibReport)
	decoder := xml.NewDecoder(file)
	decoder.CharsetReader = charset.NewReaderLabel
	err = decoder.Decode(report)
	if err != nil {
		return &Result{
			Verdict: verdict.JE,
			Detail:  fmt.Sprintf("can not parse special judge report, error: %v", err),
		}
	}

	outcome, err := outcomeFromTestlib(report.Outcome)
	if err != nil {
		return &Result{Verdict: verdict.JE, Detail: err.Error()}
	}
	detail := c.head([]byte(report.Value))
	if len(detail) == 0 {
		detail = fallbackDetail
	}
	return &Result{Verdict: outcome.verdict(), Detail: detail}
}
