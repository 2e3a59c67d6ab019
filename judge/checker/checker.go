package checker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"judge_engine/common/config"
	"judge_engine/common/constants/verdict"
	"judge_engine/judge/sandbox"
	"judge_engine/lib/customfields"
)

// Kind selects the answer checking strategy of a problem.
type Kind string

const (
	KindExact         Kind = "exact"
	KindTolerantFloat Kind = "tolerant-float"
	KindSpecialJudge  Kind = "special-judge"
)

// ParseKind parses the checker kind from a problem config. An empty value
// means exact checking.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindExact, KindTolerantFloat, KindSpecialJudge:
		return Kind(s), nil
	case "":
		return KindExact, nil
	}
	return "", fmt.Errorf("unknown checker kind: %s", s)
}

// Task points a checker at one finished test run. All file names are relative
// to the sandbox the test ran in.
type Task struct {
	Ctx context.Context
	Box sandbox.ISandbox

	InputFile  string
	OutputFile string
	AnswerFile string
}

func (t *Task) path(name string) string {
	return filepath.Join(t.Box.Dir(), name)
}

// Result is the checker decision for one test. Detail is a short human
// readable message, for special judges it is the judge's own output.
type Result struct {
	Verdict verdict.Verdict
	Detail  string
}

type Checker interface {
	Check(task *Task) *Result
}

// Params collects everything needed to build the checker of one problem.
type Params struct {
	Kind           Kind
	FloatTolerance float64

	// SpecialJudgeBinary is the compiled special judge executable.
	SpecialJudgeBinary string
	// TestlibReport switches the special judge to the testlib appes report
	// protocol instead of plain exit codes.
	TestlibReport bool

	Limits     *config.RunLimitsConfig
	OutputHead customfields.Memory
}

func New(params *Params) (Checker, error) {
	switch params.Kind {
	case KindExact, "":
		return &exactChecker{}, nil
	case KindTolerantFloat:
		return &floatChecker{tolerance: params.FloatTolerance}, nil
	case KindSpecialJudge:
		if len(params.SpecialJudgeBinary) == 0 {
			return nil, fmt.Errorf("special judge checker has no compiled judge binary")
		}
		return &spjChecker{
			binary:     params.SpecialJudgeBinary,
			testlib:    params.TestlibReport,
			limits:     params.Limits,
			outputHead: params.OutputHead,
		}, nil
	}
	return nil, fmt.Errorf("unknown checker kind: %s", params.Kind)
}

// readText loads a checker input file. Failures here are judge faults, never
// contestant verdicts.
func readText(path string) (string, *Result) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &Result{
			Verdict: verdict.JE,
			Detail:  fmt.Sprintf("can not read %s, error: %v", filepath.Base(path), err),
		}
	}
	if !utf8.Valid(data) {
		return "", &Result{
			Verdict: verdict.JE,
			Detail:  fmt.Sprintf("can not decode %s as utf-8", filepath.Base(path)),
		}
	}
	return string(data), nil
}
