package testgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"judge_engine/common/config"
	"judge_engine/judge/sandbox"
	"judge_engine/judge/sandbox/simple"
	"judge_engine/lib/logger"
	"judge_engine/problems"
)

const diagnosticHeadSize = 200

// programRun executes the maintenance programs of one problem: the input
// generator, the optional validator and the reference solution. All of them
// run with the problem directory as working directory.
type programRun struct {
	cfg     *config.JudgeConfig
	problem *problems.Problem
	ctx     context.Context
	box     sandbox.ISandbox
}

func (g *Generator) newProgramRun(
	ctx context.Context, problem *problems.Problem, prefix string,
) (*programRun, error) {
	box, err := simple.NewSandbox(filepath.Join(g.cfg.WorkPath, prefix+uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("can not create generation sandbox, error: %v", err)
	}
	err = box.Init()
	if err != nil {
		return nil, fmt.Errorf("can not initialize generation sandbox, error: %v", err)
	}
	return &programRun{cfg: g.cfg, problem: problem, ctx: ctx, box: box}, nil
}

func (r *programRun) close() {
	r.box.Cleanup()
}

// programPath resolves a maintenance program and checks it exists.
func (r *programRun) programPath(name string) (string, error) {
	program, err := r.problem.ProgramPath(name)
	if err != nil {
		return "", err
	}
	_, err = os.Stat(program)
	if err != nil {
		return "", fmt.Errorf("can not find program %s, error: %v", name, err)
	}
	return program, nil
}

func (r *programRun) execute(
	program string, limits *config.RunLimitsConfig, args []string, stdin io.Reader,
) (*sandbox.RunResult, *bytes.Buffer, *bytes.Buffer) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	runConfig := &sandbox.ExecuteConfig{
		RunLimitsConfig: *limits,
		Command:         program,
		Args:            args,
		Cwd:             r.problem.Dir,
		Stdout:          &sandbox.IORedirect{Output: stdout},
		Stderr:          &sandbox.IORedirect{Output: stderr},
		Ctx:             r.ctx,
	}
	if stdin != nil {
		runConfig.Stdin = &sandbox.IORedirect{Input: stdin}
	}
	return r.box.Run(runConfig), stdout, stderr
}

// runProgram executes one program and returns its stdout, mapping every non
// clean termination onto an error.
func (r *programRun) runProgram(
	label string, name string, limits *config.RunLimitsConfig, args []string, stdin io.Reader,
) (string, error) {
	program, err := r.programPath(name)
	if err != nil {
		return "", err
	}
	result, stdout, stderr := r.execute(program, limits, args, stdin)
	if result.Err != nil {
		return "", fmt.Errorf("can not run %s, error: %v", label, result.Err)
	}
	switch result.Class {
	case sandbox.TimedOut:
		return "", fmt.Errorf("%s took more than %v time", label, limits.TimeLimit)
	case sandbox.RuntimeError:
		return "", fmt.Errorf(
			"%s exited with code %d: %s",
			label, result.Statistics.ExitCode, head(stderr),
		)
	}
	return stdout.String(), nil
}

// generate produces one raw test input.
func (r *programRun) generate(caseNum int, seed int) (string, error) {
	return r.runProgram(
		"generator", r.problem.Programs.Generator, r.cfg.GeneratorLimits,
		[]string{strconv.Itoa(caseNum), strconv.Itoa(seed)}, nil,
	)
}

// solve derives the expected answer for input with the reference solution.
func (r *programRun) solve(input string) (string, error) {
	return r.runProgram(
		"reference solution", r.problem.Programs.Solution, r.cfg.SolutionLimits,
		nil, strings.NewReader(input),
	)
}

// checkInput runs the validator over input per the problem validation policy.
// A nil return means the input is accepted.
func (r *programRun) checkInput(input string) error {
	policy := r.problem.Validation.Policy
	if policy == problems.ValidationDisabled {
		return nil
	}

	validator, err := r.problem.ProgramPath(r.problem.Programs.Validator)
	if err != nil {
		return err
	}
	_, err = os.Stat(validator)
	if err != nil {
		if policy == problems.ValidationStrict {
			return fmt.Errorf("validator is required but missing, error: %v", err)
		}
		logger.Warn("Problem %s has no validator, accepting input", r.problem.ID)
		return nil
	}

	result, stdout, stderr := r.execute(
		validator, r.cfg.ValidatorLimits, nil, strings.NewReader(input),
	)
	if result.Err != nil || result.Class == sandbox.TimedOut {
		reason := fmt.Sprintf("validator took more than %v time", r.cfg.ValidatorLimits.TimeLimit)
		if result.Err != nil {
			reason = fmt.Sprintf("can not run validator, error: %v", result.Err)
		}
		if policy == problems.ValidationStrict {
			return errors.New(reason)
		}
		logger.Warn("Problem %s: %s, accepting input", r.problem.ID, reason)
		return nil
	}
	if result.Class == sandbox.RuntimeError {
		detail := head(stdout)
		if len(detail) == 0 {
			detail = head(stderr)
		}
		if len(detail) == 0 {
			return fmt.Errorf("input rejected by validator")
		}
		return fmt.Errorf("input rejected by validator: %s", detail)
	}
	return nil
}

// head is the trimmed leading part of a diagnostic stream.
func head(buffer *bytes.Buffer) string {
	text := buffer.String()
	if len(text) > diagnosticHeadSize {
		text = text[:diagnosticHeadSize]
	}
	return strings.TrimSpace(text)
}
