package tester

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"judge_engine/judge/sandbox"
	"judge_engine/judge/sandbox/simple"
	"judge_engine/lib/logger"
	"judge_engine/problems"
)

// TrialResult is the outcome of a one off run against caller supplied input.
type TrialResult struct {
	OK      bool    `json:"ok"`
	Output  string  `json:"output"`
	Message string  `json:"message,omitempty"`
	TimeMs  float64 `json:"timeMs"`
}

// Trial compiles the source and feeds it the given input once under the
// problem limits. No checker runs, the caller inspects the output itself.
func (t *Tester) Trial(
	ctx context.Context,
	problem *problems.Problem,
	language string,
	sourcePath string,
	input string,
) (*TrialResult, error) {
	lang, err := t.compiler.GetLanguage(language)
	if err != nil {
		return nil, err
	}

	workDir := filepath.Join(t.cfg.WorkPath, "trial_"+uuid.NewString())
	err = os.MkdirAll(workDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("can not create trial work dir, error: %v", err)
	}
	defer func() {
		err := os.RemoveAll(workDir)
		if err != nil {
			logger.Error("Can not clean up trial work dir %s, error: %v", workDir, err)
		}
	}()

	compile, artifactPath, err := t.compileSolution(ctx, workDir, lang, sourcePath)
	if err != nil {
		return nil, err
	}
	if !compile.OK {
		return &TrialResult{
			Message: fmt.Sprintf("Compilation error: %s", compile.Message),
			TimeMs:  compile.TimeMs,
		}, nil
	}

	box, err := simple.NewSandbox(filepath.Join(workDir, "trial"))
	if err != nil {
		return nil, fmt.Errorf("can not create trial sandbox, error: %v", err)
	}
	err = box.Init()
	if err != nil {
		return nil, fmt.Errorf("can not initialize trial sandbox, error: %v", err)
	}
	defer box.Cleanup()

	runConfig := new(sandbox.ExecuteConfig)
	fillInTestRunLimits(runConfig, problem)
	runConfig.Command = artifactPath
	runConfig.Stdin = &sandbox.IORedirect{Input: strings.NewReader(input)}
	runConfig.Stdout = &sandbox.IORedirect{FileName: testOutputFile}
	runConfig.Stderr = &sandbox.IORedirect{FileName: testErrorFile}
	runConfig.Ctx = ctx

	runResult := box.Run(runConfig)
	if runResult.Err != nil {
		return nil, fmt.Errorf("can not run trial in sandbox, error: %v", runResult.Err)
	}

	result := new(TrialResult)
	if runResult.Statistics != nil {
		result.TimeMs = round(float64(runResult.Statistics.Time.Val())/1e6, 2)
	}
	switch runResult.Class {
	case sandbox.Completed:
		result.OK = true
		output, err := readFileHead(filepath.Join(box.Dir(), testOutputFile), t.cfg.SaveOutputHead.Val())
		if err != nil {
			return nil, fmt.Errorf("can not read trial output, error: %v", err)
		}
		result.Output = strings.TrimSpace(output)
	case sandbox.TimedOut:
		result.Message = fmt.Sprintf("Time limit exceeded (%v)", problem.TimeLimit)
	case sandbox.RuntimeError:
		stderrHead, err := readFileHead(filepath.Join(box.Dir(), testErrorFile), stderrHeadSize)
		if err != nil {
			stderrHead = ""
		}
		result.Message = fmt.Sprintf("Runtime error: %s", strings.TrimSpace(stderrHead))
	}
	return result, nil
}
