package tester

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"judge_engine/judge/checker"
	"judge_engine/judge/sandbox/simple"
	"judge_engine/lib/logger"
	"judge_engine/problems"
)

// EnsureSpecialJudge compiles the special judge of problem if the stored
// binary is missing or older than its source, so configuration changes take
// effect without touching judging runs. Returns the binary path, empty for
// problems without a special judge.
func (t *Tester) EnsureSpecialJudge(ctx context.Context, problem *problems.Problem) (string, error) {
	if problem.Checker.Kind != checker.KindSpecialJudge {
		return "", nil
	}
	source, err := problem.ProgramPath(problem.Checker.SpecialJudge)
	if err != nil {
		return "", err
	}
	binary, err := problem.SpecialJudgeBinary()
	if err != nil {
		return "", err
	}

	lock := t.storage.ProblemLock(problem.ID)
	lock.Lock()
	defer lock.Unlock()

	sourceInfo, err := os.Stat(source)
	if err != nil {
		return "", fmt.Errorf("can not stat special judge source, error: %v", err)
	}
	binaryInfo, err := os.Stat(binary)
	if err == nil && binaryInfo.ModTime().After(sourceInfo.ModTime()) {
		return binary, nil
	}

	lang, err := t.compiler.GetLanguage(problem.Checker.SpecialJudgeLanguage)
	if err != nil {
		return "", err
	}

	box, err := simple.NewSandbox(filepath.Join(t.cfg.WorkPath, "spj_"+uuid.NewString()))
	if err != nil {
		return "", fmt.Errorf("can not create special judge sandbox, error: %v", err)
	}
	err = box.Init()
	if err != nil {
		return "", fmt.Errorf("can not initialize special judge sandbox, error: %v", err)
	}
	defer box.Cleanup()

	result := t.compiler.Compile(ctx, box, lang, source, binary)
	if !result.OK {
		return "", fmt.Errorf("can not compile special judge: %s", result.Message)
	}
	logger.Info("Compiled special judge for problem %s", problem.ID)
	return binary, nil
}
