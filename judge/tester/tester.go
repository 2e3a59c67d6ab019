package tester

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"judge_engine/common/config"
	"judge_engine/common/constants/category"
	"judge_engine/judge/checker"
	"judge_engine/judge/compiler"
	"judge_engine/judge/sandbox/simple"
	"judge_engine/lib/logger"
	"judge_engine/problems"
)

// Tester judges submissions: compile once, run every stored test under the
// problem limits, check the outputs and aggregate a report.
type Tester struct {
	cfg      *config.JudgeConfig
	compiler *compiler.Compiler
	storage  *problems.Storage
}

func NewTester(cfg *config.JudgeConfig, comp *compiler.Compiler, storage *problems.Storage) *Tester {
	return &Tester{cfg: cfg, compiler: comp, storage: storage}
}

const artifactFile = "solution"

// artifact is the compiled solution binary shared by all test runs of one
// judged submission. The file is removed exactly once, when the last reader
// releases it.
type artifact struct {
	path string

	mutex   sync.Mutex
	readers int
}

func newArtifact(path string, readers int) *artifact {
	return &artifact{path: path, readers: readers}
}

func (a *artifact) release() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.readers <= 0 {
		logger.Panic("Solution artifact %s is released more times than acquired", a.path)
	}
	a.readers--
	if a.readers > 0 {
		return
	}
	err := os.Remove(a.path)
	if err != nil {
		logger.Error("Can not remove solution artifact %s, error: %v", a.path, err)
	} else {
		logger.Trace("Removed solution artifact %s", a.path)
	}
}

// Judge compiles sourcePath with the named language and runs it over every
// stored test of problem. The returned error is non nil only for judge wide
// faults and cancellation, per test infrastructure failures surface as JE
// results inside the report.
func (t *Tester) Judge(
	ctx context.Context,
	problem *problems.Problem,
	language string,
	sourcePath string,
) (*Report, error) {
	lang, err := t.compiler.GetLanguage(language)
	if err != nil {
		return nil, err
	}

	workDir := filepath.Join(t.cfg.WorkPath, "run_"+uuid.NewString())
	err = os.MkdirAll(workDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("can not create run work dir, error: %v", err)
	}
	defer func() {
		err := os.RemoveAll(workDir)
		if err != nil {
			logger.Error("Can not clean up run work dir %s, error: %v", workDir, err)
		}
	}()

	compile, artifactPath, err := t.compileSolution(ctx, workDir, lang, sourcePath)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("judging is cancelled, error: %v", err)
	}
	if !compile.OK {
		logger.Info("Judging of problem %s stopped, verdict %s", problem.ID, compile.Verdict)
		return buildReport(compile, nil), nil
	}

	spjBinary, err := t.EnsureSpecialJudge(ctx, problem)
	if err != nil {
		return nil, err
	}
	check, err := checker.New(&checker.Params{
		Kind:               problem.Checker.Kind,
		FloatTolerance:     problem.Checker.FloatTolerance,
		SpecialJudgeBinary: spjBinary,
		TestlibReport:      problem.Checker.Protocol == problems.ProtocolTestlib,
		Limits:             t.cfg.CheckerLimits,
		OutputHead:         t.cfg.SaveOutputHead,
	})
	if err != nil {
		return nil, err
	}

	jobs, err := t.collectJobs(problem)
	if err != nil {
		return nil, err
	}
	results, err := t.runJobs(ctx, problem, check, workDir, artifactPath, jobs)
	if err != nil {
		return nil, err
	}

	report := buildReport(compile, results)
	logger.Info(
		"Judged problem %s: %s, %d of %d tests passed",
		problem.ID, report.Overall, report.Stats.Passed, report.Stats.Total,
	)
	return report, nil
}

func (t *Tester) compileSolution(
	ctx context.Context, workDir string, lang *compiler.Language, sourcePath string,
) (*CompileReport, string, error) {
	box, err := simple.NewSandbox(filepath.Join(workDir, "compile"))
	if err != nil {
		return nil, "", fmt.Errorf("can not create compile sandbox, error: %v", err)
	}
	err = box.Init()
	if err != nil {
		return nil, "", fmt.Errorf("can not initialize compile sandbox, error: %v", err)
	}
	defer box.Cleanup()

	artifactPath := filepath.Join(workDir, artifactFile)
	result := t.compiler.Compile(ctx, box, lang, sourcePath, artifactPath)
	report := &CompileReport{
		OK:      result.OK,
		Verdict: result.Verdict,
		Message: result.Message,
		TimeMs:  round(float64(result.Time.Val())/1e6, 2),
	}
	return report, artifactPath, nil
}

type testJob struct {
	index    int
	category category.Category
	number   int
}

// collectJobs lists the judged tests in category and sequence order. Tests
// with a missing input or answer file are skipped silently.
func (t *Tester) collectJobs(problem *problems.Problem) ([]*testJob, error) {
	var jobs []*testJob
	for _, cat := range problem.JudgeCategories() {
		tests, err := t.storage.ListTests(problem, cat)
		if err != nil {
			return nil, err
		}
		for _, test := range tests {
			if !test.HasInput || !test.HasAnswer {
				logger.Debug(
					"Skipping incomplete %s of problem %s",
					cat.TestLabel(test.Number), problem.ID,
				)
				continue
			}
			jobs = append(jobs, &testJob{index: len(jobs), category: cat, number: test.Number})
		}
	}
	return jobs, nil
}

// runJobs executes the jobs over the test worker pool. Results keep the
// judging order regardless of completion order.
func (t *Tester) runJobs(
	ctx context.Context,
	problem *problems.Problem,
	check checker.Checker,
	workDir string,
	artifactPath string,
	jobs []*testJob,
) ([]*TestResult, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	solution := newArtifact(artifactPath, len(jobs))
	results := make([]*TestResult, len(jobs))

	queue := make(chan *testJob)
	var wg sync.WaitGroup
	workers := min(max(t.cfg.TestWorkers, 1), len(jobs))
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for job := range queue {
				results[job.index] = t.runTest(ctx, problem, check, workDir, solution, job)
			}
		}()
	}

	sent := 0
dispatch:
	for _, job := range jobs {
		select {
		case queue <- job:
			sent++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(queue)
	wg.Wait()

	// Jobs never handed to a worker still hold artifact references.
	for range len(jobs) - sent {
		solution.release()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("judging is cancelled, error: %v", err)
	}
	return results, nil
}
