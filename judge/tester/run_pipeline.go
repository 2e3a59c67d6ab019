package tester

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"judge_engine/common/config"
	"judge_engine/common/constants/verdict"
	"judge_engine/judge/checker"
	"judge_engine/judge/sandbox"
	"judge_engine/judge/sandbox/simple"
	"judge_engine/lib/logger"
	"judge_engine/problems"
)

const stderrHeadSize = 200

// runState carries one test execution through its pipeline steps.
type runState struct {
	tester   *Tester
	problem  *problems.Problem
	checker  checker.Checker
	solution *artifact
	ctx      context.Context

	job    *testJob
	box    sandbox.ISandbox
	result *TestResult

	input  *string
	answer *string

	runConfig *sandbox.ExecuteConfig
	runResult *sandbox.RunResult

	loggerData string
	defers     []func()
}

func (t *Tester) runTest(
	ctx context.Context,
	problem *problems.Problem,
	check checker.Checker,
	workDir string,
	solution *artifact,
	job *testJob,
) *TestResult {
	s := &runState{
		tester:     t,
		problem:    problem,
		checker:    check,
		solution:   solution,
		ctx:        ctx,
		job:        job,
		result:     &TestResult{Category: job.category, Number: job.number},
		loggerData: fmt.Sprintf("problem %s %s", problem.ID, job.category.TestLabel(job.number)),
	}
	s.defers = append(s.defers, solution.release)
	defer s.finish()

	logger.Trace("Starting test run for %s", s.loggerData)
	err := s.testingPipeline(workDir)
	if err != nil {
		logger.Error("Error in test run for %s, error: %v", s.loggerData, err)
		s.result.Verdict = verdict.JE
		s.result.Detail = err.Error()
	}
	return s.result
}

func (s *runState) finish() {
	slices.Reverse(s.defers)
	for _, f := range s.defers {
		f()
	}
}

func (s *runState) testingPipeline(workDir string) error {
	err := s.initSandbox(workDir)
	if err != nil {
		return err
	}
	err = s.loadSolution()
	if err != nil {
		return err
	}
	err = s.loadTestFiles()
	if err != nil {
		return err
	}
	s.generateRunConfig()

	err = s.execute()
	if err != nil {
		return err
	}
	if !s.classify() {
		s.check()
	}
	s.collectPreviews()
	logger.Trace("Finished test run for %s with verdict %s", s.loggerData, s.result.Verdict)
	return nil
}

func (s *runState) initSandbox(workDir string) error {
	dir := filepath.Join(workDir, fmt.Sprintf("test_%s_%02d", s.job.category, s.job.number))
	box, err := simple.NewSandbox(dir)
	if err != nil {
		return fmt.Errorf("can not create sandbox, error: %v", err)
	}
	s.box = box
	err = s.box.Init()
	if err != nil {
		return fmt.Errorf("can not initialize sandbox, error: %v", err)
	}
	s.defers = append(s.defers, s.box.Cleanup)
	return nil
}

func (s *runState) loadSolution() error {
	err := copyFile(s.solution.path, filepath.Join(s.box.Dir(), solutionFile), 0755)
	if err != nil {
		return fmt.Errorf("can not copy solution binary to sandbox, error: %v", err)
	}
	return nil
}

func (s *runState) loadTestFiles() error {
	var err error
	s.input, err = s.tester.storage.TestInput(s.problem.ID, s.job.category, s.job.number)
	if err != nil {
		return fmt.Errorf("can not get test input, error: %v", err)
	}
	s.answer, err = s.tester.storage.TestAnswer(s.problem.ID, s.job.category, s.job.number)
	if err != nil {
		return fmt.Errorf("can not get test answer, error: %v", err)
	}

	err = os.WriteFile(filepath.Join(s.box.Dir(), testInputFile), []byte(*s.input), 0644)
	if err != nil {
		return fmt.Errorf("can not copy test input to sandbox, error: %v", err)
	}
	err = os.WriteFile(filepath.Join(s.box.Dir(), testAnswerFile), []byte(*s.answer), 0644)
	if err != nil {
		return fmt.Errorf("can not copy test answer to sandbox, error: %v", err)
	}
	return nil
}

func (s *runState) generateRunConfig() {
	s.runConfig = new(sandbox.ExecuteConfig)
	fillInTestRunLimits(s.runConfig, s.problem)

	s.runConfig.Command = solutionFile
	s.runConfig.Stdin = &sandbox.IORedirect{FileName: testInputFile}
	s.runConfig.Stdout = &sandbox.IORedirect{FileName: testOutputFile}
	s.runConfig.Stderr = &sandbox.IORedirect{FileName: testErrorFile}
	s.runConfig.Ctx = s.ctx
}

func fillInTestRunLimits(c *sandbox.ExecuteConfig, problem *problems.Problem) {
	c.RunLimitsConfig = config.RunLimitsConfig{
		TimeLimit:   problem.TimeLimit,
		MemoryLimit: problem.MemoryLimit,
	}

	c.WallTimeLimit.FromStr("5s")
	if c.WallTimeLimit < c.TimeLimit*2 {
		c.WallTimeLimit = c.TimeLimit * 2
	}
	c.MaxOpenFiles = 64
	c.MaxOutputSize.FromStr("1g")
}

func (s *runState) execute() error {
	s.runResult = s.box.Run(s.runConfig)
	if s.runResult.Err != nil {
		return fmt.Errorf("can not run solution in sandbox, error: %v", s.runResult.Err)
	}
	if s.runResult.Statistics != nil {
		s.result.TimeMs = round(float64(s.runResult.Statistics.Time.Val())/1e6, 2)
		s.result.Memory = s.runResult.Statistics.Memory
	}
	return nil
}

// classify maps execution failures onto their verdicts directly. It reports
// whether the run already has a verdict, only completed runs are checked.
func (s *runState) classify() bool {
	switch s.runResult.Class {
	case sandbox.TimedOut:
		s.result.Verdict = verdict.TLE
		s.result.Detail = fmt.Sprintf("Time limit exceeded (%v)", s.problem.TimeLimit)
		return true
	case sandbox.RuntimeError:
		s.result.Verdict = verdict.RTE
		s.result.Detail = fmt.Sprintf("Runtime error: %s", s.readSandboxHead(testErrorFile, stderrHeadSize))
		return true
	}
	return false
}

func (s *runState) check() {
	checkResult := s.checker.Check(&checker.Task{
		Ctx:        s.ctx,
		Box:        s.box,
		InputFile:  testInputFile,
		OutputFile: testOutputFile,
		AnswerFile: testAnswerFile,
	})
	s.result.Verdict = checkResult.Verdict
	s.result.Detail = checkResult.Detail
}

func (s *runState) collectPreviews() {
	s.result.Input = truncate(strings.TrimSpace(*s.input), inputPreviewSize)
	s.result.Expected = truncate(strings.TrimSpace(*s.answer), outputPreviewSize)
	if s.runResult.Class == sandbox.Completed {
		output := s.readSandboxHead(testOutputFile, s.tester.cfg.SaveOutputHead.Val())
		s.result.Output = truncate(strings.TrimSpace(output), outputPreviewSize)
	}
}

func (s *runState) readSandboxHead(fileName string, limit uint64) string {
	head, err := readFileHead(filepath.Join(s.box.Dir(), fileName), limit)
	if err != nil {
		logger.Warn("Can not read %s for %s, error: %v", fileName, s.loggerData, err)
		return ""
	}
	return head
}
