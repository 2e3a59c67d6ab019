package testgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"judge_engine/common/config"
	"judge_engine/common/constants/category"
	"judge_engine/lib/logger"
	"judge_engine/problems"
)

// Generator manufactures test cases for a problem by chaining its input
// generator, the optional validator and the reference solution. Failing cases
// are skipped with a warning, they never abort a batch.
type Generator struct {
	cfg     *config.JudgeConfig
	storage *problems.Storage
}

func NewGenerator(cfg *config.JudgeConfig, storage *problems.Storage) *Generator {
	return &Generator{cfg: cfg, storage: storage}
}

// GeneratedCase is one manufactured test pair before persistence. Input and
// Answer are stored stripped of surrounding whitespace.
type GeneratedCase struct {
	CaseNum   int    `json:"caseNum"`
	Seed      int    `json:"seed"`
	Input     string `json:"input"`
	Answer    string `json:"answer"`
	InputSize int    `json:"inputSize"`
	Lines     int    `json:"lines"`
}

// BatchResult is the outcome of one generation batch.
type BatchResult struct {
	Cases    []*GeneratedCase `json:"cases"`
	Skipped  int              `json:"skipped"`
	Warnings []string         `json:"warnings,omitempty"`
}

// GenerateBatch manufactures count cases. The batch derives one random base
// seed, case i runs with seed base+i so a batch is internally reproducible
// while batches differ between runs.
func (g *Generator) GenerateBatch(
	ctx context.Context, problem *problems.Problem, count int,
) (*BatchResult, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid case count %d", count)
	}
	run, err := g.newProgramRun(ctx, problem, "generate_")
	if err != nil {
		return nil, err
	}
	defer run.close()

	baseSeed := rand.IntN(90000) + 10000
	batch := new(BatchResult)
	for i := range count {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation is cancelled, error: %v", err)
		}
		caseNum := i + 1
		generated, err := generateCase(run, caseNum, baseSeed+i)
		if err != nil {
			logger.Warn(
				"Can not generate case %d of problem %s, error: %v",
				caseNum, problem.ID, err,
			)
			batch.Skipped++
			batch.Warnings = append(batch.Warnings, fmt.Sprintf("case %d: %v", caseNum, err))
			continue
		}
		batch.Cases = append(batch.Cases, generated)
	}
	logger.Info(
		"Generated %d of %d cases for problem %s",
		len(batch.Cases), count, problem.ID,
	)
	return batch, nil
}

func generateCase(run *programRun, caseNum int, seed int) (*GeneratedCase, error) {
	input, err := run.generate(caseNum, seed)
	if err != nil {
		return nil, err
	}
	err = run.checkInput(input)
	if err != nil {
		return nil, err
	}
	answer, err := run.solve(input)
	if err != nil {
		return nil, err
	}

	input = strings.TrimSpace(input)
	return &GeneratedCase{
		CaseNum:   caseNum,
		Seed:      seed,
		Input:     input,
		Answer:    strings.TrimSpace(answer),
		InputSize: len(input),
		Lines:     strings.Count(input, "\n") + 1,
	}, nil
}

// SaveMode selects how a batch lands in an existing category.
type SaveMode string

const (
	// SaveAppend numbers new tests after the current maximum.
	SaveAppend SaveMode = "append"
	// SaveReplace purges the category first and numbers from one.
	SaveReplace SaveMode = "replace"
)

func ParseSaveMode(s string) (SaveMode, error) {
	switch SaveMode(s) {
	case SaveAppend, "":
		return SaveAppend, nil
	case SaveReplace:
		return SaveReplace, nil
	}
	return "", fmt.Errorf("unknown save mode: %s", s)
}

// SaveCases persists generated cases into one category, returning how many
// tests were written.
func (g *Generator) SaveCases(
	problem *problems.Problem, cat category.Category, cases []*GeneratedCase, mode SaveMode,
) (int, error) {
	lock := g.storage.ProblemLock(problem.ID)
	lock.Lock()
	defer lock.Unlock()

	next := 1
	switch mode {
	case SaveReplace:
		err := g.storage.PurgeCategory(problem, cat)
		if err != nil {
			return 0, err
		}
	case SaveAppend, "":
		maxNumber, err := g.storage.MaxTestNumber(problem, cat)
		if err != nil {
			return 0, err
		}
		next = maxNumber + 1
	default:
		return 0, fmt.Errorf("unknown save mode: %s", mode)
	}

	saved := 0
	for _, c := range cases {
		err := g.storage.WriteTest(problem, cat, next, persisted(c.Input), persisted(c.Answer))
		if err != nil {
			return saved, err
		}
		next++
		saved++
	}
	logger.Info("Saved %d tests into %s/%s", saved, problem.ID, cat)
	return saved, nil
}

// AddManualTest validates a caller supplied input, derives its answer with
// the reference solution and appends the pair to the category. Returns the
// assigned test number.
func (g *Generator) AddManualTest(
	ctx context.Context, problem *problems.Problem, cat category.Category, input string,
) (int, error) {
	run, err := g.newProgramRun(ctx, problem, "manual_")
	if err != nil {
		return 0, err
	}
	defer run.close()

	err = run.checkInput(input)
	if err != nil {
		return 0, err
	}
	answer, err := run.solve(input)
	if err != nil {
		return 0, err
	}

	lock := g.storage.ProblemLock(problem.ID)
	lock.Lock()
	defer lock.Unlock()

	maxNumber, err := g.storage.MaxTestNumber(problem, cat)
	if err != nil {
		return 0, err
	}
	number := maxNumber + 1
	err = g.storage.WriteTest(problem, cat, number, persisted(input), persisted(answer))
	if err != nil {
		return 0, err
	}
	logger.Info("Added manual test %s to problem %s", cat.TestLabel(number), problem.ID)
	return number, nil
}

// persisted is the canonical stored form of a test file, stripped content
// with a single trailing newline.
func persisted(text string) []byte {
	return []byte(strings.TrimSpace(text) + "\n")
}
