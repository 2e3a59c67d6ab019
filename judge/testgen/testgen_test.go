package testgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"judge_engine/common/config"
	"judge_engine/common/constants/category"
	"judge_engine/problems"
)

const pairGenerator = "#!/bin/sh\necho \"$1 $2\"\n"

const sumSolution = "#!/bin/sh\nread a b\necho $((a+b))\n"

type testState struct {
	cfg       *config.JudgeConfig
	generator *Generator
	storage   *problems.Storage
}

func fixtureGenerator(t *testing.T) *testState {
	base := t.TempDir()
	cfg := &config.JudgeConfig{
		ProblemsPath:          filepath.Join(base, "problems"),
		WorkPath:              filepath.Join(base, "work"),
		CompilerConfigsFolder: filepath.Join(base, "compilers"),
	}
	require.NoError(t, os.MkdirAll(cfg.ProblemsPath, 0755))
	require.NoError(t, os.MkdirAll(cfg.WorkPath, 0755))
	config.FillInJudgeConfig(cfg)

	storage := problems.NewStorage(cfg)
	return &testState{cfg: cfg, generator: NewGenerator(cfg, storage), storage: storage}
}

func (ts *testState) addProblem(t *testing.T, id string, configYaml string) *problems.Problem {
	dir := filepath.Join(ts.cfg.ProblemsPath, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, problems.ConfigFileName), []byte(configYaml), 0644,
	))
	p, err := ts.storage.Problem(id)
	require.NoError(t, err)
	return p
}

func writeProgram(t *testing.T, p *problems.Problem, name string, body string) {
	require.NoError(t, os.WriteFile(filepath.Join(p.Dir, name), []byte(body), 0755))
}

func TestGenerateBatch(t *testing.T) {
	ts := fixtureGenerator(t)
	p := ts.addProblem(t, "sum", "Title: Sum\n")
	writeProgram(t, p, "generator", pairGenerator)
	writeProgram(t, p, "solution", sumSolution)

	batch, err := ts.generator.GenerateBatch(context.Background(), p, 3)
	require.NoError(t, err)
	require.Len(t, batch.Cases, 3)
	assert.Zero(t, batch.Skipped)
	assert.Empty(t, batch.Warnings)

	base := batch.Cases[0].Seed
	assert.GreaterOrEqual(t, base, 10000)
	assert.LessOrEqual(t, base, 99999)
	for i, c := range batch.Cases {
		assert.Equal(t, i+1, c.CaseNum)
		assert.Equal(t, base+i, c.Seed)
		assert.Equal(t, fmt.Sprintf("%d %d", i+1, c.Seed), c.Input)
		assert.Equal(t, strconv.Itoa(i+1+c.Seed), c.Answer)
		assert.Equal(t, len(c.Input), c.InputSize)
		assert.Equal(t, 1, c.Lines)
	}
}

func TestGenerateBatchMultilineInput(t *testing.T) {
	ts := fixtureGenerator(t)
	p := ts.addProblem(t, "lines", "Title: Lines\n")
	writeProgram(t, p, "generator", "#!/bin/sh\necho \"$1 $2\"\necho tail\n")
	writeProgram(t, p, "solution", "#!/bin/sh\ncat\n")

	batch, err := ts.generator.GenerateBatch(context.Background(), p, 1)
	require.NoError(t, err)
	require.Len(t, batch.Cases, 1)
	c := batch.Cases[0]
	assert.Equal(t, 2, c.Lines)
	assert.Equal(t, fmt.Sprintf("1 %d\ntail", c.Seed), c.Input)
	assert.Equal(t, c.Input, c.Answer)
}

func TestGenerateBatchSkipsFailingCases(t *testing.T) {
	ts := fixtureGenerator(t)
	p := ts.addProblem(t, "flaky", "Title: Flaky\n")
	writeProgram(t, p, "generator",
		"#!/bin/sh\nif [ \"$1\" = \"2\" ]; then echo broken >&2; exit 1; fi\necho \"$1 $2\"\n")
	writeProgram(t, p, "solution", sumSolution)

	batch, err := ts.generator.GenerateBatch(context.Background(), p, 3)
	require.NoError(t, err)
	require.Len(t, batch.Cases, 2)
	assert.Equal(t, 1, batch.Skipped)
	require.Len(t, batch.Warnings, 1)
	assert.Contains(t, batch.Warnings[0], "case 2")
	assert.Contains(t, batch.Warnings[0], "broken")
	assert.Equal(t, 1, batch.Cases[0].CaseNum)
	assert.Equal(t, 3, batch.Cases[1].CaseNum)
}

func TestGenerateBatchGeneratorTimeout(t *testing.T) {
	ts := fixtureGenerator(t)
	p := ts.addProblem(t, "slow", "Title: Slow\n")
	writeProgram(t, p, "generator", "#!/bin/sh\nsleep 10\n")
	writeProgram(t, p, "solution", sumSolution)

	limits := new(config.RunLimitsConfig)
	limits.TimeLimit.FromStr("200ms")
	limits.WallTimeLimit.FromStr("500ms")
	limits.MemoryLimit.FromStr("256m")
	limits.MaxOpenFiles = 64
	limits.MaxOutputSize.FromStr("1m")
	ts.cfg.GeneratorLimits = limits

	batch, err := ts.generator.GenerateBatch(context.Background(), p, 1)
	require.NoError(t, err)
	assert.Empty(t, batch.Cases)
	assert.Equal(t, 1, batch.Skipped)
	require.Len(t, batch.Warnings, 1)
	assert.Contains(t, batch.Warnings[0], "took more than")
}

const rejectingValidator = "#!/bin/sh\necho \"line 1 malformed\"\nexit 1\n"

func TestGenerateBatchValidation(t *testing.T) {
	ts := fixtureGenerator(t)
	p := ts.addProblem(t, "strictly", "Title: Strict\nValidation:\n  Policy: lenient\n")
	writeProgram(t, p, "generator", pairGenerator)
	writeProgram(t, p, "solution", sumSolution)
	writeProgram(t, p, "validator", rejectingValidator)

	batch, err := ts.generator.GenerateBatch(context.Background(), p, 2)
	require.NoError(t, err)
	assert.Empty(t, batch.Cases)
	assert.Equal(t, 2, batch.Skipped)
	assert.Contains(t, batch.Warnings[0], "rejected by validator")
	assert.Contains(t, batch.Warnings[0], "line 1 malformed")

	// A lenient problem without a validator accepts everything.
	require.NoError(t, os.Remove(filepath.Join(p.Dir, "validator")))
	batch, err = ts.generator.GenerateBatch(context.Background(), p, 2)
	require.NoError(t, err)
	assert.Len(t, batch.Cases, 2)

	// A strict problem without a validator generates nothing.
	strict := ts.addProblem(t, "strictly2", "Title: Strict\nValidation:\n  Policy: strict\n")
	writeProgram(t, strict, "generator", pairGenerator)
	writeProgram(t, strict, "solution", sumSolution)
	batch, err = ts.generator.GenerateBatch(context.Background(), strict, 1)
	require.NoError(t, err)
	assert.Empty(t, batch.Cases)
	assert.Contains(t, batch.Warnings[0], "validator is required")
}

func TestValidateInput(t *testing.T) {
	ts := fixtureGenerator(t)

	disabled := ts.addProblem(t, "off", "Title: Off\n")
	outcome, err := ts.generator.ValidateInput(context.Background(), disabled, "anything")
	require.NoError(t, err)
	assert.True(t, outcome.Valid)

	p := ts.addProblem(t, "checked", "Title: Checked\nValidation:\n  Policy: lenient\n")
	writeProgram(t, p, "validator",
		"#!/bin/sh\nread n\nif [ \"$n\" -gt 0 ] 2>/dev/null; then exit 0; fi\necho \"first line must be positive\"\nexit 1\n")

	outcome, err = ts.generator.ValidateInput(context.Background(), p, "5\n")
	require.NoError(t, err)
	assert.True(t, outcome.Valid)

	outcome, err = ts.generator.ValidateInput(context.Background(), p, "-1\n")
	require.NoError(t, err)
	assert.False(t, outcome.Valid)
	assert.Contains(t, outcome.Message, "first line must be positive")
}

func fixtureCases(inputs ...string) []*GeneratedCase {
	cases := make([]*GeneratedCase, 0, len(inputs))
	for i, input := range inputs {
		cases = append(cases, &GeneratedCase{
			CaseNum: i + 1,
			Input:   input,
			Answer:  "ans " + input,
		})
	}
	return cases
}

func testNumbers(t *testing.T, ts *testState, p *problems.Problem, cat category.Category) []int {
	tests, err := ts.storage.ListTests(p, cat)
	require.NoError(t, err)
	numbers := make([]int, 0, len(tests))
	for _, test := range tests {
		numbers = append(numbers, test.Number)
	}
	return numbers
}

func TestSaveCasesAppendAndReplace(t *testing.T) {
	ts := fixtureGenerator(t)
	p := ts.addProblem(t, "sum", "Title: Sum\n")
	for i := 1; i <= 3; i++ {
		require.NoError(t, ts.storage.WriteTest(
			p, category.System, i, []byte("old\n"), []byte("old\n"),
		))
	}

	saved, err := ts.generator.SaveCases(p, category.System, fixtureCases("a", "b"), SaveAppend)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, testNumbers(t, ts, p, category.System))

	input, err := ts.storage.TestInput(p.ID, category.System, 4)
	require.NoError(t, err)
	assert.Equal(t, "a\n", *input)
	answer, err := ts.storage.TestAnswer(p.ID, category.System, 4)
	require.NoError(t, err)
	assert.Equal(t, "ans a\n", *answer)

	saved, err = ts.generator.SaveCases(p, category.System, fixtureCases("x", "y"), SaveReplace)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Equal(t, []int{1, 2}, testNumbers(t, ts, p, category.System))
	input, err = ts.storage.TestInput(p.ID, category.System, 1)
	require.NoError(t, err)
	assert.Equal(t, "x\n", *input)

	_, err = ts.generator.SaveCases(p, category.System, nil, SaveMode("sometimes"))
	require.Error(t, err)
}

func TestParseSaveMode(t *testing.T) {
	mode, err := ParseSaveMode("")
	require.NoError(t, err)
	assert.Equal(t, SaveAppend, mode)
	mode, err = ParseSaveMode("replace")
	require.NoError(t, err)
	assert.Equal(t, SaveReplace, mode)
	_, err = ParseSaveMode("merge")
	require.Error(t, err)
}

func TestAddManualTest(t *testing.T) {
	ts := fixtureGenerator(t)
	p := ts.addProblem(t, "sum", "Title: Sum\n")
	writeProgram(t, p, "solution", sumSolution)

	number, err := ts.generator.AddManualTest(context.Background(), p, category.Samples, "3 4\n")
	require.NoError(t, err)
	assert.Equal(t, 1, number)

	number, err = ts.generator.AddManualTest(context.Background(), p, category.Samples, "10 20\n")
	require.NoError(t, err)
	assert.Equal(t, 2, number)

	answer, err := ts.storage.TestAnswer(p.ID, category.Samples, 2)
	require.NoError(t, err)
	assert.Equal(t, "30\n", *answer)
}

func TestOverview(t *testing.T) {
	ts := fixtureGenerator(t)
	p := ts.addProblem(t, "sum", "Title: Sum\n")
	require.NoError(t, ts.storage.WriteTest(p, category.Samples, 1, []byte("ab\n"), []byte("c\n")))
	require.NoError(t, ts.storage.WriteTest(p, category.System, 1, []byte("defg\n"), []byte("h\n")))
	require.NoError(t, ts.storage.WriteTest(p, category.System, 2, []byte("i\n"), []byte("j\n")))

	overview, err := ts.generator.Overview(p)
	require.NoError(t, err)

	samples := overview.Categories[category.Samples]
	require.NotNil(t, samples)
	assert.Equal(t, 1, samples.Count)
	assert.Equal(t, int64(5), samples.SizeBytes)
	assert.Equal(t, int64(5), samples.AvgSizeBytes)

	system := overview.Categories[category.System]
	require.NotNil(t, system)
	assert.Equal(t, 2, system.Count)
	assert.Equal(t, int64(11), system.SizeBytes)
	assert.Equal(t, int64(5), system.AvgSizeBytes)
	require.Len(t, system.Tests, 2)

	assert.Equal(t, 3, overview.TotalCount)
	assert.Equal(t, int64(16), overview.TotalBytes)
	// Pretests are disabled for this problem and not reported.
	assert.NotContains(t, overview.Categories, category.Pretests)
}

func TestDeleteTests(t *testing.T) {
	ts := fixtureGenerator(t)
	p := ts.addProblem(t, "sum", "Title: Sum\n")
	for i := 1; i <= 3; i++ {
		require.NoError(t, ts.storage.WriteTest(
			p, category.System, i, []byte("in\n"), []byte("out\n"),
		))
	}

	deleted, err := ts.generator.DeleteTests(p, category.System, []int{1, 3, 9})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, []int{2}, testNumbers(t, ts, p, category.System))

	deleted, err = ts.generator.DeleteTests(p, category.System, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Empty(t, testNumbers(t, ts, p, category.System))

	deleted, err = ts.generator.DeleteTests(p, category.System, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
