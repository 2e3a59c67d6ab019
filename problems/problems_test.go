package problems

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"judge_engine/common/config"
	"judge_engine/common/constants/category"
	"judge_engine/judge/checker"
)

func fixtureStorage(t *testing.T) *Storage {
	cfg := &config.JudgeConfig{ProblemsPath: t.TempDir()}
	cfg.CacheSize.FromStr("1m")
	return NewStorage(cfg)
}

func fixtureProblem(t *testing.T, s *Storage, id string, configYaml string) *Problem {
	dir := filepath.Join(s.root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(configYaml), 0644))
	p, err := s.Problem(id)
	require.NoError(t, err)
	return p
}

func TestLoadProblemDefaults(t *testing.T) {
	s := fixtureStorage(t)
	p := fixtureProblem(t, s, "sum", "Title: Sum\n")

	assert.Equal(t, "Sum", p.Title)
	assert.Equal(t, uint64(1000*1000*1000), p.TimeLimit.Val())
	assert.Equal(t, uint64(256*1024*1024), p.MemoryLimit.Val())
	assert.Equal(t, checker.KindExact, p.Checker.Kind)
	assert.Equal(t, 1e-6, p.Checker.FloatTolerance)
	assert.Equal(t, ProtocolExitCode, p.Checker.Protocol)
	assert.Equal(t, ValidationDisabled, p.Validation.Policy)
	assert.Equal(t, "generator", p.Programs.Generator)
	assert.Equal(t, "solution", p.Programs.Solution)
	assert.False(t, p.EnablePretests)
}

func TestLoadProblemFull(t *testing.T) {
	s := fixtureStorage(t)
	p := fixtureProblem(t, s, "geometry", `
Title: Geometry
TimeLimit: 2s
MemoryLimit: 512m
EnablePretests: true
Checker:
  Kind: tolerant-float
  FloatTolerance: 0.001
Validation:
  Policy: strict
Programs:
  Generator: gen.py
`)

	assert.Equal(t, uint64(2*1000*1000*1000), p.TimeLimit.Val())
	assert.Equal(t, checker.KindTolerantFloat, p.Checker.Kind)
	assert.Equal(t, 0.001, p.Checker.FloatTolerance)
	assert.Equal(t, ValidationStrict, p.Validation.Policy)
	assert.Equal(t, "gen.py", p.Programs.Generator)
	assert.True(t, p.EnablePretests)
}

func TestLoadProblemSpecialJudgeDefaults(t *testing.T) {
	s := fixtureStorage(t)
	p := fixtureProblem(t, s, "multi", "Checker:\n  Kind: special-judge\n")

	assert.Equal(t, "checker/spj.cpp", p.Checker.SpecialJudge)
	assert.Equal(t, "cpp", p.Checker.SpecialJudgeLanguage)

	binary, err := p.SpecialJudgeBinary()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.Dir, "checker", "spj"), binary)
}

func TestLoadProblemErrors(t *testing.T) {
	s := fixtureStorage(t)

	_, err := s.Problem("missing")
	require.Error(t, err)

	for _, id := range []string{"", ".", "..", "a/b", "a\\b"} {
		_, err = s.Problem(id)
		require.Error(t, err, "id %q accepted", id)
	}

	dir := filepath.Join(s.root, "broken")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, ConfigFileName), []byte("Checker:\n  Kind: fuzzy\n"), 0644,
	))
	_, err = s.Problem("broken")
	require.Error(t, err)

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, ConfigFileName), []byte("Validation:\n  Policy: sometimes\n"), 0644,
	))
	_, err = s.Problem("broken")
	require.Error(t, err)
}

func TestJudgeCategories(t *testing.T) {
	s := fixtureStorage(t)

	p := fixtureProblem(t, s, "plain", "Title: Plain\n")
	assert.Equal(t, []category.Category{category.Samples, category.System}, p.JudgeCategories())

	p = fixtureProblem(t, s, "staged", "EnablePretests: true\n")
	assert.Equal(
		t,
		[]category.Category{category.Samples, category.Pretests, category.System},
		p.JudgeCategories(),
	)
}

func TestProgramPath(t *testing.T) {
	s := fixtureStorage(t)
	p := fixtureProblem(t, s, "sum", "Title: Sum\n")

	path, err := p.ProgramPath("generator")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.Dir, "generator"), path)

	path, err = p.ProgramPath("checker/spj.cpp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.Dir, "checker", "spj.cpp"), path)

	_, err = p.ProgramPath("../../etc/passwd")
	require.Error(t, err)
}

func writeTestFile(t *testing.T, p *Problem, cat category.Category, name string, content string) {
	dir := p.TestsDir(cat)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestListTests(t *testing.T) {
	s := fixtureStorage(t)
	p := fixtureProblem(t, s, "sum", "Title: Sum\n")

	tests, err := s.ListTests(p, category.Samples)
	require.NoError(t, err)
	assert.Empty(t, tests)

	writeTestFile(t, p, category.Samples, "01.in", "1 2\n")
	writeTestFile(t, p, category.Samples, "01.ans", "3\n")
	writeTestFile(t, p, category.Samples, "03.in", "4 5\n")
	// Noise that must not be listed as tests.
	writeTestFile(t, p, category.Samples, "notes.txt", "x")
	writeTestFile(t, p, category.Samples, "7.in", "unpadded")
	writeTestFile(t, p, category.Samples, "00.in", "zero")

	tests, err = s.ListTests(p, category.Samples)
	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Equal(t, 1, tests[0].Number)
	assert.True(t, tests[0].HasInput)
	assert.True(t, tests[0].HasAnswer)
	assert.Equal(t, int64(4), tests[0].InputSize)
	assert.Equal(t, int64(2), tests[0].AnswerSize)
	assert.Equal(t, 3, tests[1].Number)
	assert.True(t, tests[1].HasInput)
	assert.False(t, tests[1].HasAnswer)

	maxNumber, err := s.MaxTestNumber(p, category.Samples)
	require.NoError(t, err)
	assert.Equal(t, 3, maxNumber)
}

func TestWriteReadDelete(t *testing.T) {
	s := fixtureStorage(t)
	p := fixtureProblem(t, s, "sum", "Title: Sum\n")

	require.NoError(t, s.WriteTest(p, category.System, 1, []byte("3\n1 2 3\n"), []byte("6\n")))

	input, err := s.TestInput(p.ID, category.System, 1)
	require.NoError(t, err)
	assert.Equal(t, "3\n1 2 3\n", *input)
	answer, err := s.TestAnswer(p.ID, category.System, 1)
	require.NoError(t, err)
	assert.Equal(t, "6\n", *answer)

	// Overwriting must invalidate the cached content.
	require.NoError(t, s.WriteTest(p, category.System, 1, []byte("1\n5\n"), []byte("5\n")))
	input, err = s.TestInput(p.ID, category.System, 1)
	require.NoError(t, err)
	assert.Equal(t, "1\n5\n", *input)

	require.NoError(t, s.DeleteTest(p, category.System, 1))
	_, err = s.TestInput(p.ID, category.System, 1)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(p.TestsDir(category.System), "01.in"))

	// Deleting a missing test is not an error.
	require.NoError(t, s.DeleteTest(p, category.System, 9))
}

func TestPurgeCategory(t *testing.T) {
	s := fixtureStorage(t)
	p := fixtureProblem(t, s, "sum", "Title: Sum\n")

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.WriteTest(p, category.System, i, []byte("in"), []byte("ans")))
	}
	writeTestFile(t, p, category.System, "notes.txt", "keep me")

	require.NoError(t, s.PurgeCategory(p, category.System))

	tests, err := s.ListTests(p, category.System)
	require.NoError(t, err)
	assert.Empty(t, tests)
	assert.FileExists(t, filepath.Join(p.TestsDir(category.System), "notes.txt"))

	// Purging an absent category is fine.
	require.NoError(t, s.PurgeCategory(p, category.Pretests))
}
