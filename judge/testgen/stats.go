package testgen

import (
	"judge_engine/common/constants/category"
	"judge_engine/lib/logger"
	"judge_engine/problems"
)

// CategoryStats summarizes the stored tests of one category. Sizes cover
// input and answer files together.
type CategoryStats struct {
	Count        int              `json:"count"`
	SizeBytes    int64            `json:"sizeBytes"`
	AvgSizeBytes int64            `json:"avgSizeBytes"`
	Tests        []*problems.Test `json:"tests"`
}

// TestsOverview is the per category test inventory of one problem.
type TestsOverview struct {
	Categories map[category.Category]*CategoryStats `json:"categories"`
	TotalCount int                                  `json:"totalCount"`
	TotalBytes int64                                `json:"totalBytes"`
}

// Overview collects test statistics for every judged category of the problem.
func (g *Generator) Overview(problem *problems.Problem) (*TestsOverview, error) {
	overview := &TestsOverview{
		Categories: make(map[category.Category]*CategoryStats),
	}
	for _, cat := range problem.JudgeCategories() {
		tests, err := g.storage.ListTests(problem, cat)
		if err != nil {
			return nil, err
		}
		stats := &CategoryStats{Tests: tests}
		for _, test := range tests {
			if test.HasInput {
				stats.Count++
			}
			stats.SizeBytes += test.InputSize + test.AnswerSize
		}
		stats.AvgSizeBytes = stats.SizeBytes / int64(max(1, stats.Count))
		overview.Categories[cat] = stats
		overview.TotalCount += stats.Count
		overview.TotalBytes += stats.SizeBytes
	}
	return overview, nil
}

// DeleteTests removes the numbered tests from a category, every test when
// numbers is empty. Returns how many existing tests were removed.
func (g *Generator) DeleteTests(
	problem *problems.Problem, cat category.Category, numbers []int,
) (int, error) {
	lock := g.storage.ProblemLock(problem.ID)
	lock.Lock()
	defer lock.Unlock()

	tests, err := g.storage.ListTests(problem, cat)
	if err != nil {
		return 0, err
	}
	existing := make(map[int]bool, len(tests))
	for _, test := range tests {
		existing[test.Number] = true
	}

	if len(numbers) == 0 {
		err = g.storage.PurgeCategory(problem, cat)
		if err != nil {
			return 0, err
		}
		logger.Info("Purged %d tests of %s/%s", len(tests), problem.ID, cat)
		return len(tests), nil
	}

	deleted := 0
	for _, number := range numbers {
		err = g.storage.DeleteTest(problem, cat, number)
		if err != nil {
			return deleted, err
		}
		if existing[number] {
			deleted++
		}
	}
	logger.Info("Deleted %d tests of %s/%s", deleted, problem.ID, cat)
	return deleted, nil
}
