package problems

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"judge_engine/common/config"
	"judge_engine/common/constants/category"
	"judge_engine/lib/cache"
	"judge_engine/lib/logger"
)

const (
	inputExt  = ".in"
	answerExt = ".ans"
)

// Storage gives access to problems and their test files. Test contents are
// served through a shared size-bounded LRU cache, writes invalidate it.
type Storage struct {
	root  string
	cache *cache.LRUSizeCache[testFileKey, string]

	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

type testFileKey struct {
	Problem  string
	Category category.Category
	Number   int
	Answer   bool
}

func NewStorage(cfg *config.JudgeConfig) *Storage {
	s := &Storage{
		root:  cfg.ProblemsPath,
		locks: make(map[string]*sync.Mutex),
	}
	s.cache = cache.NewLRUSizeCache[testFileKey, string](cfg.CacheSize.Val(), s.readTestFile, nil)
	return s
}

// Problem loads the descriptor of one problem.
func (s *Storage) Problem(id string) (*Problem, error) {
	return LoadProblem(s.root, id)
}

// ProblemLock serializes test mutating operations on one problem.
func (s *Storage) ProblemLock(id string) *sync.Mutex {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = new(sync.Mutex)
		s.locks[id] = lock
	}
	return lock
}

func (s *Storage) readTestFile(key testFileKey) (*string, error, uint64) {
	data, err := os.ReadFile(s.testPath(key))
	if err != nil {
		return nil, err, 0
	}
	content := string(data)
	return &content, nil, uint64(len(content))
}

func (s *Storage) testPath(key testFileKey) string {
	ext := inputExt
	if key.Answer {
		ext = answerExt
	}
	return filepath.Join(
		s.root, key.Problem, "tests", string(key.Category), testFileName(key.Number)+ext,
	)
}

// testFileName formats the zero padded test file stem.
func testFileName(number int) string {
	return fmt.Sprintf("%02d", number)
}

// TestInput returns the input of one test through the cache.
func (s *Storage) TestInput(problemID string, cat category.Category, number int) (*string, error) {
	return s.cache.Get(testFileKey{Problem: problemID, Category: cat, Number: number})
}

// TestAnswer returns the expected answer of one test through the cache.
func (s *Storage) TestAnswer(problemID string, cat category.Category, number int) (*string, error) {
	return s.cache.Get(testFileKey{Problem: problemID, Category: cat, Number: number, Answer: true})
}

// Test describes one stored test pair.
type Test struct {
	Number     int   `json:"number"`
	HasInput   bool  `json:"hasInput"`
	HasAnswer  bool  `json:"hasAnswer"`
	InputSize  int64 `json:"inputSize"`
	AnswerSize int64 `json:"answerSize"`
}

// ListTests scans a category directory for canonically named test files. A
// missing directory is an empty category.
func (s *Storage) ListTests(p *Problem, cat category.Category) ([]*Test, error) {
	entries, err := os.ReadDir(p.TestsDir(cat))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("can not read tests of %s/%s, error: %v", p.ID, cat, err)
	}

	tests := make(map[int]*Test)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		number, answer, ok := parseTestFileName(entry.Name())
		if !ok {
			continue
		}
		test := tests[number]
		if test == nil {
			test = &Test{Number: number}
			tests[number] = test
		}
		size := int64(0)
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		if answer {
			test.HasAnswer = true
			test.AnswerSize = size
		} else {
			test.HasInput = true
			test.InputSize = size
		}
	}

	result := make([]*Test, 0, len(tests))
	for _, test := range tests {
		result = append(result, test)
	}
	slices.SortFunc(result, func(a, b *Test) int { return a.Number - b.Number })
	return result, nil
}

func parseTestFileName(name string) (number int, answer bool, ok bool) {
	ext := filepath.Ext(name)
	if ext != inputExt && ext != answerExt {
		return 0, false, false
	}
	stem := strings.TrimSuffix(name, ext)
	number, err := strconv.Atoi(stem)
	if err != nil || number <= 0 || testFileName(number) != stem {
		return 0, false, false
	}
	return number, ext == answerExt, true
}

// MaxTestNumber returns the largest sequence number in a category, 0 if the
// category is empty.
func (s *Storage) MaxTestNumber(p *Problem, cat category.Category) (int, error) {
	tests, err := s.ListTests(p, cat)
	if err != nil {
		return 0, err
	}
	maxNumber := 0
	for _, test := range tests {
		maxNumber = max(maxNumber, test.Number)
	}
	return maxNumber, nil
}

// WriteTest stores one test pair and drops its stale cache entries.
func (s *Storage) WriteTest(
	p *Problem, cat category.Category, number int, input []byte, answer []byte,
) error {
	dir := p.TestsDir(cat)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return fmt.Errorf("can not create tests dir, error: %v", err)
	}
	stem := filepath.Join(dir, testFileName(number))
	err = os.WriteFile(stem+inputExt, input, 0644)
	if err != nil {
		return fmt.Errorf("can not write test input, error: %v", err)
	}
	err = os.WriteFile(stem+answerExt, answer, 0644)
	if err != nil {
		return fmt.Errorf("can not write test answer, error: %v", err)
	}
	s.dropCached(p.ID, cat, number)
	return nil
}

// DeleteTest removes one test pair. Already missing files are fine.
func (s *Storage) DeleteTest(p *Problem, cat category.Category, number int) error {
	stem := filepath.Join(p.TestsDir(cat), testFileName(number))
	for _, ext := range []string{inputExt, answerExt} {
		err := os.Remove(stem + ext)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("can not delete test file, error: %v", err)
		}
	}
	s.dropCached(p.ID, cat, number)
	return nil
}

// PurgeCategory deletes every input and answer file of a category.
func (s *Storage) PurgeCategory(p *Problem, cat category.Category) error {
	dir := p.TestsDir(cat)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("can not read tests of %s/%s, error: %v", p.ID, cat, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != inputExt && ext != answerExt {
			continue
		}
		err = os.Remove(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("can not delete %s, error: %v", entry.Name(), err)
		}
		if number, _, ok := parseTestFileName(entry.Name()); ok {
			s.dropCached(p.ID, cat, number)
		}
	}
	return nil
}

func (s *Storage) dropCached(problemID string, cat category.Category, number int) {
	for _, answer := range []bool{false, true} {
		key := testFileKey{Problem: problemID, Category: cat, Number: number, Answer: answer}
		err := s.cache.Remove(key)
		if err != nil {
			logger.Warn("Can not drop cached test file %v, error: %v", key, err)
		}
	}
}
