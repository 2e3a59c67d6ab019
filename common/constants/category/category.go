package category

import "fmt"

// Category is a named partition of a problem's test suite. Categories are
// judged in a fixed priority order and stored in separate directories.
type Category string

const (
	Samples  Category = "samples"
	Pretests Category = "pretests"
	System   Category = "system"
)

// JudgeOrder returns all categories in judging priority order. The overall
// verdict tie-break always follows this order, not completion order.
func JudgeOrder() []Category {
	return []Category{Samples, Pretests, System}
}

func Parse(s string) (Category, error) {
	c := Category(s)
	switch c {
	case Samples, Pretests, System:
		return c, nil
	}
	return "", fmt.Errorf("unknown test category %q", s)
}

func (c Category) String() string {
	return string(c)
}

// TestLabel names a single test for verdict messages, e.g. "sample 3",
// "pretest 2" or just "test 7" for the system category.
func (c Category) TestLabel(number int) string {
	switch c {
	case Samples:
		return fmt.Sprintf("sample %d", number)
	case Pretests:
		return fmt.Sprintf("pretest %d", number)
	default:
		return fmt.Sprintf("test %d", number)
	}
}
