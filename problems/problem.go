package problems

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"judge_engine/common/constants/category"
	"judge_engine/judge/checker"
	"judge_engine/lib/customfields"
)

const ConfigFileName = "problem.yaml"

// CheckerConfig selects how contestant output is judged.
type CheckerConfig struct {
	Kind checker.Kind `yaml:"Kind"`

	// FloatTolerance is the accepted absolute difference for the
	// tolerant-float checker.
	FloatTolerance float64 `yaml:"FloatTolerance"`

	// SpecialJudge is the judge source file, relative to the problem dir.
	// The compiled binary lives next to it.
	SpecialJudge string `yaml:"SpecialJudge"`
	// SpecialJudgeLanguage names the toolchain compiling the judge.
	SpecialJudgeLanguage string `yaml:"SpecialJudgeLanguage"`
	// Protocol is "exitcode" or "testlib".
	Protocol string `yaml:"Protocol"`
}

const (
	ProtocolExitCode = "exitcode"
	ProtocolTestlib  = "testlib"
)

// ValidationPolicy controls how generated inputs are validated.
type ValidationPolicy string

const (
	// ValidationDisabled skips the validator entirely.
	ValidationDisabled ValidationPolicy = "disabled"
	// ValidationLenient runs the validator when present and accepts all
	// inputs when the problem ships none.
	ValidationLenient ValidationPolicy = "lenient"
	// ValidationStrict refuses generation if the validator is missing.
	ValidationStrict ValidationPolicy = "strict"
)

type ValidationConfig struct {
	Policy ValidationPolicy `yaml:"Policy"`
}

// ProgramsConfig names the problem maintenance executables, relative to the
// problem dir.
type ProgramsConfig struct {
	Generator string `yaml:"Generator"`
	Validator string `yaml:"Validator"`
	Solution  string `yaml:"Solution"`
}

// Descriptor is the parsed problem.yaml. Components receive it explicitly,
// nothing reads problem settings from ambient state.
type Descriptor struct {
	Title string `yaml:"Title"`

	TimeLimit   customfields.Time   `yaml:"TimeLimit"`
	MemoryLimit customfields.Memory `yaml:"MemoryLimit"`

	Checker    *CheckerConfig    `yaml:"Checker"`
	Validation *ValidationConfig `yaml:"Validation"`
	Programs   *ProgramsConfig   `yaml:"Programs"`

	// EnablePretests adds the pretests category to the judging order.
	EnablePretests bool `yaml:"EnablePretests"`
}

// Problem is a descriptor bound to its directory.
type Problem struct {
	ID  string
	Dir string
	*Descriptor
}

// LoadProblem reads and validates problem.yaml of the problem id under root.
func LoadProblem(root string, id string) (*Problem, error) {
	err := checkProblemID(id)
	if err != nil {
		return nil, err
	}
	// Keep the directory absolute, problem programs are executed with
	// sandbox or problem relative working directories.
	dir, err := filepath.Abs(filepath.Join(root, id))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		return nil, fmt.Errorf("can not read problem %s config, error: %v", id, err)
	}
	descriptor := new(Descriptor)
	err = yaml.Unmarshal(data, descriptor)
	if err != nil {
		return nil, fmt.Errorf("can not parse problem %s config, error: %v", id, err)
	}
	fillInDescriptor(descriptor)

	problem := &Problem{ID: id, Dir: dir, Descriptor: descriptor}
	err = problem.validate()
	if err != nil {
		return nil, fmt.Errorf("problem %s config is invalid, error: %v", id, err)
	}
	return problem, nil
}

// checkProblemID rejects ids that would resolve outside the problems root.
func checkProblemID(id string) error {
	if len(id) == 0 {
		return fmt.Errorf("empty problem id")
	}
	if strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return fmt.Errorf("invalid problem id %s", id)
	}
	return nil
}

func fillInDescriptor(d *Descriptor) {
	if d.TimeLimit == 0 {
		d.TimeLimit.FromStr("1s")
	}
	if d.MemoryLimit == 0 {
		d.MemoryLimit.FromStr("256m")
	}
	if d.Checker == nil {
		d.Checker = &CheckerConfig{}
	}
	if len(d.Checker.Kind) == 0 {
		d.Checker.Kind = checker.KindExact
	}
	if d.Checker.FloatTolerance == 0 {
		d.Checker.FloatTolerance = 1e-6
	}
	if len(d.Checker.Protocol) == 0 {
		d.Checker.Protocol = ProtocolExitCode
	}
	if d.Checker.Kind == checker.KindSpecialJudge {
		if len(d.Checker.SpecialJudge) == 0 {
			d.Checker.SpecialJudge = "checker/spj.cpp"
		}
		if len(d.Checker.SpecialJudgeLanguage) == 0 {
			d.Checker.SpecialJudgeLanguage = "cpp"
		}
	}
	if d.Validation == nil {
		d.Validation = &ValidationConfig{}
	}
	if len(d.Validation.Policy) == 0 {
		d.Validation.Policy = ValidationDisabled
	}
	if d.Programs == nil {
		d.Programs = &ProgramsConfig{}
	}
	if len(d.Programs.Generator) == 0 {
		d.Programs.Generator = "generator"
	}
	if len(d.Programs.Validator) == 0 {
		d.Programs.Validator = "validator"
	}
	if len(d.Programs.Solution) == 0 {
		d.Programs.Solution = "solution"
	}
}

func (p *Problem) validate() error {
	_, err := checker.ParseKind(string(p.Checker.Kind))
	if err != nil {
		return err
	}
	switch p.Checker.Protocol {
	case ProtocolExitCode, ProtocolTestlib:
	default:
		return fmt.Errorf("unknown checker protocol: %s", p.Checker.Protocol)
	}
	switch p.Validation.Policy {
	case ValidationDisabled, ValidationLenient, ValidationStrict:
	default:
		return fmt.Errorf("unknown validation policy: %s", p.Validation.Policy)
	}
	if p.Checker.FloatTolerance < 0 {
		return fmt.Errorf("negative float tolerance")
	}
	return nil
}

// JudgeCategories returns the test categories of this problem in judging
// order.
func (p *Problem) JudgeCategories() []category.Category {
	categories := make([]category.Category, 0, 3)
	for _, cat := range category.JudgeOrder() {
		if cat == category.Pretests && !p.EnablePretests {
			continue
		}
		categories = append(categories, cat)
	}
	return categories
}

// TestsDir is the directory holding one category of tests.
func (p *Problem) TestsDir(cat category.Category) string {
	return filepath.Join(p.Dir, "tests", string(cat))
}

// ProgramPath resolves a problem relative path. Paths escaping the problem
// directory are rejected.
func (p *Problem) ProgramPath(name string) (string, error) {
	full := filepath.Join(p.Dir, name)
	absDir, err := filepath.Abs(p.Dir)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFull, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes problem directory", name)
	}
	return full, nil
}

// SpecialJudgeBinary is the path the compiled special judge is kept at.
func (p *Problem) SpecialJudgeBinary() (string, error) {
	source, err := p.ProgramPath(p.Checker.SpecialJudge)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(source)
	if len(ext) == 0 {
		return source + ".bin", nil
	}
	return strings.TrimSuffix(source, ext), nil
}
