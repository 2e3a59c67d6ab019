package config

import "judge_engine/lib/customfields"

type JudgeConfig struct {
	// ProblemsPath is the root directory holding one subdirectory per
	// problem (problem.yaml, programs, tests).
	ProblemsPath string `yaml:"ProblemsPath"`

	// WorkPath is the scratch space for compilations and test runs.
	WorkPath string `yaml:"WorkPath"`

	// RunWorkers is the number of judging runs processed at the same time.
	// If unspecified, one run is processed at a time.
	RunWorkers int `yaml:"RunWorkers"`
	// TestWorkers is the number of tests executed concurrently inside one
	// run. If unspecified, tests run sequentially.
	TestWorkers int `yaml:"TestWorkers"`
	// QueueSize bounds the number of queued runs waiting for a worker.
	QueueSize int `yaml:"QueueSize"`

	// CacheSize bounds the in-memory cache of test file contents.
	CacheSize customfields.Memory `yaml:"CacheSize"`

	// SaveOutputHead limits how much of a stderr/checker output is kept as
	// diagnostic detail.
	SaveOutputHead customfields.Memory `yaml:"SaveOutputHead"`

	CompilerConfigsFolder string `yaml:"CompilerConfigsFolder"`

	// CheckerLimits bound special judge executions.
	CheckerLimits *RunLimitsConfig `yaml:"CheckerLimits,omitempty"`
	// GeneratorLimits bound test generator executions.
	GeneratorLimits *RunLimitsConfig `yaml:"GeneratorLimits,omitempty"`
	// ValidatorLimits bound test input validator executions.
	ValidatorLimits *RunLimitsConfig `yaml:"ValidatorLimits,omitempty"`
	// SolutionLimits bound reference solution executions.
	SolutionLimits *RunLimitsConfig `yaml:"SolutionLimits,omitempty"`
}

func FillInJudgeConfig(config *JudgeConfig) {
	if len(config.ProblemsPath) == 0 {
		panic("No judge problems path specified")
	}
	if len(config.WorkPath) == 0 {
		panic("No judge work path specified")
	}
	if len(config.CompilerConfigsFolder) == 0 {
		panic("No judge compiler configs folder specified")
	}
	if config.RunWorkers == 0 {
		config.RunWorkers = 1
	}
	if config.TestWorkers == 0 {
		config.TestWorkers = 1
	}
	if config.QueueSize == 0 {
		config.QueueSize = 16
	}
	if config.CacheSize == 0 {
		config.CacheSize.FromStr("256m")
	}
	if config.SaveOutputHead == 0 {
		config.SaveOutputHead.FromStr("4k")
	}

	config.CheckerLimits = fillInRunLimits(config.CheckerLimits, "15s", "30s")
	config.GeneratorLimits = fillInRunLimits(config.GeneratorLimits, "30s", "45s")
	config.ValidatorLimits = fillInRunLimits(config.ValidatorLimits, "5s", "10s")
	config.SolutionLimits = fillInRunLimits(config.SolutionLimits, "10s", "20s")
}
