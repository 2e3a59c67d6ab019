package config

import "judge_engine/lib/customfields"

type RunLimitsConfig struct {
	TimeLimit     customfields.Time   `yaml:"TimeLimit" json:"TimeLimit"`
	MemoryLimit   customfields.Memory `yaml:"MemoryLimit" json:"MemoryLimit"`
	WallTimeLimit customfields.Time   `yaml:"WallTimeLimit" json:"WallTimeLimit"`

	// MaxThreads specifies max number of threads and/or processes.
	// If MaxThreads is unspecified (equals 0) it is considered as 1.
	// If MaxThreads = -1, any number of threads is allowed
	MaxThreads int64 `yaml:"MaxThreads" json:"MaxThreads"`

	// MaxOpenFiles specifies max number of files, opened by process
	// If MaxOpenFiles is unspecified (equals 0), it is considered as 64
	MaxOpenFiles uint64 `yaml:"MaxOpenFiles" json:"MaxOpenFiles"`

	// MaxOutputSize specifies max output in EACH file.
	// If MaxOutputSize is unspecified (equals 0), it is considered as 1g
	MaxOutputSize customfields.Memory `yaml:"MaxOutputSize" json:"MaxOutputSize"`
}

// FillInCompileLimits fills compile limits with defaults. Compilers may spawn
// any number of threads.
func FillInCompileLimits(limits *RunLimitsConfig) *RunLimitsConfig {
	limits = fillInRunLimits(limits, "30s", "45s")
	if limits.MaxThreads == 0 {
		limits.MaxThreads = -1
	}
	return limits
}

// fillInRunLimits fills the zero fields of limits with defaults. A nil limits
// is replaced with a fresh struct, so the result is always usable.
func fillInRunLimits(limits *RunLimitsConfig, timeLimit string, wallTimeLimit string) *RunLimitsConfig {
	if limits == nil {
		limits = &RunLimitsConfig{}
	}
	if limits.TimeLimit == 0 {
		limits.TimeLimit.FromStr(timeLimit)
	}
	if limits.WallTimeLimit == 0 {
		limits.WallTimeLimit.FromStr(wallTimeLimit)
	}
	if limits.MemoryLimit == 0 {
		limits.MemoryLimit.FromStr("1g")
	}
	if limits.MaxOpenFiles == 0 {
		limits.MaxOpenFiles = 64
	}
	if limits.MaxOutputSize == 0 {
		limits.MaxOutputSize.FromStr("1g")
	}
	return limits
}
