package compiler

import (
	"strings"

	"judge_engine/common/config"
	"judge_engine/judge/sandbox"
)

// Language describes a single compilation toolchain. The compile command is a
// plain argv list with {src} and {out} placeholders substituted per argument,
// so no part of it ever goes through a shell.
type Language struct {
	Name string `yaml:"-"`

	// Command is the compiler argv. The first element is the executable,
	// resolved via PATH at load time if it is not an absolute path.
	Command []string `yaml:"Command"`

	// Limits override DefaultLimits from the compiler config.
	Limits *config.RunLimitsConfig `yaml:"Limits,omitempty"`
}

const (
	srcPlaceholder = "{src}"
	outPlaceholder = "{out}"
)

func (l *Language) fillInLimits(defaults *config.RunLimitsConfig) {
	if l.Limits == nil && defaults != nil {
		limits := *defaults
		l.Limits = &limits
	}
	l.Limits = config.FillInCompileLimits(l.Limits)
}

func (l *Language) buildArgs(source string, binary string) []string {
	args := make([]string, 0, len(l.Command)-1)
	for _, arg := range l.Command[1:] {
		arg = strings.ReplaceAll(arg, srcPlaceholder, source)
		arg = strings.ReplaceAll(arg, outPlaceholder, binary)
		args = append(args, arg)
	}
	return args
}

// GenerateExecuteConfig prepares the sandboxed compiler run. Both output
// streams go into messageFile, source and binary are sandbox relative names.
func (l *Language) GenerateExecuteConfig(source string, binary string, messageFile string) *sandbox.ExecuteConfig {
	return &sandbox.ExecuteConfig{
		RunLimitsConfig: *l.Limits,
		Command:         l.Command[0],
		Args:            l.buildArgs(source, binary),
		Stdout:          &sandbox.IORedirect{FileName: messageFile},
		StderrToStdout:  true,
	}
}
