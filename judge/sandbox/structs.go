package sandbox

import (
	"context"
	"io"

	"judge_engine/common/config"
	"judge_engine/lib/customfields"
)

// ExecuteConfig fully describes one child process execution: the command, its
// argument vector, io redirections and resource limits. Commands are never
// assembled from shell strings.
type ExecuteConfig struct {
	config.RunLimitsConfig `yaml:",inline"`

	// Command is the path to the executable. A relative path is resolved
	// inside the sandbox directory.
	Command string   `yaml:"-"`
	Args    []string `yaml:"-"` // Except zero argument (command name itself)

	// Cwd overrides the working directory, which defaults to the sandbox
	// directory. Used by generation runs executing inside the problem dir.
	Cwd string `yaml:"-"`

	Stdin          *IORedirect `yaml:"-"`
	Stdout         *IORedirect `yaml:"-"`
	Stderr         *IORedirect `yaml:"-"`
	StderrToStdout bool        `yaml:"-"`

	Ctx context.Context
}

// IORedirect specifies files to read/write to.
// Either Input, Output or FileName should be specified
// FileName should be relative inside sandbox
type IORedirect struct {
	Input    io.Reader `yaml:"-"`
	Output   io.Writer `yaml:"-"`
	FileName string    `yaml:"-"`
}

// TerminationClass tells how the child process ended. Mapping classes onto
// verdicts is up to the caller.
type TerminationClass int

const (
	// Completed means the process exited zero within its limits.
	Completed TerminationClass = iota
	// TimedOut means the process was killed by the wall clock cutoff or
	// burned more cpu time than allowed.
	TimedOut
	// RuntimeError means the process exited non-zero on its own.
	RuntimeError
)

func (c TerminationClass) String() string {
	switch c {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed-out"
	case RuntimeError:
		return "runtime-error"
	default:
		return "unknown"
	}
}

type RunStatistics struct {
	Time     customfields.Time   `json:"time"`
	WallTime customfields.Time   `json:"wallTime"`
	Memory   customfields.Memory `json:"memory"` // best-effort, may be zero
	ExitCode int                 `json:"exitCode"`
}

type RunResult struct {
	// Err is set for sandbox faults only, not for child failures.
	Err error

	Class TerminationClass

	Statistics *RunStatistics
}
