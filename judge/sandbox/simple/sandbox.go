package simple

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"judge_engine/judge/sandbox"
	"judge_engine/lib/customfields"
	"judge_engine/lib/logger"
)

// Sandbox is a plain process-level sandbox: a scratch directory, a wall clock
// cutoff with forced kill and a best-effort address space rlimit. There is no
// namespace or syscall isolation.
type Sandbox struct {
	dir         string
	initialized bool
}

func NewSandbox(dir string) (*Sandbox, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return nil, err
	}

	return &Sandbox{
		dir:         dir,
		initialized: false,
	}, nil
}

func (s *Sandbox) Init() error {
	if s.initialized {
		return fmt.Errorf("sandbox already initialized")
	}
	err := os.MkdirAll(s.dir, 0777)
	if err != nil {
		return err
	}
	s.initialized = true
	return nil
}

func (s *Sandbox) Dir() string {
	return s.dir
}

func (s *Sandbox) parseReader(r *io.Reader, conf *sandbox.IORedirect) (func() error, error) {
	if conf == nil {
		return nil, nil
	}
	if conf.Input != nil {
		*r = conf.Input
		return nil, nil
	}
	if conf.Output != nil {
		return nil, fmt.Errorf("writer is specified for reading")
	}
	if len(conf.FileName) == 0 {
		return nil, fmt.Errorf("no source is specified for IORedirect")
	}

	file := filepath.Join(s.dir, conf.FileName)
	fd, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	*r = fd
	return fd.Close, nil
}

func (s *Sandbox) parseWriter(w *io.Writer, conf *sandbox.IORedirect) (func() error, error) {
	if conf == nil {
		return nil, nil
	}
	if conf.Input != nil {
		return nil, fmt.Errorf("reader is specified for writing")
	}
	if conf.Output != nil {
		*w = conf.Output
		return nil, nil
	}
	if len(conf.FileName) == 0 {
		return nil, fmt.Errorf("no source is specified for IORedirect")
	}

	file := filepath.Join(s.dir, conf.FileName)
	fd, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	*w = fd
	return fd.Close, nil
}

func (s *Sandbox) command(config *sandbox.ExecuteConfig) string {
	if filepath.IsAbs(config.Command) {
		return config.Command
	}
	return filepath.Join(s.dir, config.Command)
}

func (s *Sandbox) Run(config *sandbox.ExecuteConfig) *sandbox.RunResult {
	parentCtx := config.Ctx
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithTimeout(parentCtx, config.WallTimeLimit.Duration())
	defer cancel()

	cmd := exec.CommandContext(ctx, s.command(config), config.Args...)

	result := &sandbox.RunResult{
		Statistics: &sandbox.RunStatistics{},
	}

	cmd.Dir = s.dir
	if config.Cwd != "" {
		cmd.Dir = config.Cwd
	}

	closer, err := s.parseReader(&cmd.Stdin, config.Stdin)
	if err != nil {
		result.Err = fmt.Errorf("can not parse stdin, error: %v", err)
		return result
	}
	if closer != nil {
		defer closer()
	}

	closer, err = s.parseWriter(&cmd.Stdout, config.Stdout)
	if err != nil {
		result.Err = fmt.Errorf("can not parse stdout, error: %v", err)
		return result
	}
	if closer != nil {
		defer closer()
	}

	if config.StderrToStdout {
		cmd.Stderr = cmd.Stdout
	} else {
		closer, err = s.parseWriter(&cmd.Stderr, config.Stderr)
		if err != nil {
			result.Err = fmt.Errorf("can not parse stderr, error: %v", err)
			return result
		}
		if closer != nil {
			defer closer()
		}
	}

	killed := false
	cmd.Cancel = func() error {
		killed = true
		return cmd.Process.Kill()
	}

	start := time.Now()
	if err = cmd.Start(); err != nil {
		result.Err = fmt.Errorf("can not start sandbox process, error: %v", err)
		return result
	}

	// The limit lands after the process is already running. The gap is
	// acceptable for a best-effort limit; platforms that refuse the call run
	// without it.
	if err = applyAddressSpaceLimit(cmd.Process.Pid, config.MemoryLimit); err != nil {
		logger.Debug("address space limit is not applied, error: %v", err)
	}

	err = cmd.Wait()
	wallTime := time.Since(start)

	if cmd.ProcessState == nil {
		result.Err = fmt.Errorf("sandbox process state is nil, something wrong with sandbox, process error: %v", err)
		return result
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		result.Err = fmt.Errorf("sandbox process exited with unknown error: %v", err)
		return result
	}

	if parentCtx.Err() != nil {
		result.Err = fmt.Errorf("sandbox run is cancelled, error: %v", parentCtx.Err())
		return result
	}

	rusage := cmd.ProcessState.SysUsage().(*syscall.Rusage)
	result.Statistics.Time = customfields.Time(rusage.Utime.Nano())
	result.Statistics.WallTime = customfields.Time(wallTime)
	result.Statistics.Memory = customfields.Memory(rusage.Maxrss)
	if runtime.GOOS != "darwin" { // maxrss is in kilobytes everywhere but macOS
		result.Statistics.Memory *= 1024
	}
	result.Statistics.ExitCode = cmd.ProcessState.ExitCode()

	if result.Statistics.ExitCode != 0 && !killed {
		result.Class = sandbox.RuntimeError
	} else if killed || result.Statistics.Time > config.TimeLimit {
		result.Class = sandbox.TimedOut
	} else {
		result.Class = sandbox.Completed
	}

	return result
}

func (s *Sandbox) Cleanup() {
	if !s.initialized {
		logger.Error("Cleaning up uninitialized sandbox")
		return
	}
	err := os.RemoveAll(s.dir)
	if err != nil {
		logger.Error("Can not clean up sandbox, error: %v", err)
	} else {
		s.initialized = false
	}
}

func (s *Sandbox) Delete() {
	if s.initialized {
		logger.Error("sandbox %s was initialized before delete", s.dir)
	}
}
