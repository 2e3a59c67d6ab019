package simple

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"judge_engine/common/config"
	"judge_engine/judge/sandbox"
)

func fixtureSandbox(t *testing.T) *Sandbox {
	s, err := NewSandbox(filepath.Join(t.TempDir(), "box"))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	t.Cleanup(s.Cleanup)
	return s
}

func fixtureLimits(t *testing.T, timeLimit string, wallTimeLimit string) config.RunLimitsConfig {
	limits := config.RunLimitsConfig{}
	require.NoError(t, limits.TimeLimit.FromStr(timeLimit))
	require.NoError(t, limits.WallTimeLimit.FromStr(wallTimeLimit))
	require.NoError(t, limits.MemoryLimit.FromStr("256m"))
	return limits
}

func writeScript(t *testing.T, s *Sandbox, name string, body string) {
	err := os.WriteFile(filepath.Join(s.Dir(), name), []byte("#!/bin/sh\n"+body), 0755)
	require.NoError(t, err)
}

func TestRunCompleted(t *testing.T) {
	s := fixtureSandbox(t)
	writeScript(t, s, "run.sh", "echo hello\n")

	result := s.Run(&sandbox.ExecuteConfig{
		RunLimitsConfig: fixtureLimits(t, "1s", "5s"),
		Command:         "run.sh",
		Stdout:          &sandbox.IORedirect{FileName: "stdout.txt"},
	})
	require.NoError(t, result.Err)
	require.Equal(t, sandbox.Completed, result.Class)
	require.Equal(t, 0, result.Statistics.ExitCode)

	out, err := os.ReadFile(filepath.Join(s.Dir(), "stdout.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(out))
}

func TestStdinRedirect(t *testing.T) {
	s := fixtureSandbox(t)
	err := os.WriteFile(filepath.Join(s.Dir(), "input.txt"), []byte("1 2 3\n"), 0644)
	require.NoError(t, err)

	var output strings.Builder
	result := s.Run(&sandbox.ExecuteConfig{
		RunLimitsConfig: fixtureLimits(t, "1s", "5s"),
		Command:         "/bin/cat",
		Stdin:           &sandbox.IORedirect{FileName: "input.txt"},
		Stdout:          &sandbox.IORedirect{Output: &output},
	})
	require.NoError(t, result.Err)
	require.Equal(t, sandbox.Completed, result.Class)
	require.Equal(t, "1 2 3\n", output.String())
}

func TestTimedOut(t *testing.T) {
	s := fixtureSandbox(t)
	writeScript(t, s, "hang.sh", "sleep 10\n")

	start := time.Now()
	result := s.Run(&sandbox.ExecuteConfig{
		RunLimitsConfig: fixtureLimits(t, "200ms", "200ms"),
		Command:         "hang.sh",
	})
	require.NoError(t, result.Err)
	require.Equal(t, sandbox.TimedOut, result.Class)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestRuntimeError(t *testing.T) {
	s := fixtureSandbox(t)
	writeScript(t, s, "fail.sh", "echo boom >&2\nexit 3\n")

	var stderr strings.Builder
	result := s.Run(&sandbox.ExecuteConfig{
		RunLimitsConfig: fixtureLimits(t, "1s", "5s"),
		Command:         "fail.sh",
		Stderr:          &sandbox.IORedirect{Output: &stderr},
	})
	require.NoError(t, result.Err)
	require.Equal(t, sandbox.RuntimeError, result.Class)
	require.Equal(t, 3, result.Statistics.ExitCode)
	require.Equal(t, "boom\n", stderr.String())
}

func TestStderrToStdout(t *testing.T) {
	s := fixtureSandbox(t)
	writeScript(t, s, "both.sh", "echo out\necho err >&2\n")

	var output strings.Builder
	result := s.Run(&sandbox.ExecuteConfig{
		RunLimitsConfig: fixtureLimits(t, "1s", "5s"),
		Command:         "both.sh",
		Stdout:          &sandbox.IORedirect{Output: &output},
		StderrToStdout:  true,
	})
	require.NoError(t, result.Err)
	require.Equal(t, sandbox.Completed, result.Class)
	require.Contains(t, output.String(), "out\n")
	require.Contains(t, output.String(), "err\n")
}

func TestCancelled(t *testing.T) {
	s := fixtureSandbox(t)
	writeScript(t, s, "hang.sh", "sleep 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result := s.Run(&sandbox.ExecuteConfig{
		RunLimitsConfig: fixtureLimits(t, "30s", "30s"),
		Command:         "hang.sh",
		Ctx:             ctx,
	})
	require.Error(t, result.Err)
	require.Less(t, time.Since(start), 5*time.Second)
}
