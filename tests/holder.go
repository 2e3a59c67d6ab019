package tests

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xorcare/pointer"
	"gopkg.in/yaml.v3"

	"judge_engine/common"
	"judge_engine/common/config"
	"judge_engine/common/connectors/judgeconn"
	"judge_engine/lib/logger"
	"judge_engine/server"
)

const defaultLogLevel = logger.LogLevelInfo

const sumSolution = `#!/bin/sh
read n
read line
sum=0
for x in $line; do sum=$((sum+x)); done
echo $sum
`

const zeroSolution = "#!/bin/sh\necho 0\n"

const pairGenerator = "#!/bin/sh\necho \"$1 $2\"\n"

const pairSolution = "#!/bin/sh\nread a b\necho $((a+b))\n"

type engineHolder struct {
	engine *common.JudgeEngine
	t      *testing.T

	dir         string
	problemsDir string

	client *judgeconn.Connector

	finishWait sync.WaitGroup

	runs []*runTest
}

func initEngine(t *testing.T) *engineHolder {
	return initEngineWith(t, "")
}

func initEngineWith(t *testing.T, resultCallback string) *engineHolder {
	h := &engineHolder{
		t:   t,
		dir: t.TempDir(),
	}
	h.problemsDir = filepath.Join(h.dir, "problems")
	require.NoError(t, os.MkdirAll(h.problemsDir, 0755))

	configPath := filepath.Join(h.dir, "config.yaml")
	h.writeEngineConfig(configPath, resultCallback)

	h.engine = common.InitJudgeEngine(configPath)
	require.NoError(t, server.SetupServer(h.engine))

	h.client = judgeconn.NewConnector(&config.Connection{
		Address: "http://localhost:" + strconv.Itoa(h.engine.Config.Port),
	})

	h.finishWait.Add(1)
	return h
}

func (h *engineHolder) writeEngineConfig(configPath string, resultCallback string) {
	compilerDir := filepath.Join(h.dir, "compiler")
	require.NoError(h.t, os.MkdirAll(compilerDir, 0755))
	compilerYaml := "Languages:\n  sh:\n    Command: [\"cp\", \"{src}\", \"{out}\"]\n"
	require.NoError(h.t, os.WriteFile(
		filepath.Join(compilerDir, "config.yaml"), []byte(compilerYaml), 0644,
	))

	workDir := filepath.Join(h.dir, "work")
	require.NoError(h.t, os.MkdirAll(workDir, 0755))

	cfg := &config.Config{
		Port:     freePort(h.t),
		LogLevel: pointer.Int(defaultLogLevel),
		Judge: &config.JudgeConfig{
			ProblemsPath:          h.problemsDir,
			WorkPath:              workDir,
			CompilerConfigsFolder: compilerDir,
			RunWorkers:            2,
			TestWorkers:           2,
		},
		DB: config.DBConfig{
			Dsn: filepath.Join(h.dir, "judge.db"),
		},
	}
	if resultCallback != "" {
		cfg.ResultCallback = pointer.String(resultCallback)
	}

	data, err := yaml.Marshal(cfg)
	require.NoError(h.t, err)
	require.NoError(h.t, os.WriteFile(configPath, data, 0644))
}

func freePort(t *testing.T) int {
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func (h *engineHolder) start() {
	h.engine.Run()
	h.finishWait.Done()
}

func (h *engineHolder) stop() {
	logger.Warn("Stopping engine because testing is complete")
	h.engine.Stop()
	h.finishWait.Wait()
}

// waitReady polls the status endpoint until the server accepts requests.
func (h *engineHolder) waitReady() {
	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err := h.client.Status(context.Background())
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("engine did not become ready, last error: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (h *engineHolder) addSumProblem(id string) {
	dir := filepath.Join(h.problemsDir, id)
	require.NoError(h.t, os.MkdirAll(dir, 0755))
	problemYaml := "Title: Sum\nTimeLimit: 2s\nMemoryLimit: 256m\n"
	require.NoError(h.t, os.WriteFile(filepath.Join(dir, "problem.yaml"), []byte(problemYaml), 0644))

	h.addTest(id, "samples", 1, "3\n1 2 3\n", "6\n")
	h.addTest(id, "samples", 2, "2\n10 20\n", "30\n")
	h.addTest(id, "system", 1, "1\n7\n", "7\n")
	h.addTest(id, "system", 2, "4\n1 1 1 1\n", "4\n")
}

func (h *engineHolder) addPairsProblem(id string) {
	dir := filepath.Join(h.problemsDir, id)
	require.NoError(h.t, os.MkdirAll(dir, 0755))
	problemYaml := "Title: Pairs\nTimeLimit: 2s\nMemoryLimit: 256m\n"
	require.NoError(h.t, os.WriteFile(filepath.Join(dir, "problem.yaml"), []byte(problemYaml), 0644))

	require.NoError(h.t, os.WriteFile(filepath.Join(dir, "generator"), []byte(pairGenerator), 0755))
	require.NoError(h.t, os.WriteFile(filepath.Join(dir, "solution"), []byte(pairSolution), 0755))
}

func (h *engineHolder) addTest(problem string, cat string, number int, input string, answer string) {
	dir := filepath.Join(h.problemsDir, problem, "tests", cat)
	require.NoError(h.t, os.MkdirAll(dir, 0755))
	name := fmt.Sprintf("%02d", number)
	require.NoError(h.t, os.WriteFile(filepath.Join(dir, name+".in"), []byte(input), 0644))
	require.NoError(h.t, os.WriteFile(filepath.Join(dir, name+".ans"), []byte(answer), 0644))
}
