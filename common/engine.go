package common

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"judge_engine/common/config"
	"judge_engine/common/db"
	"judge_engine/common/metrics"
	"judge_engine/lib/logger"
)

// JudgeEngine holds everything one engine instance shares between its
// components: configuration, HTTP router, database and metrics. Components
// register their handlers on Router and long running loops via AddProcess.
type JudgeEngine struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *gorm.DB
	Metrics *metrics.Collector

	processes []func()
	defers    []func()

	panics     []any
	panicsLock sync.Mutex

	// StopCtx is cancelled once the engine shuts down. It is valid right
	// after InitJudgeEngine, so components may capture it during setup.
	StopCtx  context.Context
	stopFunc context.CancelFunc
	stopWG   sync.WaitGroup
}

func InitJudgeEngine(configPath string) *JudgeEngine {
	engine := &JudgeEngine{
		Config: config.ReadConfig(configPath),
	}
	engine.StopCtx, engine.stopFunc = context.WithCancel(context.Background())

	logger.InitLogger(engine.Config)

	engine.InitServer()
	engine.setupMetrics()

	var err error
	engine.DB, err = db.NewDB(engine.StopCtx, &engine.Config.DB)
	if err != nil {
		logger.Panic("Can not set up db connection, error: %s", err.Error())
	}

	return engine
}

// AddProcess registers a long running loop which is started by Run.
func (e *JudgeEngine) AddProcess(f func()) {
	e.processes = append(e.processes, f)
}

// AddDefer registers a cleanup which runs after every process has stopped.
func (e *JudgeEngine) AddDefer(f func()) {
	e.defers = append(e.defers, f)
}

// Run starts all registered processes and serves HTTP until the engine is
// stopped by a signal, Stop or a panic in any process. Collected panics are
// rethrown after shutdown completes.
func (e *JudgeEngine) Run() {
	signalCtx, cancel := signal.NotifyContext(e.StopCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for _, process := range e.processes {
		e.Go(process)
	}

	e.runServer(signalCtx)

	e.stopFunc()
	e.stopWG.Wait()

	for _, d := range e.defers {
		d()
	}

	e.panicsLock.Lock()
	defer e.panicsLock.Unlock()
	if len(e.panics) > 0 {
		panic(e.panics[0])
	}
}

// Stop initiates a graceful shutdown.
func (e *JudgeEngine) Stop() {
	e.stopFunc()
}

// Go runs f in a goroutine tracked by the engine. A panic in f stops the
// whole engine gracefully instead of killing the process at once.
func (e *JudgeEngine) Go(f func()) {
	e.stopWG.Add(1)
	go e.runProcess(f)
}

func (e *JudgeEngine) runProcess(f func()) {
	defer func() {
		v := recover()
		if v != nil {
			logger.Error("One process got panic, shutting down all processes gracefully")
			e.addPanic(v)
			e.stopFunc()
		}
		e.stopWG.Done()
	}()

	f()
}

func (e *JudgeEngine) addPanic(v any) {
	e.panicsLock.Lock()
	defer e.panicsLock.Unlock()
	e.panics = append(e.panics, v)
}
