package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"judge_engine/common"
	"judge_engine/common/db/models"
	"judge_engine/judge/compiler"
	"judge_engine/judge/tester"
	"judge_engine/judge/testgen"
	"judge_engine/lib/logger"
	"judge_engine/problems"
)

// Server is the operational API of the judge engine. It owns the judging
// components and the run queue, handlers only translate HTTP into calls on
// them.
type Server struct {
	engine *common.JudgeEngine

	storage   *problems.Storage
	compiler  *compiler.Compiler
	tester    *tester.Tester
	generator *testgen.Generator

	queue      chan *queuedRun
	sourcesDir string

	callback *resultCallback

	activeRuns atomic.Int64
	startedAt  time.Time
}

// queuedRun keeps the source on disk, the record itself never holds it.
type queuedRun struct {
	run        *models.Run
	sourcePath string
}

func SetupServer(engine *common.JudgeEngine) error {
	if engine.Config.Judge == nil {
		return errors.New("judge is not configured")
	}
	cfg := engine.Config.Judge

	s := &Server{
		engine:    engine,
		storage:   problems.NewStorage(cfg),
		compiler:  compiler.NewCompiler(cfg),
		queue:     make(chan *queuedRun, cfg.QueueSize),
		startedAt: time.Now(),
	}
	s.tester = tester.NewTester(cfg, s.compiler, s.storage)
	s.generator = testgen.NewGenerator(cfg, s.storage)

	s.sourcesDir = filepath.Join(cfg.WorkPath, "sources")
	err := os.MkdirAll(s.sourcesDir, 0755)
	if err != nil {
		return fmt.Errorf("can not create sources dir, error: %v", err)
	}

	if engine.Config.ResultCallback != nil {
		s.callback = newResultCallback(*engine.Config.ResultCallback)
	}

	for range cfg.RunWorkers {
		engine.AddProcess(s.runWorkerLoop)
	}

	s.setupHandlers()

	logger.Info("Configured judge server with %d run workers", cfg.RunWorkers)
	return nil
}

func (s *Server) runWorkerLoop() {
	for {
		select {
		case <-s.engine.StopCtx.Done():
			return
		case item := <-s.queue:
			s.processRun(item)
		}
	}
}

func (s *Server) processRun(item *queuedRun) {
	s.engine.Metrics.QueueSize.Dec()
	s.activeRuns.Add(1)
	s.engine.Metrics.ActiveRuns.Inc()
	defer func() {
		s.activeRuns.Add(-1)
		s.engine.Metrics.ActiveRuns.Dec()
	}()

	run := item.run
	defer s.removeSource(item.sourcePath)

	run.Status = models.RunRunning
	err := s.engine.DB.Save(run).Error
	if err != nil {
		logger.Error("Can not update run %s, error: %v", run.ID, err)
	}
	logger.Info("Judging run %s, problem %s, language %s", run.ID, run.Problem, run.Language)

	report, err := s.judgeRun(item)
	if err != nil {
		run.Status = models.RunError
		run.Error = err.Error()
		s.engine.Metrics.ProcessRunFailure()
		logger.Error("Run %s failed, error: %v", run.ID, err)
	} else {
		run.Status = models.RunFinished
		run.Overall = report.Overall
		run.Report = models.Report{Report: report}
		run.FillVerdicts(report)
		s.engine.Metrics.ProcessReport(report)
		logger.Info("Run %s finished: %s", run.ID, report.Overall)
	}

	err = s.engine.DB.Save(run).Error
	if err != nil {
		logger.Error("Can not save run %s, error: %v", run.ID, err)
	}

	if s.callback != nil {
		s.callback.post(run)
	}
}

func (s *Server) judgeRun(item *queuedRun) (*tester.Report, error) {
	problem, err := s.storage.Problem(item.run.Problem)
	if err != nil {
		return nil, err
	}
	return s.tester.Judge(s.engine.StopCtx, problem, item.run.Language, item.sourcePath)
}

func (s *Server) removeSource(path string) {
	err := os.Remove(path)
	if err != nil {
		logger.Error("Can not remove source %s, error: %v", path, err)
	}
}
