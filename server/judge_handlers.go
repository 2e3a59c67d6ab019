package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"judge_engine/common/connectors/judgeconn"
	"judge_engine/common/db/models"
	"judge_engine/lib/connector"
	"judge_engine/lib/logger"
	"judge_engine/problems"
)

func (s *Server) setupHandlers() {
	r := s.engine.Router.Group("/judge/")
	r.POST("/new", s.handleNewRun)
	r.GET("/run/:id", s.handleGetRun)
	r.POST("/trial", s.handleTrial)

	t := s.engine.Router.Group("/problems/:problem/tests")
	t.POST("/generate", s.handleGenerateTests)
	t.POST("/validate", s.handleValidateInput)
	t.POST("/manual", s.handleAddTest)
	t.GET("", s.handleTestsOverview)
	t.DELETE("", s.handleDeleteTests)

	s.engine.Router.GET("/status", s.handleStatus)
}

func (s *Server) handleNewRun(c *gin.Context) {
	request := new(judgeconn.SubmitRequest)
	err := c.BindJSON(request)
	if err != nil {
		connector.RespErr(c, http.StatusBadRequest, "Can not parse run request, error: %s", err.Error())
		return
	}

	_, err = s.compiler.GetLanguage(request.Language)
	if err != nil {
		connector.RespErr(c, http.StatusBadRequest, "%s", err.Error())
		return
	}
	if s.loadProblem(c, request.Problem) == nil {
		return
	}

	run := &models.Run{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Problem:  request.Problem,
		Language: request.Language,
		Status:   models.RunQueued,
	}

	sourcePath := filepath.Join(s.sourcesDir, run.ID+filepath.Ext(request.FileName))
	err = os.WriteFile(sourcePath, []byte(request.Source), 0644)
	if err != nil {
		logger.Error("Can not store source of run %s, error: %v", run.ID, err)
		connector.RespErr(c, http.StatusInternalServerError, "can not store source")
		return
	}

	err = s.engine.DB.WithContext(c).Create(run).Error
	if err != nil {
		logger.Error("Can not create run %s, error: %v", run.ID, err)
		s.removeSource(sourcePath)
		connector.RespErr(c, http.StatusInternalServerError, "DB error")
		return
	}

	select {
	case s.queue <- &queuedRun{run: run, sourcePath: sourcePath}:
	default:
		s.removeSource(sourcePath)
		err = s.engine.DB.WithContext(c).Delete(run).Error
		if err != nil {
			logger.Error("Can not delete rejected run %s, error: %v", run.ID, err)
		}
		connector.RespErr(c, http.StatusServiceUnavailable, "run queue is full")
		return
	}
	s.engine.Metrics.QueueSize.Inc()

	logger.Trace("New run %s, problem: %s, language: %s", run.ID, request.Problem, request.Language)
	connector.RespOK(c, &judgeconn.SubmitResponse{ID: run.ID})
}

func (s *Server) handleGetRun(c *gin.Context) {
	id := c.Param("id")

	run := new(models.Run)
	err := s.engine.DB.WithContext(c).First(run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			connector.RespErr(c, http.StatusNotFound, "run %s not found", id)
		} else {
			logger.Error("Can not load run %s, error: %v", id, err)
			connector.RespErr(c, http.StatusInternalServerError, "DB error")
		}
		return
	}
	connector.RespOK(c, run)
}

func (s *Server) handleTrial(c *gin.Context) {
	request := new(judgeconn.TrialRequest)
	err := c.BindJSON(request)
	if err != nil {
		connector.RespErr(c, http.StatusBadRequest, "Can not parse trial request, error: %s", err.Error())
		return
	}

	_, err = s.compiler.GetLanguage(request.Language)
	if err != nil {
		connector.RespErr(c, http.StatusBadRequest, "%s", err.Error())
		return
	}
	problem := s.loadProblem(c, request.Problem)
	if problem == nil {
		return
	}

	sourcePath := filepath.Join(s.sourcesDir, "trial_"+uuid.NewString()+filepath.Ext(request.FileName))
	err = os.WriteFile(sourcePath, []byte(request.Source), 0644)
	if err != nil {
		logger.Error("Can not store trial source, error: %v", err)
		connector.RespErr(c, http.StatusInternalServerError, "can not store source")
		return
	}
	defer s.removeSource(sourcePath)

	result, err := s.tester.Trial(c.Request.Context(), problem, request.Language, sourcePath, request.Input)
	if err != nil {
		logger.Error("Trial on problem %s failed, error: %v", request.Problem, err)
		connector.RespErr(c, http.StatusInternalServerError, "%s", err.Error())
		return
	}
	connector.RespOK(c, result)
}

func (s *Server) handleStatus(c *gin.Context) {
	connector.RespOK(c, &judgeconn.EngineStatus{
		QueueSize:     len(s.queue),
		ActiveRuns:    int(s.activeRuns.Load()),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	})
}

func (s *Server) loadProblem(c *gin.Context, id string) *problems.Problem {
	problem, err := s.storage.Problem(id)
	if err != nil {
		connector.RespErr(c, http.StatusNotFound, "Can not load problem %s, error: %s", id, err.Error())
		return nil
	}
	return problem
}
