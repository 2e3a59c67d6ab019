package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"judge_engine/common/connectors/judgeconn"
	"judge_engine/common/constants/category"
	"judge_engine/judge/testgen"
	"judge_engine/lib/connector"
	"judge_engine/lib/logger"
)

func (s *Server) handleGenerateTests(c *gin.Context) {
	request := new(judgeconn.GenerateTestsRequest)
	err := c.BindJSON(request)
	if err != nil {
		connector.RespErr(c, http.StatusBadRequest, "Can not parse generate request, error: %s", err.Error())
		return
	}
	if request.Count <= 0 {
		connector.RespErr(c, http.StatusBadRequest, "invalid case count %d", request.Count)
		return
	}

	cat, ok := s.parseCategory(c, request.Category)
	if !ok {
		return
	}
	mode, err := testgen.ParseSaveMode(request.Mode)
	if err != nil {
		connector.RespErr(c, http.StatusBadRequest, "%s", err.Error())
		return
	}

	problem := s.loadProblem(c, c.Param("problem"))
	if problem == nil {
		return
	}

	result, err := s.generator.GenerateBatch(c.Request.Context(), problem, request.Count)
	if err != nil {
		logger.Error("Generation for problem %s failed, error: %v", problem.ID, err)
		connector.RespErr(c, http.StatusInternalServerError, "%s", err.Error())
		return
	}

	saved, err := s.generator.SaveCases(problem, cat, result.Cases, mode)
	if err != nil {
		logger.Error("Can not save generated tests of problem %s, error: %v", problem.ID, err)
		connector.RespErr(c, http.StatusInternalServerError, "%s", err.Error())
		return
	}
	s.engine.Metrics.ProcessBatch(result)

	connector.RespOK(c, &judgeconn.GenerateTestsResponse{
		Generated: saved,
		Skipped:   result.Skipped,
		Warnings:  result.Warnings,
		Replaced:  mode == testgen.SaveReplace,
	})
}

func (s *Server) handleValidateInput(c *gin.Context) {
	request := new(judgeconn.ValidateInputRequest)
	err := c.BindJSON(request)
	if err != nil {
		connector.RespErr(c, http.StatusBadRequest, "Can not parse validate request, error: %s", err.Error())
		return
	}

	problem := s.loadProblem(c, c.Param("problem"))
	if problem == nil {
		return
	}

	outcome, err := s.generator.ValidateInput(c.Request.Context(), problem, request.Input)
	if err != nil {
		logger.Error("Validation on problem %s failed, error: %v", problem.ID, err)
		connector.RespErr(c, http.StatusInternalServerError, "%s", err.Error())
		return
	}
	connector.RespOK(c, outcome)
}

func (s *Server) handleAddTest(c *gin.Context) {
	request := new(judgeconn.AddTestRequest)
	err := c.BindJSON(request)
	if err != nil {
		connector.RespErr(c, http.StatusBadRequest, "Can not parse test request, error: %s", err.Error())
		return
	}

	cat, ok := s.parseCategory(c, request.Category)
	if !ok {
		return
	}
	problem := s.loadProblem(c, c.Param("problem"))
	if problem == nil {
		return
	}

	number, err := s.generator.AddManualTest(c.Request.Context(), problem, cat, request.Input)
	if err != nil {
		connector.RespErr(c, http.StatusBadRequest, "Can not add test, error: %s", err.Error())
		return
	}
	connector.RespOK(c, &judgeconn.AddTestResponse{Number: number})
}

func (s *Server) handleDeleteTests(c *gin.Context) {
	request := new(judgeconn.DeleteTestsRequest)
	if c.Request.ContentLength > 0 {
		err := c.BindJSON(request)
		if err != nil {
			connector.RespErr(c, http.StatusBadRequest, "Can not parse delete request, error: %s", err.Error())
			return
		}
	}

	cat, ok := s.parseCategory(c, request.Category)
	if !ok {
		return
	}
	problem := s.loadProblem(c, c.Param("problem"))
	if problem == nil {
		return
	}

	deleted, err := s.generator.DeleteTests(problem, cat, request.Numbers)
	if err != nil {
		logger.Error("Can not delete tests of problem %s, error: %v", problem.ID, err)
		connector.RespErr(c, http.StatusInternalServerError, "%s", err.Error())
		return
	}
	connector.RespOK(c, &judgeconn.DeleteTestsResponse{Deleted: deleted})
}

func (s *Server) handleTestsOverview(c *gin.Context) {
	problem := s.loadProblem(c, c.Param("problem"))
	if problem == nil {
		return
	}

	overview, err := s.generator.Overview(problem)
	if err != nil {
		logger.Error("Can not collect tests overview of problem %s, error: %v", problem.ID, err)
		connector.RespErr(c, http.StatusInternalServerError, "%s", err.Error())
		return
	}
	connector.RespOK(c, overview)
}

func (s *Server) parseCategory(c *gin.Context, raw string) (category.Category, bool) {
	if raw == "" {
		return category.System, true
	}
	cat, err := category.Parse(raw)
	if err != nil {
		connector.RespErr(c, http.StatusBadRequest, "%s", err.Error())
		return "", false
	}
	return cat, true
}
