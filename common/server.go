package common

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"judge_engine/common/metrics"
	"judge_engine/lib/logger"
)

func (e *JudgeEngine) recoverRequest(c *gin.Context, err any) {
	if err != nil {
		e.addPanic(err)

		e.stopFunc()
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

func (e *JudgeEngine) InitServer() {
	gin.SetMode(gin.ReleaseMode)
	e.Router = gin.New()

	if logger.GetLevel() <= logger.LogLevelTrace {
		e.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
			Output: logger.CreateWriter(logger.LogLevelTrace, "Handler log:"),
		}))
	}
	e.Router.Use(gin.CustomRecoveryWithWriter(
		logger.CreateWriter(logger.LogLevelError, "Panic in handler:"),
		e.recoverRequest,
	))
}

// setupMetrics gives the engine its own registry, so that several engines
// may run in one process, and exposes it on /metrics.
func (e *JudgeEngine) setupMetrics() {
	registry := prometheus.NewRegistry()
	e.Metrics = metrics.NewCollector(registry)
	e.Router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

func (e *JudgeEngine) runServer(ctx context.Context) {
	addr := ":" + strconv.Itoa(e.Config.Port)
	if e.Config.Host != nil {
		addr = *e.Config.Host + addr
	}
	logger.Info("Starting server at " + addr)
	server := http.Server{
		Addr:    addr,
		Handler: e.Router,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		server.Shutdown(context.Background())
	}()
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Can not serve at %s, error: %v", addr, err)
	}
}
