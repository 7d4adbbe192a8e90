package server

import (
	"log/slog"
	"net/http"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	flowgrid "github.com/bwerff/ExcelAiRate-sub000"
	"github.com/bwerff/ExcelAiRate-sub000/internal/engine"
	"github.com/bwerff/ExcelAiRate-sub000/internal/store"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// Server implements the HTTP API for running and managing workflows
type Server struct {
	engine *engine.Engine
	store  store.WorkflowStore
}

// NewServer creates a new HTTP API server over the engine and workflow
// store. The store may be nil, disabling the workflow CRUD endpoints
func NewServer(eng *engine.Engine, st store.WorkflowStore) *Server {
	return &Server{
		engine: eng,
		store:  st,
	}
}

// SetupRoutes configures and returns the HTTP router with all API
// endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, PUT, DELETE, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)

	run := router.Group("/run")
	{
		run.POST("", s.runWorkflow)
		run.POST("/step", s.runStep)
		run.POST("/batch", s.runBatch)
		run.POST("/stored/:workflowID", s.runStored)
		run.DELETE("/:runID", s.abortRun)
	}

	wf := router.Group("/workflow")
	{
		wf.GET("", s.listWorkflows)
		wf.POST("", s.saveWorkflow)
		wf.GET("/:workflowID", s.getWorkflow)
		wf.DELETE("/:workflowID", s.deleteWorkflow)
	}

	router.GET("/ws", s.handleWebSocket)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Service:    flowgrid.Name,
		Version:    flowgrid.Version,
		Status:     "healthy",
		ActiveRuns: s.engine.ActiveRuns(),
	})
}
