package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bwerff/ExcelAiRate-sub000/internal/engine"
	"github.com/bwerff/ExcelAiRate-sub000/internal/store"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

var (
	ErrMissingWorkflow = errors.New("request has no workflow")
	ErrMissingStep     = errors.New("request has no step")
	ErrAmbiguousBatch  = errors.New(
		"batch request must set exactly one of workflow and step",
	)
)

func (s *Server) runWorkflow(c *gin.Context) {
	var req api.RunWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Workflow == nil {
		badRequest(c, ErrMissingWorkflow)
		return
	}

	res, err := s.engine.RunWorkflow(
		c.Request.Context(), req.Workflow, req.Variables,
	)
	if err != nil && res == nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) runStep(c *gin.Context) {
	var req api.RunStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Step == nil {
		badRequest(c, ErrMissingStep)
		return
	}

	res, err := s.engine.RunStep(
		c.Request.Context(), req.Step, req.Variables,
	)
	if err != nil && res == nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) runStored(c *gin.Context) {
	var req api.RunStoredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	workflowID := api.ID(c.Param("workflowID"))
	res, err := s.engine.RunStored(
		c.Request.Context(), workflowID, req.Variables,
	)
	if errors.Is(err, store.ErrWorkflowNotFound) {
		notFound(c, err)
		return
	}
	if err != nil && res == nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) runBatch(c *gin.Context) {
	var req api.RunBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	wf := req.Workflow
	if (wf == nil) == (req.Step == nil) {
		badRequest(c, ErrAmbiguousBatch)
		return
	}
	if wf == nil {
		wf = api.WrapStep(req.Step)
	}

	resp, err := s.engine.RunBatch(c.Request.Context(), &engine.BatchRequest{
		Workflow: wf,
		Targets:  req.Targets,
		Parallel: req.Parallel,
	})
	if resp == nil {
		badRequest(c, err)
		return
	}
	// a halted batch still reports the results it collected
	c.JSON(http.StatusOK, resp)
}

func (s *Server) abortRun(c *gin.Context) {
	runID := api.RunID(c.Param("runID"))
	aborted := s.engine.Abort(runID)

	status := http.StatusOK
	if !aborted {
		status = http.StatusNotFound
	}
	c.JSON(status, api.AbortResponse{
		RunID:   runID,
		Aborted: aborted,
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, api.ErrorResponse{
		Error:  err.Error(),
		Status: http.StatusBadRequest,
	})
}

func notFound(c *gin.Context, err error) {
	c.JSON(http.StatusNotFound, api.ErrorResponse{
		Error:  err.Error(),
		Status: http.StatusNotFound,
	})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{
		Error:  err.Error(),
		Status: http.StatusInternalServerError,
	})
}
