package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bwerff/ExcelAiRate-sub000/internal/store"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

var ErrNoStore = errors.New("workflow storage is not configured")

func (s *Server) listWorkflows(c *gin.Context) {
	if s.store == nil {
		notFound(c, ErrNoStore)
		return
	}

	workflows, err := s.store.List(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	digests := make([]*api.WorkflowDigest, len(workflows))
	for i, wf := range workflows {
		digests[i] = wf.Digest()
	}
	c.JSON(http.StatusOK, api.WorkflowsListResponse{
		Workflows: digests,
		Count:     len(digests),
	})
}

func (s *Server) saveWorkflow(c *gin.Context) {
	if s.store == nil {
		notFound(c, ErrNoStore)
		return
	}

	var wf api.Workflow
	if err := c.ShouldBindJSON(&wf); err != nil {
		badRequest(c, err)
		return
	}
	if err := wf.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.store.Save(c.Request.Context(), &wf); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.WorkflowSavedResponse{
		ID:      wf.ID,
		Message: "workflow saved",
	})
}

func (s *Server) getWorkflow(c *gin.Context) {
	if s.store == nil {
		notFound(c, ErrNoStore)
		return
	}

	workflowID := api.ID(c.Param("workflowID"))
	wf, err := s.store.Load(c.Request.Context(), workflowID)
	if errors.Is(err, store.ErrWorkflowNotFound) {
		notFound(c, err)
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (s *Server) deleteWorkflow(c *gin.Context) {
	if s.store == nil {
		notFound(c, ErrNoStore)
		return
	}

	workflowID := api.ID(c.Param("workflowID"))
	err := s.store.Delete(c.Request.Context(), workflowID)
	if errors.Is(err, store.ErrWorkflowNotFound) {
		notFound(c, err)
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{
		Message: "workflow deleted",
	})
}
