// Package store persists workflow definitions between runs
package store

import (
	"context"
	"errors"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// WorkflowStore persists workflow definitions by ID. Save overwrites any
// existing definition under the same ID
type WorkflowStore interface {
	Save(ctx context.Context, wf *api.Workflow) error
	Load(ctx context.Context, id api.ID) (*api.Workflow, error)
	List(ctx context.Context) ([]*api.Workflow, error)
	Delete(ctx context.Context, id api.ID) error
}

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrMissingID        = errors.New("workflow has no ID")
)
