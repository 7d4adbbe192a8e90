package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// MemoryStore is an in-process WorkflowStore for tests and single-node
// deployments without Redis
type MemoryStore struct {
	workflows map[api.ID]*api.Workflow
	mu        sync.RWMutex
}

// NewMemoryStore creates an empty in-memory workflow store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: map[api.ID]*api.Workflow{},
	}
}

func (s *MemoryStore) Save(_ context.Context, wf *api.Workflow) error {
	if wf.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.ID] = wf
	return nil
}

func (s *MemoryStore) Load(
	_ context.Context, id api.ID,
) (*api.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return wf, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*api.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*api.Workflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		res = append(res, wf)
	}
	return res, nil
}

func (s *MemoryStore) Delete(_ context.Context, id api.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	delete(s.workflows, id)
	return nil
}
