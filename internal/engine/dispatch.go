package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

type (
	// Dispatcher performs the actual work of a step. The engine may call
	// Dispatch more than once for the same step when a transient failure
	// is retried, so implementations must be safe to retry or must
	// suppress duplicate side effects themselves
	Dispatcher interface {
		Dispatch(
			ctx context.Context, stepType api.StepType, operation string,
			inputs api.Args,
		) (api.Args, error)
	}

	// RangeReader resolves range-kind inputs to a grid of cell values
	RangeReader interface {
		ReadRange(ctx context.Context, address string) ([][]any, error)
	}

	// RangeWriter materializes range-kind outputs as a grid of cell values
	RangeWriter interface {
		WriteRange(ctx context.Context, address string, values [][]any) error
	}

	// OperationFunc is one registered in-process operation
	OperationFunc func(ctx context.Context, inputs api.Args) (api.Args, error)

	// Registry is the built-in Dispatcher: a table of operation functions
	// keyed by step type and operation name. Registration happens at
	// start-up; dispatch may run from concurrent batch targets
	Registry struct {
		ops map[api.StepType]map[string]OperationFunc
		mu  sync.RWMutex
	}
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrNilOperation     = errors.New("operation function is nil")
)

// NewRegistry creates an empty operation registry
func NewRegistry() *Registry {
	return &Registry{
		ops: map[api.StepType]map[string]OperationFunc{},
	}
}

// Register installs an operation under the given step type and name,
// replacing any previous registration
func (r *Registry) Register(
	stepType api.StepType, operation string, fn OperationFunc,
) error {
	if fn == nil {
		return fmt.Errorf("%w: %s/%s", ErrNilOperation, stepType, operation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	byName, ok := r.ops[stepType]
	if !ok {
		byName = map[string]OperationFunc{}
		r.ops[stepType] = byName
	}
	byName[operation] = fn
	return nil
}

// Dispatch implements Dispatcher by routing to the registered operation
func (r *Registry) Dispatch(
	ctx context.Context, stepType api.StepType, operation string,
	inputs api.Args,
) (api.Args, error) {
	r.mu.RLock()
	fn, ok := r.ops[stepType][operation]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf(
			"%w: %s/%s", ErrUnknownOperation, stepType, operation,
		)
	}
	return fn(ctx, inputs)
}
