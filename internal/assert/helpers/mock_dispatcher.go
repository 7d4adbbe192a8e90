package helpers

import (
	"context"
	"errors"
	"sync"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

type (
	// MockDispatcher is a scriptable Dispatcher for testing. Responses,
	// errors, and transient failure counts are keyed by operation name
	MockDispatcher struct {
		responses map[string]api.Args
		errors    map[string]error
		failures  map[string]int
		failErrs  map[string]error
		hooks     map[string]DispatchHook
		calls     []*DispatchCall
		mu        sync.Mutex
	}

	// DispatchHook runs during Dispatch for a hooked operation, outside
	// the mock's lock
	DispatchHook func(inputs api.Args)

	// DispatchCall records one Dispatch invocation
	DispatchCall struct {
		StepType  api.StepType
		Operation string
		Inputs    api.Args
	}
)

// ErrMockFailure is the default error for scripted transient failures
var ErrMockFailure = errors.New("mock dispatch failure")

// NewMockDispatcher creates an empty mock dispatcher. Unscripted
// operations succeed with no outputs
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{
		responses: map[string]api.Args{},
		errors:    map[string]error{},
		failures:  map[string]int{},
		failErrs:  map[string]error{},
		hooks:     map[string]DispatchHook{},
	}
}

// Dispatch records the invocation and returns the scripted outcome
func (d *MockDispatcher) Dispatch(
	_ context.Context, stepType api.StepType, operation string,
	inputs api.Args,
) (api.Args, error) {
	d.mu.Lock()
	hook := d.hooks[operation]
	d.mu.Unlock()
	if hook != nil {
		hook(inputs)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, &DispatchCall{
		StepType:  stepType,
		Operation: operation,
		Inputs:    inputs,
	})

	if n := d.failures[operation]; n > 0 {
		d.failures[operation] = n - 1
		if err, ok := d.failErrs[operation]; ok {
			return nil, err
		}
		return nil, ErrMockFailure
	}
	if err, ok := d.errors[operation]; ok {
		return nil, err
	}
	if outputs, ok := d.responses[operation]; ok {
		return outputs, nil
	}
	return nil, nil
}

// SetResponse configures the outputs returned for an operation
func (d *MockDispatcher) SetResponse(operation string, outputs api.Args) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.responses[operation] = outputs
}

// SetError configures an operation to always fail
func (d *MockDispatcher) SetError(operation string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors[operation] = err
}

// ClearError removes any configured error for an operation
func (d *MockDispatcher) ClearError(operation string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.errors, operation)
}

// FailTimes configures an operation to fail the next n dispatches with
// the given error and succeed afterwards. A nil error uses ErrMockFailure
func (d *MockDispatcher) FailTimes(operation string, n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[operation] = n
	if err != nil {
		d.failErrs[operation] = err
	}
}

// SetHook installs a function invoked whenever the operation dispatches
func (d *MockDispatcher) SetHook(operation string, fn DispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks[operation] = fn
}

// Calls returns every recorded dispatch in order
func (d *MockDispatcher) Calls() []*DispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := make([]*DispatchCall, len(d.calls))
	copy(res, d.calls)
	return res
}

// CallsFor returns the recorded dispatches for one operation
func (d *MockDispatcher) CallsFor(operation string) []*DispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	var res []*DispatchCall
	for _, call := range d.calls {
		if call.Operation == operation {
			res = append(res, call)
		}
	}
	return res
}

// Invocations returns how many times an operation was dispatched
func (d *MockDispatcher) Invocations(operation string) int {
	return len(d.CallsFor(operation))
}

// WasInvoked returns whether an operation was dispatched at least once
func (d *MockDispatcher) WasInvoked(operation string) bool {
	return d.Invocations(operation) > 0
}
