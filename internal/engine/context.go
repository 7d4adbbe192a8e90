package engine

import (
	"maps"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// Context is the per-run variable and output scope. One Context exists per
// workflow run; the step executor is its only writer, and a run never
// shares its Context with another run, so no locking is required. The
// batch runner creates a fresh Context for every target
type Context struct {
	vars    api.Args
	outputs map[api.OutputRef]any
}

// NewContext creates a run context from the workflow's initial variables
// merged with caller-supplied overrides. Overrides win on conflict
func NewContext(initial, overrides api.Args) *Context {
	return &Context{
		vars:    initial.Merge(overrides),
		outputs: map[api.OutputRef]any{},
	}
}

// Get retrieves a variable binding
func (c *Context) Get(name api.Name) (any, bool) {
	val, ok := c.vars[name]
	return val, ok
}

// Set binds a variable
func (c *Context) Set(name api.Name, value any) {
	c.vars[name] = value
}

// GetOutput retrieves a completed step's named output
func (c *Context) GetOutput(stepID api.ID, output api.Name) (any, bool) {
	val, ok := c.outputs[api.MakeOutputRef(stepID, output)]
	return val, ok
}

// SetOutput records a completed step's named output
func (c *Context) SetOutput(stepID api.ID, output api.Name, value any) {
	c.outputs[api.MakeOutputRef(stepID, output)] = value
}

// Outputs returns the run's output mapping, keyed "<stepID>.<output>", for
// inclusion in the WorkflowResult
func (c *Context) Outputs() api.Args {
	res := make(api.Args, len(c.outputs))
	for ref, val := range c.outputs {
		res[api.Name(ref)] = val
	}
	return res
}

// Variables returns a snapshot of the current variable bindings
func (c *Context) Variables() api.Args {
	return maps.Clone(c.vars)
}

// Lookup resolves a condition expression variable against the run's
// variable bindings
func (c *Context) Lookup(name string) (any, bool) {
	val, ok := c.vars[api.Name(name)]
	return val, ok
}
