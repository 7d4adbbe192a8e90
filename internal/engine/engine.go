package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bwerff/ExcelAiRate-sub000/internal/config"
	"github.com/bwerff/ExcelAiRate-sub000/internal/store"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/events"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/log"
)

type (
	// Archiver persists finished run results to long-term storage
	Archiver interface {
		Archive(ctx context.Context, res *api.WorkflowResult) error
	}

	// Dependencies are the collaborators an Engine is assembled from. The
	// dispatcher is required; everything else is optional and degrades to
	// a narrower feature set when absent
	Dependencies struct {
		Dispatcher Dispatcher
		Reader     RangeReader
		Writer     RangeWriter
		Store      store.WorkflowStore
		Archiver   Archiver
		Config     *config.Config
	}

	// Engine is the workflow execution service: it validates and runs
	// workflows, tracks live runs for abort, fans events out to
	// subscribers, and archives finished results
	Engine struct {
		store    store.WorkflowStore
		archiver Archiver
		hub      *events.Hub
		exec     *Executor
		runner   *Runner
		batch    *BatchRunner
		shutdown time.Duration
		runs     sync.Map // map[api.RunID]context.CancelFunc
		wg       sync.WaitGroup
	}
)

var (
	ErrNoDispatcher    = errors.New("no dispatcher configured")
	ErrNoStore         = errors.New("no workflow store configured")
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")
)

// New assembles an engine from its dependencies
func New(deps *Dependencies) (*Engine, error) {
	if deps.Dispatcher == nil {
		return nil, ErrNoDispatcher
	}

	hub := events.NewHub()
	exec := NewExecutor(deps.Dispatcher, deps.Reader, deps.Writer)

	shutdown := config.DefaultShutdownTimeout
	if cfg := deps.Config; cfg != nil {
		exec.SetDefaultTimeout(
			time.Duration(cfg.StepTimeout) * time.Millisecond,
		)
		shutdown = cfg.ShutdownTimeout
	}

	e := &Engine{
		store:    deps.Store,
		archiver: deps.Archiver,
		hub:      hub,
		exec:     exec,
		runner:   NewRunner(exec, hub),
		shutdown: shutdown,
	}
	e.batch = NewBatchRunner(e.runner, hub, newRunID)
	return e, nil
}

// Hub exposes the engine's event hub for subscribers
func (e *Engine) Hub() *events.Hub {
	return e.hub
}

// Executor exposes the step executor for clock injection in tests
func (e *Engine) Executor() *Executor {
	return e.exec
}

// RunWorkflow validates and runs a workflow. The result is non-nil
// whenever a run was started, even when it failed or was aborted; the
// error reports validation rejections and abnormal terminations
func (e *Engine) RunWorkflow(
	ctx context.Context, wf *api.Workflow, vars api.Args,
) (*api.WorkflowResult, error) {
	if wf == nil {
		return nil, ErrNilWorkflow
	}
	if err := wf.Validate(); err != nil {
		return rejectedResult(wf, err), err
	}

	runID := newRunID()
	runCtx, cancel := context.WithCancel(ctx)
	e.runs.Store(runID, cancel)
	e.wg.Add(1)
	defer func() {
		e.runs.Delete(runID)
		cancel()
		e.wg.Done()
	}()

	ec := NewContext(wf.Variables, vars)
	res := e.runner.Run(runCtx, runID, wf, ec)
	e.archive(res)
	return res, nil
}

// RunStep runs a single step as a synthetic one-step workflow
func (e *Engine) RunStep(
	ctx context.Context, step *api.Step, vars api.Args,
) (*api.WorkflowResult, error) {
	if step == nil {
		return nil, ErrNilStep
	}
	return e.RunWorkflow(ctx, api.WrapStep(step), vars)
}

// RunStored loads a workflow definition from the store and runs it
func (e *Engine) RunStored(
	ctx context.Context, id api.ID, vars api.Args,
) (*api.WorkflowResult, error) {
	if e.store == nil {
		return nil, ErrNoStore
	}
	wf, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.RunWorkflow(ctx, wf, vars)
}

// RunBatch validates the request's workflow and replays it across the
// batch targets. The response always reflects the targets actually
// attempted; a batch halted mid-way returns alongside ErrBatchAborted
func (e *Engine) RunBatch(
	ctx context.Context, req *BatchRequest,
) (*api.BatchResponse, error) {
	if req.Workflow == nil {
		return nil, ErrNilWorkflow
	}
	if err := req.Workflow.Validate(); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var batchErrs []*api.BatchError
	inner := *req
	caller := req.OnError
	inner.OnError = func(be api.BatchError) {
		mu.Lock()
		batchErrs = append(batchErrs, &be)
		mu.Unlock()
		if caller != nil {
			caller(be)
		}
	}

	e.wg.Add(1)
	defer e.wg.Done()
	results, err := e.batch.Run(ctx, &inner)
	if results == nil && err != nil {
		return nil, err
	}
	return &api.BatchResponse{
		Results: results,
		Errors:  batchErrs,
		Count:   len(results),
	}, err
}

// Abort cancels a live run. The run finishes its in-flight step attempt
// and then terminates with aborted status. Returns false when no run
// with the given ID is live
func (e *Engine) Abort(runID api.RunID) bool {
	cancel, ok := e.runs.Load(runID)
	if !ok {
		return false
	}
	cancel.(context.CancelFunc)()
	slog.Info("Run abort requested",
		log.RunID(runID))
	return true
}

// ActiveRuns reports how many runs are currently live
func (e *Engine) ActiveRuns() int {
	count := 0
	e.runs.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Stop cancels all live runs and waits for them and any in-flight
// archive writes to drain
func (e *Engine) Stop() error {
	e.runs.Range(func(_, v any) bool {
		v.(context.CancelFunc)()
		return true
	})

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.hub.Close()
		slog.Info("Engine stopped")
		return nil
	case <-time.After(e.shutdown):
		return ErrShutdownTimeout
	}
}

// archive hands the result to the archiver off the run's critical path
func (e *Engine) archive(res *api.WorkflowResult) {
	if e.archiver == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(
			context.Background(), 30*time.Second,
		)
		defer cancel()
		if err := e.archiver.Archive(ctx, res); err != nil {
			slog.Warn("Failed to archive run result",
				log.RunID(res.RunID),
				log.Error(err))
		}
	}()
}

// rejectedResult reports a workflow that never started because
// validation refused it
func rejectedResult(wf *api.Workflow, err error) *api.WorkflowResult {
	res := &api.WorkflowResult{
		RunID:      newRunID(),
		WorkflowID: wf.ID,
		Status:     api.RunFailed,
		Outputs:    api.Args{},
		Steps:      []*api.StepResult{},
	}
	res.AddError("", api.ErrorKindValidation, err.Error())
	return res
}

func newRunID() api.RunID {
	return api.RunID(uuid.NewString())
}
