package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/events"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/log"
)

type (
	// ProgressFunc receives batch advancement reports
	ProgressFunc func(api.BatchProgress)

	// BatchErrorFunc receives per-target failure reports
	BatchErrorFunc func(api.BatchError)

	// BatchRequest describes one batch: the workflow to run once per
	// target, optional variable overrides shared by every target, and the
	// execution mode. Callbacks are optional; a panicking callback is
	// contained and never takes the batch down
	BatchRequest struct {
		Workflow   *api.Workflow
		Targets    []api.BatchTarget
		Overrides  api.Args
		Parallel   bool
		OnProgress ProgressFunc
		OnError    BatchErrorFunc
	}

	// BatchRunner executes a workflow once per batch target. Every target
	// gets a fresh execution context so no state leaks between targets.
	// Parallel mode runs targets in chunks bounded by MaxBatchParallel
	BatchRunner struct {
		runner   *Runner
		hub      *events.Hub
		newRunID func() api.RunID
	}
)

// NewBatchRunner creates a batch runner over the given orchestrator
func NewBatchRunner(
	runner *Runner, hub *events.Hub, newRunID func() api.RunID,
) *BatchRunner {
	return &BatchRunner{
		runner:   runner,
		hub:      hub,
		newRunID: newRunID,
	}
}

// Run executes the request and returns one WorkflowResult per attempted
// target, in target order. A target failure under a halting strategy, or
// a cancellation, stops the batch before further targets start; the
// results collected so far are still returned alongside ErrBatchAborted
func (b *BatchRunner) Run(
	ctx context.Context, req *BatchRequest,
) ([]*api.WorkflowResult, error) {
	if req.Workflow == nil {
		return nil, ErrNilWorkflow
	}
	if len(req.Targets) == 0 {
		return nil, ErrNoBatchTarget
	}

	slog.Info("Batch started",
		log.WorkflowID(req.Workflow.ID),
		slog.Int("targets", len(req.Targets)),
		slog.Bool("parallel", req.Parallel))

	if req.Parallel {
		return b.runParallel(ctx, req)
	}
	return b.runSequential(ctx, req)
}

func (b *BatchRunner) runSequential(
	ctx context.Context, req *BatchRequest,
) ([]*api.WorkflowResult, error) {
	total := len(req.Targets)
	results := make([]*api.WorkflowResult, 0, total)

	for i, target := range req.Targets {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("%w: %w", ErrBatchAborted, err)
		}
		b.reportProgress(req.OnProgress,
			api.NewBatchProgress(target, i, total))

		res := b.runTarget(ctx, req, target)
		results = append(results, res)

		if res.Success {
			continue
		}
		if halted := b.reportFailure(req, target, res); halted {
			return results, &TargetError{
				Target: target,
				Err:    ErrBatchAborted,
			}
		}
	}

	b.reportProgress(req.OnProgress, api.NewBatchProgress("", total, total))
	return results, nil
}

// runParallel processes targets in chunks of at most MaxBatchParallel. A
// chunk always drains before the batch decides whether to continue, so a
// halting failure never leaves orphaned in-flight targets
func (b *BatchRunner) runParallel(
	ctx context.Context, req *BatchRequest,
) ([]*api.WorkflowResult, error) {
	total := len(req.Targets)
	results := make([]*api.WorkflowResult, 0, total)

	for lo := 0; lo < total; lo += api.MaxBatchParallel {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("%w: %w", ErrBatchAborted, err)
		}

		hi := min(lo+api.MaxBatchParallel, total)
		chunk := req.Targets[lo:hi]
		chunkResults := make([]*api.WorkflowResult, len(chunk))

		var g errgroup.Group
		for i, target := range chunk {
			g.Go(func() error {
				chunkResults[i] = b.runTarget(ctx, req, target)
				return nil
			})
		}
		_ = g.Wait()

		var haltedOn api.BatchTarget
		halted := false
		for i, res := range chunkResults {
			results = append(results, res)
			if res.Success {
				continue
			}
			if b.reportFailure(req, chunk[i], res) && !halted {
				halted = true
				haltedOn = chunk[i]
			}
		}
		b.reportProgress(req.OnProgress,
			api.NewBatchProgress("", hi, total))

		if halted {
			return results, &TargetError{
				Target: haltedOn,
				Err: fmt.Errorf("%w: %d of %d targets completed",
					ErrBatchAborted, hi, total),
			}
		}
	}
	return results, nil
}

// runTarget runs the workflow once against a single target, with the
// target injected into a fresh context as the currentItem and
// currentRange variables
func (b *BatchRunner) runTarget(
	ctx context.Context, req *BatchRequest, target api.BatchTarget,
) *api.WorkflowResult {
	vars := req.Overrides.
		Set(api.CurrentItemVar, string(target)).
		Set(api.CurrentRangeVar, string(target))
	ec := NewContext(req.Workflow.Variables, vars)
	return b.runner.Run(ctx, b.newRunID(), req.Workflow, ec)
}

// reportFailure raises the batch error and reports whether the batch
// must halt. The reported error carries the batch-target kind; the
// underlying cause decides halting: cancellations always halt, other
// failures halt only when the workflow's strategy does
func (b *BatchRunner) reportFailure(
	req *BatchRequest, target api.BatchTarget, res *api.WorkflowResult,
) bool {
	kind := api.ErrorKindOperation
	msg := "workflow failed"
	if first, ok := res.FirstError(); ok {
		kind = first.Kind
		msg = first.Message
	}

	canContinue := !req.Workflow.HaltsOnFailure() &&
		kind != api.ErrorKindCancellation
	be := api.BatchError{
		Target:      target,
		Err:         msg,
		Kind:        api.ErrorKindBatchTarget,
		CanContinue: canContinue,
	}

	b.hub.Raise(api.EventBatchError, res.RunID, "", be)
	slog.Warn("Batch target failed",
		log.Target(target),
		log.RunID(res.RunID),
		slog.String("kind", string(kind)),
		slog.Bool("can_continue", canContinue))

	b.invokeError(req.OnError, be)
	return !canContinue
}

func (b *BatchRunner) reportProgress(
	fn ProgressFunc, progress api.BatchProgress,
) {
	b.hub.Raise(api.EventBatchProgress, "", "", progress)
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Progress callback panicked", slog.Any("panic", r))
		}
	}()
	fn(progress)
}

func (b *BatchRunner) invokeError(fn BatchErrorFunc, be api.BatchError) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Error callback panicked", slog.Any("panic", r))
		}
	}()
	fn(be)
}
