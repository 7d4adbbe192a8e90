package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/events"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/log"
)

// Runner drives one workflow run: steps execute strictly in declared
// order, cancellation is observed at step boundaries, and the workflow's
// error strategy decides whether a failed step halts the run. Every run
// yields a WorkflowResult, successful or not
type Runner struct {
	exec *Executor
	hub  *events.Hub
	now  Clock
}

// NewRunner creates a run orchestrator over the given executor and event
// hub
func NewRunner(exec *Executor, hub *events.Hub) *Runner {
	return &Runner{
		exec: exec,
		hub:  hub,
		now:  time.Now,
	}
}

// Run executes the workflow's steps against the run context and returns
// the aggregated result. The context carries the run's cancellation; an
// in-flight step finishes its current attempt before an abort takes
// effect
func (r *Runner) Run(
	ctx context.Context, runID api.RunID, wf *api.Workflow, ec *Context,
) *api.WorkflowResult {
	start := r.now()
	res := &api.WorkflowResult{
		RunID:      runID,
		WorkflowID: wf.ID,
		Status:     api.RunRunning,
		Steps:      []*api.StepResult{},
	}

	r.hub.Raise(api.EventRunStarted, runID, "", nil)
	slog.Info("Workflow run started",
		log.RunID(runID),
		log.WorkflowID(wf.ID),
		slog.Int("steps", len(wf.Steps)))

	strategy := wf.Strategy()
	for _, step := range wf.Steps {
		if err := ctx.Err(); err != nil {
			res.Status = api.RunAborted
			res.AddError("", api.ErrorKindCancellation, err.Error())
			break
		}

		r.hub.Raise(api.EventStepStarted, runID, step.ID, nil)
		sr, err := r.exec.ExecuteStep(ctx, step, ec)
		res.Steps = append(res.Steps, sr)

		switch {
		case sr.Skipped:
			r.hub.Raise(api.EventStepSkipped, runID, step.ID, nil)
			if sr.Error != "" {
				// a malformed condition skipped the step; keep the
				// diagnostic on the run without failing it
				res.AddError(step.ID, api.ErrorKindCondition, sr.Error)
			}
		case err == nil:
			r.hub.Raise(api.EventStepCompleted, runID, step.ID, sr)
		default:
			r.hub.Raise(api.EventStepFailed, runID, step.ID, sr)
			kind := kindOf(err)
			res.AddError(step.ID, kind, err.Error())
			slog.Warn("Step failed",
				log.RunID(runID),
				log.StepID(step.ID),
				slog.String("kind", string(kind)),
				log.Error(err))

			if kind == api.ErrorKindCancellation {
				res.Status = api.RunAborted
			} else if strategy.HaltsOnFailure() {
				res.Status = api.RunFailed
			}
		}

		if res.Status.Finished() {
			break
		}
	}

	r.finalize(res, ec, start)
	return res
}

// finalize settles the terminal status, captures the context's outputs,
// and raises the closing event. A run that was never halted completes
// even when non-fatal step failures were recorded; condition diagnostics
// never fail a run. Success reports whether the run stayed free of fatal
// errors
func (r *Runner) finalize(
	res *api.WorkflowResult, ec *Context, start time.Time,
) {
	if !res.Status.Finished() {
		res.Status = api.RunCompleted
		if res.HasFatalErrors() {
			res.Status = api.RunFailed
		}
	}
	res.Success = res.Status == api.RunCompleted && !res.HasFatalErrors()
	res.Outputs = ec.Outputs()
	res.Duration = r.now().Sub(start).Milliseconds()

	switch res.Status {
	case api.RunCompleted:
		r.hub.Raise(api.EventRunCompleted, res.RunID, "", res)
	case api.RunAborted:
		r.hub.Raise(api.EventRunAborted, res.RunID, "", res)
	default:
		r.hub.Raise(api.EventRunFailed, res.RunID, "", res)
	}

	slog.Info("Workflow run finished",
		log.RunID(res.RunID),
		log.WorkflowID(res.WorkflowID),
		log.Status(string(res.Status)),
		slog.Int64("duration_ms", res.Duration),
		slog.Int("errors", len(res.Errors)))
}
