package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/expr"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/log"
)

type (
	// Clock provides the current time for durations and retry timing
	Clock func() time.Time

	// SleepFunc waits out a retry backoff delay, honoring cancellation
	SleepFunc func(context.Context, time.Duration) error

	// Executor resolves a step's inputs, dispatches its operation, applies
	// the retry policy, and writes its outputs into the run context
	Executor struct {
		dispatcher Dispatcher
		reader     RangeReader
		writer     RangeWriter
		now        Clock
		sleep      SleepFunc
		defTimeout time.Duration
	}
)

var (
	ErrNoRangeReader = errors.New("no range reader configured")
	ErrNoRangeWriter = errors.New("no range writer configured")
)

// NewExecutor creates a step executor over the given collaborators. The
// range reader and writer may be nil when no step uses range sources or
// targets
func NewExecutor(d Dispatcher, r RangeReader, w RangeWriter) *Executor {
	return &Executor{
		dispatcher: d,
		reader:     r,
		writer:     w,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// SetClock replaces the executor's time source and backoff sleeper. Tests
// use this to observe retry delays without waiting them out
func (x *Executor) SetClock(now Clock, sleep SleepFunc) {
	x.now = now
	x.sleep = sleep
}

// SetDefaultTimeout sets the per-attempt deadline applied to steps that
// declare no timeout of their own. Zero disables the default
func (x *Executor) SetDefaultTimeout(d time.Duration) {
	x.defTimeout = d
}

// ExecuteStep runs one step against the run context. The returned
// StepResult is always non-nil; the error, when non-nil, carries the
// failure's taxonomy kind so the caller can decide whether the run
// continues. Whether a failure halts the run is the orchestrator's call,
// not the executor's
func (x *Executor) ExecuteStep(
	ctx context.Context, step *api.Step, ec *Context,
) (*api.StepResult, error) {
	start := x.now()

	if ok, diag := x.conditionsSatisfied(step, ec); !ok {
		res := api.NewStepResult(step.ID)
		res.Skipped = true
		if diag != nil {
			res.Error = diag.Error()
		}
		res.Duration = x.since(start)
		return res, nil
	}

	outputs, retries, err := x.attemptWithRetry(ctx, step, ec)
	if err != nil {
		res := api.NewStepResult(step.ID).WithError(err)
		res.Retries = retries
		res.Duration = x.since(start)
		return res, err
	}

	res := api.NewStepResult(step.ID)
	res.Output = outputs
	res.Retries = retries
	res.Duration = x.since(start)
	return res, nil
}

// attemptWithRetry drives the attempt loop. Conditions are not
// re-evaluated between attempts; only input resolution and the dispatch
// itself are repeated
func (x *Executor) attemptWithRetry(
	ctx context.Context, step *api.Step, ec *Context,
) (api.Args, int, error) {
	attempts := step.MaxAttempts()

	var lastErr error
	retries := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(step.Retry.Backoff(attempt)) *
				time.Millisecond
			if err := x.sleep(ctx, delay); err != nil {
				return nil, retries, newStepError(
					step.ID, api.ErrorKindCancellation,
					fmt.Errorf("%w: %w", ErrRunCancelled, err),
				)
			}
			retries = attempt - 1
		}

		outputs, err := x.attempt(ctx, step, ec)
		if err == nil {
			return outputs, retries, nil
		}
		lastErr = err

		if !retryable(err) {
			break
		}
	}
	return nil, retries, lastErr
}

// attempt performs one resolution + dispatch + output cycle
func (x *Executor) attempt(
	ctx context.Context, step *api.Step, ec *Context,
) (api.Args, error) {
	inputs, err := x.resolveInputs(ctx, step, ec)
	if err != nil {
		return nil, err
	}

	dctx := ctx
	timeout := x.defTimeout
	if ms, ok := step.Timeout(); ok {
		timeout = time.Duration(ms) * time.Millisecond
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	outputs, err := x.perform(dctx, step, inputs)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newStepError(step.ID, api.ErrorKindCancellation,
				fmt.Errorf("%w: %w", ErrRunCancelled, ctx.Err()))
		}
		return nil, newStepError(step.ID, api.ErrorKindOperation, err)
	}

	if err := x.applyOutputs(ctx, step, ec, outputs); err != nil {
		return nil, err
	}
	return outputs, nil
}

// perform routes the dispatch by step type. The switch is exhaustive over
// the closed StepType set; loop steps iterate their input collection
func (x *Executor) perform(
	ctx context.Context, step *api.Step, inputs api.Args,
) (api.Args, error) {
	switch step.Type {
	case api.StepTypeLoop:
		return x.performLoop(ctx, step, inputs)
	case api.StepTypeAIAnalysis,
		api.StepTypeAIGeneration,
		api.StepTypeDataTransform,
		api.StepTypeDocumentOperation,
		api.StepTypeConditional,
		api.StepTypeValidation,
		api.StepTypeFormatting:
		return x.dispatcher.Dispatch(ctx, step.Type, step.Operation, inputs)
	default:
		return nil, fmt.Errorf("%w: %s", api.ErrInvalidStepType, step.Type)
	}
}

// performLoop dispatches the step's operation once per element of its
// input collection and collects the results. When no operation is
// registered for the step, the collection passes through unchanged
func (x *Executor) performLoop(
	ctx context.Context, step *api.Step, inputs api.Args,
) (api.Args, error) {
	items := loopCollection(step, inputs)

	results := make([]any, 0, len(items))
	for i, item := range items {
		iterInputs := inputs.Set("item", item).Set("index", i)
		outputs, err := x.dispatcher.Dispatch(
			ctx, step.Type, step.Operation, iterInputs,
		)
		if err != nil {
			if errors.Is(err, ErrUnknownOperation) {
				return api.Args{"results": items}, nil
			}
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		results = append(results, singleOutput(outputs))
	}
	return api.Args{"results": results}, nil
}

// loopCollection picks the collection a loop step iterates: the input
// named "items" when declared, otherwise the first array-valued input
func loopCollection(step *api.Step, inputs api.Args) []any {
	if items, ok := inputs["items"]; ok {
		if arr := asArray(items); arr != nil {
			return arr
		}
	}
	for _, in := range step.Inputs {
		if arr := asArray(inputs[in.Name]); arr != nil {
			return arr
		}
	}
	return nil
}

// resolveInputs builds the dispatch arguments from the step's input
// declarations. Missing-but-defaulted inputs take their default; a
// required input still missing afterwards is fatal
func (x *Executor) resolveInputs(
	ctx context.Context, step *api.Step, ec *Context,
) (api.Args, error) {
	inputs := api.Args{}
	for _, in := range step.Inputs {
		val, ok, err := x.resolveInput(ctx, in, ec)
		if err != nil {
			return nil, newStepError(step.ID, api.ErrorKindInput, err)
		}

		if !ok && in.Default != "" {
			val = gjson.Parse(in.Default).Value()
			ok = true
		}
		if !ok {
			if in.Required {
				return nil, newStepError(step.ID, api.ErrorKindInput,
					fmt.Errorf("%w: %s", ErrInputMissing, in.Name))
			}
			continue
		}
		inputs[in.Name] = val
	}
	return inputs, nil
}

func (x *Executor) resolveInput(
	ctx context.Context, in *api.StepInput, ec *Context,
) (any, bool, error) {
	switch in.Type {
	case api.InputLiteral:
		if in.Source == "" {
			return nil, false, nil
		}
		return gjson.Parse(in.Source).Value(), true, nil

	case api.InputVariable:
		val, ok := ec.Get(api.Name(in.Source))
		return val, ok, nil

	case api.InputPreviousOutput:
		stepID, output, ok := api.OutputRef(in.Source).Split()
		if !ok {
			return nil, false, nil
		}
		val, found := ec.GetOutput(stepID, output)
		return val, found, nil

	case api.InputRange:
		if x.reader == nil {
			return nil, false, fmt.Errorf(
				"%w: %s", ErrNoRangeReader, in.Source,
			)
		}
		grid, err := x.reader.ReadRange(ctx, in.Source)
		if err != nil {
			return nil, false, err
		}
		return grid, true, nil

	default:
		return nil, false, fmt.Errorf(
			"%w: %s", api.ErrInvalidInputKind, in.Type,
		)
	}
}

// applyOutputs writes the dispatch outputs per the step's declarations.
// Every declared output also lands in the context's output mapping so
// later steps can reference it as "<stepID>.<name>"
func (x *Executor) applyOutputs(
	ctx context.Context, step *api.Step, ec *Context, outputs api.Args,
) error {
	for _, out := range step.Outputs {
		value := namedOutput(outputs, out.Name)

		switch out.Type {
		case api.OutputRange:
			if x.writer == nil {
				return newStepError(step.ID, api.ErrorKindOperation,
					fmt.Errorf("%w: %s", ErrNoRangeWriter, out.Target))
			}
			if err := x.writer.WriteRange(
				ctx, out.Target, asGrid(value),
			); err != nil {
				return newStepError(step.ID, api.ErrorKindOperation, err)
			}
		case api.OutputValue, api.OutputVariable:
			ec.Set(api.Name(out.Target), value)
		}

		ec.SetOutput(step.ID, out.Name, value)
	}
	return nil
}

// conditionsSatisfied evaluates all of the step's conditions against the
// run context. A malformed expression counts as an unsatisfied condition;
// the evaluation error comes back as a diagnostic for the skipped result,
// never as a step failure. The while type is evaluated once per call:
// looping over collections belongs to loop-type steps
func (x *Executor) conditionsSatisfied(
	step *api.Step, ec *Context,
) (bool, error) {
	for _, cond := range step.Conditions {
		ok, err := expr.Evaluate(cond.Expression, ec)
		if err != nil {
			slog.Warn("Condition evaluation failed",
				log.StepID(step.ID),
				slog.String("expression", cond.Expression),
				log.Error(err))
			ok = false
		}

		switch cond.Type {
		case api.ConditionIf, api.ConditionWhile:
			if !ok {
				return false, err
			}
		case api.ConditionUnless:
			if ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func (x *Executor) since(start time.Time) int64 {
	return x.now().Sub(start).Milliseconds()
}

// retryable reports whether another attempt could change the outcome.
// Cancellations and structurally missing inputs never benefit from retry;
// transient input failures (an unreadable range) and operation failures do
func retryable(err error) bool {
	if errors.Is(err, ErrInputMissing) ||
		errors.Is(err, ErrNoRangeReader) ||
		errors.Is(err, ErrNoRangeWriter) {
		return false
	}
	return kindOf(err) != api.ErrorKindCancellation
}

// namedOutput picks the value for a declared output: by name when the
// dispatcher returned it, otherwise a lone result or conventional "value"
// key
func namedOutput(outputs api.Args, name api.Name) any {
	if val, ok := outputs[name]; ok {
		return val
	}
	if val, ok := outputs["value"]; ok {
		return val
	}
	if len(outputs) == 1 {
		for _, val := range outputs {
			return val
		}
	}
	return nil
}

// singleOutput unwraps a one-entry output map for loop result collection
func singleOutput(outputs api.Args) any {
	if len(outputs) == 0 {
		return nil
	}
	if val, ok := outputs["value"]; ok {
		return val
	}
	if len(outputs) == 1 {
		for _, val := range outputs {
			return val
		}
	}
	return map[api.Name]any(outputs)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
