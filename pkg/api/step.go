package api

import (
	"errors"
	"fmt"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/util"
)

type (
	// StepType classifies the kind of work a step performs. The set is
	// closed; the engine's dispatch table matches it exhaustively
	StepType string

	// InputKind identifies where a step input's value comes from
	InputKind string

	// OutputKind identifies where a step output's value is written
	OutputKind string

	// ConditionType selects the gating semantics of a step condition
	ConditionType string

	// Step is one unit of work with typed inputs and outputs, an operation
	// to dispatch, and optional conditions, retry policy, and timeout
	Step struct {
		ID         ID               `json:"id"`
		Name       string           `json:"name,omitempty"`
		Type       StepType         `json:"type"`
		Operation  string           `json:"operation"`
		Inputs     []*StepInput     `json:"inputs,omitempty"`
		Outputs    []*StepOutput    `json:"outputs,omitempty"`
		Conditions []*StepCondition `json:"conditions,omitempty"`
		Retry      *RetryPolicy     `json:"retry,omitempty"`
		TimeoutMs  int64            `json:"timeout_ms,omitempty"`
	}

	// StepInput declares a named input and how to resolve it. Literal
	// sources carry their value as JSON text in Source; Default is JSON
	// text substituted when the source yields nothing
	StepInput struct {
		Name     Name      `json:"name"`
		Type     InputKind `json:"type"`
		Source   string    `json:"source"`
		Required bool      `json:"required,omitempty"`
		Default  string    `json:"default,omitempty"`
	}

	// StepOutput declares a named output and where its value lands. Range
	// outputs are written through the range writer; value and variable
	// outputs land in the execution context under Target
	StepOutput struct {
		Name   Name       `json:"name"`
		Type   OutputKind `json:"type"`
		Target string     `json:"target"`
	}

	// StepCondition gates step execution on a boolean expression evaluated
	// against the current execution context
	StepCondition struct {
		Type       ConditionType `json:"type"`
		Expression string        `json:"expression"`
	}

	// RetryPolicy configures per-step retry behavior. Attempt n (n > 1)
	// waits DelayMs * BackoffMultiplier^(n-2) milliseconds before running
	RetryPolicy struct {
		MaxAttempts       int     `json:"max_attempts"`
		DelayMs           int64   `json:"delay_ms"`
		BackoffMultiplier float64 `json:"backoff_multiplier,omitempty"`
	}
)

const (
	StepTypeAIAnalysis        StepType = "ai-analysis"
	StepTypeAIGeneration      StepType = "ai-generation"
	StepTypeDataTransform     StepType = "data-transform"
	StepTypeDocumentOperation StepType = "document-operation"
	StepTypeConditional       StepType = "conditional"
	StepTypeLoop              StepType = "loop"
	StepTypeValidation        StepType = "validation"
	StepTypeFormatting        StepType = "formatting"
)

const (
	InputRange          InputKind = "range"
	InputLiteral        InputKind = "literal"
	InputVariable       InputKind = "variable"
	InputPreviousOutput InputKind = "previous-output"
)

const (
	OutputRange    OutputKind = "range"
	OutputValue    OutputKind = "value"
	OutputVariable OutputKind = "variable"
)

const (
	ConditionIf     ConditionType = "if"
	ConditionUnless ConditionType = "unless"
	ConditionWhile  ConditionType = "while"
)

var (
	ErrStepIDEmpty           = errors.New("step ID empty")
	ErrStepOperationEmpty    = errors.New("step operation empty")
	ErrInvalidStepType       = errors.New("invalid step type")
	ErrInputNameEmpty        = errors.New("input name empty")
	ErrInvalidInputKind      = errors.New("invalid input kind")
	ErrInputSourceEmpty      = errors.New("input source empty")
	ErrOutputNameEmpty       = errors.New("output name empty")
	ErrInvalidOutputKind     = errors.New("invalid output kind")
	ErrOutputTargetEmpty     = errors.New("output target empty")
	ErrInvalidConditionType  = errors.New("invalid condition type")
	ErrConditionExprEmpty    = errors.New("condition expression empty")
	ErrInvalidMaxAttempts    = errors.New("max attempts must be at least 1")
	ErrNegativeRetryDelay    = errors.New("delay_ms cannot be negative")
	ErrNegativeBackoffFactor = errors.New("backoff multiplier cannot be negative")
)

var (
	validStepTypes = util.SetOf(
		StepTypeAIAnalysis,
		StepTypeAIGeneration,
		StepTypeDataTransform,
		StepTypeDocumentOperation,
		StepTypeConditional,
		StepTypeLoop,
		StepTypeValidation,
		StepTypeFormatting,
	)

	validInputKinds = util.SetOf(
		InputRange,
		InputLiteral,
		InputVariable,
		InputPreviousOutput,
	)

	validOutputKinds = util.SetOf(
		OutputRange,
		OutputValue,
		OutputVariable,
	)

	validConditionTypes = util.SetOf(
		ConditionIf,
		ConditionUnless,
		ConditionWhile,
	)
)

// Validate checks that the step declaration is structurally sound
func (s *Step) Validate() error {
	if s.ID == "" {
		return ErrStepIDEmpty
	}
	if !validStepTypes.Contains(s.Type) {
		return fmt.Errorf("%w: %s", ErrInvalidStepType, s.Type)
	}
	if s.Operation == "" {
		return fmt.Errorf("%w: %s", ErrStepOperationEmpty, s.ID)
	}

	for _, in := range s.Inputs {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("%w: step %s", err, s.ID)
		}
	}
	for _, out := range s.Outputs {
		if err := out.Validate(); err != nil {
			return fmt.Errorf("%w: step %s", err, s.ID)
		}
	}
	for _, cond := range s.Conditions {
		if err := cond.Validate(); err != nil {
			return fmt.Errorf("%w: step %s", err, s.ID)
		}
	}

	if s.Retry != nil {
		if err := s.Retry.Validate(); err != nil {
			return fmt.Errorf("%w: step %s", err, s.ID)
		}
	}
	return nil
}

// MaxAttempts returns the effective attempt budget for the step. A step
// without a retry policy runs exactly once
func (s *Step) MaxAttempts() int {
	if s.Retry == nil || s.Retry.MaxAttempts < 1 {
		return 1
	}
	return s.Retry.MaxAttempts
}

// Timeout reports whether the step bounds its operation dispatch, and the
// bound in milliseconds when it does
func (s *Step) Timeout() (int64, bool) {
	return s.TimeoutMs, s.TimeoutMs > 0
}

func (i *StepInput) Validate() error {
	if i.Name == "" {
		return ErrInputNameEmpty
	}
	if !validInputKinds.Contains(i.Type) {
		return fmt.Errorf("%w: %s", ErrInvalidInputKind, i.Type)
	}
	if i.Type != InputLiteral && i.Source == "" {
		return fmt.Errorf("%w: %s", ErrInputSourceEmpty, i.Name)
	}
	return nil
}

func (o *StepOutput) Validate() error {
	if o.Name == "" {
		return ErrOutputNameEmpty
	}
	if !validOutputKinds.Contains(o.Type) {
		return fmt.Errorf("%w: %s", ErrInvalidOutputKind, o.Type)
	}
	if o.Target == "" {
		return fmt.Errorf("%w: %s", ErrOutputTargetEmpty, o.Name)
	}
	return nil
}

func (c *StepCondition) Validate() error {
	if !validConditionTypes.Contains(c.Type) {
		return fmt.Errorf("%w: %s", ErrInvalidConditionType, c.Type)
	}
	if c.Expression == "" {
		return ErrConditionExprEmpty
	}
	return nil
}

func (r *RetryPolicy) Validate() error {
	if r.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if r.DelayMs < 0 {
		return ErrNegativeRetryDelay
	}
	if r.BackoffMultiplier < 0 {
		return ErrNegativeBackoffFactor
	}
	return nil
}

// Backoff returns the wait in milliseconds before the given attempt
// (1-indexed). The first attempt never waits; attempt n waits
// DelayMs * BackoffMultiplier^(n-2). A zero multiplier behaves as 1
func (r *RetryPolicy) Backoff(attempt int) int64 {
	if attempt <= 1 || r.DelayMs <= 0 {
		return 0
	}
	mult := r.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}
	delay := float64(r.DelayMs)
	for range attempt - 2 {
		delay *= mult
	}
	return int64(delay)
}
