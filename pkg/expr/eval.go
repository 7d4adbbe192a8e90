package expr

import (
	"errors"
	"fmt"
)

type (
	// Scope resolves variable references during evaluation
	Scope interface {
		Lookup(name string) (any, bool)
	}

	// MapScope adapts a plain map as an evaluation scope
	MapScope map[string]any
)

var (
	ErrUnknownVariable = errors.New("unknown variable")
	ErrNotBoolean      = errors.New("operand is not a boolean")
	ErrNotComparable   = errors.New("operands are not comparable")
	ErrNotBoolResult   = errors.New("expression does not yield a boolean")
)

// Evaluate parses and evaluates a condition expression against the scope.
// The result is strict: any parse or evaluation failure is returned as an
// error, never panicked
func Evaluate(src string, scope Scope) (bool, error) {
	node, err := Parse(src)
	if err != nil {
		return false, err
	}
	return EvaluateExpr(node, scope)
}

// EvaluateExpr evaluates a previously parsed expression against the scope
func EvaluateExpr(node Expr, scope Scope) (bool, error) {
	val, err := node.eval(scope)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %v", ErrNotBoolResult, val)
	}
	return b, nil
}

// Check reports whether the expression parses under the closed grammar
func Check(src string) error {
	_, err := Parse(src)
	return err
}

func (e *literalExpr) eval(Scope) (any, error) {
	return e.value, nil
}

func (e *variableExpr) eval(scope Scope) (any, error) {
	val, ok := scope.Lookup(e.name)
	if !ok {
		return nil, fmt.Errorf("%w: $%s", ErrUnknownVariable, e.name)
	}
	return normalize(val), nil
}

func (e *binaryExpr) eval(scope Scope) (any, error) {
	switch e.op {
	case tokenAnd, tokenOr:
		return e.evalLogical(scope)
	default:
		return e.evalComparison(scope)
	}
}

func (e *binaryExpr) evalLogical(scope Scope) (any, error) {
	left, err := evalBool(e.left, scope)
	if err != nil {
		return nil, err
	}

	// Short-circuit before touching the right operand
	if e.op == tokenAnd && !left {
		return false, nil
	}
	if e.op == tokenOr && left {
		return true, nil
	}

	return evalBool(e.right, scope)
}

func (e *binaryExpr) evalComparison(scope Scope) (any, error) {
	left, err := e.left.eval(scope)
	if err != nil {
		return nil, err
	}
	right, err := e.right.eval(scope)
	if err != nil {
		return nil, err
	}

	switch e.op {
	case tokenEq:
		return looseEqual(left, right), nil
	case tokenNotEq:
		return !looseEqual(left, right), nil
	}

	cmp, err := order(left, right)
	if err != nil {
		return nil, err
	}
	switch e.op {
	case tokenLess:
		return cmp < 0, nil
	case tokenGreater:
		return cmp > 0, nil
	case tokenLessEq:
		return cmp <= 0, nil
	default:
		return cmp >= 0, nil
	}
}

func evalBool(node Expr, scope Scope) (bool, error) {
	val, err := node.eval(scope)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %v", ErrNotBoolean, val)
	}
	return b, nil
}

// looseEqual compares two values, coercing numerics to float64. Values of
// different kinds are unequal rather than erroneous
func looseEqual(left, right any) bool {
	if ln, ok := asNumber(left); ok {
		if rn, rok := asNumber(right); rok {
			return ln == rn
		}
		return false
	}
	return left == right
}

// order compares two values of the same kind, returning <0, 0, or >0.
// Ordering across kinds (or on booleans) is an evaluation error
func order(left, right any) (int, error) {
	if ln, ok := asNumber(left); ok {
		if rn, rok := asNumber(right); rok {
			switch {
			case ln < rn:
				return -1, nil
			case ln > rn:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if ls, ok := left.(string); ok {
		if rs, rok := right.(string); rok {
			switch {
			case ls < rs:
				return -1, nil
			case ls > rs:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %v and %v", ErrNotComparable, left, right)
}

func normalize(val any) any {
	if n, ok := asNumber(val); ok {
		return n
	}
	return val
}

func asNumber(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Lookup implements Scope over the underlying map
func (m MapScope) Lookup(name string) (any, bool) {
	val, ok := m[name]
	return val, ok
}
