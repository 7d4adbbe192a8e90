package expr

import (
	"errors"
	"fmt"
)

type (
	// Expr is a parsed condition expression ready for evaluation
	Expr interface {
		eval(Scope) (any, error)
	}

	binaryExpr struct {
		left  Expr
		right Expr
		op    tokenKind
	}

	literalExpr struct {
		value any
	}

	variableExpr struct {
		name string
	}

	parser struct {
		tokens []token
		pos    int
	}
)

var (
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrExpectedRParen  = errors.New("expected closing parenthesis")
	ErrTrailingInput   = errors.New("unexpected input after expression")
)

// Parse compiles a condition expression, rejecting anything outside the
// closed grammar
func Parse(src string) (Expr, error) {
	tokens, err := scan(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		t := p.peek()
		return nil, fmt.Errorf("%w at %d: %s", ErrTrailingInput, t.pos, t.text)
	}
	return node, nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: tokenOr, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		p.pos++
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: tokenAnd, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	switch op := p.peek().kind; op {
	case tokenLess, tokenGreater, tokenLessEq, tokenGreaterEq,
		tokenEq, tokenNotEq:
		p.pos++
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &binaryExpr{op: op, left: left, right: right}, nil
	default:
		return left, nil
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokenNumber:
		p.pos++
		return &literalExpr{value: t.num}, nil
	case tokenString:
		p.pos++
		return &literalExpr{value: t.text}, nil
	case tokenBool:
		p.pos++
		return &literalExpr{value: t.text == "true"}, nil
	case tokenVariable:
		p.pos++
		return &variableExpr{name: t.text}, nil
	case tokenLParen:
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokenRParen {
			return nil, fmt.Errorf("%w at %d", ErrExpectedRParen, p.peek().pos)
		}
		p.pos++
		return inner, nil
	default:
		return nil, fmt.Errorf(
			"%w at %d: %s", ErrUnexpectedToken, t.pos, t.text,
		)
	}
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}
