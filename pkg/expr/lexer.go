package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type (
	tokenKind uint8

	token struct {
		kind tokenKind
		text string
		num  float64
		pos  int
	}

	lexer struct {
		src    string
		pos    int
		tokens []token
	}
)

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenString
	tokenBool
	tokenVariable
	tokenLParen
	tokenRParen
	tokenLess
	tokenGreater
	tokenLessEq
	tokenGreaterEq
	tokenEq
	tokenNotEq
	tokenAnd
	tokenOr
)

var (
	ErrUnexpectedChar   = errors.New("unexpected character")
	ErrUnterminated     = errors.New("unterminated string literal")
	ErrBadNumber        = errors.New("malformed number literal")
	ErrBadVariable      = errors.New("malformed variable reference")
	ErrUnknownWord      = errors.New("unknown identifier")
	ErrLoneOperatorChar = errors.New("incomplete operator")
)

func scan(src string) ([]token, error) {
	l := &lexer{src: src}
	for l.pos < len(l.src) {
		if err := l.next(); err != nil {
			return nil, err
		}
	}
	l.tokens = append(l.tokens, token{kind: tokenEOF, pos: l.pos})
	return l.tokens, nil
}

func (l *lexer) next() error {
	ch := l.src[l.pos]
	switch {
	case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
		l.pos++
		return nil
	case ch == '(':
		l.emit(tokenLParen, "(")
		return nil
	case ch == ')':
		l.emit(tokenRParen, ")")
		return nil
	case ch == '$':
		return l.scanVariable()
	case ch == '\'' || ch == '"':
		return l.scanString(ch)
	case ch >= '0' && ch <= '9':
		return l.scanNumber()
	case ch == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		return l.scanNumber()
	case isWordStart(rune(ch)):
		return l.scanWord()
	default:
		return l.scanOperator()
	}
}

func (l *lexer) emit(kind tokenKind, text string) {
	l.tokens = append(l.tokens, token{kind: kind, text: text, pos: l.pos})
	l.pos += len(text)
}

func (l *lexer) scanOperator() error {
	rest := l.src[l.pos:]
	switch {
	case strings.HasPrefix(rest, "&&"):
		l.emit(tokenAnd, "&&")
	case strings.HasPrefix(rest, "||"):
		l.emit(tokenOr, "||")
	case strings.HasPrefix(rest, "<="):
		l.emit(tokenLessEq, "<=")
	case strings.HasPrefix(rest, ">="):
		l.emit(tokenGreaterEq, ">=")
	case strings.HasPrefix(rest, "=="):
		l.emit(tokenEq, "==")
	case strings.HasPrefix(rest, "!="):
		l.emit(tokenNotEq, "!=")
	case strings.HasPrefix(rest, "<"):
		l.emit(tokenLess, "<")
	case strings.HasPrefix(rest, ">"):
		l.emit(tokenGreater, ">")
	case rest[0] == '&' || rest[0] == '|' || rest[0] == '=' || rest[0] == '!':
		return fmt.Errorf("%w at %d: %q", ErrLoneOperatorChar, l.pos, rest[0])
	default:
		return fmt.Errorf("%w at %d: %q", ErrUnexpectedChar, l.pos, rest[0])
	}
	return nil
}

func (l *lexer) scanVariable() error {
	start := l.pos
	l.pos++ // consume '$'
	for l.pos < len(l.src) && isWordPart(rune(l.src[l.pos])) {
		l.pos++
	}
	name := l.src[start+1 : l.pos]
	if name == "" {
		return fmt.Errorf("%w at %d", ErrBadVariable, start)
	}
	l.tokens = append(l.tokens, token{
		kind: tokenVariable,
		text: name,
		pos:  start,
	})
	return nil
}

func (l *lexer) scanString(quote byte) error {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return fmt.Errorf("%w at %d", ErrUnterminated, start)
	}
	text := l.src[start+1 : l.pos]
	l.pos++
	l.tokens = append(l.tokens, token{
		kind: tokenString,
		text: text,
		pos:  start,
	})
	return nil
}

func (l *lexer) scanNumber() error {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	text := l.src[start:l.pos]
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("%w at %d: %s", ErrBadNumber, start, text)
	}
	l.tokens = append(l.tokens, token{
		kind: tokenNumber,
		text: text,
		num:  num,
		pos:  start,
	})
	return nil
}

// scanWord accepts only the boolean literals; any other bare identifier is
// outside the grammar
func (l *lexer) scanWord() error {
	start := l.pos
	for l.pos < len(l.src) && isWordPart(rune(l.src[l.pos])) {
		l.pos++
	}
	word := l.src[start:l.pos]
	switch word {
	case "true", "false":
		l.tokens = append(l.tokens, token{
			kind: tokenBool,
			text: word,
			pos:  start,
		})
		return nil
	default:
		return fmt.Errorf("%w at %d: %s", ErrUnknownWord, start, word)
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isWordStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isWordPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}
