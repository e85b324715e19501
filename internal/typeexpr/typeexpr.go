package typeexpr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Expr is the parse tree of a type expression: a name with optional
// angle-bracketed arguments, e.g. Repository<Pair<Int, String>>. Names are
// resolved against a type universe by the caller; the parser only deals
// with shape.
type Expr struct {
	Name string
	Args []*Expr
}

func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Args) == 0 {
		return e.Name
	}
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", e.Name, strings.Join(args, ", "))
}

// ParseError reports where a type expression stopped making sense.
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}

// Parse reads a complete type expression. Trailing input is an error.
func Parse(input string) (*Expr, error) {
	p := &parser{input: input}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected %q after expression", p.rest())
	}
	return expr, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parseExpr() (*Expr, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	expr := &Expr{Name: name}

	p.skipSpace()
	if !p.accept('<') {
		return expr, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		expr.Args = append(expr.Args, arg)
		p.skipSpace()
		if p.accept(',') {
			continue
		}
		if p.accept('>') {
			return expr, nil
		}
		return nil, p.errorf("expected ',' or '>' in argument list of %s", name)
	}
}

// ident scans a type name: a letter or underscore, then letters, digits,
// underscores and dots (dots allow package-qualified names).
func (p *parser) ident() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		r, w := utf8.DecodeRuneInString(p.input[p.pos:])
		if unicode.IsLetter(r) || r == '_' || (p.pos > start && (unicode.IsDigit(r) || r == '.')) {
			p.pos += w
			continue
		}
		break
	}
	if p.pos == start {
		return "", p.errorf("expected a type name")
	}
	return p.input[start:p.pos], nil
}

func (p *parser) accept(ch byte) bool {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == ch {
		p.pos++
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) rest() string {
	if p.pos >= len(p.input) {
		return ""
	}
	return p.input[p.pos:]
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.input, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}
