package proposition

import (
	"fmt"
	"strings"

	"github.com/ppiankov/ieml/internal/script"
)

// ParseError reports a malformed proposition. Err holds the script error
// when a term literal is at fault.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid proposition at offset %d: %s: %v", e.Pos, e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid proposition at offset %d: %s", e.Pos, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseProposition reads the text form of a clause list:
//
//	[([s]*[a]*[m])+([s]*[a])]
//
// The mode term is optional. Blanks between tokens are ignored.
func ParseProposition(text string) ([]Clause, error) {
	p := &propParser{input: text}
	if err := p.expect('['); err != nil {
		return nil, err
	}

	var clauses []Clause
	for {
		c, err := p.clause()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, c)

		next, ok := p.peek()
		if ok && next == '+' {
			p.pos++
			continue
		}
		break
	}

	if err := p.expect(']'); err != nil {
		return nil, err
	}
	if _, ok := p.peek(); ok {
		return nil, p.fail("unexpected trailing input")
	}
	return clauses, nil
}

// Render writes clauses in the form read by ParseProposition.
func Render(clauses []Clause) string {
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, "+") + "]"
}

type propParser struct {
	input string
	pos   int
}

func (p *propParser) fail(format string, args ...any) *ParseError {
	return &ParseError{Input: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *propParser) skipBlanks() {
	for p.pos < len(p.input) && strings.IndexByte(" \t\r\n", p.input[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *propParser) peek() (byte, bool) {
	p.skipBlanks()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *propParser) expect(c byte) error {
	got, ok := p.peek()
	if !ok {
		return p.fail("expected %q, got end of input", c)
	}
	if got != c {
		return p.fail("expected %q, got %q", c, got)
	}
	p.pos++
	return nil
}

// clause := '(' term '*' term ('*' term)? ')'
func (p *propParser) clause() (Clause, error) {
	if err := p.expect('('); err != nil {
		return Clause{}, err
	}
	terms := make([]*script.Script, 0, 3)
	for {
		s, err := p.term()
		if err != nil {
			return Clause{}, err
		}
		terms = append(terms, s)

		next, ok := p.peek()
		if ok && next == '*' && len(terms) < 3 {
			p.pos++
			continue
		}
		break
	}
	if len(terms) < 2 {
		return Clause{}, p.fail("clause needs a substance and an attribute")
	}
	if err := p.expect(')'); err != nil {
		return Clause{}, err
	}

	c := Clause{Substance: terms[0], Attribute: terms[1]}
	if len(terms) == 3 {
		c.Mode = terms[2]
	}
	return c, nil
}

// term := '[' script ']'
func (p *propParser) term() (*script.Script, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	start := p.pos
	end := strings.IndexByte(p.input[start:], ']')
	if end < 0 {
		return nil, p.fail("unterminated term")
	}
	s, err := script.Parse(p.input[start : start+end])
	if err != nil {
		return nil, &ParseError{Input: p.input, Pos: start, Msg: "bad term", Err: err}
	}
	p.pos = start + end + 1
	return s, nil
}
