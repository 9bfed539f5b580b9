package script

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed script literal.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid script %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

// Parse reads a script literal and returns its canonical form. The layer of
// the whole literal is given by its final mark; sums and products of lower
// layers nest without brackets because every '+' follows the mark of the
// layer it continues.
func Parse(literal string) (*Script, error) {
	s := strings.TrimSpace(literal)
	if s == "" {
		return nil, &ParseError{Input: literal, Pos: 0, Msg: "empty literal"}
	}
	layer := markLayer(s[len(s)-1])
	if layer < 0 {
		return nil, &ParseError{Input: s, Pos: len(s) - 1, Msg: fmt.Sprintf("literal must end with a layer mark, got %q", s[len(s)-1])}
	}

	p := &parser{input: s}
	out, err := p.sum(layer)
	if err != nil {
		return nil, err
	}
	if p.pos != len(s) {
		return nil, p.fail("unexpected trailing input")
	}
	return out, nil
}

// MustParse is like Parse but panics on error. Meant for literals known at
// compile time.
func MustParse(literal string) *Script {
	s, err := Parse(literal)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseAll parses every literal, stopping at the first error.
func ParseAll(literals []string) ([]*Script, error) {
	out := make([]*Script, 0, len(literals))
	for _, l := range literals {
		s, err := Parse(l)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) fail(format string, args ...any) *ParseError {
	return &ParseError{Input: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *parser) expect(c byte) error {
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

// sum := product ('+' product)*
func (p *parser) sum(layer int) (*Script, error) {
	first, err := p.product(layer)
	if err != nil {
		return nil, err
	}
	terms := []*Script{first}
	for {
		c, ok := p.peek()
		if !ok || c != '+' {
			break
		}
		p.pos++
		next, err := p.product(layer)
		if err != nil {
			return nil, err
		}
		terms = append(terms, next)
	}
	if len(terms) == 1 {
		return first, nil
	}
	out, err := NewAdditive(terms...)
	if err != nil {
		return nil, p.fail("%v", err)
	}
	return out, nil
}

// product := child{1,3} mark | remarkable mark (layer 1) | letter ':' (layer 0)
func (p *parser) product(layer int) (*Script, error) {
	c, ok := p.peek()
	if !ok {
		return nil, p.fail("unexpected end of input")
	}

	if layer == 0 {
		p.pos++
		atom, err := Primitive(c)
		if err != nil {
			p.pos--
			return nil, p.fail("unknown letter %q", c)
		}
		if err := p.expect(marks[0]); err != nil {
			return nil, err
		}
		return atom, nil
	}

	if layer == 1 && c >= 'a' && c <= 'z' {
		return p.remarkable()
	}

	children := make([]*Script, 0, 3)
	for {
		c, ok := p.peek()
		if !ok {
			return nil, p.fail("missing layer %d mark %q", layer, marks[layer])
		}
		if c == marks[layer] {
			break
		}
		if l := markLayer(c); l >= 0 {
			return nil, p.fail("unexpected mark %q in layer %d script", c, layer)
		}
		if len(children) == 3 {
			return nil, p.fail("too many children in layer %d script", layer)
		}
		child, err := p.sum(layer - 1)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if len(children) == 0 {
		return nil, p.fail("empty layer %d script", layer)
	}
	p.pos++

	for len(children) < 3 {
		children = append(children, Null(layer-1))
	}
	return newProduct(children[0], children[1], children[2]), nil
}

func (p *parser) remarkable() (*Script, error) {
	start := p.pos
	n := 1
	if p.input[p.pos] == 'w' {
		n = 2
	}
	if p.pos+n > len(p.input) {
		return nil, p.fail("truncated remarkable product")
	}
	name := p.input[p.pos : p.pos+n]
	pair, ok := remarkableProductLetters[name]
	if !ok {
		return nil, p.fail("unknown remarkable product %q", name)
	}
	p.pos += n
	if err := p.expect(marks[1]); err != nil {
		p.pos = start
		return nil, err
	}
	return newProduct(primitives[pair[0]], primitives[pair[1]], Null(0)), nil
}
