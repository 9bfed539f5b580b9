// Package script implements the IEML script algebra: parsing, canonical
// rendering, the total order, singular-sequence expansion, table layout and
// factorization into a sum-of-products normal form.
//
// A Script is immutable once built. Its canonical string (Key) is used as
// map key, comparison tie-break and hash source everywhere in the module.
package script

import (
	"iter"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// MaxLayer is the deepest layer the grammar allows.
const MaxLayer = 6

// Kind discriminates the three shapes a script can take.
type Kind uint8

const (
	KindPrimitive      Kind = iota // layer 0 atom
	KindMultiplicative             // substance × attribute × mode
	KindAdditive                   // sum of alternatives
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindMultiplicative:
		return "multiplicative"
	case KindAdditive:
		return "additive"
	default:
		return "unknown"
	}
}

// Role names the three positions of a multiplicative script.
type Role int

const (
	Substance Role = iota
	Attribute
	Mode
)

// Roles lists the positions in script order.
var Roles = [3]Role{Substance, Attribute, Mode}

func (r Role) String() string {
	switch r {
	case Substance:
		return "substance"
	case Attribute:
		return "attribute"
	case Mode:
		return "mode"
	default:
		return "unknown"
	}
}

var (
	ErrLayerMismatch  = errors.New("script layers do not match")
	ErrMaxLayer       = errors.New("script layer exceeds maximum")
	ErrEmptyAddition  = errors.New("additive script needs at least one child")
	ErrUnknownLetter  = errors.New("unknown primitive letter")
	ErrEmptySequences = errors.New("no singular sequences")
)

// Script is an immutable IEML script.
type Script struct {
	kind     Kind
	layer    int
	letter   byte // primitives only
	children []*Script
	str      string
	cardinal int

	ssOnce sync.Once
	ss     []*Script
}

// Kind returns the script shape.
func (s *Script) Kind() Kind { return s.kind }

// Layer returns the nesting depth, 0 for atoms.
func (s *Script) Layer() int { return s.layer }

// Children returns a copy of the direct children: none for primitives,
// three for products, two or more for sums.
func (s *Script) Children() []*Script {
	out := make([]*Script, len(s.children))
	copy(out, s.children)
	return out
}

// Child returns the child at role r of a multiplicative script, nil otherwise.
func (s *Script) Child(r Role) *Script {
	if s.kind != KindMultiplicative {
		return nil
	}
	return s.children[r]
}

// Letter returns the alphabet letter of a primitive, 0 otherwise.
func (s *Script) Letter() byte { return s.letter }

// String renders the canonical IEML literal.
func (s *Script) String() string { return s.str }

// Key is the canonical string used as identity.
func (s *Script) Key() string { return s.str }

// Cardinal is the number of singular sequences the script denotes.
func (s *Script) Cardinal() int { return s.cardinal }

// IsParadigm reports whether the script denotes more than one singular sequence.
func (s *Script) IsParadigm() bool { return s.cardinal > 1 }

// IsSingular reports whether the script is one literal term.
func (s *Script) IsSingular() bool { return s.cardinal == 1 }

// IsNull reports whether the script is the empty script of its layer.
func (s *Script) IsNull() bool {
	switch s.kind {
	case KindPrimitive:
		return s.letter == 'E'
	case KindMultiplicative:
		return s.children[0].IsNull() && s.children[1].IsNull() && s.children[2].IsNull()
	default:
		return false
	}
}

// Equal reports canonical equality.
func (s *Script) Equal(o *Script) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.str == o.str
}

// SingularSequences returns the sorted, deduplicated expansion of the
// script. A singular script returns itself.
func (s *Script) SingularSequences() []*Script {
	s.ssOnce.Do(func() {
		s.ss = s.expand()
	})
	out := make([]*Script, len(s.ss))
	copy(out, s.ss)
	return out
}

// Sequences iterates the singular sequences in order. The sequence can be
// ranged over any number of times.
func (s *Script) Sequences() iter.Seq[*Script] {
	return func(yield func(*Script) bool) {
		s.ssOnce.Do(func() {
			s.ss = s.expand()
		})
		for _, seq := range s.ss {
			if !yield(seq) {
				return
			}
		}
	}
}

// Contains reports whether every singular sequence of o belongs to s.
func (s *Script) Contains(o *Script) bool {
	if s.layer != o.layer || o.cardinal > s.cardinal {
		return false
	}
	own := make(map[string]struct{}, s.cardinal)
	for seq := range s.Sequences() {
		own[seq.str] = struct{}{}
	}
	for seq := range o.Sequences() {
		if _, ok := own[seq.str]; !ok {
			return false
		}
	}
	return true
}

func (s *Script) expand() []*Script {
	switch s.kind {
	case KindPrimitive:
		return []*Script{s}
	case KindAdditive:
		seen := make(map[string]*Script)
		for _, c := range s.children {
			for seq := range c.Sequences() {
				seen[seq.str] = seq
			}
		}
		out := make([]*Script, 0, len(seen))
		for _, seq := range seen {
			out = append(out, seq)
		}
		Sort(out)
		return out
	}

	if s.cardinal == 1 {
		return []*Script{s}
	}
	subs := s.children[0].SingularSequences()
	attrs := s.children[1].SingularSequences()
	modes := s.children[2].SingularSequences()
	out := make([]*Script, 0, len(subs)*len(attrs)*len(modes))
	for _, a := range subs {
		for _, b := range attrs {
			for _, c := range modes {
				out = append(out, mustProduct(a, b, c))
			}
		}
	}
	Sort(out)
	return out
}

// Primitive returns the layer 0 script for a letter of the alphabet,
// including the remarkable sums O, M, F and I.
func Primitive(letter byte) (*Script, error) {
	if p, ok := primitives[letter]; ok {
		return p, nil
	}
	if set, ok := remarkableSums[letter]; ok {
		children := make([]*Script, 0, len(set))
		for i := 0; i < len(set); i++ {
			children = append(children, primitives[set[i]])
		}
		return NewAdditive(children...)
	}
	return nil, errors.Wrapf(ErrUnknownLetter, "%q", letter)
}

// Null returns the empty script of the given layer.
func Null(layer int) *Script {
	if layer <= 0 {
		return primitives['E']
	}
	if layer > MaxLayer {
		layer = MaxLayer
	}
	return nulls[layer]
}

// NewMultiplicative builds a product. Nil children are replaced by the null
// script of the expected layer; all children must share one layer.
func NewMultiplicative(substance, attribute, mode *Script) (*Script, error) {
	var ref *Script
	for _, c := range []*Script{substance, attribute, mode} {
		if c != nil {
			ref = c
			break
		}
	}
	if ref == nil {
		return nil, errors.Wrap(ErrLayerMismatch, "multiplicative script needs at least a substance")
	}
	layer := ref.layer
	if layer+1 > MaxLayer {
		return nil, errors.Wrapf(ErrMaxLayer, "product of layer %d children", layer)
	}

	children := []*Script{substance, attribute, mode}
	for i, c := range children {
		if c == nil {
			children[i] = Null(layer)
			continue
		}
		if c.layer != layer {
			return nil, errors.Wrapf(ErrLayerMismatch, "%s child %s has layer %d, expected %d",
				Roles[i], c, c.layer, layer)
		}
	}
	return newProduct(children[0], children[1], children[2]), nil
}

func mustProduct(a, b, c *Script) *Script {
	return newProduct(a, b, c)
}

func newProduct(a, b, c *Script) *Script {
	s := &Script{
		kind:     KindMultiplicative,
		layer:    a.layer + 1,
		children: []*Script{a, b, c},
		cardinal: a.cardinal * b.cardinal * c.cardinal,
	}
	s.str = renderProduct(s)
	return s
}

// NewAdditive builds a sum. Nested sums are flattened, duplicates removed
// and children sorted; a single remaining child is returned as is.
func NewAdditive(children ...*Script) (*Script, error) {
	layer := -1
	for _, c := range children {
		if c != nil {
			layer = c.layer
			break
		}
	}
	if layer < 0 {
		return nil, ErrEmptyAddition
	}
	seen := make(map[string]*Script)
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.layer != layer {
			return nil, errors.Wrapf(ErrLayerMismatch, "additive child %s has layer %d, expected %d",
				c, c.layer, layer)
		}
		if c.kind == KindAdditive {
			for _, cc := range c.children {
				seen[cc.str] = cc
			}
			continue
		}
		seen[c.str] = c
	}
	if len(seen) == 0 {
		return nil, ErrEmptyAddition
	}

	flat := make([]*Script, 0, len(seen))
	for _, c := range seen {
		flat = append(flat, c)
	}
	Sort(flat)
	if len(flat) == 1 {
		return flat[0], nil
	}

	s := &Script{
		kind:     KindAdditive,
		layer:    layer,
		children: flat,
	}
	s.ss = s.expand()
	s.ssOnce.Do(func() {})
	s.cardinal = len(s.ss)
	s.str = renderSum(s)
	return s, nil
}

// Sum builds the additive script of a non-empty slice, returning the only
// element unchanged.
func Sum(scripts []*Script) (*Script, error) {
	if len(scripts) == 1 {
		return scripts[0], nil
	}
	return NewAdditive(scripts...)
}

// Keys returns the canonical strings of scripts, in the given order.
func Keys(scripts []*Script) []string {
	out := make([]string, len(scripts))
	for i, s := range scripts {
		out[i] = s.str
	}
	return out
}

// JoinKeys renders scripts as a single space separated string.
func JoinKeys(scripts []*Script) string {
	return strings.Join(Keys(scripts), " ")
}

// Sort orders scripts in place by the total order.
func Sort(scripts []*Script) {
	sort.Slice(scripts, func(i, j int) bool {
		return Compare(scripts[i], scripts[j]) < 0
	})
}
