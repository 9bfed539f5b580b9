package dictionary

import (
	"context"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/ieml/internal/matrix"
	"github.com/ppiankov/ieml/internal/script"
)

// RelationType indexes the relation matrices.
type RelationType int

const (
	Contains RelationType = iota
	Contained
	FatherSubstance
	FatherAttribute
	FatherMode
	ChildrenSubstance
	ChildrenAttribute
	ChildrenMode
	Opposed
	Associated
	Twin
	Crossed
)

const relationCount = int(Crossed) + 1

// RelationTypes lists every relation in matrix order.
var RelationTypes = func() []RelationType {
	out := make([]RelationType, relationCount)
	for i := range out {
		out[i] = RelationType(i)
	}
	return out
}()

var relationCodes = [relationCount]string{
	"CONTAINS",
	"CONTAINED",
	"FATHER.SUBSTANCE",
	"FATHER.ATTRIBUTE",
	"FATHER.MODE",
	"CHILDREN.SUBSTANCE",
	"CHILDREN.ATTRIBUTE",
	"CHILDREN.MODE",
	"OPPOSED",
	"ASSOCIATED",
	"TWIN",
	"CROSSED",
}

var relationNames = [relationCount]string{
	"Contains",
	"Contained in",
	"Ancestors in substance",
	"Ancestors in attribute",
	"Ancestors in mode",
	"Descendents in substance",
	"Descendents in attribute",
	"Descendents in mode",
	"Opposed siblings",
	"Associated siblings",
	"Twin siblings",
	"Crossed siblings",
}

var ErrUnknownRelation = errors.New("unknown relation")

// String returns the relation code, e.g. FATHER.MODE.
func (r RelationType) String() string {
	if r < 0 || int(r) >= relationCount {
		return "UNKNOWN"
	}
	return relationCodes[r]
}

// Name returns the human readable relation name.
func (r RelationType) Name() string {
	if r < 0 || int(r) >= relationCount {
		return "Unknown"
	}
	return relationNames[r]
}

// ParseRelationName accepts a relation code or a human readable name,
// case insensitively.
func ParseRelationName(name string) (RelationType, error) {
	for i := 0; i < relationCount; i++ {
		if strings.EqualFold(name, relationCodes[i]) || strings.EqualFold(name, relationNames[i]) {
			return RelationType(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownRelation, "%q", name)
}

// computeRelations builds the twelve matrices over the current index. Each
// family runs in its own goroutine against the read only index; the result
// is returned only when every family succeeded.
func (d *Dictionary) computeRelations(ctx context.Context) ([relationCount]*matrix.Bool, error) {
	var out [relationCount]*matrix.Bool
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		contains, err := d.computeContains(ctx)
		if err != nil {
			return errors.Wrap(err, "contains")
		}
		out[Contains] = contains
		out[Contained] = contains.Transpose()
		return nil
	})
	g.Go(func() error {
		father, err := d.computeFather(ctx)
		if err != nil {
			return errors.Wrap(err, "father")
		}
		for i := 0; i < 3; i++ {
			out[FatherSubstance+RelationType(i)] = father[i]
			out[ChildrenSubstance+RelationType(i)] = father[i].Transpose()
		}
		return nil
	})
	g.Go(func() error {
		opposed, associated, crossed, err := d.computeSiblings(ctx)
		if err != nil {
			return errors.Wrap(err, "siblings")
		}
		out[Opposed] = opposed
		out[Associated] = associated
		out[Crossed] = crossed
		return nil
	})
	g.Go(func() error {
		out[Twin] = d.computeTwins()
		return nil
	})

	if err := g.Wait(); err != nil {
		return [relationCount]*matrix.Bool{}, err
	}
	d.logger.Debugw("relations computed", "terms", len(d.index))
	return out, nil
}

// computeContains marks, for every paradigm, its singular sequences and the
// paradigms of the same root whose sequences it includes. The diagonal is
// always set.
func (d *Dictionary) computeContains(ctx context.Context) (*matrix.Bool, error) {
	n := len(d.index)
	m := matrix.Identity(n)

	for _, root := range d.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Local numbering of the root sequences so inclusion is a bitset
		// superset test even for sequences that are not terms.
		local := make(map[string]uint)
		for seq := range root.Script.Sequences() {
			local[seq.Key()] = uint(len(local))
		}

		type paradigm struct {
			row   int
			local *bitset.BitSet
		}
		var paradigms []paradigm
		for _, t := range d.members[root.Key()] {
			if !t.Script.IsParadigm() {
				continue
			}
			p := paradigm{row: d.position[t.Key()], local: bitset.New(uint(len(local)))}
			terms := bitset.New(uint(n))
			for seq := range t.Script.Sequences() {
				p.local.Set(local[seq.Key()])
				if j, ok := d.position[seq.Key()]; ok {
					terms.Set(uint(j))
				}
			}
			m.OrRow(p.row, terms)
			paradigms = append(paradigms, p)
		}

		for _, p := range paradigms {
			for _, k := range paradigms {
				if p.local.IsSuperSet(k.local) {
					m.Set(p.row, k.row)
				}
			}
		}
	}
	return m, nil
}

// computeFather marks A -> B at position i when B is the i-th child of A,
// or of one of the additive members of A. Empty children are skipped.
func (d *Dictionary) computeFather(ctx context.Context) ([3]*matrix.Bool, error) {
	n := len(d.index)
	var father [3]*matrix.Bool
	for i := range father {
		father[i] = matrix.NewBool(n)
	}

	for row, t := range d.index {
		if row%256 == 0 {
			if err := ctx.Err(); err != nil {
				return father, err
			}
		}
		s := t.Script
		parts := []*script.Script{s}
		if s.Kind() == script.KindAdditive {
			parts = s.Children()
		}
		for _, p := range parts {
			if p.Kind() != script.KindMultiplicative || p.IsNull() {
				continue
			}
			for i, role := range script.Roles {
				c := p.Child(role)
				if c.IsNull() {
					continue
				}
				if j, ok := d.position[c.Key()]; ok {
					father[i].Set(row, j)
				}
			}
		}
	}
	return father, nil
}

// sibling grouping keys; the layer is implied by the child keys.
func pairKey(a, b *script.Script) string { return a.Key() + "|" + b.Key() }

func tripleKey(a, b, c *script.Script) string { return a.Key() + "|" + b.Key() + "|" + c.Key() }

// computeSiblings fills opposed, associated and crossed by grouping terms
// on their children and OR-ing whole groups into each row.
func (d *Dictionary) computeSiblings(ctx context.Context) (opposed, associated, crossed *matrix.Bool, err error) {
	n := len(d.index)
	opposed = matrix.NewBool(n)
	associated = matrix.NewBool(n)
	crossed = matrix.NewBool(n)

	byPair := make(map[string]*bitset.BitSet)
	byTriple := make(map[string]*bitset.BitSet)
	byCross := make(map[string]*bitset.BitSet)
	group := func(groups map[string]*bitset.BitSet, key string, i int) {
		b, ok := groups[key]
		if !ok {
			b = bitset.New(uint(n))
			groups[key] = b
		}
		b.Set(uint(i))
	}

	for i, t := range d.index {
		s := t.Script
		if s.Kind() != script.KindMultiplicative {
			continue
		}
		c0, c1, c2 := s.Child(script.Substance), s.Child(script.Attribute), s.Child(script.Mode)
		group(byPair, pairKey(c0, c1), i)
		group(byTriple, tripleKey(c0, c1, c2), i)
		if k, ok := crossKey(s, false); ok {
			group(byCross, k, i)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	for i, t := range d.index {
		s := t.Script
		if s.Kind() != script.KindMultiplicative {
			continue
		}
		c0, c1, c2 := s.Child(script.Substance), s.Child(script.Attribute), s.Child(script.Mode)

		if g, ok := byPair[pairKey(c1, c0)]; ok {
			opposed.OrRow(i, g)
		}

		same := byPair[pairKey(c0, c1)]
		assoc := same.Difference(byTriple[tripleKey(c0, c1, c2)])
		associated.OrRow(i, assoc)

		if k, ok := crossKey(s, true); ok {
			if g, ok := byCross[k]; ok {
				crossed.OrRow(i, g)
			}
		}
	}
	return opposed, associated, crossed, nil
}

// crossKey returns the key of the four grandchildren of a layer > 2 product
// whose substance and attribute are products. The reversed key is the key
// every crossed sibling of s carries.
func crossKey(s *script.Script, reversed bool) (string, bool) {
	if s.Layer() <= 2 {
		return "", false
	}
	c0, c1 := s.Child(script.Substance), s.Child(script.Attribute)
	if c0.Kind() != script.KindMultiplicative || c1.Kind() != script.KindMultiplicative {
		return "", false
	}
	parts := []*script.Script{
		c0.Child(script.Substance), c0.Child(script.Attribute),
		c1.Child(script.Substance), c1.Child(script.Attribute),
	}
	if reversed {
		parts[0], parts[1], parts[2], parts[3] = parts[3], parts[2], parts[1], parts[0]
	}
	return script.JoinKeys(parts), true
}

// computeTwins marks, inside each layer, every pair of products whose
// substance equals their attribute.
func (d *Dictionary) computeTwins() *matrix.Bool {
	n := len(d.index)
	m := matrix.NewBool(n)
	byLayer := make(map[int]*bitset.BitSet)
	for i, t := range d.index {
		s := t.Script
		if s.Kind() != script.KindMultiplicative || !s.Child(script.Substance).Equal(s.Child(script.Attribute)) {
			continue
		}
		b, ok := byLayer[s.Layer()]
		if !ok {
			b = bitset.New(uint(n))
			byLayer[s.Layer()] = b
		}
		b.Set(uint(i))
	}
	for _, b := range byLayer {
		for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
			m.OrRow(int(i), b)
		}
	}
	return m
}
