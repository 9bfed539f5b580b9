package dictionary

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ieml/internal/script"
)

// testSource is one root table O:M:. with three sub paradigms and all its
// singular sequences.
func testSource() *Source {
	return &Source{
		Roots: []string{"O:M:."},
		Terms: []string{"O:S:+B:.", "U:M:.", "O:S:.", "y.", "o.", "e.", "u.", "a.", "i."},
		Inhibitions: map[string][]string{
			"O:M:.": {"TWIN"},
		},
		Translations: map[Language]map[string]string{
			French:  {"O:M:.": "racine", "y.": "y fr"},
			English: {"O:M:.": "root", "y.": "y en"},
		},
	}
}

func buildTest(t *testing.T, src *Source) *Dictionary {
	t.Helper()
	d, err := Build(context.Background(), src, nil)
	require.NoError(t, err)
	return d
}

func keysOf(terms []*Term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Key()
	}
	return out
}

func mustTerm(t *testing.T, d *Dictionary, literal string) *Term {
	t.Helper()
	term, err := d.Term(literal)
	require.NoError(t, err)
	return term
}

func TestDefineIndexAndRoots(t *testing.T) {
	d := buildTest(t, testSource())

	assert.Equal(t, 10, d.Len())
	assert.True(t, d.IsDefined())

	terms := d.Terms()
	for i, term := range terms {
		assert.Equal(t, i, term.Index)
		if i > 0 {
			assert.True(t, terms[i-1].Less(term))
		}
	}

	root := mustTerm(t, d, "O:M:.")
	assert.True(t, root.IsRoot())
	assert.Equal(t, root, mustTerm(t, d, "a.").Root)
	assert.Equal(t, []string{"O:M:."}, keysOf(d.Roots()))
	assert.Len(t, d.Layers()[1], 10)

	// Non canonical spellings resolve to the same term.
	assert.Equal(t, mustTerm(t, d, "y."), mustTerm(t, d, "U:S:E:."))
}

func TestRanksAndPartitions(t *testing.T) {
	d := buildTest(t, testSource())

	tests := []struct {
		term string
		rank int
	}{
		{"O:M:.", 1},
		{"O:S:+B:.", 2},
		{"U:M:.", 3},
		{"O:S:.", 3},
		{"y.", 6},
		{"i.", 6},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			term := mustTerm(t, d, tt.term)
			assert.Equal(t, tt.rank, term.Rank)
			assert.Equal(t, tt.rank, d.Rank(term))
		})
	}

	root := mustTerm(t, d, "O:M:.")
	assert.ElementsMatch(t, []string{"O:S:+B:.", "U:M:.", "O:S:."}, keysOf(d.Partitions(root)))
	assert.Equal(t, root, mustTerm(t, d, "U:M:.").Parent)
}

func TestContainment(t *testing.T) {
	d := buildTest(t, testSource())
	contains := d.Rel(Contains)
	require.NotNil(t, contains)

	for _, term := range d.Terms() {
		assert.True(t, contains.Get(term.Index, term.Index), "containment must be reflexive for %s", term)
	}

	sub := mustTerm(t, d, "O:S:+B:.")
	assert.ElementsMatch(t,
		[]string{"O:S:+B:.", "O:S:.", "y.", "o.", "u.", "a."},
		keysOf(sub.Relations.Contained))
	assert.NotContains(t, keysOf(sub.Relations.Contained), "U:M:.")

	// For every paradigm P containing S: S is in P.Contained and P in S.Contains.
	for _, p := range d.Terms() {
		for _, s := range p.Relations.Contained {
			assert.True(t, p.Script.Contains(s.Script))
			assert.Contains(t, keysOf(s.Relations.Contains), p.Key())
		}
	}

	assert.True(t, d.Rel(Contained).Equal(contains.Transpose()))
}

func TestSiblings(t *testing.T) {
	src := &Source{
		Roots: []string{"M:M:.", "M:M:M:."},
		Terms: []string{"s.", "b.", "t.", "k.", "m.", "n.", "d.", "f.", "l.", "S:S:S:."},
	}
	d := buildTest(t, src)

	for _, rt := range []RelationType{Opposed, Associated, Twin, Crossed} {
		assert.True(t, d.Rel(rt).IsSymmetric(), "%s must be symmetric", rt)
	}

	b := mustTerm(t, d, "b.")
	k := mustTerm(t, d, "k.")
	assert.Contains(t, keysOf(b.Relations.Opposed), "k.")
	assert.Contains(t, keysOf(k.Relations.Opposed), "b.")
	assert.NotContains(t, keysOf(b.Relations.Opposed), "t.")

	s := mustTerm(t, d, "s.")
	assert.Equal(t, []string{"S:S:S:."}, keysOf(s.Relations.Associated))
	assert.Empty(t, b.Relations.Associated)

	twins := keysOf(s.Relations.Twins)
	assert.Contains(t, twins, "s.")
	assert.Contains(t, twins, "m.")
	assert.Contains(t, twins, "l.")
	assert.NotContains(t, twins, "b.")
	assert.Empty(t, b.Relations.Twins)
	assert.Equal(t, twins, keysOf(mustTerm(t, d, "l.").Relations.Twins))
}

func TestCrossedSiblings(t *testing.T) {
	src := &Source{
		Roots: []string{"wa.-wu.-'+E:.wu.-E:.wa.-'"},
		Terms: []string{"wa.-wu.-'", "E:.wu.-E:.wa.-'"},
	}
	d := buildTest(t, src)

	crossed := d.Rel(Crossed)
	assert.True(t, crossed.IsSymmetric())
	assert.Positive(t, crossed.Count())

	a := mustTerm(t, d, "wa.-wu.-'")
	b := mustTerm(t, d, "E:.wu.-E:.wa.-'")
	assert.Equal(t, []string{b.Key()}, keysOf(a.Relations.Crossed))
	assert.Equal(t, []string{a.Key()}, keysOf(b.Relations.Crossed))
	assert.True(t, crossed.Get(a.Index, b.Index))
	assert.True(t, crossed.Get(b.Index, a.Index))
	assert.Empty(t, a.Relations.Opposed)
}

func TestFatherAndChildren(t *testing.T) {
	src := &Source{
		Roots: []string{"O:O:.", "O:O:.-"},
		Terms: []string{"wo.", "wa.", "wu.", "we.", "wo.-"},
	}
	d := buildTest(t, src)

	wo := mustTerm(t, d, "wo.")
	woUp := mustTerm(t, d, "wo.-")
	root := mustTerm(t, d, "O:O:.-")

	assert.True(t, d.Rel(FatherSubstance).Get(woUp.Index, wo.Index))
	assert.True(t, d.Rel(ChildrenSubstance).Get(wo.Index, woUp.Index))
	assert.False(t, d.Rel(FatherAttribute).Get(woUp.Index, wo.Index))

	assert.Equal(t, []string{"wo."}, keysOf(woUp.Relations.Father[script.Substance]))
	assert.Equal(t, []string{"wo.-"}, keysOf(wo.Relations.Children[script.Substance]))
	assert.Equal(t, []string{"O:O:."}, keysOf(root.Relations.Father[script.Substance]))
	assert.Empty(t, woUp.Relations.Father[script.Mode])
}

func TestCrossKey(t *testing.T) {
	a := script.MustParse("wa.-wu.-'")
	b := script.MustParse("E:.wu.-E:.wa.-'")

	ka, ok := crossKey(a, false)
	require.True(t, ok)
	kb, ok := crossKey(b, true)
	require.True(t, ok)
	assert.Equal(t, ka, kb)

	_, ok = crossKey(script.MustParse("wa.-"), false)
	assert.False(t, ok)
}

func TestAddTermErrors(t *testing.T) {
	d := New(nil)
	require.NoError(t, d.AddTerm(script.MustParse("O:M:."), true, nil, nil))
	require.NoError(t, d.AddTerm(script.MustParse("O:O:."), true, nil, nil))

	tests := []struct {
		name   string
		script string
		root   bool
		tr     Translations
		kind   error
	}{
		{"outside any root", "M:O:.", false, nil, ErrNotInRootParadigm},
		{"singular root", "s.", true, nil, ErrRootNotParadigm},
		{"overlapping root", "U:M:.", true, nil, ErrRootOverlap},
		{"spanning roots", "O:F:.", false, nil, ErrRootOverlap},
		{"missing language", "y.", false, Translations{French: "y"}, ErrMissingTranslation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.AddTerm(script.MustParse(tt.script), tt.root, nil, tt.tr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)

			var ce *ConsistencyError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, script.MustParse(tt.script).Key(), ce.Term)
		})
	}

	require.NoError(t, d.AddTerm(script.MustParse("y."), false, nil, Translations{French: "y", English: "y"}))
	err := d.AddTerm(script.MustParse("o."), false, nil, Translations{French: "y", English: "o"})
	assert.True(t, errors.Is(err, ErrTranslationCollision))

	// Duplicates are ignored.
	assert.NoError(t, d.AddTerm(script.MustParse("y."), false, nil, nil))

	err = d.AddTerm(script.MustParse("o."), false, []string{"NOT A RELATION"}, nil)
	assert.True(t, errors.Is(err, ErrUnknownRelation))

	_, err = d.Term("wa.")
	assert.True(t, errors.Is(err, ErrTermNotFound))
}

func TestNoRankCandidate(t *testing.T) {
	// A diagonal is neither a slice nor a box of the root table.
	src := &Source{
		Roots: []string{"M:M:."},
		Terms: []string{"s.+m."},
	}
	_, err := Build(context.Background(), src, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRankCandidate))
}

func TestTranslationsAndInhibitions(t *testing.T) {
	d := buildTest(t, testSource())

	y := mustTerm(t, d, "y.")
	assert.Equal(t, "y fr", y.Translations[French])
	assert.Equal(t, "y en", d.Translation(y)[English])

	found, err := d.TermByTranslation(English, "root")
	require.NoError(t, err)
	assert.Equal(t, "O:M:.", found.Key())

	assert.Equal(t, []string{"TWIN"}, y.Inhibitions)

	rt, err := ParseRelationName("twin siblings")
	require.NoError(t, err)
	assert.Equal(t, Twin, rt)
	assert.Equal(t, "Twin siblings", rt.Name())
}
