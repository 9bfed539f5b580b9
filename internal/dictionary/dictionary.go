// Package dictionary holds the IEML dictionary: terms grouped under root
// paradigms, the twelve structural relations between them, their ranks and
// their translations.
//
// A Dictionary is filled with AddTerm and then finalized with Define. After
// Define it is read only and safe for concurrent readers; new content is
// published as a new Version rather than by mutation.
package dictionary

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ppiankov/ieml/internal/matrix"
	"github.com/ppiankov/ieml/internal/metrics"
	"github.com/ppiankov/ieml/internal/script"
)

// Dictionary owns a set of terms and their derived structure.
type Dictionary struct {
	logger *zap.SugaredLogger

	terms        map[string]*Term
	roots        []*Term
	members      map[string][]*Term // root key -> terms of the paradigm, root included
	ssRoot       map[string]*Term   // singular sequence key -> root
	translations *translationIndex
	inhibitions  map[string][]string

	index      []*Term
	position   map[string]int
	relations  [relationCount]*matrix.Bool
	ranks      map[string]int
	partitions map[string][]*Term
	defined    bool
}

// New returns an empty dictionary. A nil logger discards output.
func New(logger *zap.SugaredLogger) *Dictionary {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Dictionary{
		logger:       logger.Named("dictionary"),
		terms:        make(map[string]*Term),
		members:      make(map[string][]*Term),
		ssRoot:       make(map[string]*Term),
		translations: newTranslationIndex(),
		inhibitions:  make(map[string][]string),
	}
}

// Len returns the number of terms.
func (d *Dictionary) Len() int { return len(d.terms) }

// IsDefined reports whether Define completed since the last change.
func (d *Dictionary) IsDefined() bool { return d.defined }

// AddTerm inserts a term. A root term must be a paradigm that shares no
// singular sequence with an existing root; any other term must lie inside
// exactly one root. A nil translation is accepted; a non-nil one must cover
// every language with texts no other term uses. Adding a known term is a
// no-op.
func (d *Dictionary) AddTerm(s *script.Script, isRoot bool, inhibitions []string, tr Translations) error {
	key := s.Key()
	if _, ok := d.terms[key]; ok {
		d.logger.Debugw("term already defined", "term", key)
		return nil
	}

	for _, name := range inhibitions {
		if _, err := ParseRelationName(name); err != nil {
			return errors.Wrapf(err, "inhibition of %s", key)
		}
	}

	root, err := d.rootFor(s, isRoot)
	if err != nil {
		return err
	}
	if tr != nil {
		if err := d.translations.check(key, tr); err != nil {
			return err
		}
	}

	term := &Term{Script: s, Index: -1}
	if isRoot {
		root = term
		d.roots = append(d.roots, term)
		for seq := range s.Sequences() {
			d.ssRoot[seq.Key()] = term
		}
	}
	d.members[root.Key()] = append(d.members[root.Key()], term)
	d.terms[key] = term
	if tr != nil {
		d.translations.set(key, tr)
	}
	if len(inhibitions) > 0 {
		d.inhibitions[key] = append([]string(nil), inhibitions...)
	}
	d.invalidate()
	return nil
}

// rootFor finds the root paradigm covering s, or checks that s can become
// a new root.
func (d *Dictionary) rootFor(s *script.Script, isRoot bool) (*Term, error) {
	key := s.Key()
	owners := make(map[string]*Term)
	missing := 0
	for seq := range s.Sequences() {
		r, ok := d.ssRoot[seq.Key()]
		if !ok {
			missing++
			continue
		}
		owners[r.Key()] = r
	}

	if isRoot {
		if !s.IsParadigm() {
			return nil, consistency(ErrRootNotParadigm, key, "singular sequences cannot be roots")
		}
		for rk := range owners {
			return nil, consistency(ErrRootOverlap, key, "intersects root paradigm %s", rk)
		}
		return nil, nil
	}

	if len(owners) > 1 {
		keys := make([]string, 0, len(owners))
		for rk := range owners {
			keys = append(keys, rk)
		}
		sort.Strings(keys)
		return nil, consistency(ErrRootOverlap, key, "spans several root paradigms %v", keys)
	}
	if len(owners) == 0 || missing > 0 {
		return nil, consistency(ErrNotInRootParadigm, key, "")
	}
	for _, r := range owners {
		return r, nil
	}
	return nil, nil
}

func (d *Dictionary) invalidate() {
	d.index = nil
	d.position = nil
	d.relations = [relationCount]*matrix.Bool{}
	d.ranks = nil
	d.partitions = nil
	d.defined = false
}

// Term looks a term up by literal. Non canonical literals are parsed first.
func (d *Dictionary) Term(literal string) (*Term, error) {
	if t, ok := d.terms[literal]; ok {
		return t, nil
	}
	s, err := script.Parse(literal)
	if err != nil {
		return nil, err
	}
	return d.TermOf(s)
}

// TermOf returns the term of a script.
func (d *Dictionary) TermOf(s *script.Script) (*Term, error) {
	if t, ok := d.terms[s.Key()]; ok {
		return t, nil
	}
	return nil, consistency(ErrTermNotFound, s.Key(), "")
}

// TermByTranslation returns the term a text names in a language.
func (d *Dictionary) TermByTranslation(l Language, text string) (*Term, error) {
	key, ok := d.translations.lookup(l, text)
	if !ok {
		return nil, consistency(ErrTermNotFound, text, "no %s translation", l)
	}
	return d.terms[key], nil
}

// Terms returns every term in index order.
func (d *Dictionary) Terms() []*Term {
	d.buildIndex()
	out := make([]*Term, len(d.index))
	copy(out, d.index)
	return out
}

// Roots returns the root paradigms in script order.
func (d *Dictionary) Roots() []*Term {
	out := make([]*Term, len(d.roots))
	copy(out, d.roots)
	sortTerms(out)
	return out
}

// Members returns the terms of a root paradigm in script order, root
// included.
func (d *Dictionary) Members(root *Term) []*Term {
	out := append([]*Term(nil), d.members[root.Key()]...)
	sortTerms(out)
	return out
}

// RootOf returns the root paradigm containing s.
func (d *Dictionary) RootOf(s *script.Script) (*Term, error) {
	r, err := d.rootFor(s, false)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Layers groups the terms by layer, each group in index order.
func (d *Dictionary) Layers() [][]*Term {
	d.buildIndex()
	out := make([][]*Term, script.MaxLayer+1)
	for _, t := range d.index {
		l := t.Script.Layer()
		out[l] = append(out[l], t)
	}
	return out
}

// Rel returns one relation matrix, nil before Define.
func (d *Dictionary) Rel(rt RelationType) *matrix.Bool {
	if rt < 0 || int(rt) >= relationCount {
		return nil
	}
	return d.relations[rt]
}

// Rank returns the rank of a term, 0 before Define.
func (d *Dictionary) Rank(t *Term) int { return d.ranks[t.Key()] }

// Partitions returns the terms a paradigm was split into.
func (d *Dictionary) Partitions(t *Term) []*Term {
	return append([]*Term(nil), d.partitions[t.Key()]...)
}

// Translation returns the texts of a term.
func (d *Dictionary) Translation(t *Term) Translations { return d.translations.get(t.Key()) }

// Define computes the index, the relations and the ranks, then links every
// term. Nothing is changed when a step fails.
func (d *Dictionary) Define(ctx context.Context) error {
	start := time.Now()
	d.buildIndex()

	rels, err := d.computeRelations(ctx)
	if err != nil {
		return err
	}
	metrics.ObserveStage("relations", start)

	rankStart := time.Now()
	ranks, partitions, err := d.computeRanks()
	if err != nil {
		return err
	}
	metrics.ObserveStage("ranks", rankStart)

	d.relations = rels
	d.ranks = ranks
	d.partitions = partitions
	d.link()

	metrics.DictionaryTerms.Set(float64(len(d.index)))
	d.logger.Infow("dictionary defined",
		"terms", len(d.index),
		"roots", len(d.roots),
		"duration", time.Since(start))
	return nil
}

// ComputeRelations computes and installs the relation matrices only.
func (d *Dictionary) ComputeRelations(ctx context.Context) error {
	d.buildIndex()
	rels, err := d.computeRelations(ctx)
	if err != nil {
		return err
	}
	d.relations = rels
	return nil
}

// ComputeRanks computes and installs ranks and partitions only.
func (d *Dictionary) ComputeRanks() error {
	ranks, partitions, err := d.computeRanks()
	if err != nil {
		return err
	}
	d.ranks = ranks
	d.partitions = partitions
	return nil
}

func (d *Dictionary) buildIndex() {
	if d.index != nil {
		return
	}
	d.index = make([]*Term, 0, len(d.terms))
	for _, t := range d.terms {
		d.index = append(d.index, t)
	}
	sortTerms(d.index)
	d.position = make(map[string]int, len(d.index))
	for i, t := range d.index {
		d.position[t.Key()] = i
	}
}

// link copies the derived structure into the terms.
func (d *Dictionary) link() {
	for i, t := range d.index {
		t.Index = i
		t.Parent = nil
		t.Partitions = nil
	}
	for _, r := range d.roots {
		for _, t := range d.members[r.Key()] {
			t.Root = r
		}
	}
	for _, t := range d.index {
		t.Rank = d.ranks[t.Key()]
		t.Translations = d.translations.get(t.Key())
		t.Inhibitions = d.inhibitionsOf(t)
	}
	for pk, parts := range d.partitions {
		parent := d.terms[pk]
		parent.Partitions = append([]*Term(nil), parts...)
		for _, c := range parts {
			c.Parent = parent
		}
	}
	d.setTermRelations()
	d.defined = true
}

func (d *Dictionary) inhibitionsOf(t *Term) []string {
	var out []string
	if t.Root != nil && t.Root != t {
		out = append(out, d.inhibitions[t.Root.Key()]...)
	}
	out = append(out, d.inhibitions[t.Key()]...)
	return out
}

func (d *Dictionary) termsOf(rt RelationType, i int) []*Term {
	idx := d.relations[rt].RowIndices(i)
	out := make([]*Term, len(idx))
	for k, j := range idx {
		out[k] = d.index[j]
	}
	return out
}

func (d *Dictionary) setTermRelations() {
	for i, t := range d.index {
		r := Relations{
			Contained:  d.termsOf(Contains, i),
			Contains:   d.termsOf(Contained, i),
			Opposed:    d.termsOf(Opposed, i),
			Associated: d.termsOf(Associated, i),
			Twins:      d.termsOf(Twin, i),
			Crossed:    d.termsOf(Crossed, i),
		}
		for k := 0; k < 3; k++ {
			r.Father[k] = d.termsOf(FatherSubstance+RelationType(k), i)
			r.Children[k] = d.termsOf(ChildrenSubstance+RelationType(k), i)
		}
		t.Relations = r
	}
}

func sortTerms(terms []*Term) {
	sort.Slice(terms, func(i, j int) bool { return terms[i].Less(terms[j]) })
}
