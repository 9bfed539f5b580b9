package script

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
)

var (
	ErrEmptyFactorization = errors.New("cannot factorize an empty set of sequences")
	ErrIncompatibleLayers = errors.New("sequences of different layers cannot be factorized")
)

// Factorize returns the sum-of-products script whose singular sequences are
// exactly the singular sequences of the inputs. Paradigms are expanded
// first; duplicates are ignored.
func Factorize(scripts []*Script) (*Script, error) {
	seen := make(map[string]*Script)
	layer := -1
	for _, s := range scripts {
		if s == nil {
			continue
		}
		if layer < 0 {
			layer = s.layer
		} else if s.layer != layer {
			return nil, errors.Wrapf(ErrIncompatibleLayers, "%s has layer %d, expected %d", s, s.layer, layer)
		}
		for seq := range s.Sequences() {
			seen[seq.str] = seq
		}
	}
	if len(seen) == 0 {
		return nil, ErrEmptyFactorization
	}

	seqs := make([]*Script, 0, len(seen))
	for _, s := range seen {
		seqs = append(seqs, s)
	}
	Sort(seqs)

	products := factor(seqs)
	return Sum(products)
}

// axis maps the distinct children found at one role to dense integers.
type axis struct {
	values []*Script
	ids    map[string]int
}

func (a *axis) id(s *Script) int {
	if i, ok := a.ids[s.str]; ok {
		return i
	}
	i := len(a.values)
	a.values = append(a.values, s)
	a.ids[s.str] = i
	return i
}

// factor splits a sorted, deduplicated set of singular sequences of one
// layer into products. Each product covers a full box of the occupancy
// cube; the box is grown greedily from the sequence with the most
// compatible neighbours.
func factor(seqs []*Script) []*Script {
	if len(seqs) == 1 || seqs[0].layer == 0 {
		out := make([]*Script, len(seqs))
		copy(out, seqs)
		return out
	}

	var axes [3]axis
	for i := range axes {
		axes[i].ids = make(map[string]int)
	}
	coords := make([][3]int, len(seqs))
	for n, s := range seqs {
		for i := range axes {
			coords[n][i] = axes[i].id(s.children[i])
		}
	}

	ny, nz := len(axes[1].values), len(axes[2].values)
	cube := make([]int, len(axes[0].values)*ny*nz)
	for i := range cube {
		cube[i] = -1
	}
	cell := func(x, y, z int) int { return (x*ny+y)*nz + z }
	for n, c := range coords {
		cube[cell(c[0], c[1], c[2])] = n
	}
	occupied := func(x, y, z int) bool { return cube[cell(x, y, z)] >= 0 }

	// Two sequences are compatible when every corner of the box they span
	// is occupied.
	relations := make([]*bitset.BitSet, len(seqs))
	for n := range seqs {
		relations[n] = bitset.New(uint(len(seqs)))
	}
	for a := range seqs {
		ca := coords[a]
		for b := a + 1; b < len(seqs); b++ {
			cb := coords[b]
			if occupied(cb[0], ca[1], ca[2]) && occupied(ca[0], cb[1], ca[2]) && occupied(ca[0], ca[1], cb[2]) &&
				occupied(ca[0], cb[1], cb[2]) && occupied(cb[0], ca[1], cb[2]) && occupied(cb[0], cb[1], ca[2]) {
				relations[a].Set(uint(b))
				relations[b].Set(uint(a))
			}
		}
	}

	seed := 0
	for n := range seqs {
		if relations[n].Count() > relations[seed].Count() {
			seed = n
		}
	}

	var box [3]map[int]struct{}
	for i := range box {
		box[i] = map[int]struct{}{coords[seed][i]: {}}
	}
	candidates := relations[seed].Clone()
	for candidates.Any() {
		next := bestCandidate(candidates, relations)
		for i := range box {
			box[i][coords[next][i]] = struct{}{}
		}
		candidates = relations[next].Clone()
		for x := range box[0] {
			for y := range box[1] {
				for z := range box[2] {
					candidates.InPlaceIntersection(relations[cube[cell(x, y, z)]])
				}
			}
		}
	}

	covered := make(map[int]struct{})
	for x := range box[0] {
		for y := range box[1] {
			for z := range box[2] {
				covered[cube[cell(x, y, z)]] = struct{}{}
			}
		}
	}

	var parts [3]*Script
	for i := range box {
		values := make([]*Script, 0, len(box[i]))
		for v := range box[i] {
			values = append(values, axes[i].values[v])
		}
		Sort(values)
		parts[i], _ = Sum(factor(values))
	}
	out := []*Script{newProduct(parts[0], parts[1], parts[2])}

	if len(covered) == len(seqs) {
		return out
	}
	remaining := make([]*Script, 0, len(seqs)-len(covered))
	for n, s := range seqs {
		if _, ok := covered[n]; !ok {
			remaining = append(remaining, s)
		}
	}
	return append(out, factor(remaining)...)
}

// bestCandidate picks the candidate with the most compatible sequences,
// breaking ties by sequence order.
func bestCandidate(candidates *bitset.BitSet, relations []*bitset.BitSet) int {
	ids := make([]int, 0, candidates.Count())
	for i, ok := candidates.NextSet(0); ok; i, ok = candidates.NextSet(i + 1) {
		ids = append(ids, int(i))
	}
	sort.SliceStable(ids, func(a, b int) bool {
		return relations[ids[a]].Count() > relations[ids[b]].Count()
	})
	return ids[0]
}
