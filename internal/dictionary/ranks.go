package dictionary

import (
	"sort"

	"github.com/ppiankov/ieml/internal/script"
)

const (
	rootRank     = 1
	singularRank = 6
)

// computeRanks assigns a rank to every term. Singular sequences have rank
// 6 and roots rank 1. The paradigms of a root are visited from the largest
// to the smallest; each one is ranked against the first already ranked
// paradigm whose tables it partitions. Partitions record which paradigm
// each one was attached to.
func (d *Dictionary) computeRanks() (map[string]int, map[string][]*Term, error) {
	ranks := make(map[string]int, len(d.terms))
	partitions := make(map[string][]*Term)
	tables := make(map[string][]*script.Table)

	for key, t := range d.terms {
		if t.Script.IsSingular() {
			ranks[key] = singularRank
		}
	}

	addPartition := func(parent, child *Term) {
		for _, p := range partitions[parent.Key()] {
			if p == child {
				return
			}
		}
		partitions[parent.Key()] = append(partitions[parent.Key()], child)
	}

	for _, root := range d.Roots() {
		ranks[root.Key()] = rootRank
		tables[root.Key()] = append(tables[root.Key()], root.Script.Tables()...)

		defined := []*Term{root}
		isDefined := map[string]bool{root.Key(): true}
		define := func(t *Term) {
			if !isDefined[t.Key()] {
				isDefined[t.Key()] = true
				defined = append(defined, t)
			}
		}

		for _, tab := range root.Script.Tables() {
			tp, ok := d.terms[tab.Paradigm().Key()]
			if !ok {
				continue
			}
			if tp != root {
				tables[tp.Key()] = append(tables[tp.Key()], tab)
			}
			ranks[tp.Key()] = rootRank
			define(tp)
		}

		members := d.Members(root)
		sort.SliceStable(members, func(i, j int) bool { return members[j].Less(members[i]) })

		for _, term := range members {
			if isDefined[term.Key()] {
				continue
			}
			if !term.Script.IsParadigm() {
				break
			}

			var parent *Term
			rank := 0
			for _, candidate := range defined {
				if r, ok := rankPartition(term.Script, candidate.Script, tables[candidate.Key()]); ok {
					parent, rank = candidate, r
					break
				}
			}
			if parent == nil {
				return nil, nil, consistency(ErrNoRankCandidate, term.Key(), "in root %s", root.Key())
			}

			ranks[term.Key()] = ranks[parent.Key()] + rank
			tables[term.Key()] = append(tables[term.Key()], term.Script.Tables()...)
			addPartition(parent, term)
			define(term)

			for _, tab := range term.Script.Tables() {
				tp, ok := d.terms[tab.Paradigm().Key()]
				if !ok {
					continue
				}
				if tp != term {
					tables[tp.Key()] = append(tables[tp.Key()], tab)
				}
				ranks[tp.Key()] = ranks[term.Key()]
				addPartition(parent, tp)
				define(tp)
			}
		}
	}
	return ranks, partitions, nil
}

// rankPartition reports the rank offset of sub relative to parent, looking
// for the first table of parent that sub partitions.
func rankPartition(sub, parent *script.Script, parentTables []*script.Table) (int, bool) {
	if !parent.Contains(sub) {
		return 0, false
	}

	// A paradigm spread over several tables is a partition when each table
	// of the parent is headed by one of its tables.
	if subTables := sub.Tables(); len(subTables) != 1 && coversTableHeaders(subTables, parent.Tables()) {
		return 1, true
	}

	for _, tab := range parentTables {
		if !tab.Paradigm().Contains(sub) {
			continue
		}
		coords, ok := tab.Coords(sub)
		if !ok {
			continue
		}
		isDim, count := isDimSubset(coords, tab)
		if isDim && count == 1 {
			return 2, true
		}
		if isDim || isConnexTiling(coords, tab) {
			return 1, true
		}
	}
	return 0, false
}

func coversTableHeaders(sub, parent []*script.Table) bool {
	for _, t1 := range parent {
		headers := make(map[string]bool)
		for _, h := range t1.Headers() {
			headers[h.Key()] = true
		}
		found := false
		for _, t0 := range sub {
			h := t0.Headers()
			if len(h) == 1 && headers[h[0].Key()] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// distinct returns the sorted distinct values of one coordinate.
func distinct(coords [][3]int, axis int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, c := range coords {
		if !seen[c[axis]] {
			seen[c[axis]] = true
			out = append(out, c[axis])
		}
	}
	sort.Ints(out)
	return out
}

// isDimSubset reports whether the cells only restrict one axis of the
// table, and the number of values kept on the other one.
func isDimSubset(coords [][3]int, t *script.Table) (bool, int) {
	shape := t.Shape()
	var sub [3]int
	for i := range sub {
		sub[i] = len(distinct(coords, i))
	}

	if sub[2] != shape[2] {
		return sub[0] == shape[0] && sub[1] == shape[1], sub[2]
	}
	if sub[0] == shape[0] {
		return true, sub[1]
	}
	if sub[1] == shape[1] {
		return true, sub[0]
	}
	return false, 0
}

// isConnexTiling reports whether the cells form a full box whose values are
// contiguous, cyclically, on each axis of the table, with at least two
// values on the first two axes.
func isConnexTiling(coords [][3]int, t *script.Table) bool {
	shape := t.Shape()
	size := 1
	for i := 0; i < t.Dim(); i++ {
		values := distinct(coords, i)
		size *= len(values)

		included := make(map[int]bool, len(values))
		for _, v := range values {
			included[v] = true
		}
		transitions := 0
		for j := 0; j < shape[i]; j++ {
			if !included[j] && included[(j+1)%shape[i]] {
				transitions++
			}
		}
		if transitions > 1 {
			return false
		}
		if len(values) < 2 && i != 2 {
			return false
		}
	}
	return len(coords) == size
}
