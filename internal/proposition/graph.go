// Package proposition validates IEML propositions. A proposition is a list
// of clauses; read as edges from substance to attribute they must form one
// rooted tree, which then gives the clauses a canonical depth order.
package proposition

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/ieml/internal/matrix"
	"github.com/ppiankov/ieml/internal/metrics"
	"github.com/ppiankov/ieml/internal/script"
)

// State is the lifecycle of a Graph.
type State int

const (
	Unchecked State = iota
	Checked
	Ordered
	Failed
)

func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Checked:
		return "checked"
	case Ordered:
		return "ordered"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Graph is the substance -> attribute graph of a clause list.
type Graph struct {
	clauses   []Clause
	nodes     []*script.Script
	position  map[string]int
	children  map[string][]Clause // substance key -> clauses it heads
	adjacency *matrix.Bool

	state   State
	err     error
	root    *script.Script
	ordered []Clause
}

// NewGraph builds the graph of clauses. Identical clauses are kept once;
// nodes are indexed by script order.
func NewGraph(clauses []Clause) *Graph {
	g := &Graph{
		position: make(map[string]int),
		children: make(map[string][]Clause),
	}

	seen := make(map[string]bool, len(clauses))
	byKey := make(map[string]*script.Script)
	for _, c := range clauses {
		if seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true
		g.clauses = append(g.clauses, c)
		g.children[c.Substance.Key()] = append(g.children[c.Substance.Key()], c)
		byKey[c.Substance.Key()] = c.Substance
		byKey[c.Attribute.Key()] = c.Attribute
	}

	for _, s := range byKey {
		g.nodes = append(g.nodes, s)
	}
	script.Sort(g.nodes)
	for i, s := range g.nodes {
		g.position[s.Key()] = i
	}

	g.adjacency = matrix.NewBool(len(g.nodes))
	for _, c := range g.clauses {
		g.adjacency.Set(g.position[c.Substance.Key()], g.position[c.Attribute.Key()])
	}
	return g
}

// Nodes returns the nodes in index order.
func (g *Graph) Nodes() []*script.Script { return slices.Clone(g.nodes) }

// Clauses returns the deduplicated clauses in input order.
func (g *Graph) Clauses() []Clause { return slices.Clone(g.clauses) }

// Adjacency returns the adjacency matrix: cell (i, j) is set when a clause
// has node i as substance and node j as attribute.
func (g *Graph) Adjacency() *matrix.Bool { return g.adjacency }

// State returns the current lifecycle state.
func (g *Graph) State() State { return g.state }

// Root returns the root node once Check succeeded.
func (g *Graph) Root() *script.Script { return g.root }

// Err returns the error of a failed check.
func (g *Graph) Err() error { return g.err }

// Check verifies that the graph is one tree: exactly one node without a
// parent, every other node with exactly one parent, every node reachable
// from the root. A failure is final; later calls return the same error.
func (g *Graph) Check() error {
	switch g.state {
	case Checked, Ordered:
		return nil
	case Failed:
		return g.err
	}

	root, err := g.check()
	if err != nil {
		g.state = Failed
		g.err = err
		outcome := "invalid"
		var se *StructuralError
		if errors.As(err, &se) {
			outcome = se.Outcome()
		}
		metrics.PropositionChecks.WithLabelValues(outcome).Inc()
		return err
	}

	g.root = root
	g.state = Checked
	metrics.PropositionChecks.WithLabelValues("valid").Inc()
	return nil
}

func (g *Graph) check() (*script.Script, error) {
	incoming := g.adjacency.ColumnCounts()

	root := -1
	for i, n := range incoming {
		if n != 0 {
			continue
		}
		if root != -1 {
			return nil, structural(ErrSeveralRootNodeFound, nil)
		}
		root = i
	}
	if root == -1 {
		return nil, structural(ErrNoRootNodeFound, nil)
	}

	for i, n := range incoming {
		if i == root {
			continue
		}
		switch {
		case n == 0:
			return nil, structural(ErrNodeHasNoParent, g.nodes[i])
		case n > 1:
			return nil, structural(ErrNodeHasTooManyParents, g.nodes[i])
		}
	}

	// Degrees alone accept a root plus a detached cycle.
	reached := make([]bool, len(g.nodes))
	reached[root] = true
	queue := []int{root}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for _, j := range g.adjacency.RowIndices(i) {
			if !reached[j] {
				reached[j] = true
				queue = append(queue, j)
			}
		}
	}
	for i, ok := range reached {
		if !ok {
			return nil, structural(ErrNodeNotReachable, g.nodes[i])
		}
	}

	return g.nodes[root], nil
}

// Order returns the clauses generation by generation from the root. Clauses
// whose substance is at the same distance from the root form a generation
// and are sorted with CompareClauses. Order runs Check when needed.
func (g *Graph) Order() ([]Clause, error) {
	if err := g.Check(); err != nil {
		return nil, err
	}
	if g.state == Ordered {
		return slices.Clone(g.ordered), nil
	}

	ordered := make([]Clause, 0, len(g.clauses))
	parents := []*script.Script{g.root}
	for len(parents) > 0 {
		var generation []Clause
		for _, p := range parents {
			generation = append(generation, g.children[p.Key()]...)
		}
		slices.SortStableFunc(generation, CompareClauses)
		ordered = append(ordered, generation...)

		next := parents[:0:0]
		queued := make(map[string]bool)
		for _, c := range generation {
			key := c.Attribute.Key()
			if _, isParent := g.children[key]; isParent && !queued[key] {
				queued[key] = true
				next = append(next, c.Attribute)
			}
		}
		parents = next
	}

	g.ordered = ordered
	g.state = Ordered
	return slices.Clone(ordered), nil
}
