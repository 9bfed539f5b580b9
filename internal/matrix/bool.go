// Package matrix provides square boolean matrices stored as bitset rows.
// Row operations (OR, AND, popcount) work a machine word at a time, which
// keeps relation and adjacency computations linear in the number of rows.
package matrix

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
)

var ErrSizeMismatch = errors.New("matrix sizes do not match")

// Bool is an n×n boolean matrix.
type Bool struct {
	n    int
	rows []*bitset.BitSet
}

// NewBool returns an all-false n×n matrix.
func NewBool(n int) *Bool {
	m := &Bool{n: n, rows: make([]*bitset.BitSet, n)}
	for i := range m.rows {
		m.rows[i] = bitset.New(uint(n))
	}
	return m
}

// Identity returns the n×n identity matrix.
func Identity(n int) *Bool {
	m := NewBool(n)
	for i := 0; i < n; i++ {
		m.rows[i].Set(uint(i))
	}
	return m
}

// FromRows builds a matrix from packed rows as returned by Words. Each row
// must hold n bits.
func FromRows(n int, words [][]uint64) (*Bool, error) {
	if len(words) != n {
		return nil, errors.Wrapf(ErrSizeMismatch, "got %d rows, expected %d", len(words), n)
	}
	m := &Bool{n: n, rows: make([]*bitset.BitSet, n)}
	for i, w := range words {
		packed := bitset.From(w)
		row := bitset.New(uint(n))
		for j, ok := packed.NextSet(0); ok && j < uint(n); j, ok = packed.NextSet(j + 1) {
			row.Set(j)
		}
		m.rows[i] = row
	}
	return m, nil
}

// Size returns n.
func (m *Bool) Size() int { return m.n }

// Set marks cell (i, j).
func (m *Bool) Set(i, j int) { m.rows[i].Set(uint(j)) }

// Clear unmarks cell (i, j).
func (m *Bool) Clear(i, j int) { m.rows[i].Clear(uint(j)) }

// Get reports whether cell (i, j) is marked.
func (m *Bool) Get(i, j int) bool { return m.rows[i].Test(uint(j)) }

// Row returns row i. The returned bitset is shared with the matrix.
func (m *Bool) Row(i int) *bitset.BitSet { return m.rows[i] }

// OrRow merges a set of columns into row i.
func (m *Bool) OrRow(i int, cols *bitset.BitSet) {
	m.rows[i].InPlaceUnion(cols)
}

// RowIndices lists the marked columns of row i in increasing order.
func (m *Bool) RowIndices(i int) []int {
	row := m.rows[i]
	out := make([]int, 0, row.Count())
	for j, ok := row.NextSet(0); ok; j, ok = row.NextSet(j + 1) {
		out = append(out, int(j))
	}
	return out
}

// Transpose returns a new matrix with rows and columns swapped.
func (m *Bool) Transpose() *Bool {
	t := NewBool(m.n)
	for i, row := range m.rows {
		for j, ok := row.NextSet(0); ok; j, ok = row.NextSet(j + 1) {
			t.rows[j].Set(uint(i))
		}
	}
	return t
}

// Or returns the cell-wise union of two matrices.
func (m *Bool) Or(o *Bool) (*Bool, error) {
	if m.n != o.n {
		return nil, errors.Wrapf(ErrSizeMismatch, "%d and %d", m.n, o.n)
	}
	out := &Bool{n: m.n, rows: make([]*bitset.BitSet, m.n)}
	for i := range m.rows {
		out.rows[i] = m.rows[i].Union(o.rows[i])
	}
	return out, nil
}

// ColumnCounts returns, for each column, the number of marked rows. For an
// adjacency matrix this is the in-degree of every node.
func (m *Bool) ColumnCounts() []int {
	counts := make([]int, m.n)
	for _, row := range m.rows {
		for j, ok := row.NextSet(0); ok; j, ok = row.NextSet(j + 1) {
			counts[j]++
		}
	}
	return counts
}

// Count returns the number of marked cells.
func (m *Bool) Count() int {
	total := 0
	for _, row := range m.rows {
		total += int(row.Count())
	}
	return total
}

// IsSymmetric reports whether the matrix equals its transpose.
func (m *Bool) IsSymmetric() bool {
	for i, row := range m.rows {
		for j, ok := row.NextSet(0); ok; j, ok = row.NextSet(j + 1) {
			if !m.rows[j].Test(uint(i)) {
				return false
			}
		}
	}
	return true
}

// Equal reports cell-wise equality.
func (m *Bool) Equal(o *Bool) bool {
	if m.n != o.n {
		return false
	}
	for i := range m.rows {
		if m.rows[i].SymmetricDifferenceCardinality(o.rows[i]) != 0 {
			return false
		}
	}
	return true
}

// Words returns a copy of every row as packed 64-bit words, for
// serialization.
func (m *Bool) Words() [][]uint64 {
	out := make([][]uint64, m.n)
	for i, row := range m.rows {
		out[i] = append([]uint64(nil), row.Bytes()...)
	}
	return out
}
