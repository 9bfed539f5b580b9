package proposition

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/ieml/internal/script"
)

// Clause is one edge of a proposition: the substance governs the
// attribute, qualified by an optional mode.
type Clause struct {
	Substance *script.Script
	Attribute *script.Script
	Mode      *script.Script
}

// NewClause builds a clause. Substance and attribute are required.
func NewClause(substance, attribute, mode *script.Script) (Clause, error) {
	if substance == nil || attribute == nil {
		return Clause{}, errors.New("clause needs a substance and an attribute")
	}
	return Clause{Substance: substance, Attribute: attribute, Mode: mode}, nil
}

// Key is the canonical rendering of the clause.
func (c Clause) Key() string { return c.String() }

func (c Clause) String() string {
	var b strings.Builder
	b.WriteString("([")
	b.WriteString(c.Substance.String())
	b.WriteString("]*[")
	b.WriteString(c.Attribute.String())
	b.WriteString("]")
	if c.Mode != nil {
		b.WriteString("*[")
		b.WriteString(c.Mode.String())
		b.WriteString("]")
	}
	b.WriteString(")")
	return b.String()
}

// CompareClauses orders clauses by substance, then attribute, then mode.
// A missing mode sorts first.
func CompareClauses(a, b Clause) int {
	if c := script.Compare(a.Substance, b.Substance); c != 0 {
		return c
	}
	if c := script.Compare(a.Attribute, b.Attribute); c != 0 {
		return c
	}
	switch {
	case a.Mode == nil && b.Mode == nil:
		return 0
	case a.Mode == nil:
		return -1
	case b.Mode == nil:
		return 1
	}
	return script.Compare(a.Mode, b.Mode)
}
