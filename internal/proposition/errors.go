package proposition

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/ieml/internal/script"
)

// Structural error kinds. Match them with errors.Is.
var (
	ErrNoRootNodeFound       = errors.New("no root node found")
	ErrSeveralRootNodeFound  = errors.New("several root nodes found")
	ErrNodeHasNoParent       = errors.New("node has no parent")
	ErrNodeHasTooManyParents = errors.New("node has too many parents")
	ErrNodeNotReachable      = errors.New("node is not reachable from the root")
)

var outcomes = map[error]string{
	ErrNoRootNodeFound:       "no_root",
	ErrSeveralRootNodeFound:  "several_roots",
	ErrNodeHasNoParent:       "no_parent",
	ErrNodeHasTooManyParents: "too_many_parents",
	ErrNodeNotReachable:      "not_reachable",
}

// StructuralError reports a clause list that is not a single rooted tree.
// Node is the offending node, nil for the root count errors.
type StructuralError struct {
	Kind error
	Node *script.Script
}

func (e *StructuralError) Error() string {
	if e.Node == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: [%s]", e.Kind, e.Node)
}

func (e *StructuralError) Unwrap() error { return e.Kind }

// Outcome is a short label for the error kind, used in metrics and reports.
func (e *StructuralError) Outcome() string {
	if o, ok := outcomes[e.Kind]; ok {
		return o
	}
	return "invalid"
}

func structural(kind error, node *script.Script) error {
	return &StructuralError{Kind: kind, Node: node}
}
