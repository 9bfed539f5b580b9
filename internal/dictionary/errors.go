package dictionary

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Consistency error kinds. Match them with errors.Is.
var (
	ErrRootOverlap          = errors.New("root paradigm overlap")
	ErrTermNotFound         = errors.New("term not found")
	ErrNoRankCandidate      = errors.New("no rank candidate")
	ErrTranslationCollision = errors.New("translation already used")
	ErrNotInRootParadigm    = errors.New("term is not in a root paradigm")
	ErrRootNotParadigm      = errors.New("root must be a paradigm")
	ErrMissingTranslation   = errors.New("missing translation")
	ErrSnapshotOrder        = errors.New("snapshot index is not sorted")
	ErrNotDefined           = errors.New("dictionary is not defined")
	ErrSpellingCollision    = errors.New("script spelled twice")
)

// ConsistencyError reports a dictionary that would violate one of its
// structural rules. Term is the canonical script of the offending term.
type ConsistencyError struct {
	Kind error
	Term string
	Msg  string
}

func (e *ConsistencyError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Term)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Term, e.Msg)
}

func (e *ConsistencyError) Unwrap() error { return e.Kind }

func consistency(kind error, term string, format string, args ...any) error {
	return &ConsistencyError{Kind: kind, Term: term, Msg: fmt.Sprintf(format, args...)}
}
