package dictionary

import "github.com/ppiankov/ieml/internal/script"

// Term is a dictionary entry. Its identity is the canonical script. The
// derived fields are filled by Define and must be treated as read only.
type Term struct {
	Script *script.Script

	Index        int
	Rank         int
	Root         *Term
	Parent       *Term
	Partitions   []*Term
	Translations Translations
	Inhibitions  []string
	Relations    Relations
}

// Relations lists the related terms of one term, each list in index order.
type Relations struct {
	// Contains lists the terms whose singular sequences include this term.
	Contains []*Term
	// Contained lists the terms included in this term.
	Contained []*Term
	Father    [3][]*Term
	Children  [3][]*Term

	Opposed    []*Term
	Associated []*Term
	Twins      []*Term
	Crossed    []*Term
}

// Key returns the canonical script string.
func (t *Term) Key() string { return t.Script.Key() }

func (t *Term) String() string { return t.Script.String() }

// IsRoot reports whether the term is the root paradigm of its family.
func (t *Term) IsRoot() bool { return t.Root == t }

// Less orders terms by their scripts.
func (t *Term) Less(o *Term) bool { return script.Less(t.Script, o.Script) }
