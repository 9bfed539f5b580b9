package dictionary

import "github.com/cockroachdb/errors"

// Language is an ISO 639-1 code.
type Language string

const (
	French  Language = "fr"
	English Language = "en"
)

// Languages lists every language a translation must cover.
var Languages = []Language{French, English}

// Translations maps a language to the text of a term.
type Translations map[Language]string

// Clone returns a copy.
func (tr Translations) Clone() Translations {
	if tr == nil {
		return nil
	}
	out := make(Translations, len(tr))
	for l, v := range tr {
		out[l] = v
	}
	return out
}

// ParseLanguage validates a language code.
func ParseLanguage(code string) (Language, error) {
	for _, l := range Languages {
		if string(l) == code {
			return l, nil
		}
	}
	return "", errors.Newf("unsupported language %q", code)
}

// translationIndex keeps both directions of the term/text mapping of every
// language, so a text can only name one term.
type translationIndex struct {
	byTerm map[Language]map[string]string
	byText map[Language]map[string]string
}

func newTranslationIndex() *translationIndex {
	idx := &translationIndex{
		byTerm: make(map[Language]map[string]string, len(Languages)),
		byText: make(map[Language]map[string]string, len(Languages)),
	}
	for _, l := range Languages {
		idx.byTerm[l] = make(map[string]string)
		idx.byText[l] = make(map[string]string)
	}
	return idx
}

// check validates a translation for a term without changing the index.
func (idx *translationIndex) check(term string, tr Translations) error {
	for _, l := range Languages {
		text, ok := tr[l]
		if !ok || text == "" {
			return consistency(ErrMissingTranslation, term, "no %s translation", l)
		}
		if owner, ok := idx.byText[l][text]; ok && owner != term {
			return consistency(ErrTranslationCollision, term, "%s translation %q already used by %s", l, text, owner)
		}
	}
	return nil
}

func (idx *translationIndex) set(term string, tr Translations) {
	for _, l := range Languages {
		if old, ok := idx.byTerm[l][term]; ok {
			delete(idx.byText[l], old)
		}
		idx.byTerm[l][term] = tr[l]
		idx.byText[l][tr[l]] = term
	}
}

func (idx *translationIndex) get(term string) Translations {
	var out Translations
	for _, l := range Languages {
		if text, ok := idx.byTerm[l][term]; ok {
			if out == nil {
				out = make(Translations, len(Languages))
			}
			out[l] = text
		}
	}
	return out
}

// lookup returns the term a text names in a language.
func (idx *translationIndex) lookup(l Language, text string) (string, bool) {
	term, ok := idx.byText[l][text]
	return term, ok
}
