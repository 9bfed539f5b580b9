package dictionary

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/ieml/internal/script"
)

// Source is the editable description of a dictionary: the scripts of its
// roots and terms, the relations inhibited per term, and the translations
// per language keyed by script.
type Source struct {
	Roots        []string                       `yaml:"roots" json:"roots"`
	Terms        []string                       `yaml:"terms" json:"terms"`
	Inhibitions  map[string][]string            `yaml:"inhibitions,omitempty" json:"inhibitions,omitempty"`
	Translations map[Language]map[string]string `yaml:"translations,omitempty" json:"translations,omitempty"`
}

// LoadSource reads a YAML dictionary source file.
func LoadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read dictionary source %s", path)
	}
	return ParseSource(data)
}

// ParseSource decodes a YAML dictionary source.
func ParseSource(data []byte) (*Source, error) {
	var src Source
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, errors.Wrap(err, "parse dictionary source")
	}
	return &src, nil
}

// Save writes the source as YAML.
func (s *Source) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal dictionary source")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write dictionary source %s", path)
	}
	return nil
}

func (s *Source) translationOf(key string) Translations {
	var tr Translations
	for _, l := range Languages {
		text, ok := s.Translations[l][key]
		if !ok {
			continue
		}
		if tr == nil {
			tr = make(Translations, len(Languages))
		}
		tr[l] = text
	}
	return tr
}

// Build parses every script of the source, adds the roots then the terms,
// and defines the dictionary. The source may use any spelling of a script.
func Build(ctx context.Context, src *Source, logger *zap.SugaredLogger) (*Dictionary, error) {
	src, err := src.Canonical()
	if err != nil {
		return nil, err
	}
	d := New(logger)

	roots, err := parseSorted(src.Roots)
	if err != nil {
		return nil, errors.Wrap(err, "roots")
	}
	terms, err := parseSorted(src.Terms)
	if err != nil {
		return nil, errors.Wrap(err, "terms")
	}

	for _, r := range roots {
		if err := d.AddTerm(r, true, src.inhibitionsOf(r), src.translationOf(r.Key())); err != nil {
			return nil, err
		}
	}
	for _, t := range terms {
		if err := d.AddTerm(t, false, src.inhibitionsOf(t), src.translationOf(t.Key())); err != nil {
			return nil, err
		}
	}

	if err := d.Define(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Source) inhibitionsOf(sc *script.Script) []string {
	return s.Inhibitions[sc.Key()]
}

// Canonical returns a copy of the source where every script, including the
// keys of inhibitions and translations, is written in canonical form. Two
// spellings of one script carrying inhibitions or translations in the same
// language are reported as ErrSpellingCollision.
func (s *Source) Canonical() (*Source, error) {
	roots, err := canonicalList(s.Roots)
	if err != nil {
		return nil, errors.Wrap(err, "roots")
	}
	terms, err := canonicalList(s.Terms)
	if err != nil {
		return nil, errors.Wrap(err, "terms")
	}
	out := &Source{
		Roots:        roots,
		Terms:        terms,
		Inhibitions:  make(map[string][]string, len(s.Inhibitions)),
		Translations: make(map[Language]map[string]string, len(s.Translations)),
	}

	spelled := make(map[string]string, len(s.Inhibitions))
	for literal, names := range s.Inhibitions {
		key, err := canonicalKey(literal)
		if err != nil {
			return nil, errors.Wrap(err, "inhibitions")
		}
		if prev, ok := spelled[key]; ok {
			return nil, consistency(ErrSpellingCollision, key, "inhibitions under %q and %q", prev, literal)
		}
		spelled[key] = literal
		out.Inhibitions[key] = append([]string(nil), names...)
	}

	for l, m := range s.Translations {
		seen := make(map[string]string, len(m))
		cp := make(map[string]string, len(m))
		for literal, text := range m {
			key, err := canonicalKey(literal)
			if err != nil {
				return nil, errors.Wrapf(err, "translations %s", l)
			}
			if prev, ok := seen[key]; ok {
				return nil, consistency(ErrSpellingCollision, key, "%s translations under %q and %q", l, prev, literal)
			}
			seen[key] = literal
			cp[key] = text
		}
		out.Translations[l] = cp
	}
	return out, nil
}

func canonicalKey(literal string) (string, error) {
	sc, err := script.Parse(literal)
	if err != nil {
		return "", err
	}
	return sc.Key(), nil
}

// canonicalList rewrites literals in canonical form, keeping the first
// occurrence of each script.
func canonicalList(literals []string) ([]string, error) {
	if literals == nil {
		return nil, nil
	}
	seen := make(map[string]bool, len(literals))
	out := make([]string, 0, len(literals))
	for _, literal := range literals {
		key, err := canonicalKey(literal)
		if err != nil {
			return nil, err
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out, nil
}

func parseSorted(literals []string) ([]*script.Script, error) {
	out, err := script.ParseAll(literals)
	if err != nil {
		return nil, err
	}
	script.Sort(out)
	return out, nil
}
