package dictionary

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ppiankov/ieml/internal/metrics"
)

const (
	versionPrefix = "dictionary_"
	versionLayout = "2006-01-02_15:04:05"
)

var (
	ErrStaleVersion   = errors.New("version is not newer than the current one")
	ErrVersionUnknown = errors.New("unknown dictionary version")
)

// Version is an immutable, defined dictionary together with the source it
// was built from.
type Version struct {
	Date       time.Time
	Source     *Source
	Dictionary *Dictionary
}

// Name renders the version as dictionary_<date>.
func (v *Version) Name() string { return FormatVersionName(v.Date) }

// FormatVersionName renders a date as a version name.
func FormatVersionName(t time.Time) string {
	return versionPrefix + t.UTC().Format(versionLayout)
}

// ParseVersionName accepts dictionary_<date>, an optional file extension, or
// the bare date.
func ParseVersionName(name string) (time.Time, error) {
	s := strings.TrimPrefix(name, versionPrefix)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse(versionLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid version name %q", name)
	}
	return t, nil
}

// NewVersionFromSource builds and defines a dictionary from a source.
// The version keeps the canonical form of the source.
func NewVersionFromSource(ctx context.Context, date time.Time, src *Source, logger *zap.SugaredLogger) (*Version, error) {
	src, err := src.Canonical()
	if err != nil {
		return nil, err
	}
	d, err := Build(ctx, src, logger)
	if err != nil {
		return nil, err
	}
	return &Version{Date: date.UTC().Truncate(time.Second), Source: src, Dictionary: d}, nil
}

// Delta describes the changes between two versions. Removals drop terms,
// roots, inhibitions and translations of the listed scripts; updates extend
// the inhibitions of known terms and overwrite translations.
type Delta struct {
	Add    *Source
	Remove []string
	Update *Source
}

// Apply returns a canonical copy of base with the delta applied. Scripts of
// the delta may use any spelling.
func (dl Delta) Apply(base *Source) (*Source, error) {
	src, err := base.Canonical()
	if err != nil {
		return nil, errors.Wrap(err, "base")
	}

	if dl.Add != nil {
		add, err := dl.Add.Canonical()
		if err != nil {
			return nil, errors.Wrap(err, "add")
		}
		src.Terms = union(src.Terms, add.Terms)
		src.Roots = union(src.Roots, add.Roots)
		for k, v := range add.Inhibitions {
			src.Inhibitions[k] = v
		}
		mergeTranslations(src, add.Translations)
	}

	if len(dl.Remove) > 0 {
		remove, err := canonicalList(dl.Remove)
		if err != nil {
			return nil, errors.Wrap(err, "remove")
		}
		src.Terms = difference(src.Terms, remove)
		src.Roots = difference(src.Roots, remove)
		for _, r := range remove {
			delete(src.Inhibitions, r)
			for _, l := range Languages {
				delete(src.Translations[l], r)
			}
		}
	}

	if dl.Update != nil {
		update, err := dl.Update.Canonical()
		if err != nil {
			return nil, errors.Wrap(err, "update")
		}
		for k, v := range update.Inhibitions {
			if _, ok := src.Inhibitions[k]; !ok {
				continue
			}
			src.Inhibitions[k] = append(src.Inhibitions[k], v...)
		}
		mergeTranslations(src, update.Translations)
	}
	return src, nil
}

func mergeTranslations(src *Source, add map[Language]map[string]string) {
	for l, m := range add {
		if src.Translations[l] == nil {
			src.Translations[l] = make(map[string]string, len(m))
		}
		for k, v := range m {
			src.Translations[l][k] = v
		}
	}
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func difference(a, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, r := range remove {
		drop[r] = true
	}
	var out []string
	for _, s := range a {
		if !drop[s] {
			out = append(out, s)
		}
	}
	return out
}

// NewVersion builds the version that follows base. The base version is left
// untouched. The new date is strictly after the base date.
func NewVersion(ctx context.Context, base *Version, delta Delta, now time.Time, logger *zap.SugaredLogger) (*Version, error) {
	date := now.UTC().Truncate(time.Second)
	if !date.After(base.Date) {
		date = base.Date.Add(time.Second)
	}
	src, err := delta.Apply(base.Source)
	if err != nil {
		return nil, err
	}
	return NewVersionFromSource(ctx, date, src, logger)
}

// Registry publishes dictionary versions. Readers get the current version
// without locking; publishers are serialized.
type Registry struct {
	current atomic.Pointer[Version]

	mu       sync.Mutex
	versions map[string]*Version
	logger   *zap.SugaredLogger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *zap.SugaredLogger) *Registry {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Registry{
		versions: make(map[string]*Version),
		logger:   logger.Named("registry"),
	}
}

// Current returns the latest published version, or nil.
func (r *Registry) Current() *Version { return r.current.Load() }

// Publish makes v the current version. It must be newer than the current
// one.
func (r *Registry) Publish(v *Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur := r.current.Load(); cur != nil && !v.Date.After(cur.Date) {
		return errors.Wrapf(ErrStaleVersion, "%s after %s", v.Name(), cur.Name())
	}
	r.versions[v.Name()] = v
	r.current.Store(v)
	metrics.VersionsPublished.Inc()
	r.logger.Infow("version published", "version", v.Name(), "terms", v.Dictionary.Len())
	return nil
}

// Get returns a published version by name.
func (r *Registry) Get(name string) (*Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[name]
	if !ok {
		return nil, errors.Wrapf(ErrVersionUnknown, "%q", name)
	}
	return v, nil
}

// Names lists published versions, oldest first.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.versions))
	for n := range r.versions {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
