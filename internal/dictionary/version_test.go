package dictionary

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseDate = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func TestVersionName(t *testing.T) {
	v := &Version{Date: baseDate}
	assert.Equal(t, "dictionary_2024-01-02_03:04:05", v.Name())

	for _, name := range []string{v.Name(), v.Name() + ".json", "2024-01-02_03:04:05"} {
		got, err := ParseVersionName(name)
		require.NoError(t, err, name)
		assert.True(t, got.Equal(baseDate))
	}

	_, err := ParseVersionName("dictionary_yesterday")
	assert.Error(t, err)
}

func TestNewVersionLeavesBaseUntouched(t *testing.T) {
	ctx := context.Background()
	base, err := NewVersionFromSource(ctx, baseDate, testSource(), nil)
	require.NoError(t, err)

	delta := Delta{
		Add: &Source{
			Terms: []string{"A:M:."},
			Translations: map[Language]map[string]string{
				French:  {"A:M:.": "a fr"},
				English: {"A:M:.": "a en"},
			},
		},
		Remove: []string{"i."},
		Update: &Source{
			Inhibitions: map[string][]string{"O:M:.": {"OPPOSED"}},
		},
	}

	next, err := NewVersion(ctx, base, delta, baseDate, nil)
	require.NoError(t, err)
	assert.True(t, next.Date.After(base.Date))

	_, err = next.Dictionary.Term("A:M:.")
	assert.NoError(t, err)
	_, err = next.Dictionary.Term("i.")
	assert.True(t, errors.Is(err, ErrTermNotFound))
	assert.Equal(t, []string{"TWIN", "OPPOSED"}, mustTerm(t, next.Dictionary, "O:M:.").Inhibitions)

	_, err = base.Dictionary.Term("A:M:.")
	assert.True(t, errors.Is(err, ErrTermNotFound))
	_, err = base.Dictionary.Term("i.")
	assert.NoError(t, err)
	assert.Equal(t, []string{"TWIN"}, base.Source.Inhibitions["O:M:."])
	assert.NotContains(t, base.Source.Terms, "A:M:.")
}

func TestRegistryPublish(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)
	assert.Nil(t, reg.Current())

	v1, err := NewVersionFromSource(ctx, baseDate, testSource(), nil)
	require.NoError(t, err)
	require.NoError(t, reg.Publish(v1))
	assert.Equal(t, v1, reg.Current())

	v2, err := NewVersion(ctx, v1, Delta{}, baseDate.Add(time.Hour), nil)
	require.NoError(t, err)
	require.NoError(t, reg.Publish(v2))
	assert.Equal(t, v2, reg.Current())

	err = reg.Publish(v1)
	assert.True(t, errors.Is(err, ErrStaleVersion))
	assert.Equal(t, v2, reg.Current())

	got, err := reg.Get(v1.Name())
	require.NoError(t, err)
	assert.Equal(t, v1, got)
	assert.Equal(t, []string{v1.Name(), v2.Name()}, reg.Names())

	_, err = reg.Get("dictionary_1999-01-01_00:00:00")
	assert.True(t, errors.Is(err, ErrVersionUnknown))
}

const sourceYAML = `roots:
  - "O:M:."
terms:
  - "U:M:."
  - "y."
  - "o."
  - "e."
translations:
  fr:
    "O:M:.": racine
  en:
    "O:M:.": root
`

func TestSourceYAML(t *testing.T) {
	src, err := ParseSource([]byte(sourceYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"O:M:."}, src.Roots)
	assert.Equal(t, "root", src.Translations[English]["O:M:."])

	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	require.NoError(t, src.Save(path))

	again, err := LoadSource(path)
	require.NoError(t, err)
	assert.Equal(t, src.Terms, again.Terms)

	d := buildTest(t, again)
	assert.Equal(t, 5, d.Len())
	assert.Equal(t, 3, mustTerm(t, d, "U:M:.").Rank)

	_, err = ParseSource([]byte("roots: [unclosed"))
	assert.Error(t, err)
}

func TestWatcherRebuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sourceYAML), 0o644))

	reg := NewRegistry(nil)
	w := NewWatcher(path, reg, 1000, nil)
	w.now = func() time.Time { return baseDate }

	var published []string
	w.OnPublish = func(v *Version) { published = append(published, v.Name()) }

	ctx := context.Background()
	v1, err := w.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, reg.Current())

	// Same clock: the next version is still strictly newer.
	v2, err := w.Rebuild(ctx)
	require.NoError(t, err)
	assert.True(t, v2.Date.After(v1.Date))
	assert.Len(t, published, 2)

	require.NoError(t, os.WriteFile(path, []byte("roots: [\"s.\"]\n"), 0o644))
	_, err = w.Rebuild(ctx)
	assert.True(t, errors.Is(err, ErrRootNotParadigm))
	assert.Equal(t, v2, reg.Current())
}

func TestWatcherRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sourceYAML), 0o644))

	reg := NewRegistry(nil)
	w := NewWatcher(path, reg, 1000, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return reg.Current() != nil }, 5*time.Second, 10*time.Millisecond)
	first := reg.Current()

	updated := strings.Replace(sourceYAML, "terms:\n", "terms:\n  - \"u.\"\n", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		cur := reg.Current()
		return cur != first && cur.Dictionary.Len() == 6
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestBuildCanonicalizesSpellings(t *testing.T) {
	src := &Source{
		Roots: []string{"O:M:."},
		Terms: []string{"U:S:E:.", "y.", "o."},
		Inhibitions: map[string][]string{
			"U:S:E:.": {"TWIN"},
		},
		Translations: map[Language]map[string]string{
			French:  {"U:S:E:.": "y fr", "O:M:.": "racine"},
			English: {"U:S:E:.": "y en", "O:M:.": "root"},
		},
	}

	d := buildTest(t, src)
	assert.Equal(t, 3, d.Len())

	y := mustTerm(t, d, "y.")
	assert.Equal(t, "y fr", y.Translations[French])
	assert.Equal(t, "y en", y.Translations[English])
	assert.Equal(t, []string{"TWIN"}, y.Inhibitions)

	found, err := d.TermByTranslation(English, "y en")
	require.NoError(t, err)
	assert.Equal(t, "y.", found.Key())

	v, err := NewVersionFromSource(context.Background(), baseDate, src, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"y.", "o."}, v.Source.Terms)
	assert.Contains(t, v.Source.Inhibitions, "y.")
	assert.Equal(t, "y fr", v.Source.Translations[French]["y."])
	assert.Equal(t, []string{"U:S:E:.", "y.", "o."}, src.Terms, "input source is not modified")
}

func TestCanonicalSourceErrors(t *testing.T) {
	tests := []struct {
		name string
		src  *Source
		kind error
	}{
		{
			name: "inhibitions under two spellings",
			src: &Source{
				Roots:       []string{"O:M:."},
				Terms:       []string{"y."},
				Inhibitions: map[string][]string{"y.": {"TWIN"}, "U:S:E:.": {"OPPOSED"}},
			},
			kind: ErrSpellingCollision,
		},
		{
			name: "translations under two spellings",
			src: &Source{
				Roots:        []string{"O:M:."},
				Terms:        []string{"y."},
				Translations: map[Language]map[string]string{English: {"y.": "a", "U:S:E:.": "b"}},
			},
			kind: ErrSpellingCollision,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(context.Background(), tt.src, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)

			var ce *ConsistencyError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "y.", ce.Term)
		})
	}

	_, err := Build(context.Background(), &Source{
		Roots:        []string{"O:M:."},
		Translations: map[Language]map[string]string{English: {"not a script": "x"}},
	}, nil)
	assert.Error(t, err)
}

func TestDeltaUsesCanonicalSpellings(t *testing.T) {
	ctx := context.Background()
	base, err := NewVersionFromSource(ctx, baseDate, testSource(), nil)
	require.NoError(t, err)

	next, err := NewVersion(ctx, base, Delta{
		Remove: []string{"U:S:E:."},
		Update: &Source{
			Translations: map[Language]map[string]string{
				French:  {"U:B:E:.": "o fr"},
				English: {"U:B:E:.": "o en"},
			},
		},
	}, baseDate, nil)
	require.NoError(t, err)

	_, err = next.Dictionary.Term("y.")
	assert.True(t, errors.Is(err, ErrTermNotFound))
	assert.NotContains(t, next.Source.Terms, "y.")
	_, ok := next.Source.Translations[English]["y."]
	assert.False(t, ok)

	assert.Equal(t, "o en", mustTerm(t, next.Dictionary, "o.").Translations[English])

	_, err = NewVersion(ctx, base, Delta{Remove: []string{"not a script"}}, baseDate, nil)
	assert.Error(t, err)
}
