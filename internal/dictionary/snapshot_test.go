package dictionary

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	d := buildTest(t, testSource())

	snap, err := d.Snapshot("dictionary_2024-01-02_03:04:05")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, snap.Encode(&buf))

	decoded, err := DecodeSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, snap.Version, decoded.Version)

	loaded, err := Load(decoded, nil)
	require.NoError(t, err)
	require.True(t, loaded.IsDefined())

	assert.Equal(t, keysOf(d.Terms()), keysOf(loaded.Terms()))
	for _, rt := range RelationTypes {
		assert.True(t, d.Rel(rt).Equal(loaded.Rel(rt)), "relation %s differs", rt)
	}
	for _, term := range d.Terms() {
		other := mustTerm(t, loaded, term.Key())
		assert.Equal(t, term.Rank, other.Rank, term.Key())
		assert.Equal(t, term.Root.Key(), other.Root.Key())
		assert.Equal(t, keysOf(term.Relations.Contained), keysOf(other.Relations.Contained))
		assert.Equal(t, keysOf(term.Partitions), keysOf(other.Partitions))
	}

	y := mustTerm(t, loaded, "y.")
	assert.Equal(t, "y en", y.Translations[English])
	assert.Equal(t, []string{"TWIN"}, y.Inhibitions)
}

func TestSnapshotRequiresDefine(t *testing.T) {
	_, err := New(nil).Snapshot("v")
	assert.True(t, errors.Is(err, ErrNotDefined))
}

func TestLoadRejectsUnsortedIndex(t *testing.T) {
	d := buildTest(t, testSource())
	snap, err := d.Snapshot("v")
	require.NoError(t, err)

	snap.Index[0], snap.Index[1] = snap.Index[1], snap.Index[0]
	_, err = Load(snap, nil)
	assert.True(t, errors.Is(err, ErrSnapshotOrder))
}

func TestLoadRejectsMissingRelations(t *testing.T) {
	d := buildTest(t, testSource())
	snap, err := d.Snapshot("v")
	require.NoError(t, err)

	snap.Relations = snap.Relations[:3]
	_, err = Load(snap, nil)
	assert.Error(t, err)
}
