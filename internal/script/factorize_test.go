package script

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedKeys(scripts []*Script) []string {
	keys := Keys(scripts)
	sort.Strings(keys)
	return keys
}

func TestFactorize(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected string
	}{
		{"column", []string{"S:A:A:.", "B:A:A:.", "T:A:A:."}, "M:A:A:."},
		{"box", []string{"S:A:A:.", "T:A:B:.", "B:A:B:.", "S:A:B:.", "T:A:A:.", "B:A:A:."}, "M:A:A:+B:."},
		{"single", []string{"wa."}, "wa."},
		{"paradigm input", []string{"O:M:."}, "O:M:."},
		{"atoms", []string{"U:", "A:", "S:"}, "O:+S:"},
		{"duplicates", []string{"y.", "y.", "o."}, "U:S:+B:."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seqs, err := ParseAll(tt.input)
			require.NoError(t, err)

			got, err := Factorize(seqs)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestFactorizeIsExact(t *testing.T) {
	inputs := [][]string{
		{"S:A:A:.", "B:A:A:.", "S:B:B:."},
		{"S:A:A:.", "S:B:T:.", "S:S:T:.", "A:U:A:.", "B:B:T:."},
		{"y.", "o.", "e.", "u.", "a.", "wa.", "l."},
		{"s.y.-", "s.o.-", "b.y.-", "b.o.-", "t.e.-"},
	}
	for _, in := range inputs {
		seqs, err := ParseAll(in)
		require.NoError(t, err)

		got, err := Factorize(seqs)
		require.NoError(t, err)

		assert.Equal(t, sortedKeys(seqs), sortedKeys(got.SingularSequences()), "factorization of %v is %s", in, got)

		again, err := Factorize([]*Script{got})
		require.NoError(t, err)
		assert.Equal(t, got.String(), again.String())
	}
}

// randomSubset draws a non empty subset of universe, each sequence kept with
// a probability chosen per draw.
func randomSubset(rng *rand.Rand, universe []*Script) []*Script {
	keep := rng.Float64()
	var out []*Script
	for _, s := range universe {
		if rng.Float64() < keep {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = append(out, universe[rng.IntN(len(universe))])
	}
	return out
}

func TestFactorizeRandomSubsets(t *testing.T) {
	tests := []struct {
		paradigm string
		draws    int
	}{
		{"F:F:F:.", 500},
		{"O:M:.O:M:.-", 100},
	}
	for _, tt := range tests {
		t.Run(tt.paradigm, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(7, uint64(len(tt.paradigm))))
			universe := MustParse(tt.paradigm).SingularSequences()

			for i := 0; i < tt.draws; i++ {
				seqs := randomSubset(rng, universe)

				got, err := Factorize(seqs)
				require.NoError(t, err)
				require.Equal(t, sortedKeys(seqs), sortedKeys(got.SingularSequences()),
					"draw %d: factorization of %v is %s", i, Keys(seqs), got)
				require.Equal(t, len(seqs), got.Cardinal())
			}
		})
	}
}

func TestFactorizeSplitsIncompatibleSequences(t *testing.T) {
	seqs, err := ParseAll([]string{"S:A:A:.", "B:A:A:.", "S:B:B:."})
	require.NoError(t, err)

	got, err := Factorize(seqs)
	require.NoError(t, err)
	assert.Equal(t, KindAdditive, got.Kind())
	assert.Len(t, got.Children(), 2)
}

func TestFactorizeErrors(t *testing.T) {
	_, err := Factorize(nil)
	assert.True(t, errors.Is(err, ErrEmptyFactorization))

	_, err = Factorize([]*Script{MustParse("S:."), MustParse("S:.-")})
	assert.True(t, errors.Is(err, ErrIncompatibleLayers))
}
