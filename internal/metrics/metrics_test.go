package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndTextfile(t *testing.T) {
	before := testutil.ToFloat64(PropositionChecks.WithLabelValues("valid"))
	PropositionChecks.WithLabelValues("valid").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PropositionChecks.WithLabelValues("valid")))

	ObserveStage("relations", time.Now().Add(-time.Millisecond))

	path := filepath.Join(t.TempDir(), "ieml.prom")
	require.NoError(t, WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "ieml_proposition_checks_total"))
	assert.True(t, strings.Contains(string(data), "ieml_dictionary_stage_seconds"))
}
