package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ieml/internal/model"
	"github.com/ppiankov/ieml/internal/proposition"
)

// run executes the root command with fresh flag values and a private HOME.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	pterm.DisableColor()

	scriptJSON, noCache = false, false
	termJSON, noStore = false, false
	withDictionary = false
	sourcePath, storePath = "", ""
	batchOutput, concurrency = "", 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

const sourceYAML = `roots: ["O:M:."]
terms: ["U:M:.", "y.", "o.", "e."]
translations:
  fr: {"O:M:.": "racine"}
  en: {"O:M:.": "root"}
`

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ieml "+Version+"\n", out)
}

func TestScriptCommands(t *testing.T) {
	out, err := run(t, "script", "parse", "--json", "U:S:E:.")
	require.NoError(t, err)
	var reports []model.ScriptReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "y.", reports[0].Canonical)
	assert.Equal(t, 1, reports[0].Layer)

	out, err = run(t, "script", "expand", "O:M:.")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 6)

	out, err = run(t, "script", "factorize", "--no-cache", "S:A:A:.", "B:A:A:.", "T:A:A:.")
	require.NoError(t, err)
	assert.Equal(t, "M:A:A:.\n", out)

	_, err = run(t, "script", "parse", "Q:.")
	assert.Error(t, err)
}

func TestFactorizeUsesDiskCache(t *testing.T) {
	_, err := run(t, "script", "factorize", "S:A:A:.", "B:A:A:.")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(os.Getenv("HOME"), ".ieml", "cache"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPropositionCheck(t *testing.T) {
	out, err := run(t, "proposition", "check", "[([b.]*[t.])+([s.]*[b.])]")
	require.NoError(t, err)
	assert.Equal(t, "[([s.]*[b.])+([b.]*[t.])]\n", out)

	_, err = run(t, "proposition", "check", "[([s.]*[b.])+([t.]*[k.])]")
	assert.True(t, errors.Is(err, proposition.ErrSeveralRootNodeFound))
}

func TestPropositionBatch(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "propositions.txt")
	content := "[([s.]*[b.])]\n# skipped\n[([s.]*[b.])+([t.]*[k.])]\n"
	require.NoError(t, os.WriteFile(input, []byte(content), 0o644))
	report := filepath.Join(dir, "report.json")

	_, err := run(t, "proposition", "batch", input, "--concurrency", "2", "-o", report)
	require.Error(t, err, "an invalid line fails the batch")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var summary model.BatchSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Valid)
	assert.Equal(t, 1, summary.Outcomes["several_roots"])
	assert.Equal(t, 2, summary.Reports[1].Line)
}

func TestDictionaryBuildAndTerm(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "dictionary.yaml")
	db := filepath.Join(dir, "versions.db")
	require.NoError(t, os.WriteFile(source, []byte(sourceYAML), 0o644))

	out, err := run(t, "dictionary", "build", "--source", source, "--store", db)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "dictionary_"))

	out, err = run(t, "dictionary", "term", "--store", db, "--json", "U:M:.")
	require.NoError(t, err)
	var term model.TermReport
	require.NoError(t, json.Unmarshal([]byte(out), &term))
	assert.Equal(t, "U:M:.", term.Script)
	assert.Equal(t, 3, term.Rank)
	assert.Equal(t, "O:M:.", term.Root)
	assert.Contains(t, term.Relations["CONTAINS"], "y.")

	out, err = run(t, "dictionary", "versions", "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, "dictionary_")

	// Terms outside the stored dictionary are rejected with --dictionary.
	_, err = run(t, "proposition", "check", "--dictionary", "--store", db, "[([y.]*[wa.])]")
	assert.Error(t, err)
	_, err = run(t, "proposition", "check", "--dictionary", "--store", db, "[([y.]*[o.])]")
	assert.NoError(t, err)
}
