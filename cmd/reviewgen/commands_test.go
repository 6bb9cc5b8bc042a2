package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/reviewgen/pkg/ingest"
	"github.com/japaniel/reviewgen/pkg/markov"
)

const fixtureReviews = `{"reviewerID":"A1","asin":"B1","reviewText":"good product. good value","overall":5}
{"reviewerID":"A2","asin":"B1","reviewText":"buy it now","overall":4}
not json
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviews.json"), []byte(fixtureReviews), 0644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "none"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	dir := writeFixture(t)

	out, err := run(t, "generate", "now", "Good", "blender", "--data-dir", dir, "--seed", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	assert.Equal(t, "now", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "good "), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "blender: Word not found"), lines[2])
}

func TestGenerateCommandMissingData(t *testing.T) {
	_, err := run(t, "generate", "good", "--data-dir", t.TempDir())
	assert.Error(t, err)
}

func TestInvalidConfigRejected(t *testing.T) {
	_, err := run(t, "generate", "good", "--language", "fr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "language")
}

func TestImportThenTrainFromDB(t *testing.T) {
	dir := writeFixture(t)
	dbPath := filepath.Join(t.TempDir(), "reviewgen.db")

	out, err := run(t, "import", "--data-dir", dir, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Staged 2 new reviews (2 total, 1 malformed lines)")

	// Resuming finds nothing new.
	out, err = run(t, "import", "--data-dir", dir, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Staged 0 new reviews (2 total")

	out, err = run(t, "train", "--from-db", "--data-dir", dir, "--db", dbPath, "--top", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Lines:    2")
	assert.Contains(t, out, "Most frequent:")
	assert.Contains(t, out, "good")
}

func TestTrainFromDBWithoutImport(t *testing.T) {
	dir := writeFixture(t)
	_, err := run(t, "train", "--from-db", "--data-dir", dir, "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run import first")
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	dir := writeFixture(t)
	cfgPath := filepath.Join(t.TempDir(), "reviewgen.yaml")
	// data_file points at a missing file; the flag must win
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_dir: "+dir+"\ndata_file: nope.json\n"), 0644))

	_, err := run(t, "generate", "now", "--config", cfgPath)
	require.Error(t, err)

	out, err := run(t, "generate", "now", "--config", cfgPath, "--data-file", "reviews.json")
	require.NoError(t, err)
	assert.Equal(t, "now\n", out)
}

func TestWriteReport(t *testing.T) {
	b := markov.NewBuilder()
	b.AddLine([]string{"great", "x", "great", "y", "fine", "z"})
	var buf bytes.Buffer
	writeReport(&buf, b.Corpus(), ingest.TrainStats{Lines: 1, Tokens: 6, Accepted: 3}, 1)

	out := buf.String()
	assert.Contains(t, out, "Tokens:   6 (3 primary)")
	assert.Regexp(t, `Most frequent:\n  great\s+\d+\n$`, out)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, markov.Result{Seed: "prodct", Suggestions: []string{"product"}})
	printResult(&buf, markov.Result{Seed: "good", Found: true, Text: "good value"})
	assert.Equal(t, "prodct: Word not found (did you mean: product)\ngood value\n", buf.String())
}
