package ledger

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndGet(t *testing.T) {
	l := New()
	require.NoError(t, l.Put("/tmp/a.csv", ",", PolicyQuoted))

	e, ok := l.Get("/tmp/a.csv")
	require.True(t, ok)
	assert.Equal(t, ",", e.Delim)
	assert.Equal(t, PolicyQuoted, e.Policy)
}

func TestPutRejectsUnknownPolicy(t *testing.T) {
	l := New()
	err := l.Put("/tmp/a.csv", ",", "bogus")
	assert.Error(t, err)
}

func TestPutOverwriteIsLastWriteWins(t *testing.T) {
	l := New()
	require.NoError(t, l.Put("/tmp/a.csv", ",", PolicySimple))
	require.NoError(t, l.Put("/tmp/a.csv", "\t", PolicyQuotedRFC))

	e, ok := l.Get("/tmp/a.csv")
	require.True(t, ok)
	assert.Equal(t, "\t", e.Delim)
	assert.Equal(t, PolicyQuotedRFC, e.Policy)
	assert.Equal(t, 1, l.Len())
}

func TestOverflowDropsOldest(t *testing.T) {
	l := New()
	for i := 0; i < MaxEntries+5; i++ {
		require.NoError(t, l.Put("/tmp/"+strconv.Itoa(i)+".csv", ",", PolicySimple))
	}
	assert.Equal(t, MaxEntries, l.Len())

	_, ok := l.Get("/tmp/0.csv")
	assert.False(t, ok, "oldest entries should have been evicted")
	_, ok = l.Get("/tmp/4.csv")
	assert.False(t, ok)

	_, ok = l.Get("/tmp/104.csv")
	assert.True(t, ok, "newest entry should survive")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	l := New()
	require.NoError(t, l.Put("/tmp/a.csv", ",", PolicySimple))
	require.NoError(t, l.Put("/tmp/b.tsv", "\t", PolicyQuotedRFC))
	require.NoError(t, l.Put("/tmp/c.csv", ";", PolicyDisabled))

	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.tsv")
	require.NoError(t, l.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())

	e, ok := loaded.Get("/tmp/b.tsv")
	require.True(t, ok)
	assert.Equal(t, "\t", e.Delim)
	assert.Equal(t, PolicyQuotedRFC, e.Policy)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "does-not-exist.tsv"))
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.tsv")
	require.NoError(t, os.WriteFile(path, []byte("only\ttwo\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPathsReturnsInsertionOrder(t *testing.T) {
	l := New()
	require.NoError(t, l.Put("/tmp/a.csv", ",", PolicySimple))
	require.NoError(t, l.Put("/tmp/b.csv", ",", PolicySimple))
	require.NoError(t, l.Put("/tmp/a.csv", ";", PolicyQuoted))

	assert.Equal(t, []string{"/tmp/a.csv", "/tmp/b.csv"}, l.Paths())
}

func TestForgetRemovesEntry(t *testing.T) {
	l := New()
	require.NoError(t, l.Put("/tmp/a.csv", ",", PolicySimple))
	require.NoError(t, l.Put("/tmp/b.csv", ",", PolicySimple))

	l.Forget("/tmp/a.csv")
	_, ok := l.Get("/tmp/a.csv")
	assert.False(t, ok)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, []string{"/tmp/b.csv"}, l.Paths())

	l.Forget("/tmp/does-not-exist.csv")
	assert.Equal(t, 1, l.Len())
}

func TestWriteToEncodesHexDelimiter(t *testing.T) {
	l := New()
	require.NoError(t, l.Put("/tmp/a.csv", ",", PolicySimple))

	var buf bytes.Buffer
	require.NoError(t, l.WriteTo(&buf))
	assert.Equal(t, "/tmp/a.csv\t2c\tsimple\t\n", buf.String())
}
