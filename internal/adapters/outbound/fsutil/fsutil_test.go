package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/fsutil"
)

type doc struct {
	Name string `json:"name"`
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "a.json")
	require.NoError(t, fsutil.WriteJSON(path, doc{Name: "one"}))
	require.NoError(t, fsutil.WriteJSON(path, doc{Name: "two"}))

	var got doc
	found, err := fsutil.ReadJSON(path, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", got.Name)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestReadJSON_Missing(t *testing.T) {
	var got doc
	found, err := fsutil.ReadJSON(filepath.Join(t.TempDir(), "nope.json"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReadJSON_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var got doc
	_, err := fsutil.ReadJSON(path, &got)
	assert.Error(t, err)
}

func TestListJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, fsutil.WriteJSON(filepath.Join(dir, "b.json"), doc{}))
	require.NoError(t, fsutil.WriteJSON(filepath.Join(dir, "a.json"), doc{}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	names, err := fsutil.ListJSON(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)

	names, err = fsutil.ListJSON(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	require.NoError(t, fsutil.RemoveIfExists(path))
	require.NoError(t, fsutil.RemoveIfExists(path))
}
