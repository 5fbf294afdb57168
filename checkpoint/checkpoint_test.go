package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "scraper_checkpoint.json"))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save([]string{"toxic positivity", "hustle culture"}, "grindset", 23, "user@example.com"))

	completed, current, collected := store.Load()
	assert.Equal(t, []string{"toxic positivity", "hustle culture"}, completed)
	assert.Equal(t, "grindset", current)
	assert.Equal(t, 23, collected)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := newTestStore(t)

	completed, current, collected := store.Load()
	assert.Empty(t, completed)
	assert.NotNil(t, completed)
	assert.Equal(t, "", current)
	assert.Equal(t, 0, collected)
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper_checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	completed, current, collected := NewStore(path).Load()
	assert.Empty(t, completed)
	assert.Equal(t, "", current)
	assert.Equal(t, 0, collected)
}

func TestSaveOverwritesPrevious(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save([]string{}, "first", 5, "user@example.com"))
	require.NoError(t, store.Save([]string{"first"}, "", 0, "user@example.com"))

	completed, current, collected := store.Load()
	assert.Equal(t, []string{"first"}, completed)
	assert.Equal(t, "", current)
	assert.Equal(t, 0, collected)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "scraper_checkpoint.json"))

	require.NoError(t, store.Save(nil, "q", 1, "u"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scraper_checkpoint.json", entries[0].Name())
}

func TestExistsAndClear(t *testing.T) {
	store := newTestStore(t)

	assert.False(t, store.Exists())
	require.NoError(t, store.Save(nil, "q", 0, "u"))
	assert.True(t, store.Exists())

	require.NoError(t, store.Clear())
	assert.False(t, store.Exists())

	// Clearing again is not an error.
	assert.NoError(t, store.Clear())
}
