package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/domain"
)

func TestAllocate_CreatesUniqueEmptyDirs(t *testing.T) {
	m := NewManager(t.TempDir())

	a, err := m.Allocate()
	require.NoError(t, err)
	b, err := m.Allocate()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	for _, dir := range []string{a, b} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}

func TestAllocate_CreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	dir, err := NewManager(root).Allocate()
	require.NoError(t, err)
	assert.Equal(t, root, filepath.Dir(dir))
}

func TestAllocate_UnwritableRoot(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewManager(filepath.Join(blocker, "sub")).Allocate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFilesystem)
}

func TestDiscard_RemovesTree(t *testing.T) {
	m := NewManager(t.TempDir())
	dir, err := m.Allocate()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "index.db"), []byte("data"), 0o644))

	require.NoError(t, m.Discard(dir))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestDiscard_MissingPathIsNoop(t *testing.T) {
	m := NewManager(t.TempDir())
	assert.NoError(t, m.Discard(filepath.Join(t.TempDir(), "gone")))
	assert.NoError(t, m.Discard(""))
}
