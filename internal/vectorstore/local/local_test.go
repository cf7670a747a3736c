package local

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/domain"
)

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert(
		[]domain.Chunk{{ChunkID: "d:0", Source: "doc.pdf", Text: "alpha"}, {ChunkID: "d:1", Text: "beta"}},
		[][]float64{{1, 0}, {0, 1}},
	))
	require.NoError(t, s.Close())
	_, err = os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 2, reopened.Len())
	res, err := reopened.Search([]float64{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "beta", res[0].Chunk.Text)

	// dimension survives the reopen
	assert.Error(t, reopened.Upsert([]domain.Chunk{{ChunkID: "x"}}, [][]float64{{1, 2, 3}}))
}

func TestStorage_ClearEmptiesFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Upsert([]domain.Chunk{{ChunkID: "a"}}, [][]float64{{1}}))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Zero(t, reopened.Len())
}

func TestStorage_InitDropsVectors(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Upsert([]domain.Chunk{{ChunkID: "a"}}, [][]float64{{1}}))
	require.NoError(t, s.Init(3))
	assert.Zero(t, s.Len())
	require.NoError(t, s.Upsert([]domain.Chunk{{ChunkID: "b"}}, [][]float64{{1, 2, 3}}))
	assert.Equal(t, 1, s.Len())
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, domain.ErrFilesystem)
}
