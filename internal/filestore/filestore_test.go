package filestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := filestore.New(dir, ".pdf")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSave_WritesFile(t *testing.T) {
	dir := t.TempDir()
	fs, err := filestore.New(dir, ".pdf")
	require.NoError(t, err)

	path, err := fs.Save("abc123", []byte("%PDF-1.4 body"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc123.pdf"), path)
	assert.Equal(t, path, fs.Path("abc123"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(got))
}

func TestSave_WriteOnce(t *testing.T) {
	fs, err := filestore.New(t.TempDir(), ".pdf")
	require.NoError(t, err)

	first, err := fs.Save("abc123", []byte("first"))
	require.NoError(t, err)

	second, err := fs.Save("abc123", []byte("second"))
	assert.ErrorIs(t, err, filestore.ErrExists)
	assert.Equal(t, first, second)

	got, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
}

func TestSave_RejectsPathTraversal(t *testing.T) {
	fs, err := filestore.New(t.TempDir(), ".pdf")
	require.NoError(t, err)

	for _, fp := range []string{"", "../escape", "a/b"} {
		_, err := fs.Save(fp, []byte("x"))
		assert.Error(t, err, fp)
	}
}
