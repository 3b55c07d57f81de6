package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenWithParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c.txt")

	f, err := OpenWithParents(path, os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("content")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "content", string(b))
}

func TestMakeParentsExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, MakeParents(filepath.Join(dir, "file.txt")))
	require.NoError(t, MakeParents(filepath.Join(dir, "file.txt")))
}
