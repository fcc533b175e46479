package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenReadClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	content := []byte("partitioned galaxy catalog segment")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	m, err := Open(path)
	require.NoError(t, err)

	require.Equal(t, int64(len(content)), m.Size())
	require.Equal(t, content, m.Data)

	buf := make([]byte, 6)
	n, err := m.ReadAt(buf, 12)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.Equal(t, "galaxy", string(buf))

	_, err = m.ReadAt(buf, m.Size())
	require.ErrorIs(t, err, io.EOF)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close()) // idempotent
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, int64(0), m.Size())
	require.NoError(t, m.Close())
}
