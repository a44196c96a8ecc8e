package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpen(t *testing.T) {
	t.Run("RegularFile", func(t *testing.T) {
		path := writeFile(t, []byte("hello mmap"))

		m, err := Open(path)
		require.NoError(t, err)
		defer m.Close()

		assert.Equal(t, 10, m.Size())
		assert.Equal(t, []byte("hello mmap"), m.Bytes())
	})

	t.Run("EmptyFile", func(t *testing.T) {
		path := writeFile(t, nil)

		m, err := Open(path)
		require.NoError(t, err)
		defer m.Close()

		assert.Equal(t, 0, m.Size())
		assert.Empty(t, m.Bytes())
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "nope"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestMapping_ReadAt(t *testing.T) {
	path := writeFile(t, []byte("0123456789"))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	buf := make([]byte, 4)
	n, err := m.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(buf))

	// Short read at the tail.
	n, err = m.ReadAt(buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, "89", string(buf[:n]))

	// Past the end.
	_, err = m.ReadAt(buf, 100)
	assert.ErrorIs(t, err, io.EOF)

	// Negative offset.
	_, err = m.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestMapping_Close(t *testing.T) {
	path := writeFile(t, []byte("payload"))

	m, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "close must be idempotent")

	assert.Nil(t, m.Bytes())

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)

	assert.ErrorIs(t, m.Advise(AccessSequential), ErrClosed)
}

func TestMapping_Advise(t *testing.T) {
	path := writeFile(t, []byte("advise me"))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.NoError(t, m.Advise(AccessSequential))
	assert.NoError(t, m.Advise(AccessRandom))
	assert.NoError(t, m.Advise(AccessDefault))
}
