package pager

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPager_AllocateReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.db")
	p, err := Open(path, 16, nil)
	require.NoError(t, err)
	defer p.Close()

	off, err := p.Allocate()
	require.NoError(t, err)
	require.Equal(t, Offset(0), off)

	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = byte(i)
	}
	require.NoError(t, p.WriteAt(off, buf))

	read := make([]byte, 16)
	require.NoError(t, p.ReadAt(off, read))
	require.Equal(t, buf, read)
}

func TestPager_AllocateAppendsSequentialPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.db")
	p, err := Open(path, 8, nil)
	require.NoError(t, err)
	defer p.Close()

	first, err := p.Allocate()
	require.NoError(t, err)
	second, err := p.Allocate()
	require.NoError(t, err)

	require.Equal(t, Offset(8), second-first)
}

func TestPager_ReopenPreservesSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.db")
	p, err := Open(path, 8, nil)
	require.NoError(t, err)
	_, err = p.Allocate()
	require.NoError(t, err)
	_, err = p.Allocate()
	require.NoError(t, err)
	require.NoError(t, p.Close())

	reopened, err := Open(path, 8, nil)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, int64(16), reopened.Size())
}
