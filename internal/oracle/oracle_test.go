package oracle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOracle_PutGetDelete(t *testing.T) {
	o, err := Open()
	require.NoError(t, err)
	defer o.Close()

	_, ok, err := o.Get([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, o.Put([]byte("k"), []byte("v")))
	val, ok, err := o.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), val)

	require.NoError(t, o.Delete([]byte("k")))
	_, ok, err = o.Get([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}
