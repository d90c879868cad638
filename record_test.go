package btreedb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecord_ConstructorsCopy(t *testing.T) {
	b := []byte{1, 2, 3}
	r := NewRecord(b)
	b[0] = 99
	require.Equal(t, byte(1), r.Bytes()[0], "Record must own a private copy")
}

func TestRecord_Clone(t *testing.T) {
	r := NewRecordString("hello")
	c := r.Clone()
	require.Equal(t, r.Bytes(), c.Bytes())

	c.Bytes()[0] = 'H'
	require.NotEqual(t, r.Bytes()[0], c.Bytes()[0])
}

func TestRecord_IsZero(t *testing.T) {
	require.True(t, Record{}.IsZero())
	require.False(t, NewRecordString("x").IsZero())
}

func TestDefaultComparator_NoLengthTiebreak(t *testing.T) {
	short := NewRecordString("ab")
	long := NewRecordString("abXYZ")
	require.Equal(t, 0, DefaultComparator(short, long),
		"records differing only past the shorter length compare equal, matching the original memcmp-over-min-length behavior")
}

func TestDefaultComparator_Orders(t *testing.T) {
	require.Less(t, DefaultComparator(NewRecordString("a"), NewRecordString("b")), 0)
	require.Greater(t, DefaultComparator(NewRecordString("b"), NewRecordString("a")), 0)
	require.Equal(t, 0, DefaultComparator(NewRecordString("same"), NewRecordString("same")))
}

func TestHasPrefix(t *testing.T) {
	require.True(t, hasPrefix(NewRecordString("apple"), NewRecordString("ap")))
	require.False(t, hasPrefix(NewRecordString("banana"), NewRecordString("ap")))
}
