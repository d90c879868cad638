package btreedb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeq_Backward(t *testing.T) {
	db, err := Open(tmpPath(t), 4, 4, 2)
	require.NoError(t, err)
	defer db.Close()

	for v := uint32(1); v <= 10; v++ {
		require.NoError(t, db.Put(uintRec(v)))
	}

	var loc Location
	var got []uint32
	for {
		var rec Record
		var ok bool
		loc, rec, ok, err = db.Seq(loc, Backward)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, uintOf(rec))
	}

	require.Equal(t, []uint32{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, got)
}

func TestSeq_EmptyTree(t *testing.T) {
	db, err := Open(tmpPath(t), 4, 4, 2)
	require.NoError(t, err)
	defer db.Close()

	_, _, ok, err := db.Seq(Location{}, Forward)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTraverse_ShortCircuitIsLocalToItsNode(t *testing.T) {
	// With t=2 and ten ascending keys the root has multiple children;
	// stopping after the second record overall must still only abort the
	// node currently being walked, per SPEC_FULL.md §9 Open Question 2 —
	// it must not visit every record (proving it stopped at all), while
	// callers above the aborting frame keep iterating their own siblings
	// rather than the whole traversal unwinding immediately.
	db, err := Open(tmpPath(t), 4, 4, 2)
	require.NoError(t, err)
	defer db.Close()

	for v := uint32(1); v <= 10; v++ {
		require.NoError(t, db.Put(uintRec(v)))
	}

	seen := 0
	err = db.Traverse(nil, func(rec Record, _ any, _ int) bool {
		seen++
		return seen < 2
	})
	require.NoError(t, err)
	require.Less(t, seen, 10, "traversal must have stopped before visiting every record")
	// The tree is root [4] over [2] ([1],[3]) and [6,8] ([5],[7],[9,10]):
	// the stop at 2 skips [3], but the root still visits its own record 4.
	require.Equal(t, 3, seen, "the root must keep iterating after its child's subtree stops")
}
