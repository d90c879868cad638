package btreedb

import (
	"github.com/btree-query-bench/btreedb/pager"
)

// traverse visits n's subtree in key order, depth-first: left child,
// own record, left child, ..., own record, right child. It returns
// false when cb stopped this node's own loop; callers above ignore that
// value, so the stop never spreads upward. Grounded on BTreeDB.cpp's
// _traverse; reproduces its short-circuit scope exactly — per spec.md §9
// Open Question 2, a `false` from cb stops the current node's loop
// *and* skips that node's own trailing right-child recursion, but a
// parent frame above this call is never told and keeps iterating its
// own siblings.
func (db *DB) traverse(n *node, depth int, ref any, cb TraverseFunc) (bool, error) {
	shouldContinue := true
	for i := 0; i < n.objCount && shouldContinue; i++ {
		if !n.isLeaf {
			child, err := db.loadChild(n, i)
			if err != nil {
				return false, err
			}
			if _, err := db.traverse(child, depth+1, ref, cb); err != nil {
				return false, err
			}
		}
		shouldContinue = cb(n.objects[i], ref, depth)
	}
	if shouldContinue && !n.isLeaf {
		child, err := db.loadChild(n, n.objCount)
		if err != nil {
			return false, err
		}
		if _, err := db.traverse(child, depth+1, ref, cb); err != nil {
			return false, err
		}
	}
	return shouldContinue, nil
}

// Seq returns the next record after loc in the given direction, along
// with its own Location. On the first call, pass the zero Location to
// start from the very first (Forward) or very last (Backward) record.
// ok is false, err is nil at the end of the sequence in that direction.
//
// Grounded on BTreeDB.cpp's _seqNext/_seqPrev: a record's immediate
// successor/predecessor in key order is either the leftmost leaf
// reachable from the next child (if this node is internal) or, on a
// leaf, the next slot in the same node, walking up through parent links
// when the leaf is exhausted.
func (db *DB) Seq(loc Location, dir Direction) (Location, Record, bool, error) {
	if loc.IsZero() {
		return db.seqFirst(dir)
	}
	if dir == Forward {
		return db.seqNext(loc)
	}
	return db.seqPrev(loc)
}

func (db *DB) seqFirst(dir Direction) (Location, Record, bool, error) {
	root, err := db.cache.get(db, db.root)
	if err != nil {
		return Location{}, Record{}, false, err
	}
	if root.objCount == 0 {
		return Location{}, Record{}, false, nil
	}
	var loc Location
	if dir == Forward {
		loc, err = db.leftmostLocn(root)
	} else {
		loc, err = db.rightmostLocn(root)
	}
	if err != nil {
		return Location{}, Record{}, false, err
	}
	rec, _, err := db.GetAt(loc)
	return loc, rec, true, err
}

func (db *DB) leftmostLocn(n *node) (Location, error) {
	cur := n
	for !cur.isLeaf {
		child, err := db.loadChild(cur, 0)
		if err != nil {
			return Location{}, err
		}
		cur = child
	}
	return Location{off: cur.fpos, slot: 0}, nil
}

func (db *DB) rightmostLocn(n *node) (Location, error) {
	cur := n
	for !cur.isLeaf {
		child, err := db.loadChild(cur, cur.objCount)
		if err != nil {
			return Location{}, err
		}
		cur = child
	}
	return Location{off: cur.fpos, slot: cur.objCount - 1}, nil
}

// seqNext returns the record immediately after loc in key order.
func (db *DB) seqNext(loc Location) (Location, Record, bool, error) {
	n, err := db.cache.get(db, loc.off)
	if err != nil {
		return Location{}, Record{}, false, err
	}
	if loc.slot < 0 || loc.slot >= n.objCount {
		return Location{}, Record{}, false, nil
	}

	if !n.isLeaf {
		child, err := db.loadChild(n, loc.slot+1)
		if err != nil {
			return Location{}, Record{}, false, err
		}
		next, err := db.leftmostLocn(child)
		if err != nil {
			return Location{}, Record{}, false, err
		}
		rec, _, err := db.GetAt(next)
		return next, rec, true, err
	}

	if loc.slot+1 < n.objCount {
		next := Location{off: n.fpos, slot: loc.slot + 1}
		rec, _, err := db.GetAt(next)
		return next, rec, true, err
	}
	return db.seqUp(n, forwardWard)
}

// seqPrev returns the record immediately before loc in key order.
func (db *DB) seqPrev(loc Location) (Location, Record, bool, error) {
	n, err := db.cache.get(db, loc.off)
	if err != nil {
		return Location{}, Record{}, false, err
	}
	if loc.slot < 0 || loc.slot >= n.objCount {
		return Location{}, Record{}, false, nil
	}

	if !n.isLeaf {
		child, err := db.loadChild(n, loc.slot)
		if err != nil {
			return Location{}, Record{}, false, err
		}
		prev, err := db.rightmostLocn(child)
		if err != nil {
			return Location{}, Record{}, false, err
		}
		rec, _, err := db.GetAt(prev)
		return prev, rec, true, err
	}

	if loc.slot > 0 {
		prev := Location{off: n.fpos, slot: loc.slot - 1}
		rec, _, err := db.GetAt(prev)
		return prev, rec, true, err
	}
	return db.seqUp(n, backwardWard)
}

type seqDirection int

const (
	forwardWard seqDirection = iota
	backwardWard
)

// seqUp climbs from an exhausted leaf through parent links looking for
// the next (ward == forwardWard) or previous (backwardWard) separator
// key in an ancestor, mirroring _seqNext/_seqPrev's upward walk once a
// leaf's own slots are exhausted.
func (db *DB) seqUp(n *node, ward seqDirection) (Location, Record, bool, error) {
	cur := n
	for cur.parent != pager.InvalidOffset {
		parent, err := db.cache.get(db, cur.parent)
		if err != nil {
			return Location{}, Record{}, false, err
		}
		childNo := cur.childNo

		if ward == forwardWard {
			if childNo < parent.objCount {
				loc := Location{off: parent.fpos, slot: childNo}
				rec, _, err := db.GetAt(loc)
				return loc, rec, true, err
			}
		} else {
			if childNo > 0 {
				loc := Location{off: parent.fpos, slot: childNo - 1}
				rec, _, err := db.GetAt(loc)
				return loc, rec, true, err
			}
		}
		cur = parent
	}
	return Location{}, Record{}, false, nil
}
