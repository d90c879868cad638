package btreedb

import (
	"github.com/btree-query-bench/btreedb/pager"
)

// Location identifies a single record by the file offset of the node
// that holds it and its slot within that node's sorted record array. It
// replaces original_source/cplusplus/TreeNode.h's NodeKeyLocn. The zero
// Location (the Go zero value, off 0) denotes "not found" / "no
// position": offset 0 is always the file header (see pager.Offset),
// never a node, so it is never returned as a real record location.
//
// See SPEC_FULL.md §6 for what remains valid across a Flush.
type Location struct {
	off  pager.Offset
	slot int
}

func invalidLocation() Location { return Location{} }

// IsZero reports whether loc denotes no record.
func (loc Location) IsZero() bool { return loc.off == 0 }

// search descends from node looking for key under cmp, returning the
// Location of an exact match. Grounded on BTreeDB.cpp's _search.
func (db *DB) search(n *node, key Record, cmp Comparator) (Location, error) {
	idx, pos := n.findPos(key, cmp)
	switch pos {
	case posThis:
		return Location{off: n.fpos, slot: idx}, nil
	case posLeft:
		child, err := db.loadChild(n, idx)
		if err != nil {
			return invalidLocation(), err
		}
		return db.search(child, key, cmp)
	case posRight:
		child, err := db.loadChild(n, idx+1)
		if err != nil {
			return invalidLocation(), err
		}
		return db.search(child, key, cmp)
	default:
		return invalidLocation(), nil
	}
}

// insert adds key to the tree, growing the root if it is full. Grounded
// on BTreeDB.cpp's _insert.
func (db *DB) insert(key Record) error {
	root, err := db.cache.get(db, db.root)
	if err != nil {
		return err
	}
	if root.objCount == 2*db.minDegree-1 {
		newRoot, err := db.allocateNode()
		if err != nil {
			return err
		}
		db.cache.adopt(newRoot)
		newRoot.setCount(0)
		newRoot.isLeaf = false
		newRoot.children[0] = root.fpos
		root.childNo = 0
		root.parent = newRoot.fpos

		if err := db.split(newRoot, 0, root); err != nil {
			return err
		}
		db.root = newRoot.fpos
		if err := db.writeHeader(); err != nil {
			return err
		}
		return db.insertNonFull(newRoot, key)
	}
	return db.insertNonFull(root, key)
}

// insertNonFull places key into the subtree rooted at a node known not
// to be full, splitting a full child before descending into it. Grounded
// on BTreeDB.cpp's _insertNonFull.
func (db *DB) insertNonFull(n *node, key Record) error {
	if n.isLeaf {
		n.setCount(n.objCount + 1)
		ctr := n.objCount - 1
		for ctr > 0 && db.cmp(key, n.objects[ctr-1]) < 0 {
			n.objects[ctr] = n.objects[ctr-1]
			ctr--
		}
		n.objects[ctr] = key
		return db.writeNode(n)
	}

	ctr := n.objCount
	for ctr > 0 {
		ctr--
		if db.cmp(key, n.objects[ctr]) >= 0 {
			ctr++
			break
		}
	}

	child, err := db.loadChild(n, ctr)
	if err != nil {
		return err
	}

	if child.objCount == 2*db.minDegree-1 {
		if err := db.split(n, ctr, child); err != nil {
			return err
		}
		if db.cmp(key, n.objects[ctr]) > 0 {
			ctr++
		}
		child, err = db.loadChild(n, ctr)
		if err != nil {
			return err
		}
	}
	return db.insertNonFull(child, key)
}

// split breaks a full child of parent (2t-1 records) into two nodes of
// t-1 records each, promoting the median into parent at childNum.
// Precondition: parent is not full, child == parent's child at childNum
// and has exactly 2t-1 records. Grounded on BTreeDB.cpp's _split.
func (db *DB) split(parent *node, childNum int, child *node) error {
	t := db.minDegree
	newChild, err := db.allocateNode()
	if err != nil {
		return err
	}
	db.cache.adopt(newChild)
	newChild.isLeaf = child.isLeaf
	newChild.setCount(t - 1)

	for i := 0; i < t-1; i++ {
		newChild.objects[i] = child.objects[t+i]
	}
	if !child.isLeaf {
		for i := 0; i < t; i++ {
			moverOff := child.children[t+i]
			newChild.children[i] = moverOff
			mover, err := db.cache.get(db, moverOff)
			if err != nil {
				return err
			}
			mover.childNo = i
			mover.parent = newChild.fpos
		}
	}
	median := child.objects[t-1]
	child.setCount(t - 1)

	parent.setCount(parent.objCount + 1)
	for i := parent.objCount - 1; i > childNum; i-- {
		parent.children[i+1] = parent.children[i]
	}
	for ctr := parent.objCount; ctr > childNum+1; ctr-- {
		siblingOff := parent.children[ctr]
		sibling, err := db.cache.get(db, siblingOff)
		if err != nil {
			return err
		}
		sibling.childNo = ctr
	}
	parent.children[childNum+1] = newChild.fpos
	newChild.childNo = childNum + 1
	newChild.parent = parent.fpos
	for i := parent.objCount - 1; i > childNum; i-- {
		parent.objects[i] = parent.objects[i-1]
	}
	parent.objects[childNum] = median

	db.metrics.Split()
	if err := db.writeNode(child); err != nil {
		return err
	}
	if err := db.writeNode(newChild); err != nil {
		return err
	}
	return db.writeNode(parent)
}

// merge combines parent's children at objNo and objNo+1, pulling the
// separator at parent.objects[objNo] down into the merged node, and
// returns the merged node. Precondition: both children have exactly t-1
// records. The disk page vacated by the second child is never reclaimed —
// spec.md §9 / SPEC_FULL.md §9 Open Question 4. Grounded on BTreeDB.cpp's
// _merge.
func (db *DB) merge(parent *node, objNo int) (*node, error) {
	t := db.minDegree
	c1Off := parent.children[objNo]
	c2Off := parent.children[objNo+1]
	c1, err := db.cache.get(db, c1Off)
	if err != nil {
		return nil, err
	}
	c2, err := db.cache.get(db, c2Off)
	if err != nil {
		return nil, err
	}

	c1.setCount(2*t - 1)
	for i := 0; i < t-1; i++ {
		c1.objects[t+i] = c2.objects[i]
	}
	if !c2.isLeaf {
		for i := 0; i < t; i++ {
			newPos := t + i
			c1.children[newPos] = c2.children[i]
			mover, err := db.cache.get(db, c2.children[i])
			if err != nil {
				return nil, err
			}
			mover.childNo = newPos
			mover.parent = c1.fpos
		}
	}
	c1.objects[t-1] = parent.objects[objNo]

	for ctr := objNo + 1; ctr < parent.objCount; ctr++ {
		parent.objects[ctr-1] = parent.objects[ctr]
		parent.children[ctr] = parent.children[ctr+1]
		sibling, err := db.cache.get(db, parent.children[ctr])
		if err != nil {
			return nil, err
		}
		sibling.childNo = ctr
	}
	parent.setCount(parent.objCount - 1)

	db.cache.unload(c2Off)
	db.metrics.Merge()
	if err := db.writeNode(c1); err != nil {
		return nil, err
	}
	if err := db.writeNode(parent); err != nil {
		return nil, err
	}
	return c1, nil
}

// delete removes key from the subtree rooted at node, applying the CLRS
// cases from spec.md §4.3. Grounded on BTreeDB.cpp's _delete.
func (db *DB) delete(n *node, key Record) (bool, error) {
	idx, pos := n.findPos(key, db.cmp)
	if pos == posNone {
		return false, nil
	}

	if pos == posThis {
		if n.isLeaf {
			return n.delFromLeaf(idx), db.writeNode(n)
		}
		return db.deleteInternal(n, idx)
	}

	// Case 3: key lies in a child, not in n itself.
	keyChildPos := idx
	if pos == posRight {
		keyChildPos = idx + 1
	}
	child, err := db.loadChild(n, keyChildPos)
	if err != nil {
		return false, err
	}
	if child.objCount >= db.minDegree {
		return db.delete(child, key)
	}
	return db.deleteCase3Underflow(n, keyChildPos, child, key)
}

// deleteInternal handles CLRS case 2: key found at n.objects[idx] in an
// internal node.
func (db *DB) deleteInternal(n *node, idx int) (bool, error) {
	leftOff := n.children[idx]
	rightOff := n.children[idx+1]
	left, err := db.cache.get(db, leftOff)
	if err != nil {
		return false, err
	}
	right, err := db.cache.get(db, rightOff)
	if err != nil {
		return false, err
	}

	switch {
	case left.objCount >= db.minDegree:
		// 2a: pull the predecessor up from the left child.
		loc, err := db.predecessorLocn(left)
		if err != nil {
			return false, err
		}
		predNode, err := db.cache.get(db, loc.off)
		if err != nil {
			return false, err
		}
		pred := predNode.objects[loc.slot]
		ok, err := db.delete(left, pred)
		if err != nil {
			return false, err
		}
		n.objects[idx] = pred
		return ok, db.writeNode(n)

	case right.objCount >= db.minDegree:
		// 2b: pull the successor down from the right child.
		loc, err := db.successorLocn(right)
		if err != nil {
			return false, err
		}
		succNode, err := db.cache.get(db, loc.off)
		if err != nil {
			return false, err
		}
		succ := succNode.objects[loc.slot]
		ok, err := db.delete(right, succ)
		if err != nil {
			return false, err
		}
		n.objects[idx] = succ
		return ok, db.writeNode(n)

	default:
		// 2c: both children are minimal — merge, then delete from the
		// merged node.
		key := n.objects[idx]
		merged, err := db.merge(n, idx)
		if err != nil {
			return false, err
		}
		return db.delete(merged, key)
	}
}

// deleteCase3Underflow ensures child (which has t-1 records) has at
// least t records before recursing into it, either by borrowing from a
// sibling or by merging.
func (db *DB) deleteCase3Underflow(n *node, keyChildPos int, child *node, key Record) (bool, error) {
	var leftSib, rightSib *node
	var err error
	if keyChildPos > 0 {
		leftSib, err = db.cache.get(db, n.children[keyChildPos-1])
		if err != nil {
			return false, err
		}
	}
	if keyChildPos < n.objCount {
		rightSib, err = db.cache.get(db, n.children[keyChildPos+1])
		if err != nil {
			return false, err
		}
	}

	switch {
	case leftSib != nil && leftSib.objCount >= db.minDegree:
		if err := db.borrowFromLeft(n, keyChildPos, child, leftSib); err != nil {
			return false, err
		}
	case rightSib != nil && rightSib.objCount >= db.minDegree:
		if err := db.borrowFromRight(n, keyChildPos, child, rightSib); err != nil {
			return false, err
		}
	default:
		objNo := keyChildPos
		if leftSib != nil {
			objNo = keyChildPos - 1
		}
		merged, err := db.merge(n, objNo)
		if err != nil {
			return false, err
		}
		return db.delete(merged, key)
	}
	return db.delete(child, key)
}

// borrowFromLeft implements CLRS case 3a (left variant): shift child's
// slots right by one, pull the separator from the parent into
// child.objects[0], and promote the left sibling's last record into the
// parent. Grounded on BTreeDB.cpp's _delete case 3a; per spec.md §9 Open
// Question 3, every shifted child's childNo is refreshed directly rather
// than reproducing the source's dead-store assignment.
func (db *DB) borrowFromLeft(n *node, keyChildPos int, child, leftSib *node) error {
	t := db.minDegree
	child.setCount(t)
	for ctr := t - 1; ctr > 0; ctr-- {
		child.objects[ctr] = child.objects[ctr-1]
		child.children[ctr+1] = child.children[ctr]
	}
	child.children[1] = child.children[0]

	child.objects[0] = n.objects[keyChildPos-1]
	n.objects[keyChildPos-1] = leftSib.objects[leftSib.objCount-1]

	if !leftSib.isLeaf {
		child.children[0] = leftSib.children[leftSib.objCount]
		leftSib.children = leftSib.children[:leftSib.objCount]
	}
	leftSib.objects = leftSib.objects[:leftSib.objCount-1]
	leftSib.objCount--

	if err := db.refreshChildNumbers(child); err != nil {
		return err
	}
	if err := db.writeNode(leftSib); err != nil {
		return err
	}
	if err := db.writeNode(n); err != nil {
		return err
	}
	return db.writeNode(child)
}

// borrowFromRight implements CLRS case 3a (right variant): append the
// separator to child, promote the right sibling's first record into the
// parent, and shift the sibling's remaining slots left by one. Grounded
// on BTreeDB.cpp's _delete case 3a (else branch).
func (db *DB) borrowFromRight(n *node, keyChildPos int, child, rightSib *node) error {
	child.setCount(child.objCount + 1)
	child.objects[child.objCount-1] = n.objects[keyChildPos]
	n.objects[keyChildPos] = rightSib.objects[0]

	if !rightSib.isLeaf {
		child.children[child.objCount] = rightSib.children[0]
	}

	for ctr := 0; ctr < rightSib.objCount-1; ctr++ {
		rightSib.objects[ctr] = rightSib.objects[ctr+1]
		if !rightSib.isLeaf {
			rightSib.children[ctr] = rightSib.children[ctr+1]
		}
	}
	if !rightSib.isLeaf {
		rightSib.children[rightSib.objCount-1] = rightSib.children[rightSib.objCount]
	}
	rightSib.setCount(rightSib.objCount - 1)

	if err := db.refreshChildNumbers(rightSib); err != nil {
		return err
	}
	if err := db.refreshChildNumbers(child); err != nil {
		return err
	}
	if err := db.writeNode(rightSib); err != nil {
		return err
	}
	if err := db.writeNode(n); err != nil {
		return err
	}
	return db.writeNode(child)
}

// refreshChildNumbers sets children[k].childNo = k and re-points their
// parent link for every loaded child of n, per spec.md §9 Open Question
// 3's prescribed fix.
func (db *DB) refreshChildNumbers(n *node) error {
	if n.isLeaf {
		return nil
	}
	for k, off := range n.children {
		if off == pager.InvalidOffset {
			continue
		}
		child, err := db.cache.get(db, off)
		if err != nil {
			return err
		}
		child.childNo = k
		child.parent = n.fpos
	}
	return nil
}

// predecessorLocn finds the rightmost record of the rightmost descendant
// leaf reachable from node — the predecessor of a key separating node
// from its right sibling. Grounded on BTreeDB.cpp's _findPred.
func (db *DB) predecessorLocn(n *node) (Location, error) {
	cur := n
	for !cur.isLeaf {
		child, err := db.loadChild(cur, cur.objCount)
		if err != nil {
			return invalidLocation(), err
		}
		cur = child
	}
	return Location{off: cur.fpos, slot: cur.objCount - 1}, nil
}

// successorLocn finds the leftmost record of the leftmost descendant
// leaf reachable from node. Grounded on BTreeDB.cpp's _findSucc.
func (db *DB) successorLocn(n *node) (Location, error) {
	cur := n
	for !cur.isLeaf {
		child, err := db.loadChild(cur, 0)
		if err != nil {
			return invalidLocation(), err
		}
		cur = child
	}
	return Location{off: cur.fpos, slot: 0}, nil
}
