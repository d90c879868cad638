package btreedb

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/btree-query-bench/btreedb/pager"
)

// position describes where a key was found relative to a node, mirroring
// original_source/cplusplus/TreeNode.h's EChildPos.
type position int

const (
	posNone position = iota // not found in this subtree (leaf, no match)
	posThis                 // exact match at the returned index
	posLeft                 // in the child to the left of the returned index
	posRight                // past every record; in the rightmost child
)

// node is the in-memory image of one disk page. It is addressed by its
// own file offset (fpos) rather than by pointer identity: parent and
// child links are offsets, resolved through (*DB).cache on demand. This
// is the arena/index ownership strategy from spec.md §9 strategy (b),
// replacing the C++ source's reference-counted TreeNode/Ptr<TreeNode>
// cycle.
//
// Grounded on original_source/cplusplus/TreeNode.h/.cpp.
type node struct {
	fpos     pager.Offset
	isLeaf   bool
	objCount int
	loaded   bool
	childNo  int // index this node occupies in its parent's children array
	parent   pager.Offset
	objects  []Record
	children []pager.Offset // length objCount+1 when !isLeaf and objCount>0
}

func newUnloadedNode(fpos pager.Offset) *node {
	return &node{fpos: fpos, parent: pager.InvalidOffset, childNo: -1}
}

// pageSize computes the fixed on-disk size of a node page for the given
// minimum degree and record size, per spec.md §3 invariant 6:
//
//	leafFlag(1) + objCount(4) + (2t-1)*recSize + 2t*offset(8)
func pageSize(minDegree, recSize int) int {
	return 1 + 4 + (2*minDegree-1)*recSize + 2*minDegree*8
}

// readNode loads the page at off from disk into a freshly decoded node.
func (db *DB) readNode(off pager.Offset) (*node, error) {
	buf := make([]byte, db.pageSize)
	if err := db.pgr.ReadAt(off, buf); err != nil {
		return nil, errors.Wrapf(err, "btreedb: read node at %d", off)
	}

	n := newUnloadedNode(off)
	n.isLeaf = buf[0] == 1
	n.objCount = int(binary.LittleEndian.Uint32(buf[1:5]))

	recStart := 5
	n.objects = make([]Record, n.objCount)
	for i := 0; i < n.objCount; i++ {
		start := recStart + i*db.recSize
		n.objects[i] = NewRecord(buf[start : start+db.recSize])
	}

	if n.objCount > 0 {
		n.children = make([]pager.Offset, n.objCount+1)
		if n.isLeaf {
			// A leaf's children slot is unused (never written, see
			// writeNode) but is still sized to objCount+1, mirroring
			// TreeNode::setCount, which resizes children regardless of
			// isLeaf. Every entry is the sentinel rather than whatever
			// garbage bytes occupy that region of the page.
			for i := range n.children {
				n.children[i] = pager.InvalidOffset
			}
		} else {
			childStart := recStart + (2*db.minDegree-1)*db.recSize
			for i := 0; i <= n.objCount; i++ {
				off := int64(binary.LittleEndian.Uint64(buf[childStart+i*8 : childStart+i*8+8]))
				n.children[i] = pager.Offset(off)
			}
		}
	}

	n.loaded = true
	return n, nil
}

// writeNode serializes n to its assigned offset. Per spec.md §4.2, write
// on a node that isn't loaded is a no-op success — that can't happen
// through the public DB API (every node handed out by the cache is
// loaded), so it's asserted here instead of silently accepted.
func (db *DB) writeNode(n *node) error {
	if !n.loaded {
		return errors.AssertionFailedf("btreedb: write of unloaded node at %d", n.fpos)
	}

	buf := make([]byte, db.pageSize)
	if n.isLeaf {
		buf[0] = 1
	}
	binary.LittleEndian.PutUint32(buf[1:5], uint32(n.objCount))

	recStart := 5
	for i := 0; i < n.objCount; i++ {
		start := recStart + i*db.recSize
		copy(buf[start:start+db.recSize], n.objects[i].Bytes())
	}

	if n.objCount > 0 && !n.isLeaf {
		childStart := recStart + (2*db.minDegree-1)*db.recSize
		for i := 0; i <= n.objCount; i++ {
			v := int64(pager.InvalidOffset)
			if i < len(n.children) {
				v = int64(n.children[i])
			}
			binary.LittleEndian.PutUint64(buf[childStart+i*8:childStart+i*8+8], uint64(v))
		}
	}

	if err := db.pgr.WriteAt(n.fpos, buf); err != nil {
		return errors.Wrapf(err, "btreedb: write node at %d", n.fpos)
	}
	return nil
}

// allocateNode appends a blank page at end-of-file and returns a fresh,
// loaded (empty) node at that offset. Grounded on BTreeDB.cpp's
// _allocateNode.
func (db *DB) allocateNode() (*node, error) {
	off, err := db.pgr.Allocate()
	if err != nil {
		return nil, err
	}
	n := newUnloadedNode(off)
	n.isLeaf = true
	n.loaded = true
	return n, nil
}

// loadChild returns the child at index i, resolving it through the node
// cache: a placeholder is created on first reference, the page is read
// from disk on first load, and the child's parent/childNo links are
// refreshed unconditionally. Grounded on TreeNode::loadChild.
func (db *DB) loadChild(n *node, i int) (*node, error) {
	childOff := n.children[i]
	child, err := db.cache.get(db, childOff)
	if err != nil {
		return nil, err
	}
	child.parent = n.fpos
	child.childNo = i
	return child, nil
}

// findPos walks n's sorted records for key under cmp, returning the same
// four-way classification as TreeNode::findPos: an exact match in this
// node, a position in the child to the left of the first greater record,
// the rightmost child when the key exceeds everything stored here, or
// "not found" on a leaf with no match. Ties resolve at the first equal
// slot encountered scanning left to right.
func (n *node) findPos(key Record, cmp Comparator) (int, position) {
	for i := 0; i < n.objCount; i++ {
		c := cmp(key, n.objects[i])
		if c == 0 {
			return i, posThis
		}
		if c < 0 {
			if n.isLeaf {
				return -1, posNone
			}
			return i, posLeft
		}
	}
	if !n.isLeaf {
		return n.objCount - 1, posRight
	}
	return -1, posNone
}

// setCount resizes objects to n and children to n+1, the only sanctioned
// way to change a node's logical size (TreeNode::setCount).
func (n *node) setCount(newCount int) {
	n.objCount = newCount
	if len(n.objects) < newCount {
		grown := make([]Record, newCount)
		copy(grown, n.objects)
		n.objects = grown
	} else {
		n.objects = n.objects[:newCount]
	}
	want := newCount + 1
	if len(n.children) < want {
		grown := make([]pager.Offset, want)
		copy(grown, n.children)
		for i := len(n.children); i < want; i++ {
			grown[i] = pager.InvalidOffset
		}
		n.children = grown
	} else {
		n.children = n.children[:want]
	}
}

// delFromLeaf removes the record at index i from a leaf node, shifting
// later records left by one (TreeNode::delFromLeaf).
func (n *node) delFromLeaf(i int) bool {
	if !n.isLeaf {
		return false
	}
	for c := i + 1; c < n.objCount; c++ {
		n.objects[c-1] = n.objects[c]
	}
	n.setCount(n.objCount - 1)
	return true
}
