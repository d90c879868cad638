package btreedb

import (
	"github.com/cockroachdb/errors"

	"github.com/btree-query-bench/btreedb/internal/metrics"
	"github.com/btree-query-bench/btreedb/pager"
)

// cache is an offset-keyed store of decoded node images: the "node cache /
// ownership layer" of spec.md §2. It generalizes the teacher's
// dbms/pager.lruCache from raw byte pages to *node values, and stands in
// for the C++ source's RefCount/Ptr<TreeNode> ownership graph — see
// SPEC_FULL.md §5 for why Go's garbage collector makes manual refcounting
// unnecessary here.
type cache struct {
	nodes map[pager.Offset]*node
	rec   *metrics.Recorder
}

func newCache(rec *metrics.Recorder) *cache {
	return &cache{nodes: make(map[pager.Offset]*node), rec: rec}
}

// get returns the node at off, from the cache if present and loaded,
// otherwise by reading it from disk and caching the result.
func (c *cache) get(db *DB, off pager.Offset) (*node, error) {
	if off == pager.InvalidOffset {
		return nil, errors.AssertionFailedf("btreedb: attempted to load an absent child slot")
	}
	if n, ok := c.nodes[off]; ok && n.loaded {
		c.rec.CacheHit()
		return n, nil
	}
	c.rec.CacheMiss()
	n, err := db.readNode(off)
	if err != nil {
		return nil, err
	}
	c.nodes[off] = n
	return n, nil
}

// adopt registers a freshly allocated or otherwise already-decoded node
// under its own offset, without going to disk.
func (c *cache) adopt(n *node) {
	c.nodes[n.fpos] = n
}

// unload drops off's cache entry and, recursively, every currently loaded
// child's — mirroring TreeNode::unload's recursive descent. It is safe to
// call on an offset with no cache entry (already unloaded, or never
// loaded).
func (c *cache) unload(off pager.Offset) {
	n, ok := c.nodes[off]
	if !ok || !n.loaded {
		return
	}
	if !n.isLeaf {
		for _, childOff := range n.children {
			if childOff != pager.InvalidOffset {
				c.unload(childOff)
			}
		}
	}
	n.objects = nil
	n.children = nil
	n.parent = pager.InvalidOffset
	n.loaded = false
	delete(c.nodes, off)
}
