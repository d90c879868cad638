// Package btreedb implements a disk-backed B-tree keyed-record store: a
// single file holding a fixed-size header followed by fixed-size node
// pages, supporting point lookup, prefix search, ordered sequential
// iteration, insert and delete with the classical CLRS rebalancing
// cases.
//
// Grounded on original_source/cplusplus/BTreeDB.{h,cpp}; see
// SPEC_FULL.md and DESIGN.md for the full mapping from that C++ source
// to this package.
package btreedb

import (
	"encoding/binary"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/btree-query-bench/btreedb/internal/metrics"
	"github.com/btree-query-bench/btreedb/pager"
)

// headerSize is the fixed on-disk width of the file header: rootPos
// (int64), recSize, keySize, minDegree (uint32 each), all little-endian.
// The C++ source dumps a native struct SFileHeader (size_t/long, host
// width and endianness) verbatim; a fixed-width encoding is the one
// deliberate, documented departure — see SPEC_FULL.md §9 Open Question 6.
const headerSize = 8 + 4 + 4 + 4

// DB is a single open database file. It is not safe for concurrent use:
// every exported method assumes exclusive access to the receiver for its
// duration, matching the C++ source's single-threaded assumption (no
// mutex is taken — see SPEC_FULL.md §5).
type DB struct {
	fileName  string
	pgr       *pager.Pager
	cache     *cache
	recSize   int
	keySize   int
	minDegree int
	pageSize  int
	root      pager.Offset
	cmp       Comparator
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

// Direction selects the iteration order for Seq.
type Direction int

const (
	Forward  Direction = iota // replaces ESD_FORWARD
	Backward                  // replaces ESD_BACKWARD
)

// TraverseFunc is called once per record visited by Traverse, in-order.
// Returning false stops traversal — see SPEC_FULL.md §9 Open Question 2
// for the exact (and reproduced) scope of that stop.
type TraverseFunc func(rec Record, ref any, depth int) bool

// Open opens fileName, creating it if absent. When creating, recSize,
// keySize and minDegree must all be positive (ErrBadParams otherwise),
// mirroring BTreeDB.cpp's open(): "we must have the rec size, key size
// and min degree if we are creating." When fileName already exists, the
// values stored in its header silently override whatever is passed here
// — reproduced from the same function, not a Go-specific choice.
func Open(fileName string, recSize, keySize, minDegree int, opts ...Option) (*DB, error) {
	existed, err := fileHasHeader(fileName)
	if err != nil {
		return nil, err
	}

	if !existed && (recSize <= 0 || keySize <= 0 || minDegree <= 0) {
		return nil, ErrBadParams
	}

	db := &DB{
		fileName: fileName,
		cmp:      DefaultComparator,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(db)
	}

	if existed {
		hdr, err := readHeaderFile(fileName)
		if err != nil {
			return nil, err
		}
		if recSize != int(hdr.recSize) || keySize != int(hdr.keySize) || minDegree != int(hdr.minDegree) {
			db.logger.Info("btreedb: stored header overrides requested sizes",
				"file", fileName,
				"storedRecSize", hdr.recSize, "storedKeySize", hdr.keySize, "storedMinDegree", hdr.minDegree)
		}
		recSize, keySize, minDegree = int(hdr.recSize), int(hdr.keySize), int(hdr.minDegree)
		db.root = pager.Offset(hdr.rootPos)
	}

	db.recSize = recSize
	db.keySize = keySize
	db.minDegree = minDegree
	db.pageSize = pageSize(minDegree, recSize)

	pgr, err := pager.Open(fileName, db.pageSize, db.metrics)
	if err != nil {
		return nil, err
	}
	db.pgr = pgr
	db.cache = newCache(db.metrics)

	if !existed {
		if err := db.initEmpty(); err != nil {
			pgr.Close()
			return nil, err
		}
	}

	return db, nil
}

// initEmpty writes the header and allocates a single empty leaf root,
// for a freshly created file. The header is written first, before any
// node is allocated, so the root (and every later page) lands at an
// offset at or past headerSize rather than colliding with it — mirrors
// BTreeDB.cpp's open() create path, which fwrites the header before its
// first call to _allocateNode, leaving _filelength(fh) already at
// sizeof(sfh) by the time the root page is carved out.
func (db *DB) initEmpty() error {
	db.logger.Info("btreedb: creating new database file",
		"file", db.fileName, "recSize", db.recSize, "keySize", db.keySize, "minDegree", db.minDegree)
	if err := db.writeHeader(); err != nil {
		return err
	}
	root, err := db.allocateNode()
	if err != nil {
		return err
	}
	db.cache.adopt(root)
	root.setCount(0)
	root.isLeaf = true
	if err := db.writeNode(root); err != nil {
		return err
	}
	db.root = root.fpos
	return db.writeHeader()
}

func (db *DB) writeHeader() error {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(db.root))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(db.recSize))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(db.keySize))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(db.minDegree))
	return db.pgr.WriteAt(0, buf)
}

type fileHeader struct {
	rootPos   int64
	recSize   uint32
	keySize   uint32
	minDegree uint32
}

func decodeHeader(buf []byte) fileHeader {
	return fileHeader{
		rootPos:   int64(binary.LittleEndian.Uint64(buf[0:8])),
		recSize:   binary.LittleEndian.Uint32(buf[8:12]),
		keySize:   binary.LittleEndian.Uint32(buf[12:16]),
		minDegree: binary.LittleEndian.Uint32(buf[16:20]),
	}
}

// fileHasHeader reports whether path exists and is non-empty (has a
// header already written). A missing file is not an error here; an
// unreadable one is.
func fileHasHeader(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "btreedb: stat %q", path)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return false, errors.Wrapf(err, "btreedb: stat %q", path)
	}
	return info.Size() >= headerSize, nil
}

func readHeaderFile(path string) (fileHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileHeader{}, errors.Wrapf(err, "btreedb: open %q", path)
	}
	defer f.Close()
	buf := make([]byte, headerSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return fileHeader{}, errors.Wrapf(err, "btreedb: read header of %q", path)
	}
	return decodeHeader(buf), nil
}

// Close releases the underlying file handle without flushing the node
// cache. Callers that want in-memory writes durable on disk should call
// Flush (or rely on the fact that every mutation already writes through
// to the pager) before Close.
func (db *DB) Close() error {
	return db.pgr.Close()
}

// Put inserts rec, which must be exactly RecSize() bytes long
// (ErrRecordSize otherwise). If a record already compares equal to rec
// under the database's comparator, it is overwritten in place rather
// than duplicated — duplicate keys are a Non-goal (spec.md §1) and
// BTreeDB.cpp's put() overwrites rather than inserting a second copy.
func (db *DB) Put(rec Record) error {
	if rec.Len() != db.recSize {
		return ErrRecordSize
	}

	root, err := db.cache.get(db, db.root)
	if err != nil {
		return err
	}
	loc, err := db.search(root, rec, db.cmp)
	if err != nil {
		return err
	}
	if !loc.IsZero() {
		n, err := db.cache.get(db, loc.off)
		if err != nil {
			return err
		}
		n.objects[loc.slot] = rec
		return db.writeNode(n)
	}
	return db.insert(rec)
}

// Get returns the record matching key under the database's configured
// comparator. ok is false, err is nil when no record matches.
func (db *DB) Get(key Record) (Record, bool, error) {
	root, err := db.cache.get(db, db.root)
	if err != nil {
		return Record{}, false, err
	}
	loc, err := db.search(root, key, db.cmp)
	if err != nil {
		return Record{}, false, err
	}
	return db.GetAt(loc)
}

// GetAt returns the record at loc. It is false, nil when loc is zero or
// the slot it names is no longer populated — see Location's doc comment
// for what can invalidate a previously captured Location.
func (db *DB) GetAt(loc Location) (Record, bool, error) {
	if loc.IsZero() {
		return Record{}, false, nil
	}
	n, err := db.cache.get(db, loc.off)
	if err != nil {
		return Record{}, false, err
	}
	if loc.slot < 0 || loc.slot >= n.objCount {
		return Record{}, false, nil
	}
	return n.objects[loc.slot], true, nil
}

// Del removes the record matching key, if any, rebalancing the tree per
// the CLRS cases. ok is false when the tree is empty or no record
// matches key.
func (db *DB) Del(key Record) (bool, error) {
	root, err := db.cache.get(db, db.root)
	if err != nil {
		return false, err
	}
	if root.objCount == 0 {
		return false, nil
	}
	ok, err := db.delete(root, key)
	if err != nil {
		return false, err
	}

	// The descent can merge the root's last two children even when key
	// turns out to be absent, so the collapse check runs either way.
	if !root.isLeaf && root.objCount == 0 {
		// Root collapse: promote the sole remaining child and leak the
		// vacated root page, matching BTreeDB.cpp's del() — see
		// SPEC_FULL.md §9 Open Question 4.
		newRootOff := root.children[0]
		newRoot, err := db.cache.get(db, newRootOff)
		if err != nil {
			return false, err
		}
		newRoot.parent = pager.InvalidOffset
		newRoot.childNo = -1
		db.root = newRootOff
		if err := db.writeHeader(); err != nil {
			return false, err
		}
	}
	return ok, nil
}

// Search returns the Location of the record matching key under cmp,
// rather than the record itself — useful when the caller wants the
// position for a subsequent Seq.
func (db *DB) Search(key Record, cmp Comparator) (Location, bool, error) {
	root, err := db.cache.get(db, db.root)
	if err != nil {
		return Location{}, false, err
	}
	loc, err := db.search(root, key, cmp)
	if err != nil {
		return Location{}, false, err
	}
	return loc, !loc.IsZero(), nil
}

// FindAll returns every record whose leading bytes equal prefix, in tree
// order. Grounded on BTreeDB.cpp's findAll/_searchCallback: implemented
// as a Traverse caller, not a separate tree walk.
func (db *DB) FindAll(prefix Record) ([]Record, error) {
	var out []Record
	err := db.Traverse(nil, func(rec Record, _ any, _ int) bool {
		if hasPrefix(rec, prefix) {
			out = append(out, rec)
		}
		return true
	})
	return out, err
}

// Traverse visits every record in key order, depth-first, calling cb
// with ref passed through unchanged and depth counting from 0 at the
// root. Grounded on BTreeDB.cpp's _traverse; reproduces its short-circuit
// scope exactly — see SPEC_FULL.md §9 Open Question 2.
func (db *DB) Traverse(ref any, cb TraverseFunc) error {
	root, err := db.cache.get(db, db.root)
	if err != nil {
		return err
	}
	_, err = db.traverse(root, 0, ref, cb)
	return err
}

// Flush writes every loaded node back to disk. Grounded on BTreeDB.cpp's
// flush(), including its (dead, but reproduced) `for` loop gated on
// `_root->isLeaf` — see SPEC_FULL.md §9 Open Question 5: on a non-trivial
// (non-leaf-root) tree, this unloads nothing below the root; it still
// writes every currently loaded node back to disk first.
func (db *DB) Flush() error {
	start := time.Now()
	if err := db.flushNode(db.root); err != nil {
		return err
	}
	if err := db.pgr.Sync(); err != nil {
		return err
	}
	root, err := db.cache.get(db, db.root)
	if err != nil {
		return err
	}
	if root.isLeaf {
		for ctr := 0; ctr < root.objCount; ctr++ {
			db.cache.unload(root.children[ctr])
		}
	}
	db.metrics.ObserveFlush(time.Since(start))
	return nil
}

func (db *DB) flushNode(off pager.Offset) error {
	n, err := db.cache.get(db, off)
	if err != nil {
		return err
	}
	if err := db.writeNode(n); err != nil {
		return err
	}
	if !n.isLeaf {
		for _, childOff := range n.children[:n.objCount+1] {
			if childOff == pager.InvalidOffset {
				continue
			}
			if err := db.flushNode(childOff); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecSize returns the fixed record size this database was created with.
func (db *DB) RecSize() int { return db.recSize }

// KeySize returns the key-prefix length within each record.
func (db *DB) KeySize() int { return db.keySize }

// MinDegree returns the B-tree minimum degree t.
func (db *DB) MinDegree() int { return db.minDegree }

// FileName returns the path this database was opened from.
func (db *DB) FileName() string { return db.fileName }
