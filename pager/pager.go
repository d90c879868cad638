// Package pager manages raw positioned I/O against a single database
// file: seeking to an offset, reading or writing a fixed-size region, and
// appending new regions at end-of-file. It knows nothing about node
// layout, keys, or records — that belongs to the btreedb package, which
// decodes the bytes this package hands back.
//
// This generalizes the fixed-4KB-page Pager from the teacher corpus to a
// page size chosen by the caller at Open time (btreedb computes it from
// minDegree and recSize, per the on-disk page-size formula in the file
// format).
package pager

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/btree-query-bench/btreedb/internal/metrics"
)

// Offset identifies a byte position in the database file. Node pages are
// always found at an Offset returned by Allocate (the file's size at the
// time of the call); the file header occupies Offset 0 and is addressed
// directly.
type Offset int64

// InvalidOffset marks an absent child slot. It is never a valid page
// offset because the header always occupies at least one byte at 0.
const InvalidOffset Offset = -1

// Pager owns the underlying file handle and the page-size contract for
// node pages appended after the header.
type Pager struct {
	file     *os.File
	pageSize int
	size     int64
	rec      *metrics.Recorder
}

// Open opens (creating if absent) the file at path. pageSize is the fixed
// size of every node page subsequently allocated with Allocate; it has no
// bearing on reads/writes of the header region, which the caller addresses
// directly with ReadAt/WriteAt.
func Open(path string, pageSize int, rec *metrics.Recorder) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "pager: open %q", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "pager: stat %q", path)
	}
	return &Pager{file: f, pageSize: pageSize, size: info.Size(), rec: rec}, nil
}

// PageSize returns the fixed node-page size this Pager allocates.
func (p *Pager) PageSize() int { return p.pageSize }

// Size returns the current size of the underlying file.
func (p *Pager) Size() int64 { return p.size }

// Allocate appends a new, zero-filled page of PageSize bytes at
// end-of-file and returns its offset.
func (p *Pager) Allocate() (Offset, error) {
	off := p.size
	blank := make([]byte, p.pageSize)
	if _, err := p.file.WriteAt(blank, off); err != nil {
		return InvalidOffset, errors.Wrapf(err, "pager: allocate page at %d", off)
	}
	p.size += int64(p.pageSize)
	p.rec.PageWrite()
	return Offset(off), nil
}

// ReadAt fills buf from the file starting at off.
func (p *Pager) ReadAt(off Offset, buf []byte) error {
	_, err := p.file.ReadAt(buf, int64(off))
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "pager: read at %d", off)
	}
	p.rec.PageRead()
	return nil
}

// WriteAt writes buf to the file starting at off, extending size
// bookkeeping if the write grows the file.
func (p *Pager) WriteAt(off Offset, buf []byte) error {
	if _, err := p.file.WriteAt(buf, int64(off)); err != nil {
		return errors.Wrapf(err, "pager: write at %d", off)
	}
	if end := int64(off) + int64(len(buf)); end > p.size {
		p.size = end
	}
	p.rec.PageWrite()
	return nil
}

// Sync flushes OS buffers to stable storage.
func (p *Pager) Sync() error {
	if err := p.file.Sync(); err != nil {
		return errors.Wrap(err, "pager: sync")
	}
	return nil
}

// Close closes the underlying file. It does not sync first; callers that
// want durability should Sync explicitly before Close.
func (p *Pager) Close() error {
	if err := p.file.Close(); err != nil {
		return errors.Wrap(err, "pager: close")
	}
	return nil
}
