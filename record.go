package btreedb

import "encoding/binary"

// Record is an immutable, fixed-size byte sequence stored in the tree.
// Its first keySize bytes (per DB.KeySize) are the comparison key. Record
// owns a private copy of its bytes; constructing one from a caller-owned
// slice never aliases the caller's buffer.
//
// Grounded on original_source/cplusplus/DbObj.h: the same set of
// constructors (raw bytes, string, fixed-width integer), the same
// "always copy, never borrow" ownership rule. Equality and ordering are
// deliberately not defined on Record itself — every comparison in this
// package goes through a Comparator, per spec.md §4.1.
type Record struct {
	data []byte
}

// NewRecord copies b into a new Record.
func NewRecord(b []byte) Record {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Record{data: cp}
}

// NewRecordString copies the bytes of s into a new Record.
func NewRecordString(s string) Record {
	return NewRecord([]byte(s))
}

// NewRecordUint64 encodes v as 8 little-endian bytes, whatever the
// host's byte order (the C++ source's raw memcpy of a machine integer
// used the host layout instead).
func NewRecordUint64(v uint64) Record {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return Record{data: b}
}

// NewRecordUint32 encodes v as 4 little-endian bytes.
func NewRecordUint32(v uint32) Record {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return Record{data: b}
}

// Bytes returns the Record's underlying bytes. Callers must not mutate
// the returned slice; it aliases the Record's private storage.
func (r Record) Bytes() []byte { return r.data }

// Len returns the number of bytes in the Record.
func (r Record) Len() int { return len(r.data) }

// IsZero reports whether r is the zero Record (no data, as returned on a
// not-found lookup).
func (r Record) IsZero() bool { return r.data == nil }

// Clone returns a deep copy of r.
func (r Record) Clone() Record { return NewRecord(r.data) }

// Comparator orders two records. The default, DefaultComparator, compares
// the overlapping prefix of both records byte-wise and does not fall back
// to length on an equal prefix — see spec.md §9 Open Question 1.
type Comparator func(a, b Record) int

// DefaultComparator compares min(len(a), len(b)) bytes of a and b,
// lexicographically. It is equivalent to C's memcmp over the shorter
// length, matching original_source/cplusplus/BTreeDB.cpp's
// _defaultCompare exactly, including its behavior on records that differ
// only past the shorter length: they compare equal.
func DefaultComparator(a, b Record) int {
	n := len(a.data)
	if len(b.data) < n {
		n = len(b.data)
	}
	for i := 0; i < n; i++ {
		if a.data[i] != b.data[i] {
			if a.data[i] < b.data[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// hasPrefix reports whether r's leading min(len(r), len(prefix)) bytes
// equal prefix's, matching BTreeDB.cpp's _searchCallback comparison used
// by findAll.
func hasPrefix(r, prefix Record) bool {
	n := len(prefix.data)
	if len(r.data) < n {
		n = len(r.data)
	}
	for i := 0; i < n; i++ {
		if r.data[i] != prefix.data[i] {
			return false
		}
	}
	return true
}
