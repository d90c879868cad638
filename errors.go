package btreedb

import "github.com/cockroachdb/errors"

// ErrRecordSize is returned by Put when the given Record's length does
// not equal DB.RecSize().
var ErrRecordSize = errors.New("btreedb: record size does not match database record size")

// ErrBadParams is returned by Open when creating a new database file
// without a valid recSize, keySize, and minDegree — mirroring
// BTreeDB.cpp's open(): "We *must* have the rec size, key size and min
// degree if we are creating. If not supplied, we have to bug out."
var ErrBadParams = errors.New("btreedb: recSize, keySize and minDegree must all be positive when creating a new database")
