// Package oracle wraps Pebble (CockroachDB's LSM storage engine) as a
// ground-truth reference store for differential testing against
// btreedb.DB: the same Put/Get/Del sequence run against both must agree.
//
// Adapted from dbms/index/lsm/lsm.go, which wraps Pebble behind the
// teacher's own benchmarked Index interface; here the same wrapper is
// repurposed from "a benchmark competitor" to "a test oracle."
package oracle

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Oracle is a Pebble-backed key/value store keyed by raw bytes, used only
// by tests in this module to check btreedb.DB's behavior against a
// battle-tested LSM tree.
type Oracle struct {
	db *pebble.DB
}

// Open opens an in-memory Pebble instance (vfs.NewMem) — tests never need
// the oracle to survive process exit, and an in-memory filesystem keeps
// the test suite from touching disk twice per case.
func Open() (*Oracle, error) {
	opts := &pebble.Options{
		FS: vfs.NewMem(),
	}
	db, err := pebble.Open("oracle", opts)
	if err != nil {
		return nil, errors.Wrap(err, "oracle: open")
	}
	return &Oracle{db: db}, nil
}

// Close shuts down the underlying Pebble instance.
func (o *Oracle) Close() error {
	return errors.Wrap(o.db.Close(), "oracle: close")
}

// Put stores value under key, overwriting any existing value, as
// btreedb.DB.Put does for a record that compares equal.
func (o *Oracle) Put(key, value []byte) error {
	return errors.Wrap(o.db.Set(key, value, pebble.NoSync), "oracle: put")
}

// Get returns the value stored under key. ok is false, err is nil when
// key is absent.
func (o *Oracle) Get(key []byte) (value []byte, ok bool, err error) {
	val, closer, err := o.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "oracle: get")
	}
	out := make([]byte, len(val))
	copy(out, val)
	closer.Close()
	return out, true, nil
}

// Delete removes key. It does not report whether key was present —
// Pebble's Delete is unconditional, like a no-op on a missing key, so
// callers that need a boolean result should Get first.
func (o *Oracle) Delete(key []byte) error {
	return errors.Wrap(o.db.Delete(key, pebble.NoSync), "oracle: delete")
}
