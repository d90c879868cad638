package main

import (
	"encoding/binary"
	"math/rand"

	"github.com/btree-query-bench/btreedb"
)

type WorkloadType string

const (
	OLTP      WorkloadType = "OLTP (90/10 read/write)"
	OLAP      WorkloadType = "OLAP (10/90 read/write)"
	Reporting WorkloadType = "Reporting (prefix scan)"
)

// ExecuteWorkload runs a mixed distribution of Get/Put/FindAll calls
// against db, adapted from the root-level workload.go this binary
// replaces: the same read/write split per WorkloadType, rebuilt against
// btreedb.DB instead of the teacher's benchmarked Index interface.
func ExecuteWorkload(db *btreedb.DB, recSize int, wType WorkloadType, ops int) error {
	for i := 0; i < ops; i++ {
		choice := rand.Intn(100)
		key := uint64(rand.Intn(ops))

		switch wType {
		case OLTP:
			if choice < 90 {
				if _, _, err := db.Get(encodeKey(key, recSize)); err != nil {
					return err
				}
			} else if err := db.Put(encodeKey(key, recSize)); err != nil {
				return err
			}
		case OLAP:
			if choice < 10 {
				if _, _, err := db.Get(encodeKey(key, recSize)); err != nil {
					return err
				}
			} else if err := db.Put(encodeKey(key, recSize)); err != nil {
				return err
			}
		case Reporting:
			prefix := encodeKey(key, recSize).Bytes()[:2]
			if _, err := db.FindAll(btreedb.NewRecord(prefix)); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeKey(k uint64, recSize int) btreedb.Record {
	b := make([]byte, recSize)
	binary.BigEndian.PutUint64(b, k)
	return btreedb.NewRecord(b)
}
