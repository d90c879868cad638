package main

import (
	"encoding/csv"
	"runtime"
	"strconv"
)

// BenchResult is one sampled operation latency plus the memory footprint
// observed right after it, adapted from the root-level benchmark.go this
// binary replaces.
type BenchResult struct {
	Degree    int
	Operation string
	LatencyNs int64
	MemMB     uint64
	Objects   uint64
}

type MemoryStats struct {
	AllocMB     uint64
	HeapObjects uint64
}

// GetDetailedMem forces a GC before sampling so the measurement reflects
// live data rather than not-yet-collected garbage.
func GetDetailedMem() MemoryStats {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemoryStats{AllocMB: m.Alloc / 1024 / 1024, HeapObjects: m.HeapObjects}
}

func recordRow(w *csv.Writer, res BenchResult) {
	w.Write([]string{
		strconv.Itoa(res.Degree),
		res.Operation,
		strconv.FormatInt(res.LatencyNs, 10),
		strconv.FormatUint(res.MemMB, 10),
		strconv.FormatUint(res.Objects, 10),
	})
}
