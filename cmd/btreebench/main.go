// Command btreebench sweeps a range of B-tree minimum degrees and
// records Put/Get/Reporting latencies and memory footprint to a CSV
// file and a latency histogram PNG.
//
// Adapted from the root-level main.go/main2.go/workload.go/benchmark.go
// this binary replaces: a degree sweep like main.go's (which used
// `degrees := []int{8, 32, 128}`; this one sweeps minDegree 4, 16 and
// 64), the same OLTP/OLAP/Reporting workload mix
// (workload.go), same CSV result row shape (benchmark.go), now driving
// btreedb.DB instead of the teacher's in-memory B-tree/B+tree/LSM
// competitors, and additionally rendering the results with
// internal/report instead of leaving that to an external script.
package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/btree-query-bench/btreedb"
	"github.com/btree-query-bench/btreedb/internal/report"
)

func main() {
	f, err := os.Create("btreebench_results.csv")
	if err != nil {
		log.Fatalf("create results csv: %v", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"MinDegree", "Operation", "LatencyNs", "MemMB", "HeapObjects"})

	const recSize = 16
	const scale = 20000
	degrees := []int{4, 16, 64}

	var samples []report.Sample

	for _, d := range degrees {
		fmt.Printf("Testing minDegree=%d\n", d)
		if err := runSuite(w, d, recSize, scale, &samples); err != nil {
			log.Fatalf("minDegree=%d: %v", d, err)
		}
	}

	w.Flush()
	if err := report.LatencyHistogram("btreedb latency by operation", "btreebench_latency.png", samples); err != nil {
		log.Fatalf("render histogram: %v", err)
	}
	fmt.Println("Benchmark complete: btreebench_results.csv, btreebench_latency.png")
}

func runSuite(w *csv.Writer, minDegree, recSize, n int, samples *[]report.Sample) error {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("btreebench-%d.btree", minDegree))
	os.Remove(path)

	db, err := btreedb.Open(path, recSize, recSize, minDegree)
	if err != nil {
		return err
	}
	defer func() {
		db.Close()
		os.Remove(path)
	}()

	start := time.Now()
	for k := 0; k < n; k++ {
		if err := db.Put(encodeKey(uint64(k), recSize)); err != nil {
			return err
		}
	}
	insertLatency := time.Since(start).Nanoseconds() / int64(n)
	*samples = append(*samples, report.Sample{Operation: "Put", Latency: time.Since(start) / time.Duration(n)})

	stats := GetDetailedMem()
	recordRow(w, BenchResult{
		Degree:    minDegree,
		Operation: "Footprint_SteadyState",
		LatencyNs: insertLatency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	})

	for _, wl := range []struct {
		kind WorkloadType
		ops  int
	}{
		{OLTP, n / 2},
		{OLAP, n / 2},
		{Reporting, 100},
	} {
		start = time.Now()
		if err := ExecuteWorkload(db, recSize, wl.kind, wl.ops); err != nil {
			return err
		}
		elapsed := time.Since(start)
		*samples = append(*samples, report.Sample{Operation: string(wl.kind), Latency: elapsed / time.Duration(wl.ops)})
		recordRow(w, BenchResult{
			Degree:    minDegree,
			Operation: string(wl.kind),
			LatencyNs: elapsed.Nanoseconds() / int64(wl.ops),
			MemMB:     GetDetailedMem().AllocMB,
		})
	}
	return nil
}
