// Package report renders operation-latency distributions gathered while
// exercising a btreedb.DB, as a PNG histogram.
//
// Adapted from benchmark.go's BenchResult/Record CSV harness: where the
// teacher wrote one CSV row per (name, config, operation, latency, mem,
// objects) sample for later offline plotting, this package renders the
// distribution directly with gonum.org/v1/plot — a dependency the
// teacher's own go.mod already lists but never imports.
package report

import (
	"time"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Sample is one recorded operation latency, the plotting analog of
// benchmark.go's BenchResult stripped to the fields a histogram needs.
type Sample struct {
	Operation string // e.g. "Put", "Get", "Del"
	Latency   time.Duration
}

// LatencyHistogram renders one histogram bin series per distinct
// Operation in samples, overlaid on a single plot, and writes it as a
// PNG to path.
func LatencyHistogram(title, path string, samples []Sample) error {
	byOp := make(map[string][]float64)
	var order []string
	for _, s := range samples {
		if _, ok := byOp[s.Operation]; !ok {
			order = append(order, s.Operation)
		}
		byOp[s.Operation] = append(byOp[s.Operation], float64(s.Latency.Microseconds()))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "latency (µs)"
	p.Y.Label.Text = "count"

	for i, op := range order {
		values := plotter.Values(byOp[op])
		hist, err := plotter.NewHist(values, 32)
		if err != nil {
			return errors.Wrapf(err, "report: build histogram for %q", op)
		}
		hist.Normalize(1)
		color := plotutil.Color(i)
		hist.FillColor = color
		hist.Color = color
		p.Add(hist)
		p.Legend.Add(op, hist)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "report: save %q", path)
	}
	return nil
}
