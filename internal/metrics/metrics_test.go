package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	require.NotPanics(t, func() {
		r.PageRead()
		r.PageWrite()
		r.CacheHit()
		r.CacheMiss()
		r.Split()
		r.Merge()
		r.ObserveFlush(time.Millisecond)
	})
}

func TestRecorder_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg, "btreedb_test")
	r.PageRead()
	r.Split()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
