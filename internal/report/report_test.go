package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLatencyHistogram_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latency.png")

	samples := []Sample{
		{Operation: "Put", Latency: 10 * time.Microsecond},
		{Operation: "Put", Latency: 12 * time.Microsecond},
		{Operation: "Get", Latency: 3 * time.Microsecond},
		{Operation: "Get", Latency: 4 * time.Microsecond},
	}

	require.NoError(t, LatencyHistogram("put vs get", path, samples))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}
