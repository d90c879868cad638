package btreedb

import (
	"log/slog"

	"github.com/btree-query-bench/btreedb/internal/metrics"
)

// Option configures a DB at Open time.
type Option func(*DB)

// WithComparator overrides DefaultComparator. It has no effect on an
// existing file's already-written ordering — changing comparators on a
// populated file silently breaks the sortedness invariant, per spec.md
// §4.1; callers are responsible for using one comparator consistently
// for the lifetime of a file.
func WithComparator(cmp Comparator) Option {
	return func(db *DB) { db.cmp = cmp }
}

// WithMetrics attaches a *metrics.Recorder to the pager and node cache. A
// nil Recorder (the default when this option is omitted) makes every
// metrics call a no-op.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(db *DB) { db.metrics = rec }
}

// WithLogger attaches a structured logger, used for info-level notices
// from Open (creating a new file, or a stored header overriding the
// sizes passed in). The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) { db.logger = logger }
}
