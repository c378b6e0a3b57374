package compare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/stats"
)

// ErrUnparsablePrice reports a chosen record whose price cell yields no
// digits.
var ErrUnparsablePrice = errors.New("unparsable price")

// State is the lifecycle phase of a comparison run.
type State string

const (
	StateIdle    State = "idle"
	StateMapping State = "mapping"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// RowResult is the per-row outcome, emitted as soon as the row's
// aggregation completes so callers can update that row without waiting for
// the whole run.
type RowResult struct {
	Index  int
	Result stats.Result
}

// Report summarizes a finished or aborted run.
type Report struct {
	ID         string
	Target     schema.Family
	State      State
	Mapping    Mapping
	Processed  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Runner executes comparison runs against the statistics aggregator.
type Runner struct {
	agg    *stats.Aggregator
	logger *slog.Logger
}

// NewRunner creates a runner. A nil logger falls back to slog.Default().
func NewRunner(agg *stats.Aggregator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{agg: agg, logger: logger}
}

// Run maps the worksheet headers onto the target family, then aggregates
// price statistics for every row in order. onRow and onProgress may be nil.
// Progress percentages increase monotonically.
//
// Cancellation is checked between rows. Any error aborts the remaining rows;
// results already emitted through onRow stay valid. The returned report is
// non-nil even on failure.
func (r *Runner) Run(ctx context.Context, target schema.Family, headers []string, rows [][]string, onRow func(RowResult), onProgress func(pct int)) (*Report, error) {
	report := &Report{
		ID:        uuid.NewString(),
		Target:    target,
		State:     StateIdle,
		StartedAt: time.Now(),
	}
	fail := func(err error) (*Report, error) {
		report.State = StateFailed
		report.FinishedAt = time.Now()
		r.logger.Error("comparison run failed",
			"run_id", report.ID, "target", string(target),
			"processed", report.Processed, "error", err)
		return report, err
	}

	report.State = StateMapping
	mapping, err := ResolveMapping(target, headers)
	if err != nil {
		return fail(err)
	}
	report.Mapping = mapping
	r.logger.Debug("resolved comparison mapping",
		"run_id", report.ID, "target", string(target),
		"criteria", len(mapping), "rows", len(rows))

	report.State = StateRunning
	lastPct := 0
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		criteria := stats.MatchCriteria{}
		for col, idx := range mapping {
			if idx < len(row) {
				criteria[col] = row[idx]
			}
		}

		result, err := r.agg.Aggregate(ctx, target, criteria)
		if err != nil {
			return fail(fmt.Errorf("row %d: %w", i, err))
		}
		report.Processed = i + 1
		if onRow != nil {
			onRow(RowResult{Index: i, Result: result})
		}
		if pct := (i + 1) * 100 / len(rows); pct > lastPct {
			lastPct = pct
			if onProgress != nil {
				onProgress(pct)
			}
		}
	}

	report.State = StateDone
	report.FinishedAt = time.Now()
	r.logger.Info("comparison run done",
		"run_id", report.ID, "target", string(target),
		"rows", report.Processed,
		"duration", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

// PriceOf returns the normalized price of one chosen record, for manual
// single-row lookups where the user picks the reference record themselves.
func PriceOf(family schema.Family, record []string) (int64, error) {
	priceCol, err := schema.PriceColumn(family)
	if err != nil {
		return 0, err
	}
	cols, err := schema.ColumnNames(family)
	if err != nil {
		return 0, err
	}
	for i, c := range cols {
		if c != priceCol {
			continue
		}
		if i >= len(record) {
			return 0, fmt.Errorf("record has %d values, price column %q is at %d", len(record), priceCol, i)
		}
		price, ok := stats.ParsePrice(record[i])
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnparsablePrice, record[i])
		}
		return price, nil
	}
	return 0, fmt.Errorf("price column %q not found in family %q", priceCol, string(family))
}
