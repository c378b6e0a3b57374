// Package stats computes exact-match price statistics over a record family:
// the count, minimum and maximum of the family's canonical price column for
// rows matching every criterion. Unlike search, matching here is equality on
// trimmed, case-folded values, not substring containment.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/medtra-labs/medquery/internal/predicate"
	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/store"
)

// ErrInvalidColumn reports a criteria column that is not part of the
// family's schema. Criteria columns change result semantics, so they are
// surfaced rather than dropped.
var ErrInvalidColumn = errors.New("invalid criteria column")

// MatchCriteria maps column name to the exact value it must carry. Every
// entry must match for a row to count. Entries with blank values are
// ignored.
type MatchCriteria map[string]string

// Result holds the price statistics for one criteria set.
type Result struct {
	Count int
	Min   int64
	Max   int64
}

// Aggregator computes price statistics against the persisted store.
type Aggregator struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAggregator creates an aggregator. A nil logger falls back to
// slog.Default().
func NewAggregator(s *store.Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: s, logger: logger}
}

// Aggregate returns {count, min, max} of the family's canonical price column
// over the rows matching every non-blank criterion.
//
// A criteria set that is empty after dropping blank values returns a zero
// Result without querying, so no unbounded match-everything aggregate can
// reach the store. Rows whose price yields no digits still count but do not
// contribute to min/max.
func (a *Aggregator) Aggregate(ctx context.Context, family schema.Family, criteria MatchCriteria) (Result, error) {
	priceCol, err := schema.PriceColumn(family)
	if err != nil {
		return Result{}, err
	}

	var conds predicate.And
	for col, val := range criteria {
		if !schema.HasColumn(family, col) {
			return Result{}, fmt.Errorf("%w: %q not in family %q", ErrInvalidColumn, col, string(family))
		}
		normalized := predicate.NormalizeExact(val)
		if normalized == "" {
			continue
		}
		conds = append(conds, predicate.Equals{Column: col, Value: normalized})
	}
	if len(conds) == 0 {
		return Result{}, nil
	}

	prices, err := a.store.SelectColumn(ctx, family, priceCol, conds)
	if err != nil {
		return Result{}, fmt.Errorf("failed to aggregate prices for %s: %w", family, err)
	}

	result := Result{Count: len(prices)}
	first := true
	for _, raw := range prices {
		price, ok := ParsePrice(raw)
		if !ok {
			continue
		}
		if first || price < result.Min {
			result.Min = price
		}
		if first || price > result.Max {
			result.Max = price
		}
		first = false
	}

	a.logger.Debug("aggregated prices",
		"family", string(family), "criteria", len(conds),
		"count", result.Count, "min", result.Min, "max", result.Max)
	return result, nil
}
