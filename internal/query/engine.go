// Package query executes count and paginated, sorted fetch operations over
// the record store. It owns the search-criteria value object and the
// sort/pagination semantics; predicate construction is delegated to the
// predicate package and SQL lowering to the store.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/medtra-labs/medquery/internal/predicate"
	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/store"
)

// ErrInvalidColumn reports a column that changes result semantics but is not
// part of the family's schema, such as an explicitly scoped search column.
// Merely restrictive columns (filters, sort) fall back silently instead.
var ErrInvalidColumn = errors.New("invalid column")

// Criteria describes one search, constructed fresh per search action and
// never mutated.
//
// Offset is honored only together with a positive Limit; an offset without a
// limit is ignored.
type Criteria struct {
	Keyword      string
	SearchColumn string            // optional scope; must be a schema column when set
	Filters      []predicate.Filter
	Dates        *predicate.Dates // optional date-range restriction
	SortColumn   string
	SortOrder    string // "ASC" or "DESC"; anything else is ASC
	Limit        int    // <= 0 means no limit
	Offset       int
}

// Engine runs queries against the persisted store.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// NewEngine creates a query engine. A nil logger falls back to
// slog.Default().
func NewEngine(s *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, logger: logger}
}

// buildPredicate validates the semantics-changing parts of the criteria and
// assembles the combined predicate.
func (e *Engine) buildPredicate(family schema.Family, c Criteria) (predicate.Predicate, error) {
	cols, err := schema.ColumnNames(family)
	if err != nil {
		return nil, err
	}
	if c.SearchColumn != "" && !schema.HasColumn(family, c.SearchColumn) {
		return nil, fmt.Errorf("%w: search column %q not in family %q", ErrInvalidColumn, c.SearchColumn, string(family))
	}
	return predicate.Build(cols, c.Keyword, c.SearchColumn, c.Filters, c.Dates), nil
}

// Count returns the total number of rows satisfying the criteria, ignoring
// sorting and pagination.
func (e *Engine) Count(ctx context.Context, family schema.Family, c Criteria) (int, error) {
	p, err := e.buildPredicate(family, c)
	if err != nil {
		return 0, err
	}
	return e.store.Count(ctx, family, p)
}

// Fetch returns the rows satisfying the criteria, sorted and paginated.
// With no intervening writes, the unpaginated result length always equals
// Count for the same criteria.
func (e *Engine) Fetch(ctx context.Context, family schema.Family, c Criteria) ([]store.Row, error) {
	p, err := e.buildPredicate(family, c)
	if err != nil {
		return nil, err
	}

	rows, err := e.store.Select(ctx, family, p, store.SelectOptions{
		SortColumn: c.SortColumn,
		SortOrder:  c.SortOrder,
		Limit:      c.Limit,
		Offset:     c.Offset,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("fetched rows", "family", string(family), "rows", len(rows))
	return rows, nil
}

// FetchByIDs returns the rows whose identity is in ids. Empty ids returns
// nothing without querying.
func (e *Engine) FetchByIDs(ctx context.Context, family schema.Family, ids []int64) ([]store.Row, error) {
	return e.store.SelectByIDs(ctx, family, ids)
}

// DistinctValues returns the distinct non-empty values of a column, sorted
// lexically, for populating filter choices.
func (e *Engine) DistinctValues(ctx context.Context, family schema.Family, column string) ([]string, error) {
	return e.store.DistinctValues(ctx, family, column)
}
