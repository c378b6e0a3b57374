package store

// sql.go - lowering of predicate trees into parameterized SQLite text.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/medtra-labs/medquery/internal/predicate"
	"github.com/medtra-labs/medquery/internal/schema"
)

// lower renders a predicate into a SQL condition plus its bound parameters.
// An empty condition means the predicate restricts nothing. Column
// identifiers are checked against the family schema before interpolation.
func lower(family schema.Family, p predicate.Predicate) (string, []any, error) {
	switch node := p.(type) {
	case nil:
		return "", nil, nil
	case predicate.True:
		return "", nil, nil

	case predicate.Contains:
		if err := validColumn(family, node.Column); err != nil {
			return "", nil, err
		}
		cond := fmt.Sprintf("LOWER(REPLACE(%s, ' ', '')) LIKE ?", node.Column)
		return cond, []any{"%" + node.Value + "%"}, nil

	case predicate.Equals:
		if err := validColumn(family, node.Column); err != nil {
			return "", nil, err
		}
		cond := fmt.Sprintf("LOWER(TRIM(%s)) = ?", node.Column)
		return cond, []any{node.Value}, nil

	case predicate.DateRange:
		return lowerDateRange(family, node)

	case predicate.And:
		return lowerList(family, node, " AND ", false)

	case predicate.Or:
		return lowerList(family, node, " OR ", true)

	default:
		return "", nil, fmt.Errorf("unsupported predicate node %T", p)
	}
}

// lowerDateRange rewrites the stored DD/MM/YYYY text into a YYYY-MM-DD
// ordering key at fixed character offsets and compares it against the
// bounds. Values shorter than 10 characters are unparsable and never match.
func lowerDateRange(family schema.Family, node predicate.DateRange) (string, []any, error) {
	if err := validColumn(family, node.Column); err != nil {
		return "", nil, err
	}
	if node.StartISO == "" && node.EndISO == "" {
		return "", nil, nil
	}

	key := fmt.Sprintf(
		"(length(%[1]s) >= 10 AND substr(%[1]s,7,4) || '-' || substr(%[1]s,4,2) || '-' || substr(%[1]s,1,2)",
		node.Column,
	)

	var conds []string
	var args []any
	if node.StartISO != "" {
		conds = append(conds, key+" >= ?)")
		args = append(args, node.StartISO)
	}
	if node.EndISO != "" {
		conds = append(conds, key+" <= ?)")
		args = append(args, node.EndISO)
	}
	return strings.Join(conds, " AND "), args, nil
}

func lowerList(family schema.Family, nodes []predicate.Predicate, sep string, parenthesize bool) (string, []any, error) {
	var conds []string
	var args []any
	for _, child := range nodes {
		cond, childArgs, err := lower(family, child)
		if err != nil {
			return "", nil, err
		}
		if cond == "" {
			continue
		}
		conds = append(conds, cond)
		args = append(args, childArgs...)
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	joined := strings.Join(conds, sep)
	if parenthesize && len(conds) > 1 {
		joined = "(" + joined + ")"
	}
	return joined, args, nil
}

// orderClause picks the ORDER BY expression. The ordinal column sorts
// numerically; any other registered column sorts lexically; everything else
// falls back to insertion identity so pagination stays deterministic.
func orderClause(family schema.Family, sortColumn, sortOrder string) string {
	if sortColumn == "" || !schema.HasColumn(family, sortColumn) {
		return "ORDER BY id ASC"
	}
	order := "ASC"
	if strings.EqualFold(sortOrder, "DESC") {
		order = "DESC"
	}
	if sortColumn == schema.OrdinalColumn {
		return fmt.Sprintf("ORDER BY CAST(%s AS INTEGER) %s", sortColumn, order)
	}
	return fmt.Sprintf("ORDER BY %s %s", sortColumn, order)
}

// Count returns the number of rows of family satisfying the predicate,
// ignoring sorting and pagination.
func (s *Store) Count(ctx context.Context, family schema.Family, p predicate.Predicate) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	if _, err := columnNames(family); err != nil {
		return 0, err
	}

	cond, args, err := lower(family, p)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", family)
	if cond != "" {
		query += " WHERE " + cond
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", family, err)
	}
	return n, nil
}

// Select returns the rows of family satisfying the predicate, sorted and
// paginated per opts. Offset is honored only together with a positive limit.
func (s *Store) Select(ctx context.Context, family schema.Family, p predicate.Predicate, opts SelectOptions) ([]Row, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	cols, err := columnNames(family)
	if err != nil {
		return nil, err
	}

	cond, args, err := lower(family, p)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT id, %s FROM %s", strings.Join(cols, ", "), family)
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " " + orderClause(family, opts.SortColumn, opts.SortOrder)

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", family, err)
	}
	defer func() { _ = rows.Close() }()

	return scanRows(rows, len(cols))
}

// SelectByIDs returns the rows whose identity is in ids, in underlying
// enumeration order. An empty ids slice returns nothing without querying.
func (s *Store) SelectByIDs(ctx context.Context, family schema.Family, ids []int64) ([]Row, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	cols, err := columnNames(family)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := fmt.Sprintf(
		"SELECT id, %s FROM %s WHERE id IN (%s)",
		strings.Join(cols, ", "), family, placeholders,
	)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select by ids from %s: %w", family, err)
	}
	defer func() { _ = rows.Close() }()

	return scanRows(rows, len(cols))
}

// SelectColumn returns the values of one column for every row satisfying
// the predicate. Used by the statistics aggregator.
func (s *Store) SelectColumn(ctx context.Context, family schema.Family, column string, p predicate.Predicate) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if _, err := columnNames(family); err != nil {
		return nil, err
	}
	if err := validColumn(family, column); err != nil {
		return nil, err
	}

	cond, args, err := lower(family, p)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", column, family)
	if cond != "" {
		query += " WHERE " + cond
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s from %s: %w", column, family, err)
	}
	defer func() { _ = rows.Close() }()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s value: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DistinctValues returns the distinct non-empty values of a column, sorted
// lexically. Used to populate filter choices.
func (s *Store) DistinctValues(ctx context.Context, family schema.Family, column string) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if _, err := columnNames(family); err != nil {
		return nil, err
	}
	if err := validColumn(family, column); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT DISTINCT %[1]s FROM %[2]s WHERE %[1]s IS NOT NULL AND %[1]s != '' ORDER BY %[1]s",
		column, family,
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select distinct %s from %s: %w", column, family, err)
	}
	defer func() { _ = rows.Close() }()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// scanRows reads id + width column values per row.
func scanRows(rows *sql.Rows, width int) ([]Row, error) {
	var out []Row
	for rows.Next() {
		r := Row{Values: make([]string, width)}
		dest := make([]any, 0, width+1)
		dest = append(dest, &r.ID)
		for i := range r.Values {
			dest = append(dest, &r.Values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
