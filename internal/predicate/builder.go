package predicate

import (
	"fmt"
	"strings"
	"time"
)

// Filter is one (column, value) pair of a multi-condition filter set.
type Filter struct {
	Column string
	Value  string
}

// Dates describes an optional date-range restriction over one column.
// Start and End are DD/MM/YYYY strings; either may be empty.
type Dates struct {
	Column string
	Start  string
	End    string
}

// storedDateLayout is the format dates are stored and entered in.
const storedDateLayout = "02/01/2006"

// Keyword builds the keyword predicate over the given column set.
//
// The keyword is compared space- and case-insensitively as a substring. If
// scopedColumn names a member of columns the test is scoped to that column;
// otherwise it is the OR of the same test across every column. An empty or
// whitespace-only keyword restricts nothing.
func Keyword(columns []string, keyword, scopedColumn string) Predicate {
	if strings.TrimSpace(keyword) == "" {
		return True{}
	}
	clean := Normalize(keyword)

	if scopedColumn != "" && contains(columns, scopedColumn) {
		return Contains{Column: scopedColumn, Value: clean}
	}

	any := make(Or, 0, len(columns))
	for _, col := range columns {
		any = append(any, Contains{Column: col, Value: clean})
	}
	return any
}

// Filters builds one contains-predicate per usable filter pair. Pairs whose
// column is not a member of columns or whose value is blank are dropped;
// callers may pass stale or foreign column names. The results are combined
// with AND by the caller.
func Filters(columns []string, filters []Filter) []Predicate {
	var out []Predicate
	for _, f := range filters {
		if strings.TrimSpace(f.Value) == "" || !contains(columns, f.Column) {
			continue
		}
		out = append(out, Contains{Column: f.Column, Value: Normalize(f.Value)})
	}
	return out
}

// DateRangeFor builds the date-range predicate, or nil when it restricts
// nothing: the column is not a member of columns, both bounds are absent, or
// both bounds fail to parse. A malformed bound is ignored rather than
// reported; the other bound still applies.
func DateRangeFor(columns []string, d Dates) Predicate {
	if d.Column == "" || !contains(columns, d.Column) {
		return nil
	}

	startISO := toISO(d.Start)
	endISO := toISO(d.End)
	if startISO == "" && endISO == "" {
		return nil
	}

	return DateRange{Column: d.Column, StartISO: startISO, EndISO: endISO}
}

// Build combines a full search criteria into one predicate: keyword AND
// every filter AND the date range. The parts are independent of each other.
func Build(columns []string, keyword, scopedColumn string, filters []Filter, dates *Dates) Predicate {
	parts := And{Keyword(columns, keyword, scopedColumn)}
	parts = append(parts, Filters(columns, filters)...)
	if dates != nil {
		if dp := DateRangeFor(columns, *dates); dp != nil {
			parts = append(parts, dp)
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parts
}

// toISO reparses a DD/MM/YYYY bound into its YYYY-MM-DD ordering key.
// Returns "" for an empty or malformed bound.
func toISO(bound string) string {
	if bound == "" {
		return ""
	}
	t, err := time.Parse(storedDateLayout, bound)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

func contains(columns []string, col string) bool {
	for _, c := range columns {
		if c == col {
			return true
		}
	}
	return false
}
