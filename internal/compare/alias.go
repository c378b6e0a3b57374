// Package compare maps draft worksheet rows onto the match criteria of a
// target record family and streams per-row price statistics back. Worksheet
// headers rarely spell a criterion the way the target family does, so
// resolution goes through a fixed alias table.
package compare

import (
	"errors"
	"fmt"

	"github.com/medtra-labs/medquery/internal/predicate"
	"github.com/medtra-labs/medquery/internal/schema"
)

// ErrNoMatchableColumns reports that none of the target family's criteria
// columns resolved against the worksheet headers. The run fails before any
// row is processed.
var ErrNoMatchableColumns = errors.New("no matchable columns")

// headerAliases groups interchangeable header spellings. Within a group any
// member may stand in for any other. Order within a group is the resolution
// priority after an exact match.
var headerAliases = [][]string{
	{
		"Tên hoạt chất/thành phần dược liệu",
		"Tên hoạt chất",
		"Hoạt chất",
		"Tên dược liệu",
		"Tên vị thuốc cổ truyền",
		"Tên vị thuốc",
	},
	{
		"Nồng độ, hàm lượng",
		"Nồng độ/Hàm lượng",
		"Hàm lượng",
		"Nồng độ",
	},
	{
		"Nhóm TCKT",
		"Nhóm thuốc",
	},
}

// Mapping associates a target-family criteria column with the index of the
// worksheet header that supplies its value.
type Mapping map[string]int

// candidatesFor returns the header spellings that may satisfy a criterion,
// the criterion's own display header first, then its alias group in fixed
// order.
func candidatesFor(header string) []string {
	out := []string{header}
	key := predicate.NormalizeExact(header)
	for _, group := range headerAliases {
		member := false
		for _, h := range group {
			if predicate.NormalizeExact(h) == key {
				member = true
				break
			}
		}
		if !member {
			continue
		}
		for _, h := range group {
			if predicate.NormalizeExact(h) != key {
				out = append(out, h)
			}
		}
		break
	}
	return out
}

// ResolveMapping resolves each criteria column of the target family against
// the worksheet headers, by exact display-header match first and then
// through the alias table. Resolution is deterministic: candidates are tried
// in fixed priority order and the first header hit wins. Criteria with no
// resolvable header are omitted; an empty result is ErrNoMatchableColumns.
func ResolveMapping(target schema.Family, headers []string) (Mapping, error) {
	criteria, err := schema.CriteriaColumns(target)
	if err != nil {
		return nil, err
	}
	cols, err := schema.ColumnNames(target)
	if err != nil {
		return nil, err
	}
	displays, err := schema.Headers(target)
	if err != nil {
		return nil, err
	}

	displayOf := make(map[string]string, len(cols))
	for i, c := range cols {
		displayOf[c] = displays[i]
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = predicate.NormalizeExact(h)
	}

	mapping := Mapping{}
	for _, criterion := range criteria {
		for _, candidate := range candidatesFor(displayOf[criterion]) {
			key := predicate.NormalizeExact(candidate)
			found := false
			for i, h := range normalized {
				if h == key {
					mapping[criterion] = i
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("%w: target %q against %d headers", ErrNoMatchableColumns, string(target), len(headers))
	}
	return mapping, nil
}
