package stats

import (
	"strconv"
	"strings"
	"unicode"
)

// ParsePrice extracts a non-negative integer price from a stored cell value
// by concatenating its digit runes. Thousands separators, currency suffixes
// and stray whitespace are all discarded, so "1.234.567", "1,234,567 VND"
// and " 1234567 " parse identically. A value with no digits reports ok
// false.
func ParsePrice(raw string) (price int64, ok bool) {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
