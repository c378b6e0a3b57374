package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = []string{"stt", "ten_thuoc", "ten_hoat_chat", "ngay_ban_hanh"}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Paracetamol", "paracetamol"},
		{"para cetamol", "paracetamol"},
		{"PARA CETA MOL", "paracetamol"},
		{"  Vien nen  ", "viennen"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestNormalizeExact(t *testing.T) {
	assert.Equal(t, "vien nen", NormalizeExact("  Vien Nen "))
	assert.Equal(t, "paracetamol", NormalizeExact("Paracetamol"))
}

func TestKeywordEmpty(t *testing.T) {
	assert.Equal(t, True{}, Keyword(testColumns, "", ""))
	assert.Equal(t, True{}, Keyword(testColumns, "   ", ""))
	assert.Equal(t, True{}, Keyword(testColumns, "\t ", "ten_thuoc"))
}

func TestKeywordScoped(t *testing.T) {
	p := Keyword(testColumns, "Para Cetamol", "ten_hoat_chat")
	assert.Equal(t, Contains{Column: "ten_hoat_chat", Value: "paracetamol"}, p)
}

func TestKeywordAllColumns(t *testing.T) {
	p := Keyword(testColumns, "500mg", "")
	or, ok := p.(Or)
	require.True(t, ok, "expected an OR across every column")
	require.Len(t, or, len(testColumns))
	for i, col := range testColumns {
		assert.Equal(t, Contains{Column: col, Value: "500mg"}, or[i])
	}
}

func TestKeywordInvalidScopeFallsBack(t *testing.T) {
	// A scoped column outside the family schema falls back to the
	// any-column search, matching the stored behavior.
	p := Keyword(testColumns, "abc", "foreign_column")
	or, ok := p.(Or)
	require.True(t, ok)
	assert.Len(t, or, len(testColumns))
}

func TestFilters(t *testing.T) {
	preds := Filters(testColumns, []Filter{
		{Column: "ten_thuoc", Value: "Panadol Extra"},
		{Column: "not_a_column", Value: "x"}, // foreign column dropped
		{Column: "ten_hoat_chat", Value: "   "}, // blank value dropped
		{Column: "stt", Value: "12"},
	})
	require.Len(t, preds, 2)
	assert.Equal(t, Contains{Column: "ten_thuoc", Value: "panadolextra"}, preds[0])
	assert.Equal(t, Contains{Column: "stt", Value: "12"}, preds[1])
}

func TestDateRangeFor(t *testing.T) {
	tests := []struct {
		name string
		d    Dates
		want Predicate
	}{
		{
			name: "both bounds",
			d:    Dates{Column: "ngay_ban_hanh", Start: "01/03/2024", End: "31/12/2024"},
			want: DateRange{Column: "ngay_ban_hanh", StartISO: "2024-03-01", EndISO: "2024-12-31"},
		},
		{
			name: "start only",
			d:    Dates{Column: "ngay_ban_hanh", Start: "15/06/2023"},
			want: DateRange{Column: "ngay_ban_hanh", StartISO: "2023-06-15"},
		},
		{
			name: "end only",
			d:    Dates{Column: "ngay_ban_hanh", End: "01/01/2025"},
			want: DateRange{Column: "ngay_ban_hanh", EndISO: "2025-01-01"},
		},
		{
			name: "malformed start ignored, end kept",
			d:    Dates{Column: "ngay_ban_hanh", Start: "2024-03-01", End: "31/12/2024"},
			want: DateRange{Column: "ngay_ban_hanh", EndISO: "2024-12-31"},
		},
		{
			name: "both malformed restricts nothing",
			d:    Dates{Column: "ngay_ban_hanh", Start: "99/99/9999", End: "not a date"},
			want: nil,
		},
		{
			name: "both absent restricts nothing",
			d:    Dates{Column: "ngay_ban_hanh"},
			want: nil,
		},
		{
			name: "foreign column restricts nothing",
			d:    Dates{Column: "ngay_cong_bo", Start: "01/01/2024"},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DateRangeFor(testColumns, tt.d))
		})
	}
}

func TestBuildCombination(t *testing.T) {
	p := Build(testColumns, "para", "", []Filter{
		{Column: "ten_thuoc", Value: "Panadol"},
	}, &Dates{Column: "ngay_ban_hanh", Start: "01/01/2024"})

	and, ok := p.(And)
	require.True(t, ok)
	require.Len(t, and, 3)

	_, ok = and[0].(Or)
	assert.True(t, ok, "first part is the keyword OR")
	assert.Equal(t, Contains{Column: "ten_thuoc", Value: "panadol"}, and[1])
	assert.Equal(t, DateRange{Column: "ngay_ban_hanh", StartISO: "2024-01-01"}, and[2])
}

func TestBuildKeywordOnlyCollapses(t *testing.T) {
	p := Build(testColumns, "", "", nil, nil)
	assert.Equal(t, True{}, p)
}
