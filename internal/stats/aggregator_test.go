package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/store"
	"github.com/medtra-labs/medquery/internal/testutil"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{"1234567", 1234567, true},
		{"1.234.567", 1234567, true},
		{"1,234,567 VND", 1234567, true},
		{" 500 ", 500, true},
		{"0", 0, true},
		{"", 0, false},
		{"lien he", 0, false},
		{"N/A", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParsePrice(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func setupAggregator(t *testing.T) *Aggregator {
	t.Helper()
	s := store.New(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())

	cols, err := schema.ColumnNames(schema.FamilyGeneric)
	require.NoError(t, err)

	seed := func(values map[string]string) []string {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = values[c]
		}
		return row
	}

	require.NoError(t, s.ReplaceAll(context.Background(), schema.FamilyGeneric, [][]string{
		seed(map[string]string{
			"ten_hoat_chat": "Paracetamol", "nong_do_ham_luong": "500mg",
			"dang_bao_che": "Vien nen", "nhom_thuoc": "Nhom 1", "don_gia": "100",
		}),
		seed(map[string]string{
			"ten_hoat_chat": " paracetamol ", "nong_do_ham_luong": "500MG",
			"dang_bao_che": "vien nen", "nhom_thuoc": "nhom 1", "don_gia": "200",
		}),
		seed(map[string]string{
			"ten_hoat_chat": "Paracetamol", "nong_do_ham_luong": "500mg",
			"dang_bao_che": "Vien sui", "nhom_thuoc": "Nhom 1", "don_gia": "300",
		}),
		seed(map[string]string{
			"ten_hoat_chat": "Paracetamol", "nong_do_ham_luong": "650mg",
			"dang_bao_che": "Vien nen", "nhom_thuoc": "Nhom 1", "don_gia": "lien he",
		}),
	}))

	return NewAggregator(s, testutil.NewTestLogger(t))
}

func TestAggregateExactMatch(t *testing.T) {
	a := setupAggregator(t)

	// Matching is case-insensitive on trimmed values, so the second row
	// counts despite its spelling.
	got, err := a.Aggregate(context.Background(), schema.FamilyGeneric, MatchCriteria{
		"ten_hoat_chat":     "Paracetamol",
		"nong_do_ham_luong": "500mg",
		"dang_bao_che":      "Vien nen",
		"nhom_thuoc":        "Nhom 1",
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Count: 2, Min: 100, Max: 200}, got)
}

func TestAggregateBlankCriterionDropped(t *testing.T) {
	a := setupAggregator(t)

	// A blank dosage-form criterion widens the match to both forms.
	got, err := a.Aggregate(context.Background(), schema.FamilyGeneric, MatchCriteria{
		"ten_hoat_chat":     "Paracetamol",
		"nong_do_ham_luong": "500mg",
		"dang_bao_che":      "  ",
		"nhom_thuoc":        "Nhom 1",
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Count: 3, Min: 100, Max: 300}, got)
}

func TestAggregateNoMatch(t *testing.T) {
	a := setupAggregator(t)

	got, err := a.Aggregate(context.Background(), schema.FamilyGeneric, MatchCriteria{
		"ten_hoat_chat": "Ibuprofen",
	})
	require.NoError(t, err)
	assert.Equal(t, Result{}, got)
}

func TestAggregateUnparsablePriceCountsButSkipsExtremes(t *testing.T) {
	a := setupAggregator(t)

	got, err := a.Aggregate(context.Background(), schema.FamilyGeneric, MatchCriteria{
		"nong_do_ham_luong": "650mg",
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Count: 1, Min: 0, Max: 0}, got)
}

func TestAggregateEmptyCriteriaShortCircuits(t *testing.T) {
	a := setupAggregator(t)

	got, err := a.Aggregate(context.Background(), schema.FamilyGeneric, MatchCriteria{})
	require.NoError(t, err)
	assert.Equal(t, Result{}, got)

	got, err = a.Aggregate(context.Background(), schema.FamilyGeneric, MatchCriteria{"ten_hoat_chat": "   "})
	require.NoError(t, err)
	assert.Equal(t, Result{}, got)
}

func TestAggregateUnknownCriteriaColumn(t *testing.T) {
	a := setupAggregator(t)

	_, err := a.Aggregate(context.Background(), schema.FamilyGeneric, MatchCriteria{"gia": "100"})
	assert.ErrorIs(t, err, ErrInvalidColumn)
}

func TestAggregateUnknownFamily(t *testing.T) {
	a := setupAggregator(t)

	_, err := a.Aggregate(context.Background(), schema.Family("nope"), MatchCriteria{"x": "y"})
	assert.ErrorIs(t, err, schema.ErrUnknownFamily)
}
