package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsAndHeadersParallel(t *testing.T) {
	for _, f := range Families() {
		cols, err := Columns(f)
		require.NoError(t, err, "columns for %s", f)

		headers, err := Headers(f)
		require.NoError(t, err, "headers for %s", f)

		assert.Equal(t, len(cols), len(headers), "column/header length mismatch for %s", f)
		assert.NotEmpty(t, cols, "family %s has no columns", f)
	}
}

func TestUnknownFamily(t *testing.T) {
	_, err := Columns(Family("nonexistent"))
	assert.ErrorIs(t, err, ErrUnknownFamily)

	_, err = Headers(Family(""))
	assert.ErrorIs(t, err, ErrUnknownFamily)

	_, err = PriceColumn(Family("thuoc"))
	assert.ErrorIs(t, err, ErrUnknownFamily)

	_, err = CriteriaColumns(Family("bhxh2"))
	assert.ErrorIs(t, err, ErrUnknownFamily)

	assert.False(t, Valid(Family("nonexistent")))
}

func TestPriceColumnPriority(t *testing.T) {
	tests := []struct {
		family Family
		want   string
	}{
		{FamilyGeneric, "don_gia"},
		{FamilyBrandName, "don_gia"},
		{FamilyHerbalDrug, "don_gia"},
		{FamilyRawHerbal, "don_gia_trung_thau"},
		{FamilyTraditional, "don_gia_trung_thau"},
		{FamilyInsurance, "gia"},
	}
	for _, tt := range tests {
		got, err := PriceColumn(tt.family)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "price column for %s", tt.family)
	}
}

func TestCriteriaColumnsAreSchemaColumns(t *testing.T) {
	for _, f := range Families() {
		criteria, err := CriteriaColumns(f)
		require.NoError(t, err)
		require.NotEmpty(t, criteria, "family %s has no criteria columns", f)

		for _, col := range criteria {
			assert.True(t, HasColumn(f, col), "criteria column %s not in schema of %s", col, f)
		}
	}
}

func TestDisplayNameRoundTrip(t *testing.T) {
	for _, f := range Families() {
		name, err := DisplayName(f)
		require.NoError(t, err)

		back, err := FromDisplayName(name)
		require.NoError(t, err)
		assert.Equal(t, f, back)
	}

	_, err := FromDisplayName("Không tồn tại")
	assert.True(t, errors.Is(err, ErrUnknownFamily))
}

func TestHasColumn(t *testing.T) {
	assert.True(t, HasColumn(FamilyGeneric, "ten_hoat_chat"))
	assert.True(t, HasColumn(FamilyInsurance, "gia"))
	assert.False(t, HasColumn(FamilyGeneric, "gia"))
	assert.False(t, HasColumn(FamilyRawHerbal, "nhom_thuoc"))
	assert.False(t, HasColumn(Family("nope"), "stt"))
}

func TestOrdinalColumnPresence(t *testing.T) {
	// All families except insurance records carry the ordinal column.
	for _, f := range Families() {
		want := f != FamilyInsurance
		assert.Equal(t, want, HasColumn(f, OrdinalColumn), "ordinal column presence for %s", f)
	}
}

func TestColumnsAreCopies(t *testing.T) {
	cols, err := Columns(FamilyGeneric)
	require.NoError(t, err)
	cols[0].Name = "mutated"

	again, err := Columns(FamilyGeneric)
	require.NoError(t, err)
	assert.Equal(t, "stt", again[0].Name)
}
