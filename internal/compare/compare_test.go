package compare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/stats"
	"github.com/medtra-labs/medquery/internal/store"
	"github.com/medtra-labs/medquery/internal/testutil"
)

func TestResolveMappingExactAndAlias(t *testing.T) {
	headers := []string{"STT", "Tên hoạt chất", "Hàm lượng", "Dạng bào chế", "Nhóm thuốc"}

	mapping, err := ResolveMapping(schema.FamilyGeneric, headers)
	require.NoError(t, err)
	assert.Equal(t, Mapping{
		"ten_hoat_chat":     1, // via alias, drug header spells it longer
		"nong_do_ham_luong": 2,
		"dang_bao_che":      3,
		"nhom_thuoc":        4,
	}, mapping)
}

func TestResolveMappingAcrossFamilies(t *testing.T) {
	// A drug-shaped worksheet against the raw herbal family resolves the
	// name through the alias group and the classification through its.
	headers := []string{"Tên hoạt chất", "Nhóm thuốc"}

	mapping, err := ResolveMapping(schema.FamilyRawHerbal, headers)
	require.NoError(t, err)
	assert.Equal(t, Mapping{"ten_duoc_lieu": 0, "nhom_tckt": 1}, mapping)
}

func TestResolveMappingPartial(t *testing.T) {
	headers := []string{"Đơn vị tính", "Hoạt chất"}

	mapping, err := ResolveMapping(schema.FamilyGeneric, headers)
	require.NoError(t, err)
	assert.Equal(t, Mapping{"ten_hoat_chat": 1}, mapping)
}

func TestResolveMappingDeterministic(t *testing.T) {
	headers := []string{"Nồng độ", "Hàm lượng", "Tên hoạt chất"}
	first, err := ResolveMapping(schema.FamilyGeneric, headers)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := ResolveMapping(schema.FamilyGeneric, headers)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	// "Hàm lượng" outranks "Nồng độ" in the alias group regardless of
	// header order.
	assert.Equal(t, 1, first["nong_do_ham_luong"])
}

func TestResolveMappingEmpty(t *testing.T) {
	_, err := ResolveMapping(schema.FamilyGeneric, []string{"Ghi chú", "Thành tiền dự kiến"})
	assert.ErrorIs(t, err, ErrNoMatchableColumns)
}

func TestResolveMappingUnknownFamily(t *testing.T) {
	_, err := ResolveMapping(schema.Family("nope"), []string{"Tên hoạt chất"})
	assert.ErrorIs(t, err, schema.ErrUnknownFamily)
}

func setupRunner(t *testing.T) *Runner {
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
		seed(map[string]string{"ten_hoat_chat": "Paracetamol", "nong_do_ham_luong": "500mg", "don_gia": "100"}),
		seed(map[string]string{"ten_hoat_chat": "Paracetamol", "nong_do_ham_luong": "500mg", "don_gia": "250"}),
		seed(map[string]string{"ten_hoat_chat": "Amoxicillin", "nong_do_ham_luong": "250mg", "don_gia": "900"}),
	}))

	return NewRunner(stats.NewAggregator(s, testutil.NewTestLogger(t)), testutil.NewTestLogger(t))
}

func TestRunStreamsRowResults(t *testing.T) {
	r := setupRunner(t)
	headers := []string{"Tên hoạt chất", "Hàm lượng"}
	rows := [][]string{
		{"Paracetamol", "500mg"},
		{"Amoxicillin", "250mg"},
		{"Ibuprofen", "400mg"},
	}

	var results []RowResult
	var progress []int
	report, err := r.Run(context.Background(), schema.FamilyGeneric, headers, rows,
		func(rr RowResult) { results = append(results, rr) },
		func(pct int) { progress = append(progress, pct) })
	require.NoError(t, err)

	assert.Equal(t, StateDone, report.State)
	assert.Equal(t, 3, report.Processed)
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	require.Len(t, results, 3)
	assert.Equal(t, RowResult{Index: 0, Result: stats.Result{Count: 2, Min: 100, Max: 250}}, results[0])
	assert.Equal(t, RowResult{Index: 1, Result: stats.Result{Count: 1, Min: 900, Max: 900}}, results[1])
	assert.Equal(t, RowResult{Index: 2, Result: stats.Result{}}, results[2])

	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i], progress[i-1])
	}
}

func TestRunFailsFastOnEmptyMapping(t *testing.T) {
	r := setupRunner(t)

	called := false
	report, err := r.Run(context.Background(), schema.FamilyGeneric,
		[]string{"Ghi chú"}, [][]string{{"x"}},
		func(RowResult) { called = true }, nil)
	assert.ErrorIs(t, err, ErrNoMatchableColumns)
	assert.Equal(t, StateFailed, report.State)
	assert.False(t, called)
}

func TestRunCancellationKeepsEmittedRows(t *testing.T) {
	r := setupRunner(t)
	headers := []string{"Tên hoạt chất"}
	rows := [][]string{{"Paracetamol"}, {"Amoxicillin"}, {"Paracetamol"}}

	ctx, cancel := context.WithCancel(context.Background())
	var results []RowResult
	report, err := r.Run(ctx, schema.FamilyGeneric, headers, rows,
		func(rr RowResult) {
			results = append(results, rr)
			if rr.Index == 0 {
				cancel()
			}
		}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, report.State)
	assert.Equal(t, 1, report.Processed)
	assert.Len(t, results, 1)
}

func TestRunSkipsShortRows(t *testing.T) {
	r := setupRunner(t)
	headers := []string{"Đơn vị tính", "Tên hoạt chất"}

	// The row ends before the mapped header index, so no criterion resolves
	// and the aggregate short-circuits to zero.
	var results []RowResult
	report, err := r.Run(context.Background(), schema.FamilyGeneric, headers,
		[][]string{{"Hop"}},
		func(rr RowResult) { results = append(results, rr) }, nil)
	require.NoError(t, err)
	assert.Equal(t, StateDone, report.State)
	require.Len(t, results, 1)
	assert.Equal(t, stats.Result{}, results[0].Result)
}

func TestPriceOf(t *testing.T) {
	cols, err := schema.ColumnNames(schema.FamilyGeneric)
	require.NoError(t, err)
	record := make([]string, len(cols))
	for i, c := range cols {
		if c == "don_gia" {
			record[i] = "1.250.000 VND"
		}
	}

	price, err := PriceOf(schema.FamilyGeneric, record)
	require.NoError(t, err)
	assert.Equal(t, int64(1250000), price)

	_, err = PriceOf(schema.FamilyGeneric, make([]string, len(cols)))
	assert.ErrorIs(t, err, ErrUnparsablePrice)

	_, err = PriceOf(schema.FamilyGeneric, []string{"short"})
	require.Error(t, err)

	_, err = PriceOf(schema.Family("nope"), record)
	assert.ErrorIs(t, err, schema.ErrUnknownFamily)
}
