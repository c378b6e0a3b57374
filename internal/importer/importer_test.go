package importer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/store"
	"github.com/medtra-labs/medquery/internal/testutil"
)

func setupImporter(t *testing.T) (*Importer, *store.Store) {
	t.Helper()
	s := store.New(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate())
	return New(s, testutil.NewTestLogger(t)), s
}

func TestReadCSVPositional(t *testing.T) {
	cols, err := schema.ColumnNames(schema.FamilyGeneric)
	require.NoError(t, err)

	// A short row is blank-filled and an overlong row is truncated to the
	// schema width.
	in := "h1,h2,h3\n1,Panadol\n2,Efferalgan," + strings.Repeat("x,", len(cols)) + "extra\n"
	rows, err := ReadCSV(strings.NewReader(in), schema.FamilyGeneric)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Len(t, rows[0], len(cols))
	assert.Equal(t, "1", rows[0][0])
	assert.Equal(t, "Panadol", rows[0][1])
	assert.Equal(t, "", rows[0][2])

	require.Len(t, rows[1], len(cols))
	assert.Equal(t, "x", rows[1][len(cols)-1])
}

func TestReadCSVNormalizesNFC(t *testing.T) {
	// Decomposed o + combining circumflex + combining acute must come out
	// as the single composed rune.
	decomposed := "thuo\u0302\u0301c"
	composed := "thu\u1ed1c"

	rows, err := ReadCSV(strings.NewReader("h\n"+decomposed+"\n"), schema.FamilyGeneric)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, composed, rows[0][0])
	assert.True(t, norm.NFC.IsNormalString(rows[0][0]))
}

func TestReadCSVEmptyFile(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(""), schema.FamilyGeneric)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = ReadCSV(strings.NewReader("only,a,header\n"), schema.FamilyGeneric)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadCSVUnknownFamily(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("h\n1\n"), schema.Family("nope"))
	assert.ErrorIs(t, err, schema.ErrUnknownFamily)
}

func TestImportExportRoundTrip(t *testing.T) {
	im, s := setupImporter(t)
	ctx := context.Background()

	n, err := im.ImportCSV(ctx, strings.NewReader("h1,h2\n1,Panadol\n2,Efferalgan\n"), schema.FamilyGeneric)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := s.RowCount(ctx, schema.FamilyGeneric)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var buf bytes.Buffer
	n, err = im.ExportCSV(ctx, &buf, schema.FamilyGeneric)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "STT,"))
	assert.Contains(t, lines[1], "Panadol")
}

func TestAppendKeepsExisting(t *testing.T) {
	im, s := setupImporter(t)
	ctx := context.Background()

	_, err := im.ImportCSV(ctx, strings.NewReader("h\n1\n2\n"), schema.FamilyGeneric)
	require.NoError(t, err)

	n, err := im.AppendCSV(ctx, strings.NewReader("h\n3\n"), schema.FamilyGeneric)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := s.RowCount(ctx, schema.FamilyGeneric)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestImportReplacesExisting(t *testing.T) {
	im, s := setupImporter(t)
	ctx := context.Background()

	_, err := im.ImportCSV(ctx, strings.NewReader("h\n1\n2\n3\n"), schema.FamilyGeneric)
	require.NoError(t, err)

	_, err = im.ImportCSV(ctx, strings.NewReader("h\n9\n"), schema.FamilyGeneric)
	require.NoError(t, err)

	count, err := s.RowCount(ctx, schema.FamilyGeneric)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
