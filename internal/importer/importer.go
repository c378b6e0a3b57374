// Package importer moves whole family datasets between CSV files and the
// store. Import is positional: the file's first row is assumed to be a
// header and skipped, and each data row maps onto the family's columns by
// position.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/store"
)

// Importer reads and writes family datasets.
type Importer struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates an importer. A nil logger falls back to slog.Default().
func New(s *store.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: s, logger: logger}
}

// ReadCSV parses rows for a family from r. Each row keeps min(file columns,
// schema columns) values, missing trailing cells are blank-filled, and every
// value is normalized to NFC so composed and decomposed Vietnamese spellings
// compare equal once stored.
func ReadCSV(r io.Reader, family schema.Family) ([][]string, error) {
	cols, err := schema.ColumnNames(family)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are blank-filled below

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows [][]string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}
		row := make([]string, len(cols))
		for i := range cols {
			if i < len(record) {
				row[i] = norm.NFC.String(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ImportCSV replaces the family's dataset with the contents of r.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader, family schema.Family) (int, error) {
	rows, err := ReadCSV(r, family)
	if err != nil {
		return 0, err
	}
	if err := im.store.ReplaceAll(ctx, family, rows); err != nil {
		return 0, err
	}
	im.logger.Info("imported rows", "family", string(family), "rows", len(rows))
	return len(rows), nil
}

// AppendCSV adds the contents of r to the family's dataset, keeping the
// existing rows.
func (im *Importer) AppendCSV(ctx context.Context, r io.Reader, family schema.Family) (int, error) {
	rows, err := ReadCSV(r, family)
	if err != nil {
		return 0, err
	}
	if err := im.store.InsertRows(ctx, family, rows); err != nil {
		return 0, err
	}
	im.logger.Info("appended rows", "family", string(family), "rows", len(rows))
	return len(rows), nil
}

// ExportCSV writes the family's full dataset to w with its display headers.
func (im *Importer) ExportCSV(ctx context.Context, w io.Writer, family schema.Family) (int, error) {
	headers, err := schema.Headers(family)
	if err != nil {
		return 0, err
	}
	rows, err := im.store.Select(ctx, family, nil, store.SelectOptions{})
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.Values); err != nil {
			return 0, fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	im.logger.Info("exported rows", "family", string(family), "rows", len(rows))
	return len(rows), nil
}
