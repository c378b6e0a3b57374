package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/medtra-labs/medquery/internal/store"
)

// renderRows writes result rows in the chosen format. Headers are the
// family's display headers; the record id leads every row.
func renderRows(w io.Writer, headers []string, rows []store.Row, format string) error {
	switch format {
	case "json":
		return renderRowsJSON(w, headers, rows)
	case "csv":
		return renderRowsCSV(w, headers, rows)
	case "", "table":
		renderRowsTable(w, headers, rows)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderRowsTable(w io.Writer, headers []string, rows []store.Row) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, 0, len(headers)+1)
	headerRow = append(headerRow, "id")
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		r := make(table.Row, 0, len(row.Values)+1)
		r = append(r, row.ID)
		for _, v := range row.Values {
			r = append(r, v)
		}
		t.AppendRow(r)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func renderRowsJSON(w io.Writer, headers []string, rows []store.Row) error {
	results := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record := make(map[string]any, len(headers)+1)
		record["id"] = row.ID
		for i, h := range headers {
			if i < len(row.Values) {
				record[h] = row.Values[i]
			}
		}
		results = append(results, record)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderRowsCSV(w io.Writer, headers []string, rows []store.Row) error {
	cols := append([]string{"id"}, headers...)
	line := make([]string, len(cols))
	for i, c := range cols {
		line[i] = escapeCSV(c)
	}
	_, _ = fmt.Fprintln(w, strings.Join(line, ","))

	for _, row := range rows {
		values := make([]string, 0, len(cols))
		values = append(values, fmt.Sprintf("%d", row.ID))
		for _, v := range row.Values {
			values = append(values, escapeCSV(v))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
