package worksheet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/medtra-labs/medquery/internal/schema"
)

// DraftPath returns the per-family draft file location under dir.
func DraftPath(dir string, family schema.Family) string {
	return filepath.Join(dir, fmt.Sprintf("draft_%s.json", string(family)))
}

// SaveDraft persists the sheet as a JSON array of header-keyed records,
// creating dir if needed. An empty sheet is rejected so a misclick cannot
// wipe an existing draft.
func (s *Sheet) SaveDraft(dir string) error {
	if len(s.Rows) == 0 {
		return fmt.Errorf("worksheet is empty, nothing to save")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create drafts directory: %w", err)
	}

	records := make([]map[string]string, len(s.Rows))
	for i, row := range s.Rows {
		rec := make(map[string]string, len(s.Columns))
		for j, col := range s.Columns {
			rec[col] = row[j]
		}
		records[i] = rec
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	path := DraftPath(dir, s.Family)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write draft %s: %w", path, err)
	}
	return nil
}

// LoadDraft reads a previously saved draft. Records map onto the current
// layout by header name, so drafts survive layout reorderings; unknown keys
// are dropped and missing ones stay empty.
func LoadDraft(dir string, family schema.Family) (*Sheet, error) {
	sheet, err := New(family)
	if err != nil {
		return nil, err
	}

	path := DraftPath(dir, family)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft %s: %w", path, err)
	}
	var records []map[string]string
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", path, err)
	}

	for _, rec := range records {
		sheet.Append(rec)
	}
	return sheet, nil
}
