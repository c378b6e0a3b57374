// Package worksheet models the draft tender-plan sheets that comparison runs
// read from and write results back into. Each source family has a fixed
// column layout; the result columns at the tail are filled in by the caller
// after aggregation.
package worksheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/medtra-labs/medquery/internal/schema"
	"github.com/medtra-labs/medquery/internal/stats"
)

// Result columns present in every layout.
const (
	ColReferencePrice = "Đơn giá tham khảo"
	ColPriceMin       = "Giá Min"
	ColPriceMax       = "Giá Max"
	ColMatchCount     = "Số kết quả tìm thấy"
)

// ErrNoWorksheetLayout reports a family that has no draft worksheet. The
// insurance family is only ever a comparison target.
var ErrNoWorksheetLayout = errors.New("family has no worksheet layout")

var baseColumns = []string{
	"STT", "STT Thông tư", "Mã thuốc", "Tên hoạt chất",
	"Nồng độ/Hàm lượng", "Dạng bào chế", "Dạng trình bày",
	"Đường dùng", "Đơn vị tính", "Nhóm TCKT",
	ColReferencePrice, ColPriceMin, ColPriceMax, ColMatchCount,
}

// brandColumns carries the trade name next to the active ingredient.
var brandColumns = []string{
	"STT", "STT Thông tư", "Mã thuốc", "Tên thuốc", "Tên hoạt chất",
	"Nồng độ/Hàm lượng", "Dạng bào chế", "Dạng trình bày",
	"Đường dùng", "Đơn vị tính", "Nhóm TCKT",
	ColReferencePrice, ColPriceMin, ColPriceMax, ColMatchCount,
}

var traditionalColumns = []string{
	"STT", "STT Thông tư", "Mã thuốc", "Tên vị thuốc",
	"Tên khoa học", "Bộ phận dùng", "Phương pháp chế biến",
	"Tiêu chuẩn chất lượng", "Đơn vị tính", "Nhóm TCKT",
	ColReferencePrice, ColPriceMin, ColPriceMax, ColMatchCount,
}

// Columns returns the worksheet column layout for a source family.
func Columns(family schema.Family) ([]string, error) {
	var cols []string
	switch family {
	case schema.FamilyGeneric, schema.FamilyHerbalDrug, schema.FamilyRawHerbal:
		cols = baseColumns
	case schema.FamilyBrandName:
		cols = brandColumns
	case schema.FamilyTraditional:
		cols = traditionalColumns
	case schema.FamilyInsurance:
		return nil, fmt.Errorf("%w: %q", ErrNoWorksheetLayout, string(family))
	default:
		return nil, fmt.Errorf("%w: %q", schema.ErrUnknownFamily, string(family))
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

// Sheet is an in-memory draft worksheet. Rows are always exactly as wide as
// Columns.
type Sheet struct {
	Family  schema.Family
	Columns []string
	Rows    [][]string
}

// New creates an empty sheet for a source family.
func New(family schema.Family) (*Sheet, error) {
	cols, err := Columns(family)
	if err != nil {
		return nil, err
	}
	return &Sheet{Family: family, Columns: cols}, nil
}

// Append adds a row from header-keyed values. Unknown keys are ignored,
// missing ones stay empty.
func (s *Sheet) Append(values map[string]string) {
	row := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		row[i] = values[col]
	}
	s.Rows = append(s.Rows, row)
}

func (s *Sheet) columnIndex(name string) int {
	for i, col := range s.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

func (s *Sheet) set(row int, column, value string) error {
	if row < 0 || row >= len(s.Rows) {
		return fmt.Errorf("row %d out of range, sheet has %d rows", row, len(s.Rows))
	}
	idx := s.columnIndex(column)
	if idx < 0 {
		return fmt.Errorf("column %q not in worksheet layout", column)
	}
	s.Rows[row][idx] = value
	return nil
}

// ApplyResult writes one aggregation result into the row's result columns.
func (s *Sheet) ApplyResult(row int, res stats.Result) error {
	if err := s.set(row, ColPriceMin, FormatCurrency(res.Min)); err != nil {
		return err
	}
	if err := s.set(row, ColPriceMax, FormatCurrency(res.Max)); err != nil {
		return err
	}
	return s.set(row, ColMatchCount, strconv.Itoa(res.Count))
}

// SetReferencePrice writes a manually chosen price into the row.
func (s *Sheet) SetReferencePrice(row int, price int64) error {
	return s.set(row, ColReferencePrice, FormatCurrency(price))
}

// FormatCurrency renders a price with comma thousands separators. Zero stays
// a bare "0".
func FormatCurrency(v int64) string {
	digits := strconv.FormatInt(v, 10)
	if v < 1000 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
