package worksheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/medtra-labs/medquery/internal/schema"
)

// baseLine is the CSV shape of the shared drug/herbal worksheet layout.
// Field order matches baseColumns.
type baseLine struct {
	Ordinal      string `csv:"STT"`
	Circular     string `csv:"STT Thông tư"`
	Code         string `csv:"Mã thuốc"`
	Ingredient   string `csv:"Tên hoạt chất"`
	Strength     string `csv:"Nồng độ/Hàm lượng"`
	Form         string `csv:"Dạng bào chế"`
	Presentation string `csv:"Dạng trình bày"`
	Route        string `csv:"Đường dùng"`
	Unit         string `csv:"Đơn vị tính"`
	Group        string `csv:"Nhóm TCKT"`
	RefPrice     string `csv:"Đơn giá tham khảo"`
	PriceMin     string `csv:"Giá Min"`
	PriceMax     string `csv:"Giá Max"`
	Matches      string `csv:"Số kết quả tìm thấy"`
}

func (l *baseLine) values() []string {
	return []string{
		l.Ordinal, l.Circular, l.Code, l.Ingredient, l.Strength,
		l.Form, l.Presentation, l.Route, l.Unit, l.Group,
		l.RefPrice, l.PriceMin, l.PriceMax, l.Matches,
	}
}

func (l *baseLine) fill(row []string) {
	assign(row, &l.Ordinal, &l.Circular, &l.Code, &l.Ingredient, &l.Strength,
		&l.Form, &l.Presentation, &l.Route, &l.Unit, &l.Group,
		&l.RefPrice, &l.PriceMin, &l.PriceMax, &l.Matches)
}

type brandLine struct {
	Ordinal      string `csv:"STT"`
	Circular     string `csv:"STT Thông tư"`
	Code         string `csv:"Mã thuốc"`
	TradeName    string `csv:"Tên thuốc"`
	Ingredient   string `csv:"Tên hoạt chất"`
	Strength     string `csv:"Nồng độ/Hàm lượng"`
	Form         string `csv:"Dạng bào chế"`
	Presentation string `csv:"Dạng trình bày"`
	Route        string `csv:"Đường dùng"`
	Unit         string `csv:"Đơn vị tính"`
	Group        string `csv:"Nhóm TCKT"`
	RefPrice     string `csv:"Đơn giá tham khảo"`
	PriceMin     string `csv:"Giá Min"`
	PriceMax     string `csv:"Giá Max"`
	Matches      string `csv:"Số kết quả tìm thấy"`
}

func (l *brandLine) values() []string {
	return []string{
		l.Ordinal, l.Circular, l.Code, l.TradeName, l.Ingredient,
		l.Strength, l.Form, l.Presentation, l.Route, l.Unit, l.Group,
		l.RefPrice, l.PriceMin, l.PriceMax, l.Matches,
	}
}

func (l *brandLine) fill(row []string) {
	assign(row, &l.Ordinal, &l.Circular, &l.Code, &l.TradeName, &l.Ingredient,
		&l.Strength, &l.Form, &l.Presentation, &l.Route, &l.Unit, &l.Group,
		&l.RefPrice, &l.PriceMin, &l.PriceMax, &l.Matches)
}

type traditionalLine struct {
	Ordinal    string `csv:"STT"`
	Circular   string `csv:"STT Thông tư"`
	Code       string `csv:"Mã thuốc"`
	PieceName  string `csv:"Tên vị thuốc"`
	Scientific string `csv:"Tên khoa học"`
	PartUsed   string `csv:"Bộ phận dùng"`
	Processing string `csv:"Phương pháp chế biến"`
	Standard   string `csv:"Tiêu chuẩn chất lượng"`
	Unit       string `csv:"Đơn vị tính"`
	Group      string `csv:"Nhóm TCKT"`
	RefPrice   string `csv:"Đơn giá tham khảo"`
	PriceMin   string `csv:"Giá Min"`
	PriceMax   string `csv:"Giá Max"`
	Matches    string `csv:"Số kết quả tìm thấy"`
}

func (l *traditionalLine) values() []string {
	return []string{
		l.Ordinal, l.Circular, l.Code, l.PieceName, l.Scientific,
		l.PartUsed, l.Processing, l.Standard, l.Unit, l.Group,
		l.RefPrice, l.PriceMin, l.PriceMax, l.Matches,
	}
}

func (l *traditionalLine) fill(row []string) {
	assign(row, &l.Ordinal, &l.Circular, &l.Code, &l.PieceName, &l.Scientific,
		&l.PartUsed, &l.Processing, &l.Standard, &l.Unit, &l.Group,
		&l.RefPrice, &l.PriceMin, &l.PriceMax, &l.Matches)
}

func assign(row []string, fields ...*string) {
	for i, f := range fields {
		if i < len(row) {
			*f = row[i]
		}
	}
}

// Load reads a worksheet CSV. Columns are matched by header name, so column
// order in the file is free; unknown headers are ignored and absent ones
// leave the cell empty.
func Load(r io.Reader, family schema.Family) (*Sheet, error) {
	sheet, err := New(family)
	if err != nil {
		return nil, err
	}
	switch family {
	case schema.FamilyBrandName:
		sheet.Rows, err = decodeLines[brandLine](r, (*brandLine).values)
	case schema.FamilyTraditional:
		sheet.Rows, err = decodeLines[traditionalLine](r, (*traditionalLine).values)
	default:
		sheet.Rows, err = decodeLines[baseLine](r, (*baseLine).values)
	}
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// Write renders the sheet as CSV with its layout headers. The header line is
// written even for an empty sheet.
func (s *Sheet) Write(w io.Writer) error {
	switch s.Family {
	case schema.FamilyBrandName:
		return encodeLines[brandLine](w, s.Rows, (*brandLine).fill)
	case schema.FamilyTraditional:
		return encodeLines[traditionalLine](w, s.Rows, (*traditionalLine).fill)
	default:
		return encodeLines[baseLine](w, s.Rows, (*baseLine).fill)
	}
}

func decodeLines[T any](r io.Reader, values func(*T) []string) ([][]string, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet header: %w", err)
	}
	var rows [][]string
	for {
		var line T
		if err := dec.Decode(&line); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to decode worksheet row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, values(&line))
	}
	return rows, nil
}

func encodeLines[T any](w io.Writer, rows [][]string, fill func(*T, []string)) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	var header T
	if err := enc.EncodeHeader(header); err != nil {
		return fmt.Errorf("failed to write worksheet header: %w", err)
	}
	for i, row := range rows {
		var line T
		fill(&line, row)
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to write worksheet row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
