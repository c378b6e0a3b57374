// Package schema describes the six record families mirrored into the local
// store: their column sets, display headers, canonical price column and the
// fixed criteria columns used for price comparison.
//
// The registry is defined once at init and never mutated; every lookup over
// an unknown family returns ErrUnknownFamily rather than an empty result so
// that no query is ever built against a nonexistent table.
package schema

import (
	"errors"
	"fmt"
)

// ErrUnknownFamily is returned when a family key is not in the registry.
var ErrUnknownFamily = errors.New("unknown record family")

// Family identifies one of the six logical tables.
type Family string

// The six record families.
const (
	FamilyGeneric     Family = "thuoc_generic"   // generic drugs
	FamilyBrandName   Family = "thuoc_biet_duoc" // brand-name originator drugs
	FamilyHerbalDrug  Family = "thuoc_duoc_lieu" // herbal drugs
	FamilyRawHerbal   Family = "duoc_lieu"       // raw herbal materials
	FamilyTraditional Family = "vi_thuoc"        // traditional medicinal pieces
	FamilyInsurance   Family = "bhxh"            // insurance-scheme price records
)

// OrdinalColumn is the per-record sequence-number column. It stores free
// text but sorts numerically.
const OrdinalColumn = "stt"

// Column is one column of a family schema. All columns are currently
// free-form text.
type Column struct {
	Name string
	Type string
}

// definition is the full static description of one family.
type definition struct {
	columns     []Column
	headers     []string
	displayName string
	criteria    []string
}

// drugColumns is the column set shared by the three drug families.
var drugColumns = []Column{
	{"stt", "TEXT"},
	{"ten_thuoc", "TEXT"},
	{"ten_hoat_chat", "TEXT"},
	{"nong_do_ham_luong", "TEXT"},
	{"gdklh", "TEXT"},
	{"duong_dung", "TEXT"},
	{"dang_bao_che", "TEXT"},
	{"han_dung", "TEXT"},
	{"ten_co_so_san_xuat", "TEXT"},
	{"nuoc_san_xuat", "TEXT"},
	{"quy_cach_dong_goi", "TEXT"},
	{"don_vi_tinh", "TEXT"},
	{"so_luong", "TEXT"},
	{"don_gia", "TEXT"},
	{"nhom_thuoc", "TEXT"},
	{"ma_tbmt", "TEXT"},
	{"ten_cdt", "TEXT"},
	{"hinh_thuc_lcnt", "TEXT"},
	{"ngay_dang_tai", "TEXT"},
	{"so_quyet_dinh", "TEXT"},
	{"ngay_ban_hanh", "TEXT"},
	{"so_nha_thau", "TEXT"},
	{"dia_diem", "TEXT"},
}

var drugHeaders = []string{
	"STT", "Tên thuốc", "Tên hoạt chất/thành phần dược liệu",
	"Nồng độ, hàm lượng", "GĐKLH", "Đường dùng", "Dạng bào chế",
	"Hạn dùng (Tuổi thọ)", "Tên cơ sở sản xuất", "Nước sản xuất",
	"Quy cách đóng gói", "Đơn vị tính", "Số lượng", "Đơn giá (VND)",
	"Nhóm thuốc", "Mã TBMT", "Tên CĐT", "Hình thức LCNT",
	"Ngày đăng tải KQLCNT", "Số quyết định", "Ngày ban hành quyết định",
	"Số nhà thầu tham dự", "Địa điểm",
}

// drugCriteria are the comparison criteria shared by the drug families.
var drugCriteria = []string{"ten_hoat_chat", "nong_do_ham_luong", "dang_bao_che", "nhom_thuoc"}

// herbalColumns is shared by raw herbal materials and traditional pieces,
// save for the name column.
func herbalColumns(nameCol string) []Column {
	return []Column{
		{"stt", "TEXT"},
		{nameCol, "TEXT"},
		{"bo_phan_dung", "TEXT"},
		{"ten_khoa_hoc", "TEXT"},
		{"nguon_goc", "TEXT"},
		{"phuong_phap_che_bien", "TEXT"},
		{"so_dklh_giay_phep", "TEXT"},
		{"ten_co_so_san_xuat", "TEXT"},
		{"nuoc_san_xuat", "TEXT"},
		{"quy_cach_dong_goi", "TEXT"},
		{"don_vi_tinh", "TEXT"},
		{"so_luong", "TEXT"},
		{"don_gia_trung_thau", "TEXT"},
		{"nhom_tckt", "TEXT"},
		{"ma_tbmt", "TEXT"},
		{"ten_cdt", "TEXT"},
		{"hinh_thuc_lcnt", "TEXT"},
		{"ngay_dang_tai", "TEXT"},
		{"so_quyet_dinh", "TEXT"},
		{"ngay_ban_hanh", "TEXT"},
		{"so_nha_thau", "TEXT"},
		{"dia_diem", "TEXT"},
	}
}

func herbalHeaders(nameHeader string) []string {
	return []string{
		"STT", nameHeader, "Bộ phận dùng", "Tên khoa học",
		"Nguồn gốc", "Phương pháp chế biến", "Số ĐKLH/Giấy phép NK",
		"Tên cơ sở sản xuất", "Nước sản xuất", "Quy cách đóng gói",
		"Đơn vị tính", "Số lượng", "Đơn giá trúng thầu", "Nhóm TCKT",
		"Mã TBMT", "Tên CĐT", "Hình thức LCNT", "Ngày đăng tải KQLCNT",
		"Số quyết định", "Ngày ban hành quyết định", "Số nhà thầu tham dự",
		"Địa điểm",
	}
}

var insuranceColumns = []Column{
	{"ma_tinh", "TEXT"},
	{"ten_tinh", "TEXT"},
	{"ten_don_vi", "TEXT"},
	{"ma_co_so_kcb", "TEXT"},
	{"ten_thuoc", "TEXT"},
	{"hoat_chat", "TEXT"},
	{"duong_dung", "TEXT"},
	{"dang_bao_che", "TEXT"},
	{"ham_luong", "TEXT"},
	{"dong_goi", "TEXT"},
	{"so_dang_ky", "TEXT"},
	{"nha_san_xuat", "TEXT"},
	{"nuoc_san_xuat", "TEXT"},
	{"don_vi_tinh", "TEXT"},
	{"so_luong", "TEXT"},
	{"gia", "TEXT"},
	{"thanh_tien", "TEXT"},
	{"ten_nha_thau", "TEXT"},
	{"quyet_dinh", "TEXT"},
	{"ngay_cong_bo", "TEXT"},
	{"nhom_tckt", "TEXT"},
	{"loai_thuoc", "TEXT"},
}

var insuranceHeaders = []string{
	"Mã tỉnh", "Tên tỉnh", "Tên đơn vị", "Mã cơ sở KCB",
	"Tên thuốc", "Hoạt chất", "Đường dùng", "Dạng bào chế",
	"Hàm lượng", "Đóng gói", "Số đăng ký", "Nhà sản xuất",
	"Nước sản xuất", "Đơn vị tính", "Số lượng", "Giá",
	"Thành tiền", "Tên nhà thầu", "Quyết định", "Ngày công bố",
	"Nhóm TCKT", "Loại thuốc",
}

var registry = map[Family]definition{
	FamilyGeneric: {
		columns:     drugColumns,
		headers:     drugHeaders,
		displayName: "Thuốc Generic",
		criteria:    drugCriteria,
	},
	FamilyBrandName: {
		columns:     drugColumns,
		headers:     drugHeaders,
		displayName: "Thuốc Biệt dược gốc",
		criteria:    drugCriteria,
	},
	FamilyHerbalDrug: {
		columns:     drugColumns,
		headers:     drugHeaders,
		displayName: "Thuốc Dược liệu",
		criteria:    drugCriteria,
	},
	FamilyRawHerbal: {
		columns:     herbalColumns("ten_duoc_lieu"),
		headers:     herbalHeaders("Tên dược liệu"),
		displayName: "Dược liệu",
		criteria:    []string{"ten_duoc_lieu", "nhom_tckt"},
	},
	FamilyTraditional: {
		columns:     herbalColumns("ten_vi_thuoc"),
		headers:     herbalHeaders("Tên vị thuốc cổ truyền"),
		displayName: "Vị thuốc cổ truyền",
		criteria:    []string{"ten_vi_thuoc", "ten_khoa_hoc", "bo_phan_dung", "nhom_tckt"},
	},
	FamilyInsurance: {
		columns:     insuranceColumns,
		headers:     insuranceHeaders,
		displayName: "Bảo hiểm xã hội",
		criteria:    []string{"hoat_chat", "ham_luong", "dang_bao_che", "nhom_tckt"},
	},
}

// familyOrder is the stable enumeration order used everywhere a family list
// is presented.
var familyOrder = []Family{
	FamilyGeneric, FamilyBrandName, FamilyHerbalDrug,
	FamilyRawHerbal, FamilyTraditional, FamilyInsurance,
}

// priceColumnPriority selects the canonical price column. Checked in order;
// the first column present in the family wins.
var priceColumnPriority = []string{"don_gia_trung_thau", "gia", "don_gia"}

func lookup(f Family) (definition, error) {
	def, ok := registry[f]
	if !ok {
		return definition{}, fmt.Errorf("%w: %q", ErrUnknownFamily, string(f))
	}
	return def, nil
}

// Families returns all families in stable order.
func Families() []Family {
	out := make([]Family, len(familyOrder))
	copy(out, familyOrder)
	return out
}

// Columns returns the ordered column list of a family.
func Columns(f Family) ([]Column, error) {
	def, err := lookup(f)
	if err != nil {
		return nil, err
	}
	out := make([]Column, len(def.columns))
	copy(out, def.columns)
	return out, nil
}

// ColumnNames returns the ordered column names of a family.
func ColumnNames(f Family) ([]string, error) {
	def, err := lookup(f)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(def.columns))
	for i, c := range def.columns {
		names[i] = c.Name
	}
	return names, nil
}

// Headers returns the human-readable headers of a family, parallel to
// Columns.
func Headers(f Family) ([]string, error) {
	def, err := lookup(f)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(def.headers))
	copy(out, def.headers)
	return out, nil
}

// DisplayName returns the human-readable family name.
func DisplayName(f Family) (string, error) {
	def, err := lookup(f)
	if err != nil {
		return "", err
	}
	return def.displayName, nil
}

// FromDisplayName resolves a display name back to its family key.
func FromDisplayName(name string) (Family, error) {
	for _, f := range familyOrder {
		if registry[f].displayName == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: no family named %q", ErrUnknownFamily, name)
}

// PriceColumn returns the canonical price column for a family.
func PriceColumn(f Family) (string, error) {
	def, err := lookup(f)
	if err != nil {
		return "", err
	}
	for _, candidate := range priceColumnPriority {
		for _, c := range def.columns {
			if c.Name == candidate {
				return candidate, nil
			}
		}
	}
	// Unreachable for the registered families; every family carries one of
	// the three price-bearing columns.
	return "", fmt.Errorf("family %q has no price column", string(f))
}

// CriteriaColumns returns the fixed subset of a family's columns used as
// exact-match criteria for price comparison.
func CriteriaColumns(f Family) ([]string, error) {
	def, err := lookup(f)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(def.criteria))
	copy(out, def.criteria)
	return out, nil
}

// HasColumn reports whether col is part of the family's schema. Unknown
// families report false.
func HasColumn(f Family, col string) bool {
	def, ok := registry[f]
	if !ok {
		return false
	}
	for _, c := range def.columns {
		if c.Name == col {
			return true
		}
	}
	return false
}

// Valid reports whether f is a registered family.
func Valid(f Family) bool {
	_, ok := registry[f]
	return ok
}
