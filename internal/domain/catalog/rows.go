package catalog

import (
	"github.com/xenking/gtin-catalog/internal/sheet"
)

// Columns is the header of the catalog input spreadsheet.
var Columns = []string{
	"pagina", "tipo", "referencia", "caracteristicas", "grade",
	"composicao", "preco", "cor", "imagem",
}

// RowsFromTable coerces every record of t into a FlatImageRow. It never
// fails: cells that cannot be coerced keep their invalid sentinel.
func RowsFromTable(t *sheet.Table) []FlatImageRow {
	rows := make([]FlatImageRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = FlatImageRow{
			Page:          sheet.ParseNumber(r.Get("pagina", "page")),
			Type:          ParseKind(r.Get("tipo", "type")),
			Reference:     r.Get("referencia", "reference"),
			Features:      r.Get("caracteristicas", "features"),
			SizeGrid:      r.Get("grade", "size_grid"),
			Composition:   r.Get("composicao", "composition"),
			Price:         sheet.ParseNumber(r.Get("preco", "price")),
			Color:         r.Get("cor", "color"),
			ImageFilename: r.Get("imagem", "image"),
		}
	}
	return rows
}

// ParseKind parses the image type cell. Non-integers and numbers outside the
// known kinds yield KindUnknown.
func ParseKind(s string) ImageKind {
	n := sheet.ParseNumber(s)
	if !n.Valid || !n.Decimal.IsInteger() {
		return KindUnknown
	}
	switch k := ImageKind(n.Decimal.IntPart()); k {
	case KindMain, KindDetail, KindColor, KindStatic:
		return k
	}
	return KindUnknown
}
