package barcode

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/gtin-catalog/internal/sheet"
)

// ResultSheet is the name of the only sheet of a result workbook.
const ResultSheet = "Plan1"

// Result column headers surrounding the input columns.
const (
	ColumnStatus = "situação"
	ColumnEAN    = "ean"
	ColumnNote   = "observação"
)

// Columns is the header of the barcode input spreadsheet.
var Columns = []string{
	"descricao", "referencia", "linkImagem", "marca", "pesoLiquido",
	"pesoBruto", "ncm", "cest", "gpc",
}

// RowsFromTable coerces every record of t into an InputRow. Weights that are
// not numbers stay invalid and are sent as null.
func RowsFromTable(t *sheet.Table) []InputRow {
	rows := make([]InputRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = InputRow{
			Description: r.Get("descricao", "description"),
			Reference:   r.Get("referencia", "reference"),
			ImageLink:   r.Get("linkImagem", "image_link"),
			Brand:       r.Get("marca", "brand"),
			NetWeight:   sheet.ParseNumber(r.Get("pesoLiquido", "net_weight")),
			GrossWeight: sheet.ParseNumber(r.Get("pesoBruto", "gross_weight")),
			NCM:         r.Get("ncm"),
			CEST:        r.Get("cest"),
			GPC:         r.Get("gpc"),
			raw:         r.Values(),
		}
	}
	return rows
}

// ResultHeader returns the result sheet header for the given input header.
// A nil input header stands for Columns.
func ResultHeader(input []string) []string {
	if input == nil {
		input = Columns
	}
	header := make([]string, 0, len(input)+3)
	header = append(header, ColumnStatus, ColumnEAN)
	header = append(header, input...)
	return append(header, ColumnNote)
}

// Cells returns the row in ResultHeader order. Rows that were not read from a
// spreadsheet are laid out along Columns.
func (r ResultRow) Cells() []string {
	input := r.raw
	if input == nil {
		input = []string{
			r.Description, r.Reference, r.ImageLink, r.Brand,
			cell(r.NetWeight), cell(r.GrossWeight), r.NCM, r.CEST, r.GPC,
		}
	}
	cells := make([]string, 0, len(input)+3)
	cells = append(cells, r.Status, r.EAN)
	cells = append(cells, input...)
	return append(cells, r.Note)
}

func cell(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
