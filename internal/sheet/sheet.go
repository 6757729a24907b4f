// Package sheet reads and writes the single-sheet workbooks exchanged with
// users. Only the first sheet of an input workbook is considered and its first
// row is taken as the header.
package sheet

import (
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned when a workbook contains no sheets at all.
var ErrNoSheet = errors.New("workbook has no sheets")

// Table is the decoded content of the first sheet of a workbook.
type Table struct {
	Header []string
	Rows   []Record
}

// Record is a single data row addressed by header name.
type Record struct {
	columns map[string]int
	values  []string
}

// Get returns the value of the first column matching one of names. Names are
// compared with Key, so "Preço", "preco" and "PRECO" address the same column.
func (r Record) Get(names ...string) string {
	for _, name := range names {
		if i, ok := r.columns[Key(name)]; ok {
			return r.values[i]
		}
	}
	return ""
}

// Values returns the row cells in header order.
func (r Record) Values() []string {
	return r.values
}

// NewRecord builds a record for the given header. Missing trailing values are
// padded with empty strings and values beyond the header are dropped.
func NewRecord(header, values []string) Record {
	return newRecord(index(header), len(header), values)
}

func newRecord(columns map[string]int, width int, values []string) Record {
	row := make([]string, width)
	for i := 0; i < width && i < len(values); i++ {
		row[i] = strings.TrimSpace(values[i])
	}
	return Record{columns: columns, values: row}
}

// Has reports whether the header contains a column matching one of names.
func (t *Table) Has(names ...string) bool {
	columns := index(t.Header)
	for _, name := range names {
		if _, ok := columns[Key(name)]; ok {
			return true
		}
	}
	return false
}

// Files reads workbooks from the local filesystem.
type Files struct{}

// Read implements the record source of both pipelines.
func (Files) Read(path string) (*Table, error) {
	return Read(path)
}

// Write implements the result sink of the barcode pipeline.
func (Files) Write(path, sheetName string, header []string, rows [][]string) error {
	return Write(path, sheetName, header, rows)
}

// Read opens the workbook at path and decodes its first sheet.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer func() { _ = f.Close() }()

	t, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return t, nil
}

// Decode reads a workbook from r and decodes its first sheet. Rows with no
// non-blank cell are skipped.
func Decode(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "read workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	// Raw values keep numbers independent of the cell's display format.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "get rows of %q", sheets[0])
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	columns := index(header)

	t := &Table{Header: header, Rows: make([]Record, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		t.Rows = append(t.Rows, newRecord(columns, len(header), row))
	}
	return t, nil
}

// Key canonicalizes a header name: case and accents are folded and spaces,
// underscores and dashes are removed.
func Key(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ' ' || r == '_' || r == '-':
			continue
		case r < unicode.MaxASCII:
			b.WriteRune(r)
		default:
			b.WriteRune(fold(r))
		}
	}
	return b.String()
}

// fold maps the Latin-1 accented letters used in Portuguese headers to their
// base letter.
func fold(r rune) rune {
	switch r {
	case 'á', 'à', 'â', 'ã', 'ä':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï':
		return 'i'
	case 'ó', 'ò', 'ô', 'õ', 'ö':
		return 'o'
	case 'ú', 'ù', 'û', 'ü':
		return 'u'
	case 'ç':
		return 'c'
	case 'ñ':
		return 'n'
	}
	return r
}

func index(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		k := Key(h)
		if k == "" {
			continue
		}
		// First occurrence wins on duplicated headers.
		if _, ok := columns[k]; !ok {
			columns[k] = i
		}
	}
	return columns
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
