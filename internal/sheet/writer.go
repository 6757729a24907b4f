package sheet

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// Extension is the file extension of every workbook this package writes.
const Extension = ".xlsx"

// defaultSheet is the sheet excelize creates in a new workbook.
const defaultSheet = "Sheet1"

// Write stores header and rows as the only sheet of a new workbook at path.
// The caller is expected to have normalized the extension with NormalizeExt.
func Write(path, sheetName string, header []string, rows [][]string) error {
	f, err := build(sheetName, header, rows)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

// Encode writes header and rows as a single-sheet workbook to w.
func Encode(w io.Writer, sheetName string, header []string, rows [][]string) error {
	f, err := build(sheetName, header, rows)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

// Template writes an empty workbook holding only the header row, for users
// to fill in.
func Template(w io.Writer, sheetName string, header []string) error {
	return Encode(w, sheetName, header, nil)
}

// NormalizeExt appends ext to path unless path already ends with it,
// ignoring case.
func NormalizeExt(path, ext string) string {
	if strings.HasSuffix(strings.ToLower(path), strings.ToLower(ext)) {
		return path
	}
	return path + ext
}

func build(sheetName string, header []string, rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "name sheet")
	}

	if err := writeRow(f, sheetName, 1, header); err != nil {
		_ = f.Close()
		return nil, err
	}
	if len(header) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrap(err, "create header style")
		}
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := f.SetCellStyle(sheetName, "A1", last, style); err != nil {
			_ = f.Close()
			return nil, errors.Wrap(err, "style header")
		}
	}

	for i, row := range rows {
		if err := writeRow(f, sheetName, i+2, row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeRow(f *excelize.File, sheetName string, n int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return errors.Wrapf(err, "row %d", n)
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return errors.Wrapf(err, "write row %d", n)
	}
	return nil
}
