package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	nxerrors "nxmeta/internal/errors"
)

const defaultSheet = "Sheet1"

// WriteXLSX writes one worksheet per sheet, in order, with a bold header row.
func WriteXLSX(w io.Writer, sheets []Sheet) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if len(sheets) == 0 {
		sheets = []Sheet{{Name: defaultSheet}}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nxerrors.New(nxerrors.ExportFailed, "creating header style", err)
	}

	for i, s := range sheets {
		name := s.Name
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nxerrors.New(nxerrors.ExportFailed, "naming sheet "+name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nxerrors.New(nxerrors.ExportFailed, "adding sheet "+name, err)
		}

		if err := writeRow(f, name, 1, s.Headers); err != nil {
			return err
		}
		if len(s.Headers) > 0 {
			if err := f.SetRowStyle(name, 1, 1, headerStyle); err != nil {
				return nxerrors.New(nxerrors.ExportFailed, "styling sheet "+name, err)
			}
		}
		for r, row := range s.Rows {
			if err := writeRow(f, name, r+2, row); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return nxerrors.New(nxerrors.ExportFailed, "writing workbook", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return nxerrors.New(nxerrors.ExportFailed, fmt.Sprintf("sheet %s row %d", sheet, row), err)
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return nxerrors.New(nxerrors.ExportFailed, fmt.Sprintf("sheet %s row %d", sheet, row), err)
	}
	return nil
}

// ReadXLSX loads every worksheet. The first row of each sheet is its header
// row; fully blank data rows are dropped.
func ReadXLSX(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nxerrors.New(nxerrors.StructuralParse, "opening workbook", err)
	}
	defer func() { _ = f.Close() }()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, nxerrors.New(nxerrors.StructuralParse, "reading sheet "+name, err)
		}
		s := Sheet{Name: name, Rows: [][]string{}}
		if len(rows) > 0 {
			s.Headers = rows[0]
			for _, row := range rows[1:] {
				if !blank(row) {
					s.Rows = append(s.Rows, row)
				}
			}
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
