package export

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/docforge/docextract/internal/extract"
)

// ErrNoTables is returned when a document has nothing tabular to export.
var ErrNoTables = errors.New("document has no tables")

// BuildWorkbook renders the extracted tables into one XLSX workbook, one
// sheet per table, and returns the serialized bytes.
func BuildWorkbook(tables []extract.Table) ([]byte, error) {
	if len(tables) == 0 {
		return nil, ErrNoTables
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	for i, tbl := range tables {
		sheet := fmt.Sprintf("Table %d (p%d)", i+1, tbl.Page)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("add sheet: %w", err)
		}

		for r, row := range tbl.Rows {
			for c, cell := range row {
				name, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, fmt.Errorf("cell name: %w", err)
				}
				if err := f.SetCellValue(sheet, name, cell); err != nil {
					return nil, fmt.Errorf("set cell: %w", err)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
