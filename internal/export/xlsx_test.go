package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/docforge/docextract/internal/extract"
)

func TestBuildWorkbookEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := BuildWorkbook(nil); !errors.Is(err, ErrNoTables) {
		t.Fatalf("expected ErrNoTables, got %v", err)
	}
}

func TestBuildWorkbookOneSheetPerTable(t *testing.T) {
	t.Parallel()

	tables := []extract.Table{
		{Page: 1, Rows: [][]string{{"Item", "Qty"}, {"Apple", "2"}}},
		{Page: 3, Rows: [][]string{{"X"}, {"Y"}}},
	}

	data, err := BuildWorkbook(tables)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("expected 2 sheets, got %v", sheets)
	}

	got, err := f.GetCellValue(sheets[0], "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "Apple" {
		t.Errorf("A2 = %q, want Apple", got)
	}

	got, err = f.GetCellValue(sheets[1], "A1")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "X" {
		t.Errorf("sheet 2 A1 = %q, want X", got)
	}
}

func TestBuildWorkbookHandlesEmptyCells(t *testing.T) {
	t.Parallel()

	tables := []extract.Table{
		{Page: 1, Rows: [][]string{{"a", ""}, {"", "b"}}},
	}
	if _, err := BuildWorkbook(tables); err != nil {
		t.Fatalf("build workbook: %v", err)
	}
}
