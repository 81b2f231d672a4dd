package pdf

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/docforge/docextract/internal/extract"
)

// Table detection over positioned page text. Characters are grouped into
// rows by Y coordinate, rows are split into cells at large horizontal gaps,
// and runs of consecutive rows sharing the same column count form a table.
// Best-effort by design: prose rows collapse into a single cell and never
// qualify.
const (
	rowTolerance = 3.0  // same-row Y tolerance, points
	cellGap      = 18.0 // min horizontal gap separating two cells, points
	spaceFactor  = 0.3  // fraction of font size treated as a word space
	minTableCols = 2
	minTableRows = 2
)

func detectTables(texts []pdf.Text, page int) []extract.Table {
	rows := buildRows(texts)
	if len(rows) < minTableRows {
		return nil
	}

	var tables []extract.Table
	run := [][]string{}

	flush := func() {
		if len(run) >= minTableRows {
			tables = append(tables, extract.Table{Page: page, Rows: run})
		}
		run = [][]string{}
	}

	for _, row := range rows {
		switch {
		case len(row) < minTableCols:
			flush()
		case len(run) > 0 && len(run[len(run)-1]) != len(row):
			flush()
			run = append(run, row)
		default:
			run = append(run, row)
		}
	}
	flush()

	return tables
}

// buildRows groups positioned characters into rows of cell strings, top to
// bottom, left to right. PDF Y coordinates grow upward, so rows sort by
// descending Y.
func buildRows(texts []pdf.Text) [][]string {
	items := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		items = append(items, t)
	}
	if len(items) == 0 {
		return nil
	}

	sort.SliceStable(items, func(i, j int) bool {
		if diff := items[i].Y - items[j].Y; diff > rowTolerance || diff < -rowTolerance {
			return items[i].Y > items[j].Y
		}
		return items[i].X < items[j].X
	})

	var rows [][]string
	var line []pdf.Text
	lineY := items[0].Y

	for _, t := range items {
		if lineY-t.Y > rowTolerance {
			rows = append(rows, splitCells(line))
			line = line[:0]
			lineY = t.Y
		}
		line = append(line, t)
	}
	rows = append(rows, splitCells(line))

	return rows
}

// splitCells walks one row left to right, starting a new cell whenever the
// horizontal gap exceeds cellGap and inserting word spaces for smaller gaps.
func splitCells(line []pdf.Text) []string {
	var (
		cells []string
		cur   strings.Builder
		right float64
	)

	for i, t := range line {
		if i > 0 {
			gap := t.X - right
			switch {
			case gap > cellGap:
				cells = append(cells, strings.TrimSpace(cur.String()))
				cur.Reset()
			case gap > spaceFactor*t.FontSize:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)
		if end := t.X + t.W; end > right {
			right = end
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))

	return cells
}
