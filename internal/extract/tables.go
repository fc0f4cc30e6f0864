package extract

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Row grouping tolerances in PDF points. Text runs whose baselines differ by
// less than yTolerance belong to the same visual row; a horizontal gap wider
// than cellGap starts a new cell.
const (
	yTolerance = 2.0
	cellGap    = 10.0
)

// textRow is one visual row of positioned text runs.
type textRow struct {
	y    float64
	runs []pdf.Text
}

// groupIntoRows clusters positioned text runs into visual rows, top to
// bottom, each row's runs ordered left to right. PDF generators frequently
// emit text run-by-run or even character-by-character, so runs are merged
// later during cell splitting.
func groupIntoRows(texts []pdf.Text) []textRow {
	if len(texts) == 0 {
		return nil
	}

	var rows []textRow
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}

		placed := false
		for i := range rows {
			if abs(rows[i].y-t.Y) < yTolerance {
				rows[i].runs = append(rows[i].runs, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, textRow{y: t.Y, runs: []pdf.Text{t}})
		}
	}

	// PDF origin is bottom-left: larger Y is higher on the page.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	for i := range rows {
		runs := rows[i].runs
		sort.SliceStable(runs, func(a, b int) bool { return runs[a].X < runs[b].X })
	}
	return rows
}

// splitCells merges a row's runs into cells using horizontal gap detection.
func splitCells(row textRow) []string {
	var cells []string
	var cell strings.Builder
	var prevEnd float64

	for i, run := range row.runs {
		if i > 0 && run.X-prevEnd > cellGap {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		}
		cell.WriteString(run.S)
		end := run.X + run.W
		if end > prevEnd {
			prevEnd = end
		}
	}
	if cell.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cell.String()))
	}

	out := cells[:0]
	for _, c := range cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// tablesFromRows groups consecutive multi-cell rows into candidate tables.
// A run of fewer than two such rows is layout noise, not a table.
func tablesFromRows(rows []textRow) []Table {
	var tables []Table
	var current Table

	flush := func() {
		if len(current) >= 2 {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, row := range rows {
		cells := splitCells(row)
		if len(cells) >= 2 {
			current = append(current, cells)
		} else {
			flush()
		}
	}
	flush()

	return tables
}

// joinRows renders rows back into plain text, used when the library's
// plain-text path fails for a page.
func joinRows(rows []textRow) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Join(splitCells(row), " "))
	}
	return b.String()
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
