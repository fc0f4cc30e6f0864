package parse

import "strings"

// columnSpec maps a semantic column name to the header keywords that
// identify it. Matching is case-insensitive substring, tolerant of the
// abbreviation styles German invoice layouts use ("Art.-Nr.", "Einzelpreis").
type columnSpec struct {
	name     string
	keywords []string
	required bool
}

// columnMap holds resolved column indices by semantic name.
type columnMap map[string]int

// locateHeader scans a table for a row satisfying all required columns.
// Returns the resolved columns and the header row index.
func locateHeader(table [][]string, specs []columnSpec) (columnMap, int, bool) {
	for rowIdx, row := range table {
		cols := make(columnMap)
		for colIdx, cell := range row {
			lower := strings.ToLower(cell)
			for _, cs := range specs {
				if _, done := cols[cs.name]; done {
					continue
				}
				for _, kw := range cs.keywords {
					if strings.Contains(lower, kw) {
						cols[cs.name] = colIdx
						break
					}
				}
			}
		}

		satisfied := true
		for _, cs := range specs {
			if !cs.required {
				continue
			}
			if _, ok := cols[cs.name]; !ok {
				satisfied = false
				break
			}
		}
		if satisfied {
			return cols, rowIdx, true
		}
	}
	return nil, 0, false
}

// cell returns the trimmed cell at the mapped column, or "" when the row is
// too short or the column is unmapped.
func (m columnMap) cell(row []string, name string) string {
	idx, ok := m[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// summaryMarkers flag non-item rows inside invoice tables.
var summaryMarkers = []string{
	"zwischensumme", "gesamtsumme", "summe", "übertrag", "uebertrag",
	"mwst", "mehrwertsteuer", "versandkosten", "netto", "brutto",
}

// isSummaryRow reports whether a table row is a totals/carry-over line
// rather than an invoice position.
func isSummaryRow(row []string) bool {
	joined := strings.ToLower(strings.Join(row, " "))
	for _, marker := range summaryMarkers {
		if strings.Contains(joined, marker) {
			return true
		}
	}
	return false
}
