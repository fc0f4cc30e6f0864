package extract

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(s string, x, y, w float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: w}
}

func TestGroupIntoRows_OrdersTopToBottom(t *testing.T) {
	texts := []pdf.Text{
		run("bottom", 10, 100, 30),
		run("top", 10, 700, 20),
		run("middle", 10, 400, 25),
	}

	rows := groupIntoRows(texts)

	require.Len(t, rows, 3)
	assert.Equal(t, "top", rows[0].runs[0].S)
	assert.Equal(t, "middle", rows[1].runs[0].S)
	assert.Equal(t, "bottom", rows[2].runs[0].S)
}

func TestGroupIntoRows_MergesNearbyBaselines(t *testing.T) {
	texts := []pdf.Text{
		run("Art", 10, 500.0, 15),
		run("ikel", 25.2, 500.8, 18), // same visual row, slightly off baseline
		run("next row", 10, 480, 40),
	}

	rows := groupIntoRows(texts)

	require.Len(t, rows, 2)
	assert.Len(t, rows[0].runs, 2)
}

func TestSplitCells_GapStartsNewCell(t *testing.T) {
	row := textRow{y: 500, runs: []pdf.Text{
		run("HX-", 10, 500, 14),
		run("507223", 24, 500, 28), // adjacent run, same cell
		run("Fire Hero 2", 120, 500, 60),
		run("2", 300, 500, 6),
		run("319,90", 380, 500, 30),
	}}

	cells := splitCells(row)

	assert.Equal(t, []string{"HX-507223", "Fire Hero 2", "2", "319,90"}, cells)
}

func TestTablesFromRows_RequiresTwoMultiCellRows(t *testing.T) {
	rows := []textRow{
		{y: 700, runs: []pdf.Text{run("Rechnung Nr. 2024-118", 10, 700, 120)}},
		{y: 650, runs: []pdf.Text{run("Pos", 10, 650, 15), run("Artikel", 80, 650, 40), run("Menge", 300, 650, 30)}},
		{y: 630, runs: []pdf.Text{run("1", 10, 630, 6), run("Helm HPS 7000", 80, 630, 80), run("4", 300, 630, 6)}},
		{y: 600, runs: []pdf.Text{run("Zwischensumme", 10, 600, 90)}},
		{y: 580, runs: []pdf.Text{run("Seite 1", 10, 580, 40), run("von 2", 100, 580, 30)}},
	}

	tables := tablesFromRows(rows)

	// The lone two-cell footer row does not qualify as a table.
	require.Len(t, tables, 1)
	require.Len(t, tables[0], 2)
	assert.Equal(t, []string{"Pos", "Artikel", "Menge"}, tables[0][0])
	assert.Equal(t, []string{"1", "Helm HPS 7000", "4"}, tables[0][1])
}

func TestTablesFromRows_SplitsOnSingleCellRow(t *testing.T) {
	multi := func(y float64) textRow {
		return textRow{y: y, runs: []pdf.Text{run("a", 10, y, 5), run("b", 200, y, 5)}}
	}
	rows := []textRow{
		multi(700), multi(680),
		{y: 660, runs: []pdf.Text{run("Lieferanschrift", 10, 660, 80)}},
		multi(640), multi(620), multi(600),
	}

	tables := tablesFromRows(rows)

	require.Len(t, tables, 2)
	assert.Len(t, tables[0], 2)
	assert.Len(t, tables[1], 3)
}
