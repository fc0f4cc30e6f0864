package parse

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puehres/product-import/internal/extract"
	"github.com/puehres/product-import/internal/supplier"
)

func doengesInvoiceTable() extract.Table {
	return extract.Table{
		{"Pos", "Art.-Nr.", "Warengruppe", "Bezeichnung", "Menge", "Einzelpreis", "Gesamt"},
		{"1", "204711", "Stiefel", "HAIX Fire Hero Xtreme, Herst.-Nr. 507223, Gr. 44", "2", "319,90", "639,80"},
		{"2", "310265", "Atemschutz", "Dräger X-plore 3300 (Herst.Nr: R 55330)", "10", "24,50", "245,00"},
		{"3", "450112", "Werkzeug", "Feuerwehraxt nach DIN 14900", "4", "49,00", "196,00"},
		{"4", "998001", "Handschuhe", "Seiz Fire Fighter Premium, Herst.-Nr. SZ-91740", "6 Paar", "42,00", "252,00"},
		{"5", "120330", "Werkzeug", "Holmatro Schneidgerät, Herst.-Nr. CU 5050", "keine", "1.234,56", ""},
		{"Zwischensumme", "", "", "", "", "", "2.567,36"},
	}
}

func TestDoengesParser(t *testing.T) {
	p := NewDoengesParser()
	result := p.Parse([]extract.Table{doengesInvoiceTable()})

	require.Len(t, result.Items, 4)
	require.Len(t, result.Failures, 1)

	first := result.Items[0]
	assert.Equal(t, supplier.IDDoenges, first.SupplierID)
	assert.Equal(t, "204711", first.SupplierArticleNo)
	assert.Equal(t, "HAIX", first.Manufacturer)
	assert.Equal(t, "507223", first.ManufacturerArticleNo)
	assert.Equal(t, "HAIX Fire Hero Xtreme", first.DisplayName)
	assert.Equal(t, "Stiefel", first.Category)
	assert.Equal(t, 2, first.Quantity)
	assert.True(t, first.UnitPrice.Equal(decimal.RequireFromString("319.90")))
	assert.Equal(t, "EUR", first.Currency)
	assert.Equal(t, 1, first.Position)

	second := result.Items[1]
	assert.Equal(t, "Dräger", second.Manufacturer)
	assert.Equal(t, "R55330", second.ManufacturerArticleNo)
	assert.Equal(t, 2, second.Position)

	// No manufacturer reference: still a valid item, just no dedup key.
	third := result.Items[2]
	assert.Empty(t, third.Manufacturer)
	assert.Empty(t, third.ManufacturerArticleNo)
	assert.Equal(t, "Feuerwehraxt nach DIN 14900", third.DisplayName)
	assert.Equal(t, 3, third.Position)

	// The SZ prefix is stripped because Seiz is a known manufacturer.
	fourth := result.Items[3]
	assert.Equal(t, "Seiz", fourth.Manufacturer)
	assert.Equal(t, "91740", fourth.ManufacturerArticleNo)
	assert.Equal(t, 6, fourth.Quantity)
	assert.Equal(t, 4, fourth.Position)

	// Unparseable quantity fails the row without aborting the rest.
	failure := result.Failures[0]
	assert.Equal(t, 5, failure.Position)
	assert.Contains(t, failure.Raw, "Holmatro")
	assert.NotEmpty(t, failure.Reason)
}

func TestDoengesParserSkipsContinuationRows(t *testing.T) {
	table := extract.Table{
		{"Pos", "Art.-Nr.", "Bezeichnung", "Menge", "Einzelpreis"},
		{"1", "204711", "HAIX Fire Hero Xtreme, Herst.-Nr. 507223", "2", "319,90"},
		{"Gr. 44, schwarz"},
		{"2", "310265", "Dräger X-plore 3300", "10", "24,50"},
	}

	result := NewDoengesParser().Parse([]extract.Table{table})

	require.Len(t, result.Items, 2)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 1, result.Items[0].Position)
	assert.Equal(t, 2, result.Items[1].Position)
}

func TestDoengesParserNoHeader(t *testing.T) {
	table := extract.Table{
		{"Lieferadresse", "Rechnungsadresse"},
		{"Musterstraße 1", "Musterstraße 1"},
	}

	result := NewDoengesParser().Parse([]extract.Table{table})
	assert.Empty(t, result.Items)
	assert.Empty(t, result.Failures)
}

func TestDoengesParserMetadata(t *testing.T) {
	meta := NewDoengesParser().Metadata()
	assert.Equal(t, supplier.IDDoenges, meta.SupplierID)
	assert.True(t, meta.MultiManufacturer)
}
