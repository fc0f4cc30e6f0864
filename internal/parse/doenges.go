package parse

import (
	"fmt"
	"strings"

	"github.com/puehres/product-import/internal/extract"
	"github.com/puehres/product-import/internal/supplier"
)

// DoengesParser parses Dönges wholesale invoices. Dönges resells many
// manufacturers on one invoice; the description cell leads with the
// manufacturer name and usually carries the manufacturer's own article
// number as a "Herst.-Nr." reference. Positions without that reference
// produce line items with an empty dedup key.
type DoengesParser struct {
	rules []ManufacturerRule
}

var _ Parser = (*DoengesParser)(nil)

// NewDoengesParser creates the Dönges invoice strategy.
func NewDoengesParser() *DoengesParser {
	return &DoengesParser{rules: doengesManufacturers}
}

// Metadata describes this strategy.
func (p *DoengesParser) Metadata() Metadata {
	return Metadata{
		SupplierID:        supplier.IDDoenges,
		Description:       "Dönges wholesale invoice (multi-manufacturer)",
		MultiManufacturer: true,
	}
}

var doengesColumns = []columnSpec{
	{name: "pos", keywords: []string{"pos"}},
	{name: "article", keywords: []string{"art.-nr", "art-nr", "artikelnr", "artikel-nr"}, required: true},
	{name: "category", keywords: []string{"warengruppe"}},
	{name: "description", keywords: []string{"bezeichnung", "beschreibung"}, required: true},
	{name: "quantity", keywords: []string{"menge", "anzahl"}, required: true},
	{name: "price", keywords: []string{"einzelpreis", "preis/st", "e-preis"}, required: true},
	{name: "total", keywords: []string{"gesamt"}},
}

// Parse extracts line items from all tables carrying the Dönges layout.
func (p *DoengesParser) Parse(tables []extract.Table) Result {
	var result Result
	position := 0

	for _, table := range tables {
		cols, headerIdx, ok := locateHeader(table, doengesColumns)
		if !ok {
			continue
		}

		for _, row := range table[headerIdx+1:] {
			if isSummaryRow(row) {
				continue
			}
			// Wrapped description continuations carry too few cells to
			// be a position of their own.
			if len(row) < 4 {
				continue
			}

			position++
			item, err := p.parseRow(cols, row, position)
			if err != nil {
				result.Failures = append(result.Failures, RowError{
					Position: position,
					Raw:      strings.Join(row, " | "),
					Reason:   err.Error(),
				})
				continue
			}
			result.Items = append(result.Items, item)
		}
	}

	return result
}

func (p *DoengesParser) parseRow(cols columnMap, row []string, position int) (LineItem, error) {
	description := cols.cell(row, "description")
	if description == "" {
		return LineItem{}, fmt.Errorf("missing description")
	}

	quantity, err := ParseQuantity(cols.cell(row, "quantity"))
	if err != nil {
		return LineItem{}, err
	}

	price, currency, err := ParseAmount(cols.cell(row, "price"))
	if err != nil {
		return LineItem{}, err
	}
	if currency == "" {
		currency = "EUR"
	}

	item := LineItem{
		SupplierID:        supplier.IDDoenges,
		SupplierArticleNo: cols.cell(row, "article"),
		Category:          cols.cell(row, "category"),
		DisplayName:       displayName(description),
		Quantity:          quantity,
		UnitPrice:         price,
		Currency:          currency,
		RawText:           strings.Join(row, " | "),
		Position:          position,
	}

	if rule, ok := matchManufacturer(description, p.rules); ok {
		item.Manufacturer = rule.Name
		if raw, found := extractManufacturerArticleNo(description); found {
			item.ManufacturerArticleNo = NormalizeArticleNo(raw, rule.Codes...)
		}
	} else if raw, found := extractManufacturerArticleNo(description); found {
		// Unrecognized manufacturer but an explicit reference: keep the
		// normalized key so dedup still works across invoices.
		item.ManufacturerArticleNo = NormalizeArticleNo(raw)
	}

	return item, nil
}

// displayName truncates a description cell at the Herst.-Nr. reference.
// Everything after the reference is size or variant detail ("Gr. 44"), not
// part of the product name.
func displayName(description string) string {
	name := description
	if loc := herstNrPattern.FindStringIndex(description); loc != nil {
		name = description[:loc[0]]
	}
	name = strings.TrimRight(strings.TrimSpace(name), ",;(")
	return strings.TrimSpace(name)
}
