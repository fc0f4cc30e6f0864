package parse

import (
	"fmt"
	"strings"

	"github.com/puehres/product-import/internal/extract"
	"github.com/puehres/product-import/internal/supplier"
)

// SeizParser parses invoices from Friedrich Seiz GmbH, a single-manufacturer
// supplier: every position is a Seiz product and the supplier's article
// number is the manufacturer's own, so it doubles as the dedup key after
// normalization.
type SeizParser struct{}

var _ Parser = (*SeizParser)(nil)

// NewSeizParser creates the Seiz invoice strategy.
func NewSeizParser() *SeizParser {
	return &SeizParser{}
}

// Metadata describes this strategy.
func (p *SeizParser) Metadata() Metadata {
	return Metadata{
		SupplierID:        supplier.IDSeiz,
		Description:       "Seiz direct invoice (single manufacturer)",
		MultiManufacturer: false,
	}
}

const seizManufacturer = "Seiz"

var seizColumns = []columnSpec{
	{name: "pos", keywords: []string{"pos"}},
	{name: "article", keywords: []string{"artikel", "art.-nr", "art-nr"}, required: true},
	{name: "description", keywords: []string{"bezeichnung", "modell"}, required: true},
	{name: "category", keywords: []string{"warengruppe", "serie"}},
	{name: "quantity", keywords: []string{"menge", "anzahl"}, required: true},
	{name: "price", keywords: []string{"preis"}, required: true},
}

// Parse extracts line items from all tables carrying the Seiz layout.
func (p *SeizParser) Parse(tables []extract.Table) Result {
	var result Result
	position := 0

	for _, table := range tables {
		cols, headerIdx, ok := locateHeader(table, seizColumns)
		if !ok {
			continue
		}

		for _, row := range table[headerIdx+1:] {
			if isSummaryRow(row) {
				continue
			}
			if len(row) < 3 {
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

func (p *SeizParser) parseRow(cols columnMap, row []string, position int) (LineItem, error) {
	article := cols.cell(row, "article")
	if article == "" {
		return LineItem{}, fmt.Errorf("missing article number")
	}

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

	return LineItem{
		SupplierID:            supplier.IDSeiz,
		SupplierArticleNo:     article,
		Manufacturer:          seizManufacturer,
		ManufacturerArticleNo: NormalizeArticleNo(article, "SZ", "SEIZ"),
		Category:              cols.cell(row, "category"),
		DisplayName:           displayName(description),
		Quantity:              quantity,
		UnitPrice:             price,
		Currency:              currency,
		RawText:               strings.Join(row, " | "),
		Position:              position,
	}, nil
}
