// Package parse turns candidate invoice tables into structured line items.
// One parser strategy exists per supported supplier; strategies are selected
// through a construction-time registry keyed by supplier ID.
package parse

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/puehres/product-import/internal/extract"
)

// LineItem is one structured invoice position. Immutable once produced.
type LineItem struct {
	SupplierID            string
	SupplierArticleNo     string
	Manufacturer          string
	ManufacturerArticleNo string // unique dedup key; may be absent
	Category              string
	DisplayName           string
	Quantity              int
	UnitPrice             decimal.Decimal
	Currency              string
	RawText               string
	Position              int // 1-based order within the document
}

// RowError records one row that could not be parsed. Row failures are
// recovered locally and counted toward the batch success rate; they never
// abort parsing.
type RowError struct {
	Position int
	Raw      string
	Reason   string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s (%q)", e.Position, e.Reason, e.Raw)
}

// Result is the outcome of parsing one document.
type Result struct {
	Items    []LineItem
	Failures []RowError
}

// SuccessRate returns the fraction of data rows parsed successfully, or
// zero when the document contained no data rows.
func (r Result) SuccessRate() float64 {
	total := len(r.Items) + len(r.Failures)
	if total == 0 {
		return 0
	}
	return float64(len(r.Items)) / float64(total)
}

// Metadata describes a parser strategy.
type Metadata struct {
	SupplierID        string
	Description       string
	MultiManufacturer bool
}

// Parser is the per-supplier parsing strategy. Parse must tolerate
// partially malformed rows: an unparsable row becomes a RowError in the
// result, and a document with zero valid rows yields an empty result, not
// an error.
type Parser interface {
	Parse(tables []extract.Table) Result
	Metadata() Metadata
}

// Registry maps supplier IDs to parser strategies. Like the supplier
// registry it is assembled at construction time, so tests can register fake
// strategies.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a parser registry.
func NewRegistry(parsers ...Parser) (*Registry, error) {
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range parsers {
		id := p.Metadata().SupplierID
		if id == "" {
			return nil, fmt.Errorf("parser metadata missing supplier ID")
		}
		if _, exists := r.parsers[id]; exists {
			return nil, fmt.Errorf("duplicate parser for supplier %q", id)
		}
		r.parsers[id] = p
	}
	return r, nil
}

// For returns the parser registered for the given supplier.
func (r *Registry) For(supplierID string) (Parser, bool) {
	p, ok := r.parsers[supplierID]
	return p, ok
}

// DefaultRegistry returns the registry of production parser strategies.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		NewDoengesParser(),
		NewSeizParser(),
	)
	if err != nil {
		panic(err)
	}
	return r
}
