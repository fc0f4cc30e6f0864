// Package conflict compares an incoming invoice line item against the
// persisted product record sharing its manufacturer article number and
// reports field-level discrepancies. Detection is pure: the detector never
// touches storage and never mutates its inputs.
package conflict

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/puehres/product-import/internal/parse"
	"github.com/puehres/product-import/internal/storage"
)

// Severity grades a detected conflict.
type Severity string

const (
	SeverityMinor Severity = "minor"
	SeverityMajor Severity = "major"
)

// Field names a product attribute that can conflict.
type Field string

const (
	FieldPrice        Field = "unit_price"
	FieldName         Field = "display_name"
	FieldCategory     Field = "category"
	FieldManufacturer Field = "manufacturer"
)

// Conflict is one field-level discrepancy between the stored record and the
// incoming line item.
type Conflict struct {
	Field          Field
	Severity       Severity
	Existing       string
	Incoming       string
	AutoResolvable bool
	Detail         string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s [%s]: existing %q vs incoming %q (%s)",
		c.Field, c.Severity, c.Existing, c.Incoming, c.Detail)
}

// Config holds detection thresholds.
type Config struct {
	// PriceThreshold is the relative price deviation above which a price
	// difference becomes a conflict. 0.10 means deviations strictly greater
	// than 10% are flagged; a deviation of exactly 10% is not.
	PriceThreshold float64

	// NameSimilarityThreshold separates naming conflicts from acceptable
	// drift. Similarity strictly below it is a major conflict; similarity at
	// or above it but below 1.0 is a minor, auto-resolvable one.
	NameSimilarityThreshold float64
}

// DefaultConfig returns the detection thresholds used when none are
// configured.
func DefaultConfig() Config {
	return Config{
		PriceThreshold:          0.10,
		NameSimilarityThreshold: 0.8,
	}
}

// Detector compares incoming line items against stored product records.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector. Zero thresholds fall back to defaults.
func NewDetector(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.PriceThreshold <= 0 {
		cfg.PriceThreshold = def.PriceThreshold
	}
	if cfg.NameSimilarityThreshold <= 0 {
		cfg.NameSimilarityThreshold = def.NameSimilarityThreshold
	}
	return &Detector{cfg: cfg}
}

// Detect returns all conflicts between the stored record and the incoming
// item. An empty slice means the item is a clean duplicate.
func (d *Detector) Detect(existing *storage.ProductRecord, incoming parse.LineItem) []Conflict {
	var conflicts []Conflict

	if c, ok := d.priceConflict(existing.UnitPrice, incoming.UnitPrice); ok {
		conflicts = append(conflicts, c)
	}
	if c, ok := d.nameConflict(existing.DisplayName, incoming.DisplayName); ok {
		conflicts = append(conflicts, c)
	}
	if c, ok := exactMismatch(FieldCategory, existing.Category, incoming.Category); ok {
		conflicts = append(conflicts, c)
	}
	if c, ok := exactMismatch(FieldManufacturer, existing.Manufacturer, incoming.Manufacturer); ok {
		conflicts = append(conflicts, c)
	}

	return conflicts
}

func (d *Detector) priceConflict(existing, incoming decimal.Decimal) (Conflict, bool) {
	if existing.Equal(incoming) {
		return Conflict{}, false
	}

	base := existing
	if base.IsZero() {
		// A stored zero price cannot anchor a relative deviation; any
		// non-zero incoming price is a full deviation.
		base = incoming
	}

	deviation, _ := incoming.Sub(existing).Abs().Div(base.Abs()).Float64()
	if deviation <= d.cfg.PriceThreshold {
		return Conflict{}, false
	}

	return Conflict{
		Field:    FieldPrice,
		Severity: SeverityMajor,
		Existing: existing.String(),
		Incoming: incoming.String(),
		Detail:   fmt.Sprintf("deviation %.1f%% exceeds %.1f%%", deviation*100, d.cfg.PriceThreshold*100),
	}, true
}

func (d *Detector) nameConflict(existing, incoming string) (Conflict, bool) {
	similarity := NameSimilarity(existing, incoming)
	if similarity >= 1.0 {
		return Conflict{}, false
	}

	c := Conflict{
		Field:    FieldName,
		Existing: existing,
		Incoming: incoming,
		Detail:   fmt.Sprintf("similarity %.2f, threshold %.2f", similarity, d.cfg.NameSimilarityThreshold),
	}
	if similarity < d.cfg.NameSimilarityThreshold {
		c.Severity = SeverityMajor
	} else {
		c.Severity = SeverityMinor
		c.AutoResolvable = true
	}
	return c, true
}

func exactMismatch(field Field, existing, incoming string) (Conflict, bool) {
	// Absent values on either side are not a disagreement.
	if existing == "" || incoming == "" || existing == incoming {
		return Conflict{}, false
	}
	return Conflict{
		Field:    field,
		Severity: SeverityMajor,
		Existing: existing,
		Incoming: incoming,
		Detail:   "exact mismatch",
	}, true
}

// RequiresReview reports whether any of the conflicts needs a human, i.e.
// at least one is not auto-resolvable.
func RequiresReview(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if !c.AutoResolvable {
			return true
		}
	}
	return false
}
