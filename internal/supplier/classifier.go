package supplier

import (
	"fmt"
	"strings"

	"github.com/puehres/product-import/internal/observability"
)

// Method describes how a supplier was identified.
type Method string

const (
	// MethodHeaderPattern means the supplier's primary letterhead signal
	// (company name grade, weight >= primarySignalWeight) was found.
	MethodHeaderPattern Method = "header_pattern"
	// MethodFallback means only secondary signals (domain or address
	// fragments) carried the match.
	MethodFallback Method = "fallback"
)

const primarySignalWeight = 0.5

// Match is the result of classifying a document against the registry.
type Match struct {
	SupplierID     string
	Confidence     float64
	MatchedSignals []string
	Method         Method
}

// UnknownSupplierError indicates no registered supplier scored above the
// configured minimum confidence. It carries the supported supplier IDs so
// callers can present them to the user.
type UnknownSupplierError struct {
	BestID         string
	BestConfidence float64
	Supported      []string
}

func (e *UnknownSupplierError) Error() string {
	return fmt.Sprintf("no supplier matched with sufficient confidence (best %q at %.2f); supported suppliers: %s",
		e.BestID, e.BestConfidence, strings.Join(e.Supported, ", "))
}

// Classifier scores extracted document text against a supplier registry.
type Classifier struct {
	registry      *Registry
	minConfidence float64
	logger        *observability.Logger
}

// NewClassifier creates a classifier over the given registry.
func NewClassifier(registry *Registry, minConfidence float64, logger *observability.Logger) *Classifier {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Classifier{
		registry:      registry,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

// Classify scores every registered supplier against the text and returns the
// best match. Each signal contributes its weight at most once; the per-
// supplier sum is clamped to 1.0. Exact ties go to the supplier registered
// first, which keeps classification deterministic across runs. A best score
// below the configured minimum fails with UnknownSupplierError.
func (c *Classifier) Classify(text string) (Match, error) {
	lower := strings.ToLower(text)

	best := Match{Confidence: -1}
	for _, def := range c.registry.Definitions() {
		match := scoreSupplier(def, lower)
		if match.Confidence > best.Confidence {
			best = match
		}
	}

	if best.Confidence < c.minConfidence || best.SupplierID == "" {
		c.logger.Warn().
			Str("best_supplier", best.SupplierID).
			Float64("confidence", best.Confidence).
			Msg("no supplier matched document")
		return Match{}, &UnknownSupplierError{
			BestID:         best.SupplierID,
			BestConfidence: max(best.Confidence, 0),
			Supported:      c.registry.IDs(),
		}
	}

	c.logger.Debug().
		Str("supplier_id", best.SupplierID).
		Float64("confidence", best.Confidence).
		Strs("signals", best.MatchedSignals).
		Msg("classified supplier")
	return best, nil
}

func scoreSupplier(def Definition, lowerText string) Match {
	match := Match{SupplierID: def.ID, Method: MethodFallback}

	var score float64
	for _, sig := range def.Signals {
		if strings.Contains(lowerText, strings.ToLower(sig.Pattern)) {
			score += sig.Weight
			match.MatchedSignals = append(match.MatchedSignals, sig.Pattern)
			if sig.Weight >= primarySignalWeight {
				match.Method = MethodHeaderPattern
			}
		}
	}

	match.Confidence = min(score, 1.0)
	return match
}
