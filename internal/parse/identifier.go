package parse

import (
	"regexp"
	"strings"
)

// ManufacturerRule identifies a manufacturer inside a wholesale invoice
// description and the article number prefixes that manufacturer uses.
type ManufacturerRule struct {
	Name  string
	Codes []string // prefix conventions seen on article numbers, e.g. "HX"
}

// Manufacturers resold through Dönges wholesale invoices. The leading token
// of the description cell names the manufacturer.
var doengesManufacturers = []ManufacturerRule{
	{Name: "HAIX", Codes: []string{"HX", "HAIX"}},
	{Name: "Dräger", Codes: []string{"DR", "DRAEGER"}},
	{Name: "Holmatro", Codes: []string{"HM", "HOLMATRO"}},
	{Name: "Seiz", Codes: []string{"SZ", "SEIZ"}},
	{Name: "Rosenbauer", Codes: []string{"RB", "ROSENBAUER"}},
}

// The captured value must start with an alphanumeric so a label whose value
// wrapped onto the next line does not match with just punctuation.
var herstNrPattern = regexp.MustCompile(`(?i)herst(?:eller)?\.?\s*-?\s*nr\.?:?\s*([A-Za-z0-9][A-Za-z0-9./\- ]*?)(?:[,;)]|$)`)

var identifierSeparators = strings.NewReplacer(" ", "", ".", "", "-", "", "/", "", "_", "")

// NormalizeArticleNo canonicalizes a manufacturer article number: uppercase,
// separators removed, and a known manufacturer code prefix stripped so that
// "HX-507.223" and "507223" refer to the same product.
func NormalizeArticleNo(raw string, codes ...string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = identifierSeparators.Replace(s)

	for _, code := range codes {
		code = strings.ToUpper(code)
		// Only strip when something remains; "HX" alone is not an
		// article number with its prefix removed.
		if rest, ok := strings.CutPrefix(s, code); ok && rest != "" {
			return rest
		}
	}
	return s
}

// matchManufacturer matches the leading token of a description cell against
// the known manufacturer rules.
func matchManufacturer(description string, rules []ManufacturerRule) (ManufacturerRule, bool) {
	fields := strings.Fields(description)
	if len(fields) == 0 {
		return ManufacturerRule{}, false
	}

	lead := strings.ToLower(strings.Trim(fields[0], ",.:"))
	for _, rule := range rules {
		if strings.ToLower(rule.Name) == lead {
			return rule, true
		}
		for _, code := range rule.Codes {
			if strings.ToLower(code) == lead {
				return rule, true
			}
		}
	}
	return ManufacturerRule{}, false
}

// extractManufacturerArticleNo pulls a "Herst.-Nr. 507223" style reference
// out of a description cell. Returns the raw captured value; callers
// normalize it.
func extractManufacturerArticleNo(description string) (string, bool) {
	m := herstNrPattern.FindStringSubmatch(description)
	if m == nil {
		return "", false
	}
	value := strings.TrimSpace(m[1])
	if value == "" {
		return "", false
	}
	return value, true
}
