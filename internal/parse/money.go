package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyMarkers = map[string]string{
	"€":   "EUR",
	"eur": "EUR",
	"chf": "CHF",
	"$":   "USD",
	"usd": "USD",
}

var quantityPattern = regexp.MustCompile(`^(\d+)(?:[.,]0+)?(?:\s*(?:stk|st|stück|stueck|paar|pcs?))?\.?$`)

// ParseAmount parses a German-format money cell such as "1.234,56",
// "319,90 €" or "EUR 49,00" into a decimal amount and a currency code.
// The currency defaults to empty when the cell carries no marker.
func ParseAmount(cell string) (decimal.Decimal, string, error) {
	s := strings.TrimSpace(strings.ToLower(cell))
	if s == "" {
		return decimal.Zero, "", fmt.Errorf("empty amount")
	}

	currency := ""
	for marker, code := range currencyMarkers {
		if strings.Contains(s, marker) {
			currency = code
			s = strings.ReplaceAll(s, marker, "")
			break
		}
	}
	s = strings.TrimSpace(s)

	// German notation: dot groups thousands, comma separates decimals.
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("malformed amount %q", cell)
	}
	if amount.IsNegative() {
		return decimal.Zero, "", fmt.Errorf("negative amount %q", cell)
	}
	return amount, currency, nil
}

// ParseQuantity parses a quantity cell such as "2", "2,00" or "4 Stk".
func ParseQuantity(cell string) (int, error) {
	s := strings.TrimSpace(strings.ToLower(cell))
	m := quantityPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("malformed quantity %q", cell)
	}
	qty, err := strconv.Atoi(m[1])
	if err != nil || qty < 1 {
		return 0, fmt.Errorf("quantity must be >= 1, got %q", cell)
	}
	return qty, nil
}
