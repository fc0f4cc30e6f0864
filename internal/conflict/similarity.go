package conflict

import (
	"strings"

	"github.com/agext/levenshtein"
)

// NameSimilarity returns a similarity ratio in [0,1] between two product
// display names. Names are compared case-insensitively with whitespace
// collapsed, so formatting drift between invoices does not register as a
// naming conflict.
func NameSimilarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == nb {
		return 1.0
	}
	return levenshtein.Similarity(na, nb, nil)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
