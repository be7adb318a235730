package forecast

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/theirongolddev/cashcast/internal/model"
)

// normalizeName reduces a transaction description to its stable words:
// lower-cased, with digit-bearing tokens (dates, references, card suffixes)
// and punctuation removed.
func normalizeName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	kept := fields[:0]
	for _, f := range fields {
		if strings.IndexFunc(f, unicode.IsDigit) >= 0 {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return lower
	}
	return strings.Join(kept, " ")
}

func signatureKey(ct model.CategoryType, normalized string) string {
	return ct.String() + "|" + normalized
}

// nameDistance is the edit distance normalized by the longer name, in [0, 1].
func nameDistance(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// splitSignature returns the category type prefix and the normalized name.
func splitSignature(sig string) (string, string) {
	prefix, name, _ := strings.Cut(sig, "|")
	return prefix, name
}

// closestSignature finds the candidate of the same category type whose name
// is within maxDistance of key's name. Ties keep the earlier candidate.
func closestSignature(key string, candidates []string, maxDistance float64) (string, bool) {
	prefix, name := splitSignature(key)
	best, bestDist := "", maxDistance
	for _, c := range candidates {
		cp, cn := splitSignature(c)
		if cp != prefix {
			continue
		}
		if d := nameDistance(name, cn); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}
