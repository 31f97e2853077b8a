package registry

import (
	"regexp"
	"strings"
)

// legalSuffixes are entity-form words ignored when comparing trading names
// against registered names.
var legalSuffixes = map[string]struct{}{
	"ltd":     {},
	"limited": {},
	"plc":     {},
	"llp":     {},
	"company": {},
	"co":      {},
}

var punctuation = regexp.MustCompile(`[^a-z0-9\s]+`)

// nameWords normalizes a company name into its significant word set:
// lowercased, punctuation stripped, legal-entity suffixes removed.
func nameWords(name string) map[string]struct{} {
	cleaned := punctuation.ReplaceAllString(strings.ToLower(name), "")
	words := make(map[string]struct{})
	for _, w := range strings.Fields(cleaned) {
		if _, legal := legalSuffixes[w]; legal {
			continue
		}
		words[w] = struct{}{}
	}
	return words
}

// Similarity scores two company names by Jaccard similarity of their
// normalized word sets. Two names with no significant words score 0.
func Similarity(a, b string) float64 {
	wa, wb := nameWords(a), nameWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	intersection := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			intersection++
		}
	}
	union := len(wa) + len(wb) - intersection
	return float64(intersection) / float64(union)
}
