// Package match holds the token matcher the catalog search delegates to,
// plus a fuzzy "did you mean" helper for empty result sets.
package match

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Tokens splits a raw query into matcher tokens on whitespace.
func Tokens(query string) []string {
	return strings.Fields(query)
}

// AllTokens reports whether every token occurs in name, case-insensitively.
// An empty token list matches nothing; callers that want match-everything
// must say so some other way.
func AllTokens(name string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	ln := strings.ToLower(name)
	for _, tok := range tokens {
		if !strings.Contains(ln, strings.ToLower(tok)) {
			return false
		}
	}
	return true
}

// minSuggestScore is the similarity floor below which Closest stays quiet.
// Jaro-Winkler scores run high for short strings, so the floor is strict.
const minSuggestScore = 0.82

// Closest returns the candidate most similar to query, for suggestion hints
// when a search comes back empty. Returns "" when nothing clears the floor.
func Closest(query string, candidates []string) string {
	if strings.TrimSpace(query) == "" {
		return ""
	}
	metric := &metrics.JaroWinkler{CaseSensitive: false}
	best, bestScore := "", minSuggestScore
	for _, c := range candidates {
		if score := strutil.Similarity(query, c, metric); score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}
