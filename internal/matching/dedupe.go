// Package matching collapses near-duplicate listings returned by different
// product providers.
package matching

import (
	"math"
	"strings"
	"unicode"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

const (
	// Two listings are the same product only when both hold.
	TitleSimilarityThreshold = 0.8
	PriceDifferenceThreshold = 0.1
)

// Dedupe keeps the first occurrence of every product. Each candidate is
// compared against the already accepted ones only, so the pass is O(n²) in
// the number of survivors.
func Dedupe(candidates []domain.CandidateProduct) []domain.CandidateProduct {
	accepted := make([]domain.CandidateProduct, 0, len(candidates))
	acceptedTokens := make([]map[string]struct{}, 0, len(candidates))

	for _, c := range candidates {
		tokens := titleTokens(c.Title)
		dup := false
		for i, a := range accepted {
			if sameProduct(jaccard(tokens, acceptedTokens[i]), PriceDifference(c.Price, a.Price)) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		accepted = append(accepted, c)
		acceptedTokens = append(acceptedTokens, tokens)
	}
	return accepted
}

func sameProduct(titleSimilarity, priceDifference float64) bool {
	return titleSimilarity > TitleSimilarityThreshold && priceDifference < PriceDifferenceThreshold
}

// TitleSimilarity is the Jaccard overlap of the whitespace tokens of both
// titles, compared case-insensitively with surrounding punctuation stripped.
func TitleSimilarity(a, b string) float64 {
	return jaccard(titleTokens(a), titleTokens(b))
}

// PriceDifference is |a-b| relative to the larger price. Two zero prices are
// identical.
func PriceDifference(a, b float64) float64 {
	hi := math.Max(a, b)
	if hi <= 0 {
		return 0
	}
	return math.Abs(a-b) / hi
}

func titleTokens(title string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(title))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f == "" {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
