package search

import (
	"sort"
	"strings"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

// rerank moves favorite brands first and, within that, candidates inside the
// profile's price band. Order is otherwise preserved.
func rerank(items []domain.CandidateProduct, snap *domain.PreferenceSnapshot) {
	if snap == nil || (len(snap.FavoriteBrands) == 0 && !snap.HasPriceBand()) {
		return
	}
	favorites := make(map[string]struct{}, len(snap.FavoriteBrands))
	for _, b := range snap.FavoriteBrands {
		favorites[strings.ToLower(strings.TrimSpace(b))] = struct{}{}
	}
	score := func(c domain.CandidateProduct) int {
		s := 0
		if _, ok := favorites[strings.ToLower(strings.TrimSpace(c.Brand))]; ok && c.Brand != "" {
			s += 2
		}
		if snap.InPriceBand(c.Price) {
			s++
		}
		return s
	}
	sort.SliceStable(items, func(i, j int) bool {
		return score(items[i]) > score(items[j])
	})
}

// composeQuery builds a query from the snapshot when the user typed nothing.
func composeQuery(snap *domain.PreferenceSnapshot) string {
	if snap == nil {
		return ""
	}
	var parts []string
	if len(snap.FavoriteBrands) > 0 {
		parts = append(parts, snap.FavoriteBrands[0])
	}
	if len(snap.FavoriteCategories) > 0 {
		parts = append(parts, snap.FavoriteCategories[0])
	}
	if len(snap.ChatKeywords) > 0 {
		parts = append(parts, snap.ChatKeywords[0])
	}
	return strings.Join(parts, " ")
}
