package domain

import "time"

const (
	MaxFavoriteBrands     = 5
	MaxFavoriteCategories = 5
	MaxChatKeywords       = 10
)

// PreferenceSnapshot is the single current taste estimate for a profile.
type PreferenceSnapshot struct {
	ProfileID          string
	FavoriteBrands     []string
	FavoriteCategories []string
	PriceMin           *float64
	PriceMax           *float64
	ChatKeywords       []string
	UpdatedAt          time.Time
}

// HasPriceBand reports whether both band edges are known.
func (s *PreferenceSnapshot) HasPriceBand() bool {
	return s != nil && s.PriceMin != nil && s.PriceMax != nil
}

// InPriceBand reports whether price lies inside [PriceMin, PriceMax].
func (s *PreferenceSnapshot) InPriceBand(price float64) bool {
	if !s.HasPriceBand() {
		return false
	}
	return price >= *s.PriceMin && price <= *s.PriceMax
}

// MergeChatKeywords appends fresh keywords to the existing rolling list,
// keeps the first occurrence of each term and retains only the newest
// MaxChatKeywords entries.
func MergeChatKeywords(existing, fresh []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(fresh))
	merged := make([]string, 0, len(existing)+len(fresh))
	for _, list := range [][]string{existing, fresh} {
		for _, kw := range list {
			if kw == "" {
				continue
			}
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			merged = append(merged, kw)
		}
	}
	if len(merged) > MaxChatKeywords {
		merged = merged[len(merged)-MaxChatKeywords:]
	}
	return merged
}
