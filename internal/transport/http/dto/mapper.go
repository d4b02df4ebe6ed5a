package dto

import (
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/assistant"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/feed"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/search"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

func ToTrackResp(e *domain.InteractionEvent) TrackResp {
	return TrackResp{
		EventID:   e.ID,
		Action:    string(e.Action),
		CreatedAt: e.CreatedAt,
	}
}

func ToSavedItemsResp(items []domain.SavedItem) []SavedItemResp {
	out := make([]SavedItemResp, 0, len(items))
	for _, it := range items {
		r := SavedItemResp{ProductID: it.ProductID, SavedAt: it.CreatedAt}
		if p := it.Product; p != nil {
			r.Product = &ProductSnapResp{
				ID:       p.ID,
				Title:    p.Title,
				Brand:    p.Brand,
				Category: p.Category,
				Price:    p.Price,
				ImageURL: p.ImageURL,
			}
		}
		out = append(out, r)
	}
	return out
}

func ToPreferencesResp(s *domain.PreferenceSnapshot) PreferencesResp {
	return PreferencesResp{
		ProfileID:          s.ProfileID,
		FavoriteBrands:     orEmpty(s.FavoriteBrands),
		FavoriteCategories: orEmpty(s.FavoriteCategories),
		PriceMin:           s.PriceMin,
		PriceMax:           s.PriceMax,
		ChatKeywords:       orEmpty(s.ChatKeywords),
		UpdatedAt:          s.UpdatedAt,
	}
}

func ToPostResp(p *domain.FeedPost) PostResp {
	r := PostResp{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		ImageURL:     p.ImageURL,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
		CreatedAt:    p.CreatedAt,
	}
	if a := p.Author; a != nil {
		r.Author = &AuthorResp{ID: a.ID, Username: a.Username, DisplayName: a.DisplayName, AvatarURL: a.AvatarURL}
	}
	if c := p.Collection; c != nil {
		r.Collection = &CollectionResp{ID: c.ID, Name: c.Name, ItemCount: c.ItemCount}
	}
	return r
}

func ToFeedPageResp(p *feed.Page) PageResp[PostResp] {
	items := make([]PostResp, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, ToPostResp(it))
	}
	return PageResp[PostResp]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasMore:  p.HasMore,
	}
}

func ToSearchResp(r *search.Result) SearchResp {
	items := make([]ProductResp, 0, len(r.Items))
	for _, c := range r.Items {
		items = append(items, ProductResp{
			Title:      c.Title,
			Price:      c.Price,
			Brand:      c.Brand,
			Category:   c.Category,
			ImageURL:   c.ImageURL,
			ProductURL: c.ProductURL,
			Source:     c.Source,
		})
	}
	return SearchResp{ImpressionID: r.ImpressionID, Query: r.Query, Items: items}
}

func ToChatResp(r *assistant.Reply) ChatResp {
	return ChatResp{EventID: r.EventID, Reply: r.Text, Fallback: r.Fallback}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
