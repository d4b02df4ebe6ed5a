package dto

import "time"

type TrackResp struct {
	EventID   string    `json:"event_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

type SavedItemResp struct {
	ProductID string           `json:"product_id"`
	Product   *ProductSnapResp `json:"product,omitempty"`
	SavedAt   time.Time        `json:"saved_at"`
}

type ProductSnapResp struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Brand    string  `json:"brand,omitempty"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
}

// PreferencesResp mirrors a preference snapshot. Price edges are null until
// enough priced interactions exist.
type PreferencesResp struct {
	ProfileID          string    `json:"profile_id"`
	FavoriteBrands     []string  `json:"favorite_brands"`
	FavoriteCategories []string  `json:"favorite_categories"`
	PriceMin           *float64  `json:"price_min"`
	PriceMax           *float64  `json:"price_max"`
	ChatKeywords       []string  `json:"chat_keywords"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type AuthorResp struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type CollectionResp struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}

type PostResp struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	ImageURL     string          `json:"image_url"`
	LikeCount    int             `json:"like_count"`
	CommentCount int             `json:"comment_count"`
	CreatedAt    time.Time       `json:"created_at"`
	Author       *AuthorResp     `json:"author,omitempty"`
	Collection   *CollectionResp `json:"collection,omitempty"`
}

type LikeResp struct {
	PostID    string `json:"post_id"`
	LikeCount int    `json:"like_count"`
}

type PageResp[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

type ProductResp struct {
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	Brand      string  `json:"brand,omitempty"`
	Category   string  `json:"category,omitempty"`
	ImageURL   string  `json:"image_url,omitempty"`
	ProductURL string  `json:"product_url,omitempty"`
	Source     string  `json:"source"`
}

type SearchResp struct {
	ImpressionID string        `json:"impression_id,omitempty"`
	Query        string        `json:"query"`
	Items        []ProductResp `json:"items"`
}

type ChatResp struct {
	EventID  string `json:"event_id"`
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback"`
}
