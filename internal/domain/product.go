package domain

import "time"

// Product is a catalog row the aggregator resolves event product ids against.
type Product struct {
	ID       string
	Title    string
	Brand    string
	Category string
	Price    *float64
	ImageURL string
}

// CandidateProduct is one listing returned by an upstream search or
// visual-match provider before merge.
type CandidateProduct struct {
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	Brand      string  `json:"brand,omitempty"`
	Category   string  `json:"category,omitempty"`
	ImageURL   string  `json:"image_url,omitempty"`
	ProductURL string  `json:"product_url,omitempty"`
	Source     string  `json:"source"`
}

type SavedItem struct {
	ActorKey  string
	ProductID string
	Product   *ProductSnapshot
	CreatedAt time.Time
}

// RecommendationOutcome is the latest known result of showing a product to a
// profile inside an impression.
type RecommendationOutcome struct {
	ProfileID    string
	ProductID    string
	ImpressionID string
	Outcome      string
	UpdatedAt    time.Time
}
