package dto

import "encoding/json"

// TrackReq is one client interaction. Payload shape depends on the action.
type TrackReq struct {
	Action       string          `json:"action" validate:"required,max=32"`
	ProductID    string          `json:"product_id,omitempty" validate:"max=128"`
	SessionID    string          `json:"session_id,omitempty" validate:"max=128"`
	ImpressionID string          `json:"impression_id,omitempty" validate:"omitempty,uuid"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

type CreatePostReq struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description,omitempty" validate:"max=4000"`
	ImageURL     string `json:"image_url" validate:"required,url"`
	CollectionID string `json:"collection_id,omitempty" validate:"max=128"`
}

type ChatReq struct {
	Message   string `json:"message" validate:"required,max=2000"`
	SessionID string `json:"session_id,omitempty" validate:"max=128"`
}
