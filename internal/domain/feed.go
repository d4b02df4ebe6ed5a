package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AuthorProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

type Collection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}

// FeedPost is a community post. Author and Collection are filled by joins and
// may be nil when the related row is gone.
type FeedPost struct {
	ID           string
	AuthorID     string
	Title        string
	Description  string
	ImageURL     string
	CollectionID string
	LikeCount    int
	CommentCount int
	CreatedAt    time.Time

	Author     *AuthorProfile
	Collection *Collection
}

func NewPost(authorID, title, description, imageURL, collectionID string, now time.Time) (*FeedPost, error) {
	authorID = strings.TrimSpace(authorID)
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	imageURL = strings.TrimSpace(imageURL)
	collectionID = strings.TrimSpace(collectionID)

	if authorID == "" {
		return nil, ErrUnauthenticated("author required")
	}
	if title == "" || len(title) > 200 {
		return nil, ErrValidation("title is required and must be <= 200 chars")
	}
	if len(description) > 4000 {
		return nil, ErrValidation("description must be <= 4000 chars")
	}
	if imageURL == "" {
		return nil, ErrValidation("image_url is required")
	}

	return &FeedPost{
		ID:           uuid.NewString(),
		AuthorID:     authorID,
		Title:        title,
		Description:  description,
		ImageURL:     imageURL,
		CollectionID: collectionID,
		CreatedAt:    now.UTC(),
	}, nil
}
