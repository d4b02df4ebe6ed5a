package feed

import (
	"time"
	"unicode/utf8"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

const (
	titlePrefixRunes       = 80
	descriptionPrefixRunes = 160
)

// slimPost is the cached form of a post. Keys are short on purpose; feed
// entries are bounded by the feed cache ceiling.
type slimPost struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"aid"`
	AuthorUsername string    `json:"au,omitempty"`
	Title          string    `json:"t"`
	Description    string    `json:"d,omitempty"`
	ImageURL       string    `json:"img"`
	CollectionID   string    `json:"cid,omitempty"`
	LikeCount      int       `json:"lc"`
	CommentCount   int       `json:"cc"`
	CreatedAt      time.Time `json:"ts"`
}

type slimPage struct {
	Items   []slimPost `json:"items"`
	HasMore bool       `json:"more"`
}

func slim(p *domain.FeedPost) slimPost {
	s := slimPost{
		ID:           p.ID,
		AuthorID:     p.AuthorID,
		Title:        prefix(p.Title, titlePrefixRunes),
		Description:  prefix(p.Description, descriptionPrefixRunes),
		ImageURL:     p.ImageURL,
		CollectionID: p.CollectionID,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
		CreatedAt:    p.CreatedAt,
	}
	if p.Author != nil {
		s.AuthorUsername = p.Author.Username
	}
	return s
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
