package handlers

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/assistant"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/feed"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/search"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/tracking"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

type Tracker interface {
	Record(ctx context.Context, cmd tracking.RecordCmd) (*domain.InteractionEvent, error)
	ListSaved(ctx context.Context, actor domain.Actor, limit int) ([]domain.SavedItem, error)
}

type Preferences interface {
	Get(ctx context.Context, profileID string) (*domain.PreferenceSnapshot, error)
	Aggregate(ctx context.Context, profileID string) (*domain.PreferenceSnapshot, error)
}

type Feed interface {
	List(ctx context.Context, q feed.Query) (*feed.Page, error)
	CreatePost(ctx context.Context, cmd feed.CreatePostCmd) (*domain.FeedPost, error)
	LikePost(ctx context.Context, postID, profileID string) (int, error)
}

type Searcher interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
	VisualSearch(ctx context.Context, q search.VisualQuery) (*search.Result, error)
}

type Assistant interface {
	Reply(ctx context.Context, cmd assistant.ChatCmd) (*assistant.Reply, error)
}

// Pinger is a backend the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
