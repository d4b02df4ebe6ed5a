package feed

import (
	"context"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
)

const (
	ScopeCommunity = "community"
	ScopeAuthor    = "author"

	defaultPageSize = 20
	maxPageSize     = 50
)

type Query struct {
	Scope    string
	AuthorID string
	Page     int
	PageSize int
}

type Page struct {
	Items    []*domain.FeedPost
	Page     int
	PageSize int
	HasMore  bool
}

type Service struct {
	posts       PostRepo
	profiles    ProfileLookup
	collections CollectionLookup
	cache       Cache
	clock       Clock
	ttl         time.Duration
}

func New(posts PostRepo, profiles ProfileLookup, collections CollectionLookup, cache Cache, clock Clock, ttl time.Duration) *Service {
	if ttl == 0 {
		ttl = 60 * time.Second
	}
	return &Service{
		posts:       posts,
		profiles:    profiles,
		collections: collections,
		cache:       cache,
		clock:       clock,
		ttl:         ttl,
	}
}

func normalize(q Query) (Query, error) {
	q.Scope = strings.TrimSpace(strings.ToLower(q.Scope))
	q.AuthorID = strings.TrimSpace(q.AuthorID)
	if q.Scope == "" {
		q.Scope = ScopeCommunity
	}
	switch q.Scope {
	case ScopeCommunity:
		q.AuthorID = ""
	case ScopeAuthor:
		if q.AuthorID == "" {
			return q, domain.ErrValidationMeta("invalid query", map[string]string{
				"author_id": "required for author scope",
			})
		}
	default:
		return q, domain.ErrValidationMeta("invalid query", map[string]string{
			"scope": "must be community or author",
		})
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q, nil
}

// List serves a feed page. The cache holds slim projections only; author and
// collection details are re-read in batch on every call.
func (s *Service) List(ctx context.Context, q Query) (*Page, error) {
	q, err := normalize(q)
	if err != nil {
		return nil, err
	}
	log := logger.Ctx(ctx)

	// 1. Try Cache
	key := cacheKeyFeed(q)
	var cached slimPage
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		found = false
	}

	if !found {
		// 2. DB Query
		posts, err := s.posts.ListPosts(ctx, q, (q.Page-1)*q.PageSize, q.PageSize+1)
		if err != nil {
			log.Warn().Err(err).Str("scope", q.Scope).Msg("feed list failed, serving empty page")
			return &Page{Items: []*domain.FeedPost{}, Page: q.Page, PageSize: q.PageSize}, nil
		}
		cached = slimPage{Items: make([]slimPost, 0, len(posts))}
		if len(posts) > q.PageSize {
			posts = posts[:q.PageSize]
			cached.HasMore = true
		}
		for _, p := range posts {
			cached.Items = append(cached.Items, slim(p))
		}

		// 3. Set Cache (Best Effort)
		if err := s.cache.Set(ctx, key, cached, s.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	} else {
		log.Debug().Str("key", key).Msg("cache hit")
	}

	return &Page{
		Items:    s.hydrate(ctx, cached.Items),
		Page:     q.Page,
		PageSize: q.PageSize,
		HasMore:  cached.HasMore,
	}, nil
}

// hydrate rebuilds posts from slim rows with one profile query and one
// collection query for the whole page. A failed lookup leaves the minimal
// author from the slim row and no collection.
func (s *Service) hydrate(ctx context.Context, rows []slimPost) []*domain.FeedPost {
	out := make([]*domain.FeedPost, 0, len(rows))
	if len(rows) == 0 {
		return out
	}

	authorIDs := uniqueIDs(rows, func(r slimPost) string { return r.AuthorID })
	collectionIDs := uniqueIDs(rows, func(r slimPost) string { return r.CollectionID })

	profiles := map[string]domain.AuthorProfile{}
	if len(authorIDs) > 0 {
		got, err := s.profiles.GetProfiles(ctx, authorIDs)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Int("ids", len(authorIDs)).Msg("hydrate profiles failed")
		} else {
			profiles = got
		}
	}
	collections := map[string]domain.Collection{}
	if len(collectionIDs) > 0 {
		got, err := s.collections.GetCollections(ctx, collectionIDs)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Int("ids", len(collectionIDs)).Msg("hydrate collections failed")
		} else {
			collections = got
		}
	}

	for _, r := range rows {
		p := &domain.FeedPost{
			ID:           r.ID,
			AuthorID:     r.AuthorID,
			Title:        r.Title,
			Description:  r.Description,
			ImageURL:     r.ImageURL,
			CollectionID: r.CollectionID,
			LikeCount:    r.LikeCount,
			CommentCount: r.CommentCount,
			CreatedAt:    r.CreatedAt,
		}
		if a, ok := profiles[r.AuthorID]; ok {
			p.Author = &a
		} else if r.AuthorUsername != "" {
			p.Author = &domain.AuthorProfile{ID: r.AuthorID, Username: r.AuthorUsername}
		}
		if c, ok := collections[r.CollectionID]; ok {
			p.Collection = &c
		}
		out = append(out, p)
	}
	return out
}

func uniqueIDs(rows []slimPost, pick func(slimPost) string) []string {
	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		id := pick(r)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

type CreatePostCmd struct {
	AuthorID     string
	Title        string
	Description  string
	ImageURL     string
	CollectionID string
}

func (s *Service) CreatePost(ctx context.Context, cmd CreatePostCmd) (*domain.FeedPost, error) {
	p, err := domain.NewPost(cmd.AuthorID, cmd.Title, cmd.Description, cmd.ImageURL, cmd.CollectionID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.posts.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return p, nil
}

// LikePost returns the post's like count after the like.
func (s *Service) LikePost(ctx context.Context, postID, profileID string) (int, error) {
	postID = strings.TrimSpace(postID)
	if strings.TrimSpace(profileID) == "" {
		return 0, domain.ErrUnauthenticated("login required")
	}
	if postID == "" {
		return 0, domain.ErrValidation("post_id is required")
	}
	n, err := s.posts.LikePost(ctx, postID, profileID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	return n, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, invalidatePattern); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("pattern", invalidatePattern).Msg("cache invalidate failed")
	}
}
