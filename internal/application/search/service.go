package search

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/matching"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/tracing"
)

const maxQueryLen = 200

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Options struct {
	DefaultLimit   int
	MaxLimit       int
	TTL            time.Duration
	Timeout        time.Duration
	MaxUploadBytes int64
}

type Service struct {
	providers []Provider
	snapshots SnapshotReader
	cache     Cache
	images    ImageStore
	vision    VisionModel
	opts      Options
}

// New wires the search pipeline. images and vision may be nil; visual
// search then falls back to inline data urls or returns nothing.
func New(providers []Provider, snapshots SnapshotReader, cache Cache, images ImageStore, vision VisionModel, opts Options) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	if opts.TTL == 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Timeout == 0 {
		opts.Timeout = 4 * time.Second
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 10 * 1024 * 1024
	}
	return &Service{
		providers: providers,
		snapshots: snapshots,
		cache:     cache,
		images:    images,
		vision:    vision,
		opts:      opts,
	}
}

type Query struct {
	Query     string
	ProfileID string
	Limit     int
}

type Result struct {
	ImpressionID string
	Query        string
	Items        []domain.CandidateProduct
}

// cachedCandidates is the profile-independent part of a search.
type cachedCandidates struct {
	Items []domain.CandidateProduct `json:"items"`
}

// Search fans out to every provider, collapses duplicates and biases the
// order towards the profile's taste. Upstream failures only shrink the
// result; they never fail the call.
func (s *Service) Search(ctx context.Context, q Query) (*Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}

	snap := s.loadSnapshot(ctx, q.ProfileID)

	text := strings.TrimSpace(q.Query)
	if text == "" {
		text = composeQuery(snap)
	}
	if text == "" {
		return nil, domain.ErrValidationMeta("invalid query", map[string]string{
			"q": "required when no preferences are known",
		})
	}
	if utf8.RuneCountInString(text) > maxQueryLen {
		return nil, domain.ErrValidationMeta("invalid query", map[string]string{
			"q": fmt.Sprintf("must be <= %d chars", maxQueryLen),
		})
	}

	items := s.candidates(ctx, text, limit)
	rerank(items, snap)
	if len(items) > limit {
		items = items[:limit]
	}

	return &Result{
		ImpressionID: uuid.NewString(),
		Query:        text,
		Items:        items,
	}, nil
}

func (s *Service) loadSnapshot(ctx context.Context, profileID string) *domain.PreferenceSnapshot {
	if profileID == "" || s.snapshots == nil {
		return nil
	}
	snap, err := s.snapshots.Get(ctx, profileID)
	if err != nil {
		if !domain.Is(err, domain.CodeNotFound) {
			logger.Ctx(ctx).Warn().Err(err).Str("profile_id", profileID).Msg("load preference snapshot failed")
		}
		return nil
	}
	return snap
}

// candidates returns the deduplicated merge for text, from cache when
// possible. The slice is a private copy the caller may reorder.
func (s *Service) candidates(ctx context.Context, text string, limit int) []domain.CandidateProduct {
	log := logger.Ctx(ctx)
	key := cacheKeySearch(text, limit)

	var cached cachedCandidates
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
	} else if found {
		log.Debug().Str("key", key).Msg("cache hit")
		return append([]domain.CandidateProduct{}, cached.Items...)
	}

	merged, succeeded := s.fanOut(ctx, text, limit)
	deduped := matching.Dedupe(merged)
	metrics.DuplicatesDropped(len(merged) - len(deduped))

	// an all-failed fan-out is not worth remembering
	if succeeded > 0 {
		if err := s.cache.Set(ctx, key, cachedCandidates{Items: deduped}, s.opts.TTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return deduped
}

// fanOut queries all providers concurrently, each bounded by the upstream
// timeout. Results are merged in provider order.
func (s *Service) fanOut(ctx context.Context, text string, limit int) ([]domain.CandidateProduct, int) {
	ctx, span := tracing.StartSpan(ctx, "search.fan_out",
		attribute.Int("providers", len(s.providers)),
		attribute.Int("limit", limit),
	)
	defer span.End()

	results := make([][]domain.CandidateProduct, len(s.providers))
	ok := make([]bool, len(s.providers))

	var g errgroup.Group
	for i, p := range s.providers {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.Ctx(ctx).Error().
						Str("provider", p.Name()).
						Interface("panic", r).
						Msg("search provider panicked")
				}
			}()
			pctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
			defer cancel()

			items, err := p.Search(pctx, text, limit)
			if err != nil {
				logger.Ctx(ctx).Warn().Err(err).Str("provider", p.Name()).Msg("search provider failed")
				return nil
			}
			for j := range items {
				if items[j].Source == "" {
					items[j].Source = p.Name()
				}
			}
			results[i] = items
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]domain.CandidateProduct, 0, len(s.providers)*limit)
	succeeded := 0
	for i := range results {
		if ok[i] {
			succeeded++
		}
		merged = append(merged, results[i]...)
	}
	span.SetAttributes(attribute.Int("succeeded", succeeded), attribute.Int("candidates", len(merged)))
	return merged, succeeded
}

type VisualQuery struct {
	ProfileID   string
	Image       []byte
	ContentType string
	ImageURL    string
	Limit       int
}

// VisualSearch derives a search phrase from an image and searches with it.
// When the vision model is unavailable or fails the result is empty.
func (s *Service) VisualSearch(ctx context.Context, q VisualQuery) (*Result, error) {
	imageURL := strings.TrimSpace(q.ImageURL)
	if len(q.Image) > 0 {
		ext, ok := allowedImageTypes[q.ContentType]
		if !ok {
			return nil, domain.ErrValidationMeta("invalid image", map[string]string{
				"content_type": "must be image/jpeg, image/png or image/webp",
			})
		}
		if int64(len(q.Image)) > s.opts.MaxUploadBytes {
			return nil, domain.ErrValidationMeta("invalid image", map[string]string{
				"image": fmt.Sprintf("must be <= %d bytes", s.opts.MaxUploadBytes),
			})
		}
		url, err := s.storeImage(ctx, q, ext)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("store search image failed")
			return emptyResult(""), nil
		}
		imageURL = url
	}
	if imageURL == "" {
		return nil, domain.ErrValidation("image or image_url is required")
	}

	if s.vision == nil {
		return emptyResult(""), nil
	}
	phrase, err := s.vision.SearchPhrase(ctx, imageURL)
	phrase = strings.TrimSpace(phrase)
	if err != nil || phrase == "" {
		logger.Ctx(ctx).Warn().Err(err).Msg("vision search phrase unavailable")
		return emptyResult(""), nil
	}
	if utf8.RuneCountInString(phrase) > maxQueryLen {
		phrase = string([]rune(phrase)[:maxQueryLen])
	}

	return s.Search(ctx, Query{Query: phrase, ProfileID: q.ProfileID, Limit: q.Limit})
}

func (s *Service) storeImage(ctx context.Context, q VisualQuery, ext string) (string, error) {
	if s.images == nil {
		return "data:" + q.ContentType + ";base64," + base64.StdEncoding.EncodeToString(q.Image), nil
	}
	key := fmt.Sprintf("visual-search/%s/%s%s", time.Now().UTC().Format("2006/01/02"), uuid.NewString(), ext)
	return s.images.PutImage(ctx, key, q.ContentType, q.Image)
}

func emptyResult(query string) *Result {
	return &Result{
		ImpressionID: uuid.NewString(),
		Query:        query,
		Items:        []domain.CandidateProduct{},
	}
}
