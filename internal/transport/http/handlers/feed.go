package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/feed"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/validate"
)

type FeedHandler struct {
	svc Feed
}

func NewFeedHandler(svc Feed) *FeedHandler {
	return &FeedHandler{svc: svc}
}

func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(r, "page")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	pageSize, err := intParam(r, "page_size")
	if err != nil {
		response.Err(w, r, err)
		return
	}

	out, err := h.svc.List(r.Context(), feed.Query{
		Scope:    q.Get("scope"),
		AuthorID: q.Get("author_id"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToFeedPageResp(out))
}

func (h *FeedHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePostReq
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.svc.CreatePost(r.Context(), feed.CreatePostCmd{
		AuthorID:     appCtx.GetProfileID(r.Context()),
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		CollectionID: req.CollectionID,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToPostResp(p))
}

func (h *FeedHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "post_id")
	if !validate.IsUUID(id) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"post_id": "must be uuid",
		}))
		return
	}
	n, err := h.svc.LikePost(r.Context(), id, appCtx.GetProfileID(r.Context()))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.LikeResp{PostID: id, LikeCount: n})
}
