package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/search"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/response"
)

type SearchHandler struct {
	svc       Searcher
	maxUpload int64
}

func NewSearchHandler(svc Searcher, maxUpload int64) *SearchHandler {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &SearchHandler{svc: svc, maxUpload: maxUpload}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	res, err := h.svc.Search(r.Context(), search.Query{
		Query:     r.URL.Query().Get("q"),
		ProfileID: appCtx.GetProfileID(r.Context()),
		Limit:     limit,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToSearchResp(res))
}

// Visual accepts a multipart upload in the "image" field, or an "image_url"
// form value pointing at an already hosted image.
func (h *SearchHandler) Visual(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	// multipart framing needs headroom over the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)

	q := search.VisualQuery{ProfileID: appCtx.GetProfileID(r.Context()), Limit: limit}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			response.Err(w, r, uploadError(err))
			return
		}
		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
			if err != nil {
				response.Err(w, r, uploadError(err))
				return
			}
			q.Image = data
			q.ContentType = header.Header.Get("Content-Type")
			if q.ContentType == "" || q.ContentType == "application/octet-stream" {
				q.ContentType = http.DetectContentType(data)
			}
		case !errors.Is(err, http.ErrMissingFile):
			response.Err(w, r, uploadError(err))
			return
		}
	}
	if len(q.Image) == 0 {
		q.ImageURL = r.FormValue("image_url")
	}

	res, err := h.svc.VisualSearch(r.Context(), q)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToSearchResp(res))
}

func uploadError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return domain.ErrValidationMeta("upload too large", map[string]string{"image": "file too large"})
	}
	return domain.ErrValidationMeta("invalid upload", map[string]string{"image": "malformed multipart body"})
}
