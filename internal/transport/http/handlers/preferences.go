package handlers

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/response"
)

type PreferencesHandler struct {
	svc Preferences
}

func NewPreferencesHandler(svc Preferences) *PreferencesHandler {
	return &PreferencesHandler{svc: svc}
}

// Get returns the caller's stored snapshot. A profile that was never
// aggregated gets an empty snapshot rather than a 404.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID := appCtx.GetProfileID(r.Context())
	snap, err := h.svc.Get(r.Context(), profileID)
	if domain.Is(err, domain.CodeNotFound) {
		snap, err = &domain.PreferenceSnapshot{ProfileID: profileID}, nil
	}
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToPreferencesResp(snap))
}

// Refresh recomputes the caller's snapshot from recent interactions.
func (h *PreferencesHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Aggregate(r.Context(), appCtx.GetProfileID(r.Context()))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToPreferencesResp(snap))
}
