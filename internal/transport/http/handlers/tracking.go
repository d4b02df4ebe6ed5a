package handlers

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/tracking"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/response"
)

type TrackingHandler struct {
	svc Tracker
}

func NewTrackingHandler(svc Tracker) *TrackingHandler {
	return &TrackingHandler{svc: svc}
}

func (h *TrackingHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackReq
	if !decodeBody(w, r, &req) {
		return
	}
	profileID, anonID := actorFrom(r)

	ev, err := h.svc.Record(r.Context(), tracking.RecordCmd{
		ProfileID:    profileID,
		AnonID:       anonID,
		Action:       req.Action,
		Payload:      req.Payload,
		ProductID:    req.ProductID,
		SessionID:    req.SessionID,
		ImpressionID: req.ImpressionID,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, dto.ToTrackResp(ev))
}

func (h *TrackingHandler) Saved(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	profileID, anonID := actorFrom(r)
	actor := domain.Actor{ProfileID: profileID}
	if profileID == "" {
		actor.AnonID = anonID
	}

	items, err := h.svc.ListSaved(r.Context(), actor, limit)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToSavedItemsResp(items))
}
