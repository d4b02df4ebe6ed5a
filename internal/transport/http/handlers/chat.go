package handlers

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/assistant"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/transport/http/response"
)

type ChatHandler struct {
	svc Assistant
}

func NewChatHandler(svc Assistant) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat always answers 200 once the message is recorded; model outages come
// back as the fallback reply.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatReq
	if !decodeBody(w, r, &req) {
		return
	}
	profileID, anonID := actorFrom(r)

	reply, err := h.svc.Reply(r.Context(), assistant.ChatCmd{
		ProfileID: profileID,
		AnonID:    anonID,
		SessionID: req.SessionID,
		Message:   req.Message,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToChatResp(reply))
}
