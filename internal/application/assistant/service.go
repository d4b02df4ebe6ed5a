package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/tracking"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
)

const FallbackReply = "I'm having trouble thinking of suggestions right now. Try searching for a brand or item you like and I'll pick it up from there."

const basePrompt = "You are a friendly fashion stylist inside a shopping app. " +
	"Answer in at most three short sentences and suggest concrete items, brands or search terms."

type Service struct {
	recorder  Recorder
	snapshots SnapshotReader
	model     ChatModel
}

// New builds the assistant. model may be nil, in which case every reply is
// the fallback.
func New(recorder Recorder, snapshots SnapshotReader, model ChatModel) *Service {
	return &Service{recorder: recorder, snapshots: snapshots, model: model}
}

type ChatCmd struct {
	ProfileID string
	AnonID    string
	SessionID string
	Message   string
}

type Reply struct {
	EventID  string
	Text     string
	Fallback bool
}

// Reply records the message as a chat_message interaction and answers it.
// Recording errors are returned; model errors are not.
func (s *Service) Reply(ctx context.Context, cmd ChatCmd) (*Reply, error) {
	payload, err := json.Marshal(domain.ChatMessagePayload{ChatText: cmd.Message})
	if err != nil {
		return nil, fmt.Errorf("marshal chat payload: %w", err)
	}
	ev, err := s.recorder.Record(ctx, tracking.RecordCmd{
		ProfileID: cmd.ProfileID,
		AnonID:    cmd.AnonID,
		Action:    string(domain.ActionChatMessage),
		Payload:   payload,
		SessionID: cmd.SessionID,
	})
	if err != nil {
		return nil, err
	}
	text, _ := ev.ChatText()

	out := &Reply{EventID: ev.ID, Text: FallbackReply, Fallback: true}
	if s.model == nil {
		return out, nil
	}

	var snap *domain.PreferenceSnapshot
	if ev.Actor.IsProfile() && s.snapshots != nil {
		snap, err = s.snapshots.Get(ctx, ev.Actor.ProfileID)
		if err != nil && !domain.Is(err, domain.CodeNotFound) {
			logger.Ctx(ctx).Warn().Err(err).Str("profile_id", ev.Actor.ProfileID).Msg("load preference snapshot failed")
		}
	}

	answer, err := s.model.Complete(ctx, systemPrompt(snap), text)
	answer = strings.TrimSpace(answer)
	if err != nil || answer == "" {
		logger.Ctx(ctx).Warn().Err(err).Str("event_id", ev.ID).Msg("chat model unavailable, using fallback")
		return out, nil
	}
	out.Text = answer
	out.Fallback = false
	return out, nil
}

// systemPrompt primes the model with what is known about the profile.
func systemPrompt(snap *domain.PreferenceSnapshot) string {
	if snap == nil {
		return basePrompt
	}
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\nWhat we know about this shopper:")
	if len(snap.FavoriteBrands) > 0 {
		fmt.Fprintf(&b, "\n- favorite brands: %s", strings.Join(snap.FavoriteBrands, ", "))
	}
	if len(snap.FavoriteCategories) > 0 {
		fmt.Fprintf(&b, "\n- favorite categories: %s", strings.Join(snap.FavoriteCategories, ", "))
	}
	if snap.HasPriceBand() {
		fmt.Fprintf(&b, "\n- usual price range: %.0f to %.0f", *snap.PriceMin, *snap.PriceMax)
	}
	if len(snap.ChatKeywords) > 0 {
		fmt.Fprintf(&b, "\n- recently mentioned: %s", strings.Join(snap.ChatKeywords, ", "))
	}
	return b.String()
}
