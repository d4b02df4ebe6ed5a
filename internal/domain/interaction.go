package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actor identifies who performed an interaction. Exactly one of ProfileID and
// AnonID is set.
type Actor struct {
	ProfileID string
	AnonID    string
}

// ResolveActor prefers the authenticated profile over the anonymous id.
func ResolveActor(profileID, anonID string) (Actor, error) {
	profileID = strings.TrimSpace(profileID)
	anonID = strings.TrimSpace(anonID)
	switch {
	case profileID != "":
		return Actor{ProfileID: profileID}, nil
	case anonID != "":
		return Actor{AnonID: anonID}, nil
	default:
		return Actor{}, ErrUnauthenticated("no actor identity")
	}
}

func (a Actor) IsProfile() bool { return a.ProfileID != "" }

// Key is the storage form: "u:<profile_id>" or "a:<anon_id>".
func (a Actor) Key() string {
	if a.ProfileID != "" {
		return "u:" + a.ProfileID
	}
	return "a:" + a.AnonID
}

func (a Actor) validate() error {
	hasProfile := strings.TrimSpace(a.ProfileID) != ""
	hasAnon := strings.TrimSpace(a.AnonID) != ""
	if !hasProfile && !hasAnon {
		return ErrUnauthenticated("no actor identity")
	}
	if hasProfile && hasAnon {
		return ErrValidation("actor must be either a profile or anonymous, not both")
	}
	return nil
}

type InteractionEvent struct {
	ID           string
	Actor        Actor
	SessionID    string
	ImpressionID string
	ProductID    string
	Action       Action
	Payload      Payload
	CreatedAt    time.Time
}

type NewInteraction struct {
	Actor        Actor
	Action       Action
	Payload      Payload
	ProductID    string
	SessionID    string
	ImpressionID string
}

func NewInteractionEvent(in NewInteraction, now time.Time) (*InteractionEvent, error) {
	if err := in.Actor.validate(); err != nil {
		return nil, err
	}
	if _, err := ParseAction(string(in.Action)); err != nil {
		return nil, err
	}
	payload := in.Payload
	if payload == nil {
		p, err := DecodePayload(in.Action, nil)
		if err != nil {
			return nil, err
		}
		payload = p
	}
	if payload.Action() != in.Action {
		return nil, ErrValidationMeta("payload does not match action", map[string]string{
			"action":  string(in.Action),
			"payload": string(payload.Action()),
		})
	}

	productID := strings.TrimSpace(in.ProductID)
	sessionID := strings.TrimSpace(in.SessionID)
	impressionID := strings.TrimSpace(in.ImpressionID)
	if len(productID) > 128 {
		return nil, ErrValidation("product_id must be <= 128 chars")
	}
	if len(sessionID) > 128 {
		return nil, ErrValidation("session_id must be <= 128 chars")
	}
	if impressionID != "" {
		if _, err := uuid.Parse(impressionID); err != nil {
			return nil, ErrValidationMeta("invalid field", map[string]string{
				"impression_id": "must be uuid",
			})
		}
	}

	return &InteractionEvent{
		ID:           uuid.NewString(),
		Actor:        in.Actor,
		SessionID:    sessionID,
		ImpressionID: impressionID,
		ProductID:    productID,
		Action:       in.Action,
		Payload:      payload,
		CreatedAt:    now.UTC(),
	}, nil
}

// DwellTimeSeconds is only meaningful for view events.
func (e *InteractionEvent) DwellTimeSeconds() *int {
	if p, ok := e.Payload.(ViewPayload); ok {
		return p.DwellTimeSeconds
	}
	return nil
}

// ChatText returns the message text of a chat_message event.
func (e *InteractionEvent) ChatText() (string, bool) {
	if p, ok := e.Payload.(ChatMessagePayload); ok {
		return p.ChatText, true
	}
	return "", false
}
