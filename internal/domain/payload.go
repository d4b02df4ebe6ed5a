package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Payload is the action-specific part of an interaction. Each action has
// exactly one variant; see DecodePayload.
type Payload interface {
	Action() Action
	isPayload()
}

type ProductSnapshot struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Brand    string  `json:"brand,omitempty"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
}

type ViewPayload struct {
	DwellTimeSeconds *int `json:"dwell_time_seconds,omitempty"`
}

type ClickPayload struct {
	Position *int   `json:"position,omitempty"`
	Source   string `json:"source,omitempty"`
}

type SavePayload struct {
	Product *ProductSnapshot `json:"product,omitempty"`
}

type UnsavePayload struct{}

type LikePayload struct{}

type SharePayload struct {
	Channel string `json:"channel,omitempty"`
}

type ChatOpenPayload struct{}

type ChatMessagePayload struct {
	ChatText string `json:"chat_text"`
}

func (ViewPayload) Action() Action        { return ActionView }
func (ClickPayload) Action() Action       { return ActionClick }
func (SavePayload) Action() Action        { return ActionSave }
func (UnsavePayload) Action() Action      { return ActionUnsave }
func (LikePayload) Action() Action        { return ActionLike }
func (SharePayload) Action() Action       { return ActionShare }
func (ChatOpenPayload) Action() Action    { return ActionChatOpen }
func (ChatMessagePayload) Action() Action { return ActionChatMessage }

func (ViewPayload) isPayload()        {}
func (ClickPayload) isPayload()       {}
func (SavePayload) isPayload()        {}
func (UnsavePayload) isPayload()      {}
func (LikePayload) isPayload()        {}
func (SharePayload) isPayload()       {}
func (ChatOpenPayload) isPayload()    {}
func (ChatMessagePayload) isPayload() {}

// DecodePayload parses raw into the variant belonging to action. Fields that
// don't belong to the variant are rejected.
func DecodePayload(action Action, raw json.RawMessage) (Payload, error) {
	switch action {
	case ActionView:
		var p ViewPayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		if p.DwellTimeSeconds != nil && *p.DwellTimeSeconds < 0 {
			return nil, ErrValidationMeta("invalid payload", map[string]string{
				"dwell_time_seconds": "must be >= 0",
			})
		}
		return p, nil
	case ActionClick:
		var p ClickPayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ActionSave:
		var p SavePayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ActionUnsave:
		var p UnsavePayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ActionLike:
		var p LikePayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ActionShare:
		var p SharePayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ActionChatOpen:
		var p ChatOpenPayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	case ActionChatMessage:
		var p ChatMessagePayload
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		p.ChatText = strings.TrimSpace(p.ChatText)
		if p.ChatText == "" {
			return nil, ErrValidationMeta("invalid payload", map[string]string{
				"chat_text": "required for chat_message",
			})
		}
		if len(p.ChatText) > 4000 {
			return nil, ErrValidationMeta("invalid payload", map[string]string{
				"chat_text": "must be <= 4000 chars",
			})
		}
		return p, nil
	default:
		return nil, ErrInvalidAction(string(action))
	}
}

func decodeStrict(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ErrValidationMeta("invalid payload", map[string]string{
			"payload": err.Error(),
		})
	}
	return nil
}
