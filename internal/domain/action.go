package domain

import "strings"

type Action string

const (
	ActionView        Action = "view"
	ActionClick       Action = "click"
	ActionSave        Action = "save"
	ActionUnsave      Action = "unsave"
	ActionLike        Action = "like"
	ActionShare       Action = "share"
	ActionChatOpen    Action = "chat_open"
	ActionChatMessage Action = "chat_message"
)

// AllActions is the closed set accepted at ingestion.
var AllActions = []Action{
	ActionView,
	ActionClick,
	ActionSave,
	ActionUnsave,
	ActionLike,
	ActionShare,
	ActionChatOpen,
	ActionChatMessage,
}

// ScoringActions are the only actions the aggregator reads.
var ScoringActions = []Action{ActionClick, ActionSave, ActionLike}

func ParseAction(raw string) (Action, error) {
	a := Action(strings.TrimSpace(raw))
	for _, known := range AllActions {
		if a == known {
			return a, nil
		}
	}
	return "", ErrInvalidAction(raw)
}

// ScoringWeight is the multiplier an action contributes to brand/category
// affinity. Non-scoring actions weigh 0.
func (a Action) ScoringWeight() float64 {
	switch a {
	case ActionSave:
		return 3
	case ActionLike:
		return 2
	case ActionClick:
		return 1
	default:
		return 0
	}
}

// OutcomeLabel maps an action onto the recommendation outcome it represents.
// ok is false for actions that say nothing about a recommended product.
func (a Action) OutcomeLabel() (label string, ok bool) {
	switch a {
	case ActionView:
		return "viewed", true
	case ActionClick:
		return "clicked", true
	case ActionSave:
		return "saved", true
	case ActionUnsave:
		return "unsaved", true
	case ActionLike:
		return "liked", true
	case ActionShare:
		return "shared", true
	default:
		return "", false
	}
}

// ActionStrings is the text form used for SQL array parameters.
func ActionStrings(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}
