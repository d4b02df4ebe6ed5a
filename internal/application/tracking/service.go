package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/metrics"
)

const (
	defaultSavedLimit = 50
	maxSavedLimit     = 200
)

type Service struct {
	events EventRepo
	saved  SavedItemRepo
	bus    *Bus
	clock  Clock
}

func New(events EventRepo, saved SavedItemRepo, bus *Bus, clock Clock) *Service {
	if bus == nil {
		bus = NewBus()
	}
	return &Service{events: events, saved: saved, bus: bus, clock: clock}
}

// RecordCmd is an interaction as it arrives from a client. Payload is the raw
// action-specific JSON object, if any.
type RecordCmd struct {
	ProfileID    string
	AnonID       string
	Action       string
	Payload      json.RawMessage
	ProductID    string
	SessionID    string
	ImpressionID string
}

// Record appends exactly one interaction and then notifies the subscribers.
// Nothing is published when the append fails.
func (s *Service) Record(ctx context.Context, cmd RecordCmd) (*domain.InteractionEvent, error) {
	actor, err := domain.ResolveActor(cmd.ProfileID, cmd.AnonID)
	if err != nil {
		return nil, err
	}
	action, err := domain.ParseAction(cmd.Action)
	if err != nil {
		return nil, err
	}
	payload, err := domain.DecodePayload(action, cmd.Payload)
	if err != nil {
		return nil, err
	}

	ev, err := domain.NewInteractionEvent(domain.NewInteraction{
		Actor:        actor,
		Action:       action,
		Payload:      payload,
		ProductID:    cmd.ProductID,
		SessionID:    cmd.SessionID,
		ImpressionID: cmd.ImpressionID,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.events.Append(ctx, ev); err != nil {
		logger.Ctx(ctx).Error().
			Err(err).
			Str("actor", actor.Key()).
			Str("action", string(action)).
			Msg("append interaction failed")
		return nil, domain.ErrUpstream("event store unavailable", err)
	}
	metrics.InteractionRecorded(string(action))

	s.bus.Publish(ctx, ev)
	return ev, nil
}

// ListSaved returns the actor's saved items, newest first.
func (s *Service) ListSaved(ctx context.Context, actor domain.Actor, limit int) ([]domain.SavedItem, error) {
	if actor.ProfileID == "" && actor.AnonID == "" {
		return nil, domain.ErrUnauthenticated("no actor identity")
	}
	if limit <= 0 {
		limit = defaultSavedLimit
	}
	if limit > maxSavedLimit {
		limit = maxSavedLimit
	}
	items, err := s.saved.ListByActor(ctx, actor.Key(), limit)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("saved items read failed, serving empty list")
		return []domain.SavedItem{}, nil
	}
	if items == nil {
		items = []domain.SavedItem{}
	}
	return items, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}
