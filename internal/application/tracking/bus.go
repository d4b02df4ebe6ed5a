package tracking

import (
	"context"
	"fmt"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/metrics"
)

// Subscriber reacts to an interaction after it has been appended.
type Subscriber interface {
	Name() string
	Handle(ctx context.Context, e *domain.InteractionEvent) error
}

// Bus fans a recorded interaction out to its subscribers in registration
// order. A failing or panicking subscriber is logged and counted; the rest
// still run.
type Bus struct {
	subs []Subscriber
}

func NewBus(subs ...Subscriber) *Bus {
	return &Bus{subs: subs}
}

func (b *Bus) Subscribe(s Subscriber) {
	b.subs = append(b.subs, s)
}

func (b *Bus) Publish(ctx context.Context, e *domain.InteractionEvent) {
	for _, s := range b.subs {
		if err := dispatch(ctx, s, e); err != nil {
			metrics.SubscriberFailed(s.Name())
			logger.Ctx(ctx).Error().
				Err(err).
				Str("subscriber", s.Name()).
				Str("event_id", e.ID).
				Str("action", string(e.Action)).
				Msg("interaction subscriber failed")
		}
	}
}

func dispatch(ctx context.Context, s Subscriber, e *domain.InteractionEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return s.Handle(ctx, e)
}
