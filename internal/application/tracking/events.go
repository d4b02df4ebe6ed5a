package tracking

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/discovery-service/internal/pkg/context"
)

const (
	EventVersion  = 1
	EventProducer = "discovery-service"

	RoutingKeyInteractionRecorded = "interaction.recorded"
)

// DomainEventEnvelope is the stable contract for events leaving the service.
type DomainEventEnvelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

// ID is the broker message id; it stays stable across redeliveries.
func (e DomainEventEnvelope[T]) ID() string { return e.MessageID }

// InteractionRecordedPayload is the business payload for routing key:
// interaction.recorded
type InteractionRecordedPayload struct {
	EventID      string         `json:"event_id"`
	ActorKey     string         `json:"actor_key"`
	ProfileID    string         `json:"profile_id,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	ImpressionID string         `json:"impression_id,omitempty"`
	ProductID    string         `json:"product_id,omitempty"`
	Action       string         `json:"action"`
	Payload      domain.Payload `json:"payload,omitempty"`
}

// PublishingSubscriber forwards recorded interactions to the message broker
// for out-of-process consumers.
type PublishingSubscriber struct {
	pub EventPublisher
}

func NewPublishingSubscriber(pub EventPublisher) *PublishingSubscriber {
	return &PublishingSubscriber{pub: pub}
}

func (p *PublishingSubscriber) Name() string { return "broker_publisher" }

func (p *PublishingSubscriber) Handle(ctx context.Context, e *domain.InteractionEvent) error {
	env := DomainEventEnvelope[InteractionRecordedPayload]{
		Version:    EventVersion,
		Producer:   EventProducer,
		MessageID:  e.ID,
		TraceID:    appCtx.GetRequestID(ctx),
		OccurredAt: e.CreatedAt,
		Payload: InteractionRecordedPayload{
			EventID:      e.ID,
			ActorKey:     e.Actor.Key(),
			ProfileID:    e.Actor.ProfileID,
			SessionID:    e.SessionID,
			ImpressionID: e.ImpressionID,
			ProductID:    e.ProductID,
			Action:       string(e.Action),
			Payload:      e.Payload,
		},
	}
	return p.pub.PublishEvent(ctx, RoutingKeyInteractionRecorded, env)
}

type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(ctx context.Context, routingKey string, payload any) error {
	return nil
}
