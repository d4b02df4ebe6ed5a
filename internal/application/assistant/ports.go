package assistant

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/application/tracking"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

// Recorder is the event store entry point. chat_message events recorded
// through it update the profile's chat keywords before Record returns.
type Recorder interface {
	Record(ctx context.Context, cmd tracking.RecordCmd) (*domain.InteractionEvent, error)
}

type SnapshotReader interface {
	Get(ctx context.Context, profileID string) (*domain.PreferenceSnapshot, error)
}

// ChatModel produces one assistant reply for a system prompt and a user turn.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
