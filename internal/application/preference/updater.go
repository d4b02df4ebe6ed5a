package preference

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/keywords"
)

// IncrementalUpdater folds keywords from a profile's chat messages into the
// snapshot as they are recorded, independently of the hourly aggregation.
type IncrementalUpdater struct {
	snapshots SnapshotRepo
}

func NewIncrementalUpdater(snapshots SnapshotRepo) *IncrementalUpdater {
	return &IncrementalUpdater{snapshots: snapshots}
}

func (u *IncrementalUpdater) Name() string { return "preference_keywords" }

func (u *IncrementalUpdater) Handle(ctx context.Context, e *domain.InteractionEvent) error {
	if e.Action != domain.ActionChatMessage || !e.Actor.IsProfile() {
		return nil
	}
	text, ok := e.ChatText()
	if !ok {
		return nil
	}
	fresh := keywords.Extract(text)
	if len(fresh) == 0 {
		return nil
	}
	return u.snapshots.UpdateChatKeywords(ctx, e.Actor.ProfileID, func(existing []string) []string {
		return domain.MergeChatKeywords(existing, fresh)
	}, e.CreatedAt)
}
