package ports

import (
	"context"
	"time"

	"github.com/questsupremacy/questd/internal/core/domain"
)

// QuestService drives daily batches and quest completion.
type QuestService interface {
	DailyQuests(ctx context.Context, username string) ([]domain.Quest, error)
	Complete(ctx context.Context, username, questID string) (*domain.CompletionReceipt, error)
	// Rollover replaces every stale batch and returns how many were replaced.
	Rollover(ctx context.Context, now time.Time) (int, error)
}
