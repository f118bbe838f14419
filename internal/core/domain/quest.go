package domain

import (
	"fmt"
	"strings"
	"time"
)

// QuestStatus represents the lifecycle state of a quest.
type QuestStatus string

const (
	QuestPending   QuestStatus = "pending"
	QuestCompleted QuestStatus = "completed"
)

const QuestTypeDaily = "daily"

// validQuestTransitions defines the allowed state machine transitions.
var validQuestTransitions = map[QuestStatus][]QuestStatus{
	QuestPending: {QuestCompleted},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s QuestStatus) CanTransitionTo(next QuestStatus) bool {
	for _, allowed := range validQuestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Quest is one completable unit of real-world activity.
type Quest struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	XPReward    int        `json:"xp_reward"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Type        string     `json:"type"`
	GeneratedAt time.Time  `json:"generated_at"`
}

func (q *Quest) Status() QuestStatus {
	if q.Completed {
		return QuestCompleted
	}
	return QuestPending
}

// Complete moves the quest to its terminal state.
func (q *Quest) Complete(at time.Time) error {
	if !q.Status().CanTransitionTo(QuestCompleted) {
		return ErrQuestAlreadyCompleted
	}
	q.Completed = true
	t := at.UTC()
	q.CompletedAt = &t
	return nil
}

// QuestID builds the identifier of the n-th quest (1-based) in a batch.
func QuestID(period string, n int) string {
	return fmt.Sprintf("%s-%02d", strings.ReplaceAll(period, "-", ""), n)
}

// CompletionReceipt is returned after a quest has been completed.
type CompletionReceipt struct {
	QuestID         string        `json:"quest_id"`
	QuestTitle      string        `json:"quest_title"`
	Category        Category      `json:"category"`
	XPGained        int           `json:"xp_gained"`
	Tier            string        `json:"tier"`
	TierUp          bool          `json:"tier_up"`
	TiersUp         int           `json:"tiers_up"`
	Level           int           `json:"level"`
	TotalXP         int           `json:"total_xp"`
	NewAchievements []Achievement `json:"new_achievements"`
}
