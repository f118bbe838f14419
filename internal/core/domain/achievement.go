package domain

import "time"

// Achievement is an unlocked milestone. The list on a profile is append-only.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}
