package ports

import (
	"context"

	"github.com/questsupremacy/questd/internal/core/domain"
)

// ProfileService reads and mutates player progression.
type ProfileService interface {
	GetOrCreate(ctx context.Context, username string) (*domain.GameProfile, error)
	AddXP(ctx context.Context, username string, category domain.Category, amount int) (*domain.XPResult, error)
	Achievements(ctx context.Context, username string) ([]domain.Achievement, error)
	Settings(ctx context.Context, username string) (domain.Settings, error)
	UpdateSettings(ctx context.Context, username string, patch domain.SettingsPatch) (domain.Settings, error)
}
