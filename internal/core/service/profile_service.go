package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/questsupremacy/questd/internal/core/domain"
	"github.com/questsupremacy/questd/internal/core/ports"
	"github.com/questsupremacy/questd/internal/metrics"
)

// profileAccess is shared by the profile and quest services: it resolves a
// username to its profile inside a document, healing a missing profile and
// rolling a stale quest batch.
type profileAccess struct {
	store  ports.RecordStore
	quests *QuestGenerator
	now    func() time.Time
	log    zerolog.Logger
}

// resolve returns the profile for username and whether doc was changed.
func (a *profileAccess) resolve(doc *domain.Document, username string, now time.Time) (*domain.GameProfile, bool, error) {
	if _, ok := doc.Accounts[username]; !ok {
		return nil, false, domain.ErrAccountNotFound
	}
	changed := false
	p, ok := doc.Profiles[username]
	if !ok || p == nil {
		p = domain.NewGameProfile(now)
		doc.Profiles[username] = p
		changed = true
		a.log.Warn().Str("username", username).Msg("account had no profile, created default")
	}
	if a.quests.EnsureBatch(username, p, now) {
		changed = true
	}
	return p, changed, nil
}

// read returns the up-to-date profile, writing only when it had to be
// created or its batch rolled over.
func (a *profileAccess) read(ctx context.Context, username string) (*domain.GameProfile, error) {
	now := a.now()
	doc, err := a.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := doc.Accounts[username]; !ok {
		return nil, domain.ErrAccountNotFound
	}
	if p, ok := doc.Profiles[username]; ok && p != nil && !p.NeedsBatch(domain.Period(now)) {
		return p, nil
	}

	var out *domain.GameProfile
	err = a.store.Update(ctx, func(doc *domain.Document) error {
		p, changed, err := a.resolve(doc, username, now)
		if err != nil {
			return err
		}
		out = p
		if !changed {
			return ports.ErrSkipSave
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ProfileService implements ports.ProfileService.
type ProfileService struct {
	profileAccess
}

func NewProfileService(store ports.RecordStore, quests *QuestGenerator, log zerolog.Logger) *ProfileService {
	return &ProfileService{profileAccess{store: store, quests: quests, now: time.Now, log: log}}
}

// GetOrCreate returns the profile of username, materializing it if missing.
func (s *ProfileService) GetOrCreate(ctx context.Context, username string) (*domain.GameProfile, error) {
	return s.read(ctx, username)
}

// AddXP credits amount XP to category and persists the profile.
func (s *ProfileService) AddXP(ctx context.Context, username string, category domain.Category, amount int) (*domain.XPResult, error) {
	if !category.IsValid() {
		return nil, domain.ErrUnknownCategory
	}
	if amount <= 0 {
		return nil, domain.Invalid("xp amount must be positive")
	}

	now := s.now()
	var result *domain.XPResult
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		p, _, err := s.resolve(doc, username, now)
		if err != nil {
			return err
		}
		result, err = p.AddXP(category, amount)
		if err != nil {
			return err
		}
		unlockAchievements(p, now)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStore) {
			s.log.Error().Err(err).Str("username", username).Msg("failed to persist xp")
		}
		return nil, err
	}

	metrics.XPGrantedTotal.WithLabelValues(string(category)).Add(float64(amount))
	if result.TiersUp > 0 {
		metrics.TierPromotionsTotal.WithLabelValues(string(category)).Add(float64(result.TiersUp))
	}
	return result, nil
}

// Achievements returns the unlocked achievements of username.
func (s *ProfileService) Achievements(ctx context.Context, username string) ([]domain.Achievement, error) {
	p, err := s.read(ctx, username)
	if err != nil {
		return nil, err
	}
	return p.Achievements, nil
}

// Settings returns the client preferences of username.
func (s *ProfileService) Settings(ctx context.Context, username string) (domain.Settings, error) {
	p, err := s.read(ctx, username)
	if err != nil {
		return domain.Settings{}, err
	}
	return p.CurrentSettings(), nil
}

// UpdateSettings merges patch into the preferences of username.
func (s *ProfileService) UpdateSettings(ctx context.Context, username string, patch domain.SettingsPatch) (domain.Settings, error) {
	if patch.Empty() {
		return domain.Settings{}, domain.Invalid("no settings to update")
	}

	now := s.now()
	var out domain.Settings
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		p, _, err := s.resolve(doc, username, now)
		if err != nil {
			return err
		}
		out = p.ApplySettings(patch)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStore) {
			s.log.Error().Err(err).Str("username", username).Msg("failed to persist settings")
		}
		return domain.Settings{}, err
	}
	s.log.Info().Str("username", username).Bool("dark_mode", out.DarkMode).Bool("notifications", out.Notifications).Msg("settings updated")
	return out, nil
}
