package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/questsupremacy/questd/internal/core/domain"
	"github.com/questsupremacy/questd/internal/core/ports"
	"github.com/questsupremacy/questd/internal/metrics"
)

// QuestService implements ports.QuestService.
type QuestService struct {
	profileAccess
}

// NewQuestService returns a QuestService backed by store.
func NewQuestService(store ports.RecordStore, quests *QuestGenerator, log zerolog.Logger) *QuestService {
	return &QuestService{profileAccess{store: store, quests: quests, now: time.Now, log: log}}
}

// DailyQuests returns the active batch, generating today's if needed.
func (s *QuestService) DailyQuests(ctx context.Context, username string) ([]domain.Quest, error) {
	p, err := s.read(ctx, username)
	if err != nil {
		return nil, err
	}
	return p.DailyQuests, nil
}

// Complete marks the quest completed and grants its reward. The quest-list
// mutation and the stat mutation are persisted in the same save, and the
// whole check-and-mark runs under the store's Update serialization, so a
// quest is credited at most once.
func (s *QuestService) Complete(ctx context.Context, username, questID string) (*domain.CompletionReceipt, error) {
	questID = strings.TrimSpace(questID)
	if questID == "" {
		return nil, domain.Invalid("quest_id is required")
	}

	now := s.now()
	var receipt *domain.CompletionReceipt
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		p, _, err := s.resolve(doc, username, now)
		if err != nil {
			return err
		}

		q := p.FindQuest(questID)
		if q == nil {
			return domain.ErrQuestNotFound
		}
		if err := q.Complete(now); err != nil {
			return err
		}

		res, err := p.AddXP(q.Category, q.XPReward)
		if err != nil {
			return err
		}
		p.QuestsCompleted++

		receipt = &domain.CompletionReceipt{
			QuestID:    q.ID,
			QuestTitle: q.Title,
			Category:   q.Category,
			XPGained:   q.XPReward,
			Tier:       res.Stat.Level,
			TierUp:     res.TiersUp > 0,
			TiersUp:    res.TiersUp,
			Level:      res.Level,
			TotalXP:    res.TotalXP,
		}
		receipt.NewAchievements = unlockAchievements(p, now)
		return nil
	})
	if err != nil {
		if isClientError(err) {
			s.log.Debug().Err(err).Str("username", username).Str("quest_id", questID).Msg("quest completion rejected")
		} else {
			s.log.Error().Err(err).Str("username", username).Str("quest_id", questID).Msg("quest completion failed")
		}
		return nil, err
	}

	category := string(receipt.Category)
	metrics.QuestsCompletedTotal.WithLabelValues(category).Inc()
	metrics.XPGrantedTotal.WithLabelValues(category).Add(float64(receipt.XPGained))
	if receipt.TiersUp > 0 {
		metrics.TierPromotionsTotal.WithLabelValues(category).Add(float64(receipt.TiersUp))
	}

	s.log.Info().
		Str("username", username).
		Str("quest_id", receipt.QuestID).
		Str("category", category).
		Int("xp", receipt.XPGained).
		Msg("quest completed")

	return receipt, nil
}

// Rollover replaces every batch that does not belong to now's period.
func (s *QuestService) Rollover(ctx context.Context, now time.Time) (int, error) {
	rolled := 0
	err := s.store.Update(ctx, func(doc *domain.Document) error {
		rolled = 0
		for username := range doc.Accounts {
			_, changed, err := s.resolve(doc, username, now)
			if err != nil {
				return err
			}
			if changed {
				rolled++
			}
		}
		if rolled == 0 {
			return ports.ErrSkipSave
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if rolled > 0 {
		s.log.Info().Int("profiles", rolled).Str("period", domain.Period(now)).Msg("daily quest batches rolled over")
	}
	return rolled, nil
}
