package service

import (
	"time"

	"github.com/questsupremacy/questd/internal/core/domain"
)

type achievementRule struct {
	ID          string
	Title       string
	Description string
	Met         func(p *domain.GameProfile) bool
}

var achievementRules = []achievementRule{
	{"first_quest", "First Step", "Complete your first quest", questsAtLeast(1)},
	{"first_level_up", "Rising Adventurer", "Raise any stat to tier E", anyStatAtLeast("E")},
	{"reach_rank_d", "Determined Adventurer", "Reach tier D in any stat", anyStatAtLeast("D")},
	{"reach_rank_c", "Competent Warrior", "Reach tier C in any stat", anyStatAtLeast("C")},
	{"reach_rank_b", "Skilled Hero", "Reach tier B in any stat", anyStatAtLeast("B")},
	{"reach_rank_a", "Elite Champion", "Reach tier A in any stat", anyStatAtLeast("A")},
	{"reach_rank_s", "Supreme Legend", "Reach tier S in any stat", anyStatAtLeast("S")},
	{"perfect_day", "Perfect Day", "Complete every quest of a daily batch", perfectDay},
	{"total_quests_100", "Quest Veteran", "Complete 100 quests", questsAtLeast(100)},
	{"total_quests_500", "Mission Master", "Complete 500 quests", questsAtLeast(500)},
	{"total_quests_1000", "Immortal Legend", "Complete 1000 quests", questsAtLeast(1000)},
	{"all_stats_rank_b", "Balanced Master", "Reach tier B in every stat", allStatsAtLeast("B")},
}

// unlockAchievements appends every newly met achievement to p and returns them.
func unlockAchievements(p *domain.GameProfile, now time.Time) []domain.Achievement {
	unlocked := []domain.Achievement{}
	for _, rule := range achievementRules {
		if p.HasAchievement(rule.ID) || !rule.Met(p) {
			continue
		}
		a := domain.Achievement{
			ID:          rule.ID,
			Title:       rule.Title,
			Description: rule.Description,
			UnlockedAt:  now.UTC(),
		}
		if p.Unlock(a) {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked
}

func questsAtLeast(n int) func(*domain.GameProfile) bool {
	return func(p *domain.GameProfile) bool { return p.QuestsCompleted >= n }
}

func anyStatAtLeast(tier string) func(*domain.GameProfile) bool {
	want := domain.TierIndex(tier)
	return func(p *domain.GameProfile) bool {
		for _, s := range p.Stats {
			if domain.TierIndex(s.Level) >= want {
				return true
			}
		}
		return false
	}
}

func allStatsAtLeast(tier string) func(*domain.GameProfile) bool {
	want := domain.TierIndex(tier)
	return func(p *domain.GameProfile) bool {
		for _, c := range domain.Categories {
			if domain.TierIndex(p.Stats[c].Level) < want {
				return false
			}
		}
		return true
	}
}

func perfectDay(p *domain.GameProfile) bool {
	if len(p.DailyQuests) == 0 {
		return false
	}
	for _, q := range p.DailyQuests {
		if !q.Completed {
			return false
		}
	}
	return true
}
