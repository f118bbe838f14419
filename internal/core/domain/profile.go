package domain

import "time"

// GameProfile holds a player's progression. It is keyed by username in the
// Document and owned one-to-one by a UserAccount.
type GameProfile struct {
	Stats           map[Category]Stat `json:"stats"`
	DailyQuests     []Quest           `json:"daily_quests"`
	QuestPeriod     string            `json:"quest_period"`
	Achievements    []Achievement     `json:"achievements"`
	Level           int               `json:"level"`
	TotalXP         int               `json:"total_xp"`
	QuestsCompleted int               `json:"quests_completed"`
	Settings        *Settings         `json:"settings"`
	CreatedAt       time.Time         `json:"created_at"`
}

// NewGameProfile returns a profile with every category at the initial tier
// and no quest batch. Callers attach a batch with ReplaceBatch.
func NewGameProfile(now time.Time) *GameProfile {
	stats := make(map[Category]Stat, len(Categories))
	for _, c := range Categories {
		stats[c] = NewStat()
	}
	settings := DefaultSettings()
	return &GameProfile{
		Stats:        stats,
		Settings:     &settings,
		DailyQuests:  []Quest{},
		Achievements: []Achievement{},
		Level:        1,
		CreatedAt:    now.UTC(),
	}
}

// XPResult describes the effect of a single AddXP call.
type XPResult struct {
	Category Category `json:"category"`
	Amount   int      `json:"amount"`
	Stat     Stat     `json:"stat"`
	TiersUp  int      `json:"tiers_up"`
	Level    int      `json:"level"`
	TotalXP  int      `json:"total_xp"`
}

// AddXP credits amount to category. TotalXP grows by exactly amount regardless
// of tier promotions.
func (p *GameProfile) AddXP(category Category, amount int) (*XPResult, error) {
	if !category.IsValid() {
		return nil, ErrUnknownCategory
	}
	if amount <= 0 {
		return nil, Invalid("xp amount must be positive")
	}
	if p.Stats == nil {
		p.Stats = make(map[Category]Stat, len(Categories))
	}
	stat, ok := p.Stats[category]
	if !ok {
		stat = NewStat()
	}
	tiers := stat.Gain(amount)
	p.Stats[category] = stat
	p.TotalXP += amount
	p.Level = LevelForTotalXP(p.TotalXP)

	return &XPResult{
		Category: category,
		Amount:   amount,
		Stat:     stat,
		TiersUp:  tiers,
		Level:    p.Level,
		TotalXP:  p.TotalXP,
	}, nil
}

// FindQuest returns a pointer into the active batch, or nil.
func (p *GameProfile) FindQuest(id string) *Quest {
	for i := range p.DailyQuests {
		if p.DailyQuests[i].ID == id {
			return &p.DailyQuests[i]
		}
	}
	return nil
}

// NeedsBatch reports whether the active quest batch belongs to another period.
func (p *GameProfile) NeedsBatch(period string) bool {
	return p.QuestPeriod != period
}

// ReplaceBatch installs a new quest batch for period.
func (p *GameProfile) ReplaceBatch(period string, quests []Quest) {
	p.QuestPeriod = period
	p.DailyQuests = quests
}

// HasAchievement reports whether id has already been unlocked.
func (p *GameProfile) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Unlock appends a not-yet-unlocked achievement. It returns false when the
// achievement was already present.
func (p *GameProfile) Unlock(a Achievement) bool {
	if p.HasAchievement(a.ID) {
		return false
	}
	p.Achievements = append(p.Achievements, a)
	return true
}

// Period returns the quest-batch period key (UTC calendar day) for t.
func Period(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
