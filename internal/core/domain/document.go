package domain

import (
	"fmt"
	"sort"
)

// Document is the single persisted root holding every account and profile.
type Document struct {
	Version  uint64                  `json:"version"`
	Accounts map[string]*UserAccount `json:"accounts"`
	Profiles map[string]*GameProfile `json:"profiles"`
}

// NewDocument returns the canonical empty document.
func NewDocument() *Document {
	return &Document{
		Accounts: make(map[string]*UserAccount),
		Profiles: make(map[string]*GameProfile),
	}
}

// EmailInUse reports whether any account already uses email.
func (d *Document) EmailInUse(email string) bool {
	for _, a := range d.Accounts {
		if a.Email == email {
			return true
		}
	}
	return false
}

// Normalize repairs a freshly decoded document in place and returns a
// description of every repair. Records that cannot be repaired are dropped.
func (d *Document) Normalize() []string {
	var issues []string
	if d.Accounts == nil {
		d.Accounts = make(map[string]*UserAccount)
	}
	if d.Profiles == nil {
		d.Profiles = make(map[string]*GameProfile)
	}

	for key, acc := range d.Accounts {
		if acc == nil || acc.Username != key || acc.ID == "" || acc.PasswordHash == "" {
			issues = append(issues, fmt.Sprintf("account %q: malformed record dropped", key))
			delete(d.Accounts, key)
			delete(d.Profiles, key)
		}
	}

	for _, key := range sortedKeys(d.Profiles) {
		p := d.Profiles[key]
		if _, ok := d.Accounts[key]; !ok || p == nil {
			issues = append(issues, fmt.Sprintf("profile %q: no matching account, dropped", key))
			delete(d.Profiles, key)
			continue
		}
		issues = append(issues, p.normalize(key)...)
	}
	return issues
}

func (p *GameProfile) normalize(owner string) []string {
	var issues []string
	if p.Stats == nil {
		p.Stats = make(map[Category]Stat, len(Categories))
	}
	for c := range p.Stats {
		if !c.IsValid() {
			issues = append(issues, fmt.Sprintf("profile %q: unknown stat %q dropped", owner, c))
			delete(p.Stats, c)
		}
	}
	for _, c := range Categories {
		s, ok := p.Stats[c]
		if !ok {
			issues = append(issues, fmt.Sprintf("profile %q: missing stat %q restored", owner, c))
			p.Stats[c] = NewStat()
			continue
		}
		idx := TierIndex(s.Level)
		if idx < 0 || s.XP < 0 || s.MaxXP <= 0 {
			issues = append(issues, fmt.Sprintf("profile %q: stat %q reset from invalid state", owner, c))
			if idx < 0 {
				idx = 0
				s.Level = InitialTier
			}
			if s.XP < 0 {
				s.XP = 0
			}
			s.MaxXP = MaxXPForTier(idx)
			p.Stats[c] = s
		}
	}

	kept := p.DailyQuests[:0]
	seen := make(map[string]struct{}, len(p.DailyQuests))
	for _, q := range p.DailyQuests {
		_, dup := seen[q.ID]
		if q.ID == "" || dup || !q.Category.IsValid() || q.XPReward <= 0 {
			issues = append(issues, fmt.Sprintf("profile %q: malformed quest %q dropped", owner, q.ID))
			continue
		}
		seen[q.ID] = struct{}{}
		kept = append(kept, q)
	}
	p.DailyQuests = kept
	if p.DailyQuests == nil {
		p.DailyQuests = []Quest{}
	}
	if p.Achievements == nil {
		p.Achievements = []Achievement{}
	}
	if p.Settings == nil {
		settings := DefaultSettings()
		p.Settings = &settings
	}
	if p.TotalXP < 0 {
		issues = append(issues, fmt.Sprintf("profile %q: negative total_xp reset", owner))
		p.TotalXP = 0
	}
	p.Level = LevelForTotalXP(p.TotalXP)
	return issues
}

func sortedKeys(m map[string]*GameProfile) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
