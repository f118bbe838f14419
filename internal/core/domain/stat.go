package domain

// Category names one of the ten skill tracks every profile carries.
type Category string

const (
	CategoryStrength         Category = "strength"
	CategoryMentalHealth     Category = "mental_health"
	CategoryIntelligence     Category = "intelligence"
	CategoryAddictionControl Category = "addiction_control"
	CategoryNutrition        Category = "nutrition"
	CategoryEndurance        Category = "endurance"
	CategorySpeed            Category = "speed"
	CategoryCharisma         Category = "charisma"
	CategorySkills           Category = "skills"
	CategorySexuality        Category = "sexuality"
)

// Categories lists the closed category set in display order.
var Categories = []Category{
	CategoryStrength,
	CategoryMentalHealth,
	CategoryIntelligence,
	CategoryAddictionControl,
	CategoryNutrition,
	CategoryEndurance,
	CategorySpeed,
	CategoryCharisma,
	CategorySkills,
	CategorySexuality,
}

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory returns ErrUnknownCategory for names outside the closed set.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", ErrUnknownCategory
	}
	return c, nil
}

// Tiers is the ordinal rank ladder, lowest first.
var Tiers = []string{"F", "E", "D", "C", "B", "A", "S", "SS", "SSS", "SR", "SSR", "UR", "LR", "MR", "X", "XX", "XXX"}

const (
	InitialTier  = "F"
	InitialMaxXP = 100
	maxXPStep    = 50
)

// TierIndex returns the position of tier on the ladder, or -1 if unknown.
func TierIndex(tier string) int {
	for i, t := range Tiers {
		if t == tier {
			return i
		}
	}
	return -1
}

// MaxXPForTier is the XP needed to leave the tier at index i.
func MaxXPForTier(i int) int {
	if i < 0 {
		i = 0
	}
	return InitialMaxXP + maxXPStep*i
}

// Stat is the progress of a single category.
type Stat struct {
	Level string `json:"level"`
	XP    int    `json:"xp"`
	MaxXP int    `json:"max_xp"`
}

func NewStat() Stat {
	return Stat{Level: InitialTier, XP: 0, MaxXP: InitialMaxXP}
}

// Gain adds amount to the stat and promotes it while the threshold is met,
// carrying the remainder into the next tier. The top tier keeps accumulating.
// It returns the number of tiers gained.
func (s *Stat) Gain(amount int) int {
	s.XP += amount
	promoted := 0
	idx := TierIndex(s.Level)
	if idx < 0 {
		idx = 0
		s.Level = InitialTier
	}
	if s.MaxXP <= 0 {
		s.MaxXP = MaxXPForTier(idx)
	}
	for s.XP >= s.MaxXP && idx < len(Tiers)-1 {
		s.XP -= s.MaxXP
		idx++
		s.Level = Tiers[idx]
		s.MaxXP = MaxXPForTier(idx)
		promoted++
	}
	return promoted
}
