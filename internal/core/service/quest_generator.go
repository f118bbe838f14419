package service

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/questsupremacy/questd/internal/core/domain"
	"github.com/questsupremacy/questd/internal/metrics"
)

const (
	DefaultBatchSize = 5

	// tierRewardBonus is the per-tier bonus on quest rewards (10% per tier).
	tierRewardBonus = 0.10
)

// QuestGenerator builds daily quest batches. Output depends only on the
// username, the period and the stats passed in.
type QuestGenerator struct {
	batchSize int
	seed      func(username, period string) uint64
}

// NewQuestGenerator returns a generator producing batchSize quests per day.
// If batchSize <= 0, DefaultBatchSize is used.
func NewQuestGenerator(batchSize int) *QuestGenerator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > len(domain.Categories) {
		batchSize = len(domain.Categories)
	}
	return &QuestGenerator{batchSize: batchSize, seed: batchSeed}
}

// GenerateDailyBatch produces one quest per category for the weakest
// categories first. Ties are broken by a shuffle seeded from username and
// period, so the same inputs always yield the same batch.
func (g *QuestGenerator) GenerateDailyBatch(username string, stats map[domain.Category]domain.Stat, now time.Time) []domain.Quest {
	period := domain.Period(now)
	s := g.seed(username, period)
	r := rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))

	cats := make([]domain.Category, len(domain.Categories))
	copy(cats, domain.Categories)
	r.Shuffle(len(cats), func(i, j int) { cats[i], cats[j] = cats[j], cats[i] })
	sort.SliceStable(cats, func(i, j int) bool {
		a, b := stats[cats[i]], stats[cats[j]]
		ai, bi := tierOf(a), tierOf(b)
		if ai != bi {
			return ai < bi
		}
		return a.XP < b.XP
	})

	generatedAt := now.UTC()
	quests := make([]domain.Quest, 0, g.batchSize)
	for i, c := range cats[:g.batchSize] {
		templates := questCatalog[c]
		t := templates[r.IntN(len(templates))]
		quests = append(quests, domain.Quest{
			ID:          domain.QuestID(period, i+1),
			Title:       t.Title,
			Description: t.Description,
			Category:    c,
			XPReward:    rewardFor(t.BaseXP, tierOf(stats[c])),
			Type:        domain.QuestTypeDaily,
			GeneratedAt: generatedAt,
		})
	}
	return quests
}

// EnsureBatch replaces the profile's batch when it belongs to an earlier
// period. It reports whether the profile changed.
func (g *QuestGenerator) EnsureBatch(username string, p *domain.GameProfile, now time.Time) bool {
	period := domain.Period(now)
	if !p.NeedsBatch(period) {
		return false
	}
	p.ReplaceBatch(period, g.GenerateDailyBatch(username, p.Stats, now))
	metrics.QuestBatchesGeneratedTotal.Inc()
	return true
}

func rewardFor(base, tier int) int {
	xp := int(math.Round(float64(base) * (1 + float64(tier)*tierRewardBonus)))
	if xp < 1 {
		xp = 1
	}
	return xp
}

func tierOf(s domain.Stat) int {
	if i := domain.TierIndex(s.Level); i > 0 {
		return i
	}
	return 0
}

func batchSeed(username, period string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(username))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(period))
	return h.Sum64()
}
