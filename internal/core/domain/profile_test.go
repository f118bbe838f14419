package domain

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func TestGameProfile_AddXP(t *testing.T) {
	p := NewGameProfile(testNow)

	res, err := p.AddXP(CategoryEndurance, 250)
	if err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	if res.TiersUp != 2 || res.Stat.Level != "D" || res.TotalXP != 250 || res.Level != LevelForTotalXP(250) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if p.TotalXP != 250 {
		t.Fatalf("total xp must grow by the full amount, got %d", p.TotalXP)
	}

	if _, err := p.AddXP("cooking", 10); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected unknown category, got %v", err)
	}
	if _, err := p.AddXP(CategoryEndurance, -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if p.TotalXP != 250 {
		t.Fatalf("rejected calls changed total xp")
	}
}

func TestQuest_CompleteIsTerminal(t *testing.T) {
	q := Quest{ID: QuestID("2026-10-17", 3), Category: CategorySkills, XPReward: 10}
	if q.ID != "20261017-03" {
		t.Fatalf("unexpected id %q", q.ID)
	}
	if q.Status() != QuestPending || !QuestPending.CanTransitionTo(QuestCompleted) {
		t.Fatalf("new quest should be pending and completable")
	}
	if err := q.Complete(testNow); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if q.Status() != QuestCompleted || q.CompletedAt == nil {
		t.Fatalf("quest not completed: %+v", q)
	}
	if err := q.Complete(testNow); !errors.Is(err, ErrQuestAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}
	if QuestCompleted.CanTransitionTo(QuestPending) {
		t.Fatalf("completed must be terminal")
	}
}

func TestGameProfile_Unlock(t *testing.T) {
	p := NewGameProfile(testNow)
	a := Achievement{ID: "first_quest", UnlockedAt: testNow}
	if !p.Unlock(a) || p.Unlock(a) {
		t.Fatalf("achievement must unlock exactly once")
	}
	if len(p.Achievements) != 1 {
		t.Fatalf("expected 1 achievement, got %d", len(p.Achievements))
	}
}
