package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/questsupremacy/questd/internal/core/domain"
	"github.com/questsupremacy/questd/internal/infrastructure/store/file"
)

var testNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    *file.Store
	quests   *QuestGenerator
	identity *IdentityService
	profiles *ProfileService
	game     *QuestService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := file.New(file.Config{Path: filepath.Join(t.TempDir(), "quest_data.json")}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("file.New: %v", err)
	}
	quests := NewQuestGenerator(DefaultBatchSize)
	f := &fixture{
		store:    store,
		quests:   quests,
		identity: NewIdentityService(store, quests, zerolog.Nop()),
		profiles: NewProfileService(store, quests, zerolog.Nop()),
		game:     NewQuestService(store, quests, zerolog.Nop()),
	}
	f.identity.cost = bcrypt.MinCost
	f.setNow(testNow)
	return f
}

func (f *fixture) setNow(now time.Time) {
	clock := func() time.Time { return now }
	f.identity.now = clock
	f.profiles.now = clock
	f.game.now = clock
}

func (f *fixture) register(t *testing.T, username string) *domain.AccountSummary {
	t.Helper()
	acc, err := f.identity.Register(context.Background(), username, username+"@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return acc
}

func (f *fixture) document(t *testing.T) *domain.Document {
	t.Helper()
	doc, err := f.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return doc
}

// failingStore loads an empty document and fails every write.
type failingStore struct{}

func (failingStore) Load(context.Context) (*domain.Document, error) {
	return domain.NewDocument(), nil
}

func (failingStore) Save(context.Context, *domain.Document) error {
	return domain.StoreFailure("replace document", errors.New("disk full"))
}

func (s failingStore) Update(ctx context.Context, fn func(*domain.Document) error) error {
	doc, _ := s.Load(ctx)
	if err := fn(doc); err != nil {
		return err
	}
	return s.Save(ctx, doc)
}
