package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/questsupremacy/questd/internal/core/domain"
	"github.com/questsupremacy/questd/internal/core/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{Path: filepath.Join(t.TempDir(), "data", "quest_data.json"), Backups: 2}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func addPlayer(doc *domain.Document, username string) {
	now := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	doc.Accounts[username] = &domain.UserAccount{
		ID:           "id-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
	}
	p := domain.NewGameProfile(now)
	p.ReplaceBatch("2026-10-17", []domain.Quest{{
		ID:          "20261017-01",
		Title:       "Warrior's Drill",
		Description: "Complete 30 minutes of physical exercise",
		Category:    domain.CategoryStrength,
		XPReward:    15,
		Type:        domain.QuestTypeDaily,
		GeneratedAt: now,
	}})
	doc.Profiles[username] = p
}

func TestStore_LoadMissingReturnsEmpty(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(doc, domain.NewDocument()) {
		t.Fatalf("expected empty document, got %+v", doc)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	doc := domain.NewDocument()
	addPlayer(doc, "alice")
	addPlayer(doc, "bob")
	if _, err := doc.Profiles["bob"].AddXP(domain.CategoryNutrition, 130); err != nil {
		t.Fatalf("AddXP: %v", err)
	}

	if err := s.Save(context.Background(), doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, doc)
	}
	if got.Version != 1 {
		t.Fatalf("expected version 1, got %d", got.Version)
	}
}

func TestStore_SaveKeepsPreviousVersionAsBackup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := domain.NewDocument()
	addPlayer(first, "alice")
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := domain.NewDocument()
	addPlayer(second, "alice")
	addPlayer(second, "bob")
	second.Version = first.Version
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	backup, err := readDocument(s.BackupPath(1))
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if _, ok := backup.Accounts["bob"]; ok {
		t.Fatalf("backup should hold the previous version")
	}
	if backup.Version != 1 {
		t.Fatalf("expected backup version 1, got %d", backup.Version)
	}

	third := domain.NewDocument()
	third.Version = second.Version
	if err := s.Save(ctx, third); err != nil {
		t.Fatalf("third save: %v", err)
	}
	if _, err := os.Stat(s.BackupPath(2)); err != nil {
		t.Fatalf("expected rotated backup .bak.2: %v", err)
	}
}

func TestStore_CorruptDocumentRecoversFromBackup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := domain.NewDocument()
	addPlayer(doc, "alice")
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(s.Path(), []byte(`{"accounts": {`), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load should not fail on corruption: %v", err)
	}
	if _, ok := got.Accounts["alice"]; !ok {
		t.Fatalf("expected alice recovered from backup")
	}

	matches, _ := filepath.Glob(s.Path() + ".corrupt-*")
	if len(matches) != 1 {
		t.Fatalf("expected corrupt file quarantined, got %v", matches)
	}
}

func TestStore_RepeatedCorruptionKeepsEveryQuarantine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, garbage := range []string{"first garbage", "second garbage"} {
		if err := os.WriteFile(s.Path(), []byte(garbage), 0o644); err != nil {
			t.Fatalf("corrupt %d: %v", i, err)
		}
		if _, err := s.Load(ctx); err != nil {
			t.Fatalf("Load %d: %v", i, err)
		}
	}

	matches, _ := filepath.Glob(s.Path() + ".corrupt-*")
	if len(matches) != 2 {
		t.Fatalf("expected both corrupt files kept, got %v", matches)
	}
}

func TestStore_CorruptDocumentWithoutBackupIsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Accounts) != 0 || len(got.Profiles) != 0 {
		t.Fatalf("expected empty document, got %+v", got)
	}
}

func TestStore_FailedSaveLeavesStoreUnchanged(t *testing.T) {
	s := newTestStore(t)
	doc := domain.NewDocument()
	addPlayer(doc, "alice")
	if err := s.Save(context.Background(), doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	before, _ := os.ReadFile(s.Path())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	addPlayer(doc, "bob")
	err := s.Save(ctx, doc)
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if doc.Version != 1 {
		t.Fatalf("version should be rolled back to 1, got %d", doc.Version)
	}

	after, _ := os.ReadFile(s.Path())
	if string(before) != string(after) {
		t.Fatalf("live document changed after failed save")
	}
	tmps, _ := filepath.Glob(filepath.Join(filepath.Dir(s.Path()), "*.tmp"))
	if len(tmps) != 0 {
		t.Fatalf("temp files left behind: %v", tmps)
	}
}

func TestStore_FailedReplaceKeepsBackups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	doc := domain.NewDocument()
	addPlayer(doc, "alice")
	for i := 0; i < 3; i++ {
		if err := s.Save(ctx, doc); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	snapshot := func() []string {
		var out []string
		for _, path := range []string{s.Path(), s.BackupPath(1), s.BackupPath(2)} {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read %s: %v", path, err)
			}
			out = append(out, string(data))
		}
		return out
	}
	before := snapshot()

	s.replace = func(string, string) error { return errors.New("disk full") }
	addPlayer(doc, "bob")
	if err := s.Save(ctx, doc); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}

	if !reflect.DeepEqual(snapshot(), before) {
		t.Fatalf("live document or backups changed after a failed replace")
	}
	tmps, _ := filepath.Glob(filepath.Join(filepath.Dir(s.Path()), "*.tmp"))
	if len(tmps) != 0 {
		t.Fatalf("temp files left behind: %v", tmps)
	}
}

func TestStore_UpdateCallbackErrorSavesNothing(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.Update(context.Background(), func(doc *domain.Document) error {
		addPlayer(doc, "alice")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if _, err := os.Stat(s.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no document written, stat err = %v", err)
	}
}

func TestStore_UpdateSkipSave(t *testing.T) {
	s := newTestStore(t)

	err := s.Update(context.Background(), func(doc *domain.Document) error {
		return ports.ErrSkipSave
	})
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if _, err := os.Stat(s.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no document written")
	}
}

func TestStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Update(ctx, func(doc *domain.Document) error {
				addPlayer(doc, fmt.Sprintf("player%02d", i))
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	doc, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Accounts) != writers || len(doc.Profiles) != writers {
		t.Fatalf("expected %d players, got %d accounts / %d profiles", writers, len(doc.Accounts), len(doc.Profiles))
	}
	if doc.Version != writers {
		t.Fatalf("expected version %d, got %d", writers, doc.Version)
	}
}

func TestStore_LoadDropsOrphanProfile(t *testing.T) {
	s := newTestStore(t)
	raw := `{"version": 3, "accounts": {}, "profiles": {"ghost": {"stats": {}, "daily_quests": [], "level": 1}}}`
	if err := os.WriteFile(s.Path(), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := doc.Profiles["ghost"]; ok {
		t.Fatalf("orphan profile should be dropped")
	}
	if doc.Version != 3 {
		t.Fatalf("expected version 3, got %d", doc.Version)
	}
}

func TestStore_VerifyAndRestore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := domain.NewDocument()
	addPlayer(doc, "alice")
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	delete(doc.Accounts, "alice")
	delete(doc.Profiles, "alice")
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	issues, err := s.Verify(ctx)
	if err != nil || len(issues) != 0 {
		t.Fatalf("Verify: issues=%v err=%v", issues, err)
	}

	if err := s.Restore(ctx, 1); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := got.Accounts["alice"]; !ok {
		t.Fatalf("expected alice restored")
	}
	if got.Version != 3 {
		t.Fatalf("expected version 3 after restore, got %d", got.Version)
	}

	if err := s.Restore(ctx, 9); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range error, got %v", err)
	}
}
