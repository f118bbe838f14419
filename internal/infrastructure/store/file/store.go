// Package file implements the record store on a single JSON file.
//
// Saves are crash-atomic: the new document is written to a temp file in the
// same directory, synced, and renamed over the live file. The previous live
// file is staged beside it first and only enters the numbered recovery
// copies (<path>.bak.1 is always the previous version) once the rename has
// committed. A live file that cannot be decoded is moved aside to
// <path>.corrupt-<unixnano> and the newest readable backup is used instead.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/questsupremacy/questd/internal/core/domain"
	"github.com/questsupremacy/questd/internal/core/ports"
	"github.com/questsupremacy/questd/internal/metrics"
)

const (
	backend          = "file"
	defaultBackups   = 3
	defaultIOTimeout = 5 * time.Second
)

// Config captures the settings of a file store.
type Config struct {
	Path      string
	Backups   int
	IOTimeout time.Duration
}

// Store is a ports.RecordStore backed by one JSON file.
type Store struct {
	path    string
	backups int
	timeout time.Duration
	locker  ports.Locker
	log     zerolog.Logger
	replace func(oldpath, newpath string) error

	mu sync.Mutex
}

// New creates the store directory if needed. locker may be nil; when set it
// is held, in addition to the in-process mutex, for the length of every Update.
func New(cfg Config, locker ports.Locker, log zerolog.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("file store: path is required")
	}
	if cfg.Backups <= 0 {
		cfg.Backups = defaultBackups
	}
	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = defaultIOTimeout
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("file store: create directory: %w", err)
	}
	return &Store{
		path:    cfg.Path,
		backups: cfg.Backups,
		timeout: cfg.IOTimeout,
		locker:  locker,
		log:     log.With().Str("component", "file_store").Logger(),
		replace: os.Rename,
	}, nil
}

// Path returns the location of the live document.
func (s *Store) Path() string { return s.path }

// BackupPath returns the location of the n-th recovery copy (1 = newest).
func (s *Store) BackupPath(n int) string {
	return fmt.Sprintf("%s.bak.%d", s.path, n)
}

// Load returns the stored document or the canonical empty document.
func (s *Store) Load(ctx context.Context) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save replaces the stored document.
func (s *Store) Save(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, doc)
}

// Update runs one serialized load → fn → save cycle.
func (s *Store) Update(ctx context.Context, fn func(doc *domain.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx)
		if err != nil {
			return domain.StoreFailure("acquire lock", err)
		}
		defer unlock()
	}

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		if errors.Is(err, ports.ErrSkipSave) {
			return nil
		}
		return err
	}
	return s.save(ctx, doc)
}

func (s *Store) load(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreFailure("load", err)
	}

	doc, err := readDocument(s.path)
	switch {
	case err == nil:
		s.normalize(doc)
		return doc, nil
	case errors.Is(err, os.ErrNotExist):
		// Either a fresh store or a crash before the first rename; a backup
		// can only exist in the latter case.
	case isDecodeError(err):
		quarantine := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().UnixNano())
		if rerr := os.Rename(s.path, quarantine); rerr != nil {
			s.log.Warn().Err(rerr).Msg("could not quarantine corrupt document")
		}
		s.log.Warn().Err(err).Str("quarantine", quarantine).Msg("stored document is corrupt, trying backups")
	default:
		return nil, domain.StoreFailure("read document", err)
	}

	for n := 1; n <= s.backups; n++ {
		doc, berr := readDocument(s.BackupPath(n))
		if berr != nil {
			continue
		}
		metrics.StoreRecoveriesTotal.WithLabelValues("backup").Inc()
		s.log.Warn().Int("backup", n).Msg("document recovered from backup")
		s.normalize(doc)
		return doc, nil
	}

	if err != nil && !errors.Is(err, os.ErrNotExist) {
		metrics.StoreRecoveriesTotal.WithLabelValues("empty").Inc()
		s.log.Warn().Msg("no readable backup, starting from an empty document")
	}
	return domain.NewDocument(), nil
}

func (s *Store) normalize(doc *domain.Document) {
	for _, issue := range doc.Normalize() {
		s.log.Warn().Str("issue", issue).Msg("document record repaired on load")
	}
}

func (s *Store) save(ctx context.Context, doc *domain.Document) (err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			s.log.Error().Err(err).Msg("document save failed")
		}
		metrics.StoreSavesTotal.WithLabelValues(backend, result).Inc()
		metrics.StoreSaveDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prevVersion := doc.Version
	doc.Version++
	defer func() {
		if err != nil {
			doc.Version = prevVersion
		}
	}()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return domain.StoreFailure("encode document", err)
	}

	tmp, err := writeTemp(filepath.Dir(s.path), filepath.Base(s.path), data)
	if err != nil {
		return domain.StoreFailure("write temp file", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp)
		}
	}()

	staged, err := s.stageBackup()
	if err != nil {
		return domain.StoreFailure("stage backup", err)
	}
	defer func() {
		if !committed && staged != "" {
			_ = os.Remove(staged)
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.StoreFailure("write document", err)
	}
	if err := s.replace(tmp, s.path); err != nil {
		return domain.StoreFailure("replace document", err)
	}
	committed = true
	if staged != "" {
		if err := s.rotate(staged); err != nil {
			_ = os.Remove(staged)
			s.log.Warn().Err(err).Msg("document saved but backup rotation failed")
		}
	}
	syncDir(filepath.Dir(s.path))
	return nil
}

// stageBackup copies the live file to a temp file beside it and returns its
// name, or "" when there is no live file yet.
func (s *Store) stageBackup() (string, error) {
	in, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer in.Close()
	return copyToTemp(in, filepath.Dir(s.path), filepath.Base(s.BackupPath(1)))
}

// rotate shifts the recovery copies by one and moves staged into .bak.1.
func (s *Store) rotate(staged string) error {
	_ = os.Remove(s.BackupPath(s.backups))
	for n := s.backups - 1; n >= 1; n-- {
		if err := os.Rename(s.BackupPath(n), s.BackupPath(n+1)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return os.Rename(staged, s.BackupPath(1))
}

// Verify decodes the live document without repairing or rewriting it and
// returns the repairs a load would apply.
func (s *Store) Verify(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := readDocument(s.path)
	if err != nil {
		return nil, err
	}
	return doc.Normalize(), nil
}

// Restore promotes the n-th recovery copy to the live document. The current
// live document becomes .bak.1.
func (s *Store) Restore(ctx context.Context, n int) error {
	if n < 1 || n > s.backups {
		return fmt.Errorf("backup %d out of range 1..%d", n, s.backups)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readDocument(s.BackupPath(n))
	if err != nil {
		return fmt.Errorf("read backup %d: %w", n, err)
	}
	s.normalize(doc)
	if current, err := readDocument(s.path); err == nil && current.Version > doc.Version {
		doc.Version = current.Version
	}
	return s.save(ctx, doc)
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode document: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var de *decodeError
	return errors.As(err, &de)
}

func readDocument(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := domain.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, &decodeError{err: err}
	}
	return doc, nil
}

func writeTemp(dir, base string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func copyToTemp(src io.Reader, dir, base string) (string, error) {
	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
