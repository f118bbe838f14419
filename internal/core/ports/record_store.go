package ports

import (
	"context"
	"errors"

	"github.com/questsupremacy/questd/internal/core/domain"
)

// ErrSkipSave may be returned by an Update callback that made no changes.
// Update then returns nil without writing.
var ErrSkipSave = errors.New("skip save")

// RecordStore persists the whole Document.
type RecordStore interface {
	// Load returns the persisted document, or the canonical empty document
	// when nothing usable is stored. Errors are I/O failures only.
	Load(ctx context.Context) (*domain.Document, error)

	// Save durably replaces the stored document. The previous version is kept
	// as a recovery copy. On failure the stored document is unchanged.
	Save(ctx context.Context, doc *domain.Document) error

	// Update runs fn against a freshly loaded document and saves the result,
	// serialized against every other Update on the same store. Nothing is
	// saved when fn returns an error.
	Update(ctx context.Context, fn func(doc *domain.Document) error) error
}

// Locker provides mutual exclusion across processes sharing one store.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}
