package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/questsupremacy/questd/internal/core/domain"
	"github.com/questsupremacy/questd/internal/core/ports"
	"github.com/questsupremacy/questd/internal/metrics"
)

const (
	backend             = "mongo"
	collectionDocuments = "documents"
	collectionBackups   = "document_backups"
	documentID          = "document"
	defaultBackups      = 3
	maxUpdateAttempts   = 5
)

// storedDocument is the single record holding the whole Document. The body
// is the same JSON the file backend writes, so both backends share one schema.
type storedDocument struct {
	ID        string    `bson:"_id"`
	Version   int64     `bson:"version"`
	Body      string    `bson:"body"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// DocumentStore implements ports.RecordStore on MongoDB using optimistic
// compare-and-swap on the document version.
type DocumentStore struct {
	docs    *mongo.Collection
	backups *mongo.Collection
	keep    int
	log     zerolog.Logger
}

// NewDocumentStore returns a store keeping the newest keep recovery copies.
func NewDocumentStore(db *mongo.Database, keep int, log zerolog.Logger) *DocumentStore {
	if keep <= 0 {
		keep = defaultBackups
	}
	return &DocumentStore{
		docs:    db.Collection(collectionDocuments),
		backups: db.Collection(collectionBackups),
		keep:    keep,
		log:     log.With().Str("component", "mongo_store").Logger(),
	}
}

// Load returns the stored document or the canonical empty document.
func (s *DocumentStore) Load(ctx context.Context) (*domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec storedDocument
	err := s.docs.FindOne(ctx, bson.M{"_id": documentID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NewDocument(), nil
		}
		return nil, domain.StoreFailure("find document", err)
	}

	doc, derr := decodeBody(rec)
	if derr == nil {
		s.normalize(doc)
		return doc, nil
	}
	s.log.Warn().Err(derr).Int64("version", rec.Version).Msg("stored document is corrupt, trying backups")

	cur, err := s.backups.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "version", Value: -1}}).SetLimit(int64(s.keep)))
	if err != nil {
		return nil, domain.StoreFailure("find backups", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var b storedDocument
		if err := cur.Decode(&b); err != nil {
			continue
		}
		doc, err := decodeBody(b)
		if err != nil {
			continue
		}
		// Keep the live version so the next save still passes the CAS check.
		doc.Version = uint64(rec.Version)
		metrics.StoreRecoveriesTotal.WithLabelValues("backup").Inc()
		s.log.Warn().Int64("backup_version", b.Version).Msg("document recovered from backup")
		s.normalize(doc)
		return doc, nil
	}

	metrics.StoreRecoveriesTotal.WithLabelValues("empty").Inc()
	s.log.Warn().Msg("no readable backup, starting from an empty document")
	doc = domain.NewDocument()
	doc.Version = uint64(rec.Version)
	return doc, nil
}

// Save swaps the stored document if its version still equals doc.Version,
// after copying the current version into the backup collection. It returns
// domain.ErrVersionConflict when another writer got there first.
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) (err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.StoreSavesTotal.WithLabelValues(backend, result).Inc()
		metrics.StoreSaveDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	expected := int64(doc.Version)
	next := doc.Version + 1
	doc.Version = next
	body, err := json.Marshal(doc)
	doc.Version = uint64(expected)
	if err != nil {
		return domain.StoreFailure("encode document", err)
	}
	now := time.Now().UTC()

	if expected == 0 {
		_, err := s.docs.InsertOne(ctx, storedDocument{ID: documentID, Version: 1, Body: string(body), UpdatedAt: now})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrVersionConflict
			}
			return domain.StoreFailure("insert document", err)
		}
		doc.Version = next
		return nil
	}

	if err := s.backupCurrent(ctx, expected); err != nil {
		return err
	}

	res, err := s.docs.UpdateOne(ctx,
		bson.M{"_id": documentID, "version": expected},
		bson.M{"$set": bson.M{"version": int64(next), "body": string(body), "updated_at": now}},
	)
	if err != nil {
		return domain.StoreFailure("update document", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrVersionConflict
	}
	doc.Version = next

	if _, err := s.backups.DeleteMany(ctx, bson.M{"version": bson.M{"$lte": int64(next) - int64(s.keep) - 1}}); err != nil {
		s.log.Warn().Err(err).Msg("failed to prune old backups")
	}
	return nil
}

// backupCurrent copies the stored document at version into the backup
// collection. Copies are keyed by version, so retries are idempotent.
func (s *DocumentStore) backupCurrent(ctx context.Context, version int64) error {
	var cur storedDocument
	err := s.docs.FindOne(ctx, bson.M{"_id": documentID, "version": version}).Decode(&cur)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrVersionConflict
		}
		return domain.StoreFailure("read current document", err)
	}
	cur.ID = fmt.Sprintf("%s:v%d", documentID, cur.Version)
	_, err = s.backups.ReplaceOne(ctx, bson.M{"_id": cur.ID}, cur, options.Replace().SetUpsert(true))
	if err != nil {
		return domain.StoreFailure("write backup", err)
	}
	return nil
}

// Update retries the load → fn → save cycle on version conflicts.
func (s *DocumentStore) Update(ctx context.Context, fn func(doc *domain.Document) error) error {
	return updateWithRetry(ctx, s, fn, func(attempt int) {
		metrics.StoreConflictsTotal.Inc()
		s.log.Debug().Int("attempt", attempt).Msg("document version conflict, retrying")
	})
}

// versionedStore saves with compare-and-swap, failing with
// domain.ErrVersionConflict when the stored version moved.
type versionedStore interface {
	Load(ctx context.Context) (*domain.Document, error)
	Save(ctx context.Context, doc *domain.Document) error
}

func updateWithRetry(ctx context.Context, st versionedStore, fn func(doc *domain.Document) error, onConflict func(attempt int)) error {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		doc, err := st.Load(ctx)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			if errors.Is(err, ports.ErrSkipSave) {
				return nil
			}
			return err
		}
		err = st.Save(ctx, doc)
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		onConflict(attempt)
	}
	return domain.StoreFailure("update document", fmt.Errorf("gave up after %d version conflicts", maxUpdateAttempts))
}

// EnsureIndexes creates necessary indexes on the backup collection.
func (s *DocumentStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.backups.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "version", Value: -1}}})
	return err
}

func (s *DocumentStore) normalize(doc *domain.Document) {
	for _, issue := range doc.Normalize() {
		s.log.Warn().Str("issue", issue).Msg("document record repaired on load")
	}
}

func decodeBody(rec storedDocument) (*domain.Document, error) {
	doc := domain.NewDocument()
	if err := json.Unmarshal([]byte(rec.Body), doc); err != nil {
		return nil, err
	}
	doc.Version = uint64(rec.Version)
	return doc, nil
}
