package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/questsupremacy/questd/internal/core/domain"
	"github.com/questsupremacy/questd/internal/core/ports"
	"github.com/questsupremacy/questd/internal/metrics"
)

// IdentityService implements registration and credential checks.
type IdentityService struct {
	store  ports.RecordStore
	quests *QuestGenerator
	now    func() time.Time
	cost   int
	log    zerolog.Logger
}

func NewIdentityService(store ports.RecordStore, quests *QuestGenerator, log zerolog.Logger) *IdentityService {
	return &IdentityService{
		store:  store,
		quests: quests,
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
		log:    log,
	}
}

// Register creates the account and its default profile in a single save.
func (s *IdentityService) Register(ctx context.Context, username, email, password string) (*domain.AccountSummary, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if len(username) < domain.MinUsernameLength {
		return nil, domain.Invalid("username must be at least %d characters", domain.MinUsernameLength)
	}
	if !strings.Contains(email, "@") {
		return nil, domain.Invalid("email must be a valid address")
	}
	if len(password) < domain.MinPasswordLength {
		return nil, domain.Invalid("password must be at least %d characters", domain.MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	var summary *domain.AccountSummary
	err = s.store.Update(ctx, func(doc *domain.Document) error {
		if _, exists := doc.Accounts[username]; exists {
			return domain.ErrUsernameTaken
		}
		if doc.EmailInUse(email) {
			return domain.ErrEmailTaken
		}

		now := s.now().UTC()
		account := &domain.UserAccount{
			ID:           uuid.NewString(),
			Username:     username,
			Email:        email,
			PasswordHash: string(hash),
			CreatedAt:    now,
		}
		profile := domain.NewGameProfile(now)
		s.quests.EnsureBatch(username, profile, now)

		doc.Accounts[username] = account
		doc.Profiles[username] = profile
		summary = account.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RegistrationsTotal.Inc()
	s.log.Info().Str("username", username).Str("user_id", summary.ID).Msg("account registered")
	return summary, nil
}

// Authenticate verifies the password and records the login time.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*domain.AccountSummary, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.Invalid("username and password are required")
	}

	// The digest comparison is slow; do it outside the store lock.
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	account, ok := doc.Accounts[username]
	if !ok {
		metrics.LoginsTotal.WithLabelValues("unknown_user").Inc()
		return nil, domain.ErrAccountNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("bad_credential").Inc()
		return nil, domain.ErrBadCredential
	}

	var summary *domain.AccountSummary
	err = s.store.Update(ctx, func(doc *domain.Document) error {
		account, ok := doc.Accounts[username]
		if !ok {
			return domain.ErrAccountNotFound
		}
		now := s.now().UTC()
		account.LastLogin = &now
		summary = account.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("username", username).Msg("login succeeded")
	return summary, nil
}

// Lookup returns the summary of an existing account.
func (s *IdentityService) Lookup(ctx context.Context, username string) (*domain.AccountSummary, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	account, ok := doc.Accounts[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account.Summary(), nil
}

// isClientError reports whether err is caused by the caller rather than the
// store. Used to pick a log level.
func isClientError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrUnauthorized)
}
