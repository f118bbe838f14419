package ports

import (
	"context"

	"github.com/questsupremacy/questd/internal/core/domain"
)

// IdentityService manages accounts and credential checks.
type IdentityService interface {
	Register(ctx context.Context, username, email, password string) (*domain.AccountSummary, error)
	Authenticate(ctx context.Context, username, password string) (*domain.AccountSummary, error)
	Lookup(ctx context.Context, username string) (*domain.AccountSummary, error)
}
