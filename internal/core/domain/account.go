package domain

import "time"

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// UserAccount is the credential record of a player. Only LastLogin changes
// after registration.
type UserAccount struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}

// AccountSummary is the safe projection of an account returned to callers.
type AccountSummary struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Summary returns the account without its password hash.
func (a *UserAccount) Summary() *AccountSummary {
	s := &AccountSummary{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
	if a.LastLogin != nil {
		t := *a.LastLogin
		s.LastLogin = &t
	}
	return s
}
