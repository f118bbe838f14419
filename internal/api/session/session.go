// Package session maps HTTP requests to an authenticated username.
//
// A session is an HS256 JWT whose subject is the username. It travels in the
// quest_session cookie set at login, or in an "Authorization: Bearer" header
// for non-browser clients.
package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/questsupremacy/questd/internal/core/domain"
)

const (
	CookieName = "quest_session"
	contextKey = "username"
	issuer     = "questd"
)

// Manager issues and verifies session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager returns a Manager. secure marks the cookie Secure, which
// browsers only send over HTTPS.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Establish signs a token for username, sets the session cookie and returns
// the token.
func (m *Manager) Establish(c echo.Context, username string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", err
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// CurrentIdentity returns the username of a valid session, if any.
func (m *Manager) CurrentIdentity(c echo.Context) (string, bool) {
	if username, ok := c.Get(contextKey).(string); ok && username != "" {
		return username, true
	}
	raw := tokenFromRequest(c)
	if raw == "" {
		return "", false
	}
	username, err := m.parse(raw)
	if err != nil {
		return "", false
	}
	return username, true
}

// Clear expires the session cookie.
func (m *Manager) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireIdentity rejects requests without a valid session and stores the
// username for Username. A signed session whose account no longer exists is
// stale: its cookie is cleared and the request is answered 401.
func (m *Manager) RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		username, ok := m.CurrentIdentity(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		}
		c.Set(contextKey, username)
		err := next(c)
		if errors.Is(err, domain.ErrAccountNotFound) {
			m.Clear(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
		}
		return err
	}
}

// Username returns the identity stored by RequireIdentity.
func Username(c echo.Context) string {
	username, _ := c.Get(contextKey).(string)
	return username
}

func (m *Manager) parse(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func tokenFromRequest(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
