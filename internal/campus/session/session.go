// Package session keeps signed-in browsers. Sessions live in redis when it
// is configured and in the SQL store otherwise.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/httpx"
)

const (
	CookieName = "campus_session"
	DefaultTTL = 7 * 24 * time.Hour
)

// ErrNotFound covers unknown, expired and destroyed sessions.
var ErrNotFound = errors.New("session: not found")

// Backend persists sessions. Load must return ErrNotFound for missing or
// expired entries.
type Backend interface {
	Save(ctx context.Context, s domain.Session) error
	Load(ctx context.Context, id string, now time.Time) (domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	Backend Backend
	TTL     time.Duration
	Secure  bool // sets the cookie Secure flag
	Clock   func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

func (m *Manager) ttl() time.Duration {
	if m.TTL > 0 {
		return m.TTL
	}
	return DefaultTTL
}

// Create starts a session for a.
func (m *Manager) Create(ctx context.Context, a domain.Account) (domain.Session, error) {
	id, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, fmt.Errorf("session id: %w", err)
	}

	now := m.now().UTC()
	s := domain.Session{
		ID:        id,
		AccountID: a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl()),
	}
	if err := m.Backend.Save(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

func (m *Manager) Resolve(ctx context.Context, id string) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, ErrNotFound
	}
	return m.Backend.Load(ctx, id, m.now())
}

// Destroy is a no-op for unknown ids.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.Backend.Delete(ctx, id)
}

// ResolvePrincipal lets the HTTP layer load sessions from cookies.
func (m *Manager) ResolvePrincipal(ctx context.Context, id string) (httpx.Principal, error) {
	s, err := m.Resolve(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return httpx.Principal{}, httpx.ErrNoSession
	}
	if err != nil {
		return httpx.Principal{}, err
	}
	return httpx.Principal{
		SessionID: s.ID,
		AccountID: s.AccountID,
		Name:      s.Name,
		Email:     s.Email,
		Role:      s.Role,
	}, nil
}

// SetCookie writes the session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, s domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.ttl().Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie in the browser.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
