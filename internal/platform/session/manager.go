// Package session persists the admin login state in a signed, optionally
// encrypted cookie. There is no server-side session store: the cookie is the
// session.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	defaultCookieName = "felpe_admin_session"
	defaultCookiePath = "/"
	defaultLifetime   = 12 * time.Hour
)

// ErrNoSession indicates the request carries no valid session cookie.
var ErrNoSession = errors.New("session: not authenticated")

// ErrExpired indicates the stored session passed its absolute expiry.
var ErrExpired = errors.New("session: expired")

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// User captures the authenticated admin persisted in the session cookie.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}

type payload struct {
	User      User      `json:"user"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Config controls cookie encoding and lifetime for the session manager.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	Lifetime time.Duration
	Now      func() time.Time
}

// Manager issues and validates admin session cookies.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewManager constructs a Manager using the provided configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}

	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		cfg:   cfg,
		codec: codec,
		now:   nowFn,
	}, nil
}

// Issue writes a fresh session cookie for the given user.
func (m *Manager) Issue(w http.ResponseWriter, user User) error {
	if user.UID == "" {
		return errors.New("session: user uid is required")
	}

	now := m.now().UTC()
	data := payload{
		User:      user,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.cfg.Lifetime),
	}

	encoded, err := m.codec.Encode(m.cfg.CookieName, data)
	if err != nil {
		return fmt.Errorf("session: encode cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Expires:  data.ExpiresAt,
		MaxAge:   int(m.cfg.Lifetime.Round(time.Second).Seconds()),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	})
	return nil
}

// Load validates the session cookie on the incoming request and returns the
// authenticated user. A missing or undecodable cookie yields ErrNoSession, a
// stale one ErrExpired.
func (m *Manager) Load(r *http.Request) (User, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return User{}, ErrNoSession
	}

	var stored payload
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &stored); err != nil {
		return User{}, ErrNoSession
	}
	if stored.User.UID == "" {
		return User{}, ErrNoSession
	}
	if stored.ExpiresAt.IsZero() || m.now().UTC().After(stored.ExpiresAt.UTC()) {
		return User{}, ErrExpired
	}
	return stored.User, nil
}

// Destroy clears the session cookie immediately.
func (m *Manager) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.CookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	})
}
