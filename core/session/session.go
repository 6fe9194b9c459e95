// Package session holds the state of a signed-in console user.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("session not found")
	ErrExpired            = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid credentials")

	NowFunc = time.Now // mockable
)

// User is the account signed in to the console, as returned by the backend.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	Name     string   `json:"name,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// HasRole reports whether the user holds one of roles.
func (u User) HasRole(roles ...string) bool {
	for _, want := range roles {
		for _, role := range u.Roles {
			if role == want {
				return true
			}
		}
	}
	return false
}

// Session binds a console user to the backend token obtained at login.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Token     string    `json:"token"` // backend bearer token
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Authenticator checks credentials against the backend and returns the user with its bearer token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (User, string, error)
}

// Store persists sessions by id.
type Store interface {
	Save(ctx context.Context, sess Session) error
	Get(ctx context.Context, id string) (Session, error) // ErrNotFound when missing
	Delete(ctx context.Context, id string) error
}

// Provider drives the Login / Logout transitions.
type Provider struct {
	auth  Authenticator
	store Store
	ttl   time.Duration
}

func NewProvider(auth Authenticator, store Store, ttl time.Duration) *Provider {
	return &Provider{auth: auth, store: store, ttl: ttl}
}

// Login authenticates against the backend and opens a new session.
func (p *Provider) Login(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	usr, token, err := p.auth.Login(ctx, username, password)
	if err != nil {
		return Session{}, err
	}

	now := NowFunc().UTC()
	sess := Session{
		ID:        uuid.New().String(),
		User:      usr,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(p.ttl),
	}
	if err := p.store.Save(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "saving session")
	}
	return sess, nil
}

// Get returns the live session identified by id. Expired sessions are removed.
func (p *Provider) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrNotFound
	}
	sess, err := p.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Expired(NowFunc()) {
		_ = p.store.Delete(ctx, id)
		return Session{}, ErrExpired
	}
	return sess, nil
}

// Logout closes the session identified by id. Unknown ids are ignored.
func (p *Provider) Logout(ctx context.Context, id string) error {
	if err := p.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session carried by ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(Session)
	return sess, ok
}
