// Package auth is the single shared-password gate in front of every write.
//
// Trust boundary: read endpoints are public; every mutation requires a session
// marker. The marker is an opaque token handed out after a plain comparison
// against one configured password. By default it is only checked for presence,
// not verified, so this is a low-assurance gate meant for a single-owner site.
// Setting VerifySessions additionally requires the token to be known to the
// session store.
package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"portfolio-cms/internal/apperr"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an issued session marker is valid.
const DefaultSessionTTL = 24 * time.Hour

// ErrPasswordNotConfigured is returned by Authenticate while no password is set.
var ErrPasswordNotConfigured = apperr.New(apperr.Internal, "Admin password not configured")

// Session is an issued marker. ExpiresAt is kept next to the token rather than
// encoded in it.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Options configures a Guard.
type Options struct {
	TTL            time.Duration
	VerifySessions bool
	Sessions       SessionStore
	Logger         *slog.Logger
	// Now is used for expiry timestamps; defaults to time.Now.
	Now func() time.Time
}

// Guard issues and checks session markers.
type Guard struct {
	mu     sync.RWMutex
	secret string

	ttl      time.Duration
	verify   bool
	sessions SessionStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewGuard creates a Guard for secret. An empty secret means the password is
// not configured and every Authenticate call fails with an internal error.
func NewGuard(secret string, opts Options) *Guard {
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.Sessions == nil {
		opts.Sessions = NewMemorySessionStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Guard{
		secret:   secret,
		ttl:      opts.TTL,
		verify:   opts.VerifySessions,
		sessions: opts.Sessions,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// SetSecret swaps the configured password, e.g. after a config reload.
// Sessions issued under the old password stay valid.
func (g *Guard) SetSecret(secret string) {
	g.mu.Lock()
	g.secret = secret
	g.mu.Unlock()
	g.logger.Info("Admin password updated", "configured", secret != "")
}

// TTL returns the lifetime of issued sessions.
func (g *Guard) TTL() time.Duration { return g.ttl }

// Authenticate compares candidate with the configured password and issues a
// new session on match.
func (g *Guard) Authenticate(ctx context.Context, candidate string) (Session, error) {
	g.mu.RLock()
	secret := g.secret
	g.mu.RUnlock()

	if secret == "" {
		return Session{}, ErrPasswordNotConfigured
	}
	if candidate != secret {
		g.logger.Warn("Rejected admin login attempt")
		return Session{}, apperr.New(apperr.Unauthorized, "Invalid password")
	}

	session := Session{
		Token:     uuid.NewString(),
		ExpiresAt: g.now().Add(g.ttl),
	}
	if err := g.sessions.SaveSession(ctx, session); err != nil {
		return Session{}, apperr.Wrap(apperr.Internal, err, "save session")
	}
	g.logger.Info("Admin session issued", "expiresAt", session.ExpiresAt)
	return session, nil
}

// IsAuthenticated reports whether token is an acceptable session marker.
func (g *Guard) IsAuthenticated(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	if !g.verify {
		return true
	}
	ok, err := g.sessions.SessionExists(ctx, token)
	if err != nil {
		g.logger.Error("Session lookup failed", "error", err)
		return false
	}
	return ok
}

// Logout forgets token. Unknown tokens are not an error.
func (g *Guard) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := g.sessions.RevokeSession(ctx, token); err != nil {
		return apperr.Wrap(apperr.Internal, err, "revoke session")
	}
	return nil
}

type sessionKey struct{}

// WithSession returns a context carrying s. Every mutating service call reads
// the session from its context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session carried by ctx, if any.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || s.Token == "" {
		return Session{}, false
	}
	return s, true
}

// Require fails with Unauthorized unless ctx carries a session.
func Require(ctx context.Context) error {
	if _, ok := SessionFrom(ctx); !ok {
		return apperr.New(apperr.Unauthorized, "Unauthorized")
	}
	return nil
}

// OperatorSession is the session used by local tooling that already has
// filesystem access to the store.
func OperatorSession() Session {
	return Session{Token: "local-operator"}
}
