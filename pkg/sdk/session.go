package sdk

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultLifetime is assumed when the server declares no token lifetime and
// the token itself carries no usable exp claim.
const DefaultLifetime = 30 * time.Minute

// renewalArmer is the slice of the renewal scheduler the session drives:
// arming on every credential write and cancelling on clear.
type renewalArmer interface {
	Arm(expiry time.Time)
	Cancel()
}

// Session owns the bearer credential for one authenticated console session.
// All writes to the credential go through here; reads never return a token
// past its expiry instant.
type Session struct {
	mu       sync.Mutex
	store    CredentialStore
	clock    clock.Clock
	lifetime time.Duration
	armer    renewalArmer
	logger   *slog.Logger
}

// SessionOption mutates Session construction.
type SessionOption func(*Session)

// WithSessionClock overrides the wall clock, for tests.
func WithSessionClock(c clock.Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithSessionLogger attaches a structured logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithDefaultLifetime overrides the fallback credential lifetime.
func WithDefaultLifetime(d time.Duration) SessionOption {
	return func(s *Session) { s.lifetime = d }
}

// NewSession constructs a Session over the given store.
func NewSession(store CredentialStore, optFns ...SessionOption) *Session {
	s := &Session{
		store:    store,
		clock:    clock.New(),
		lifetime: DefaultLifetime,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// SetRenewalScheduler wires the scheduler that should be re-armed whenever
// the credential changes. Call once during setup, before SetCredential.
func (s *Session) SetRenewalScheduler(armer renewalArmer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armer = armer
}

// SetCredential stores a new bearer token. The expiry is computed from the
// declared lifetime when the server provides one; otherwise the token's exp
// claim is consulted, and failing that DefaultLifetime applies. A zero
// declaredLifetime means "not declared".
func (s *Session) SetCredential(token string, declaredLifetime time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	lifetime := declaredLifetime
	if lifetime <= 0 {
		lifetime = s.lifetime
		if exp, ok := tokenExpiry(token); ok && exp.After(now) {
			lifetime = exp.Sub(now)
		}
	}
	creds := &Credentials{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(lifetime),
	}
	if err := s.store.SaveCredentials(creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	s.logger.Debug("credential stored", "expires_at", creds.ExpiresAt)
	if s.armer != nil {
		s.armer.Arm(creds.ExpiresAt)
	}
	return nil
}

// Credential returns the live credential, or false when none is stored or
// the stored one has expired. Expired credentials are evicted on read.
func (s *Session) Credential() (*Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.store.LoadCredentials()
	if err != nil || creds == nil {
		return nil, false
	}
	if creds.IsExpired(s.clock.Now()) {
		if err := s.store.DeleteCredentials(); err != nil {
			s.logger.Warn("evicting expired credential failed", "error", err)
		}
		return nil, false
	}
	return creds, true
}

// Clear unconditionally removes the stored credential and cancels any
// pending renewal.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.armer != nil {
		s.armer.Cancel()
	}
	if err := s.store.DeleteCredentials(); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

// tokenExpiry extracts the exp claim without verifying the signature; the
// client is not the token's audience validator, it only needs a refresh
// deadline.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
