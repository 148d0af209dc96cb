package sdk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"
)

// DefaultSafetyMargin is how long before expiry the proactive renewal fires.
const DefaultSafetyMargin = 5 * time.Minute

// RenewFunc exchanges the current credential for a fresh one and reports the
// new token plus its declared lifetime (zero when the server omits one).
type RenewFunc func(ctx context.Context) (token string, lifetime time.Duration, err error)

// RenewalScheduler keeps the session credential fresh. A single timer is
// armed whenever the session stores a credential and fires at
// expiry − SafetyMargin; re-arming cancels the previous timer. A renewal
// failure is terminal for the session: the credential is cleared and the
// session-ended callback runs. Proactive (timer) and reactive (401) renewals
// share one in-flight call, so a reactive request issued while the timer's
// renewal is running waits on that outcome instead of renewing twice.
type RenewalScheduler struct {
	mu      sync.Mutex
	session *Session
	renew   RenewFunc
	margin  time.Duration
	clock   clock.Clock
	timer   *clock.Timer
	group   singleflight.Group
	onEnded func()
	logger  *slog.Logger
}

// SchedulerOption mutates RenewalScheduler construction.
type SchedulerOption func(*RenewalScheduler)

// WithSafetyMargin overrides how long before expiry renewal fires.
func WithSafetyMargin(d time.Duration) SchedulerOption {
	return func(r *RenewalScheduler) { r.margin = d }
}

// WithSchedulerClock overrides the timer clock, for tests.
func WithSchedulerClock(c clock.Clock) SchedulerOption {
	return func(r *RenewalScheduler) { r.clock = c }
}

// WithSchedulerLogger attaches a structured logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(r *RenewalScheduler) { r.logger = logger }
}

// OnSessionEnded registers the callback invoked when the session is
// unrecoverably lost. The surrounding application handles navigation.
func OnSessionEnded(fn func()) SchedulerOption {
	return func(r *RenewalScheduler) { r.onEnded = fn }
}

// NewRenewalScheduler constructs the scheduler and wires it into the
// session, so subsequent SetCredential calls arm the timer. One scheduler
// per process; it is injected into every consumer rather than kept as a
// package-level singleton.
func NewRenewalScheduler(session *Session, renew RenewFunc, optFns ...SchedulerOption) *RenewalScheduler {
	r := &RenewalScheduler{
		session: session,
		renew:   renew,
		margin:  DefaultSafetyMargin,
		clock:   clock.New(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range optFns {
		fn(r)
	}
	session.SetRenewalScheduler(r)
	return r
}

// Arm schedules the proactive renewal for a credential expiring at expiry.
// Any previously armed timer is cancelled first.
func (r *RenewalScheduler) Arm(expiry time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	delay := expiry.Add(-r.margin).Sub(r.clock.Now())
	if delay < 0 {
		delay = 0
	}
	r.timer = r.clock.AfterFunc(delay, r.fire)
	r.logger.Debug("renewal armed", "fires_in", delay)
}

// Cancel stops the pending renewal, if any.
func (r *RenewalScheduler) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *RenewalScheduler) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()
	if err := r.Renew(ctx); err != nil {
		r.logger.Warn("proactive renewal failed", "error", err)
	}
}

// Renew performs one renewal, deduplicated across concurrent callers. On
// success the new credential is stored (which re-arms the timer); on failure
// the session ends. The scheduler never retries a failed renewal.
func (r *RenewalScheduler) Renew(ctx context.Context) error {
	_, err, _ := r.group.Do("renew", func() (any, error) {
		token, lifetime, err := r.renew(ctx)
		if err != nil {
			r.Expire()
			return nil, fmt.Errorf("renew credential: %w", err)
		}
		if err := r.session.SetCredential(token, lifetime); err != nil {
			// A renewed credential that cannot be stored is as terminal as a
			// failed renewal: nothing would re-arm the timer.
			r.Expire()
			return nil, fmt.Errorf("store renewed credential: %w", err)
		}
		return nil, nil
	})
	return err
}

// Expire ends the session: the credential is cleared and the session-ended
// signal is delivered. Used on renewal failure and by the transport when a
// renewed credential is still rejected.
func (r *RenewalScheduler) Expire() {
	if err := r.session.Clear(); err != nil {
		r.logger.Warn("clearing session failed", "error", err)
	}
	if r.onEnded != nil {
		r.onEnded()
	}
}
