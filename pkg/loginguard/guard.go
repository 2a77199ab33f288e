package loginguard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultThreshold = 4
	DefaultLockout   = 5 * time.Minute

	attemptsPrefix = "login_attempts:"
	blockedPrefix  = "login_blocked:"
)

// State is what the guard knows about one username.
type State struct {
	Locked           bool `json:"blocked"`
	RemainingSeconds int  `json:"remaining"`
	Failures         int  `json:"failures"`
}

// Guard counts failed logins per username and locks the username out once
// the threshold is reached. Counter and lock both expire after the lockout
// period; a successful login clears them.
type Guard struct {
	store     AttemptStore
	threshold int
	lockout   time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func New(store AttemptStore, threshold int, lockout time.Duration, log zerolog.Logger) *Guard {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	if lockout <= 0 {
		lockout = DefaultLockout
	}
	return &Guard{
		store:     store,
		threshold: threshold,
		lockout:   lockout,
		now:       time.Now,
		log:       log.With().Str("component", "loginguard").Logger(),
	}
}

// WithClock replaces the wall clock, for tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// CheckLock reports whether username is locked and for how long.
func (g *Guard) CheckLock(ctx context.Context, username string) (State, error) {
	user := normalize(username)
	raw, ok, err := g.store.Get(ctx, blockedPrefix+user)
	if err != nil {
		return State{}, err
	}
	if ok {
		if remaining := g.remaining(raw); remaining > 0 {
			return State{Locked: true, RemainingSeconds: remaining, Failures: g.threshold}, nil
		}
	}

	failures := 0
	if v, ok, err := g.store.Get(ctx, attemptsPrefix+user); err != nil {
		return State{}, err
	} else if ok {
		failures, _ = strconv.Atoi(v)
	}
	return State{Failures: failures}, nil
}

// RecordFailure counts a failed attempt and locks the username when the
// count reaches the threshold.
func (g *Guard) RecordFailure(ctx context.Context, username string) (State, error) {
	user := normalize(username)
	n, err := g.store.Incr(ctx, attemptsPrefix+user, g.lockout)
	if err != nil {
		return State{}, err
	}
	if int(n) < g.threshold {
		g.log.Debug().Str("username", user).Int64("failures", n).Msg("login failed")
		return State{Failures: int(n)}, nil
	}

	until := g.now().Add(g.lockout)
	if err := g.store.SetWithExpiry(ctx, blockedPrefix+user, strconv.FormatInt(until.Unix(), 10), g.lockout); err != nil {
		return State{}, fmt.Errorf("lock %s: %w", user, err)
	}
	g.log.Warn().Str("username", user).Int64("failures", n).Time("blocked_until", until).Msg("login locked")
	return State{Locked: true, RemainingSeconds: ceilSeconds(g.lockout), Failures: int(n)}, nil
}

// RecordSuccess clears the counter and any lock.
func (g *Guard) RecordSuccess(ctx context.Context, username string) error {
	user := normalize(username)
	return g.store.Delete(ctx, attemptsPrefix+user, blockedPrefix+user)
}

// remaining turns a stored blocked-until unix time into whole seconds left.
func (g *Guard) remaining(raw string) int {
	until, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ceilSeconds(g.lockout)
	}
	return ceilSeconds(time.Unix(until, 0).Sub(g.now()))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
