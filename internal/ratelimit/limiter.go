package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/phrazzld/coach-api/internal/platform/logger"
)

// Defaults for generation endpoints.
const (
	DefaultLimit  = 15
	DefaultWindow = 60 * time.Second
	DefaultExpiry = 120 * time.Second
)

// ErrInvalidConfig is returned by New for a non-positive limit or window.
var ErrInvalidConfig = errors.New("invalid rate limit configuration")

// WindowStore keeps the request times of each key. Load returns the times
// oldest first and an empty slice for an unknown key. Save replaces them
// and sets an absolute expiry on the key.
type WindowStore interface {
	Load(ctx context.Context, key string) ([]time.Time, error)
	Save(ctx context.Context, key string, times []time.Time, expiry time.Duration) error
}

// Config sets the admission ceiling.
type Config struct {
	// Limit is the number of requests admitted per Window.
	Limit int
	// Window is the trailing period requests are counted over.
	Window time.Duration
	// Expiry bounds how long an idle key is kept. It is independent of
	// Window and only limits memory.
	Expiry time.Duration
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// RetryAfter is the whole number of seconds until a slot frees. It is
	// at least 1 when Allowed is false and 0 otherwise.
	RetryAfter int
}

// Limiter admits or rejects requests per key.
type Limiter struct {
	store  WindowStore
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Limiter. A zero Expiry defaults to twice the window.
func New(store WindowStore, cfg Config, logger *slog.Logger) (*Limiter, error) {
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 2 * cfg.Window
	}
	return &Limiter{
		store:  store,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With(slog.String("component", "rate_limiter")),
	}, nil
}

// Admit checks key against the window and records the request when it is
// admitted. A store failure admits the request and is logged.
func (l *Limiter) Admit(ctx context.Context, key string) Decision {
	log := logger.FromContextOrDefault(ctx, l.logger)
	now := l.now()

	times, err := l.store.Load(ctx, key)
	if err != nil {
		log.Warn("rate limit store unavailable, admitting request",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return Decision{Allowed: true}
	}

	live := prune(times, now.Add(-l.cfg.Window))
	if len(live) >= l.cfg.Limit {
		retry := retryAfter(live[0], now, l.cfg.Window)
		log.Info("rate limit exceeded",
			slog.String("key", key),
			slog.Int("count", len(live)),
			slog.Int("retry_after", retry))
		return Decision{Allowed: false, RetryAfter: retry}
	}

	live = append(live, now)
	if err := l.store.Save(ctx, key, live, l.cfg.Expiry); err != nil {
		log.Warn("failed to record request in rate limit store",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return Decision{Allowed: true}
}

// prune drops times at or before cutoff. times must be oldest first.
func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return append([]time.Time(nil), times[i:]...)
}

// retryAfter is the whole seconds until oldest leaves the window, at
// least 1.
func retryAfter(oldest, now time.Time, window time.Duration) int {
	remaining := window - now.Sub(oldest)
	secs := int(math.Ceil(remaining.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
