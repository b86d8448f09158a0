package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/guarzo/pcmatch/internal/metrics"
)

const (
	// DefaultDelay keeps interactive searches responsive.
	DefaultDelay = time.Second

	// RecommendedDelay is the spacing PriceCharting asks of bulk callers.
	// It is not the default; select it through configuration.
	RecommendedDelay = 5 * time.Minute
)

// Throttle blocks a caller until the next outbound request may be issued.
type Throttle interface {
	Wait(ctx context.Context) error
}

// MinDelay enforces a minimum gap between consecutive requests.
// It is safe for concurrent use: callers are queued by the underlying
// limiter rather than racing on a shared timestamp.
type MinDelay struct {
	limiter *rate.Limiter
	delay   time.Duration
	last    time.Time
	mu      sync.Mutex
}

// NewMinDelay creates a throttle that spaces requests at least delay apart.
// A non-positive delay disables throttling.
func NewMinDelay(delay time.Duration) *MinDelay {
	return &MinDelay{
		limiter: rate.NewLimiter(limitFor(delay), 1),
		delay:   delay,
	}
}

func limitFor(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}

// Wait blocks until delay has passed since the previous request, or ctx is done.
func (m *MinDelay) Wait(ctx context.Context) error {
	start := time.Now()
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	now := time.Now()
	metrics.ThrottleWait.Observe(now.Sub(start).Seconds())

	m.mu.Lock()
	m.last = now
	m.mu.Unlock()
	return nil
}

// Delay is the configured spacing between requests.
func (m *MinDelay) Delay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delay
}

// LastRequest returns when the most recent Wait returned, or the zero time.
func (m *MinDelay) LastRequest() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Unlimited never blocks.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
