package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned without contacting the search page while the
// breaker is open after repeated failures.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig tunes BreakerSource.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// Cooldown is how long the breaker stays open before a trial request.
	Cooldown time.Duration
}

// BreakerSource wraps a RateSource with a circuit breaker so that a blocked
// or reshaped search page is not hit by every message in the meantime.
type BreakerSource struct {
	source RateSource
	cb     *gobreaker.CircuitBreaker
}

// NewBreakerSource returns source guarded by a breaker configured by cfg.
func NewBreakerSource(source RateSource, cfg BreakerConfig, log *slog.Logger) *BreakerSource {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	log = log.With("component", "rate_breaker")

	return &BreakerSource{
		source: source,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "rate_lookup",
			MaxRequests: 1,
			Timeout:     cfg.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxFailures
			},
			// A cancelled lookup says nothing about the page itself.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (b *BreakerSource) Rate(ctx context.Context, code string) (float64, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.source.Rate(ctx, code)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, fmt.Errorf("rate lookups suspended: %w", err)
		}
		return 0, err
	}
	return result.(float64), nil
}

// State reports the breaker state, for logs and tests.
func (b *BreakerSource) State() string {
	return b.cb.State().String()
}
