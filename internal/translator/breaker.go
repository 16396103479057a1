package translator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/valpere/tarjim/internal"
)

type BreakerConfig struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration
}

type breakerEngine struct {
	next Engine
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker guards next with a circuit breaker. While the breaker is open
// calls fail fast with internal.ErrEngine; nothing is retried.
func WithBreaker(next Engine, cfg BreakerConfig, logger zerolog.Logger) Engine {
	if cfg.Name == "" {
		cfg.Name = "engine"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("translation engine breaker state changed")
		},
	}

	return &breakerEngine{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerEngine) Translate(ctx context.Context, text string, dir internal.Direction) (string, error) {
	// Caller mistakes must not trip the breaker.
	if _, _, err := dir.Languages(); err != nil {
		return "", err
	}

	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Translate(ctx, text, dir)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", fmt.Errorf("%w: %s: %w", internal.ErrEngine, b.cb.Name(), err)
		}
		return "", err
	}
	return out.(string), nil
}
