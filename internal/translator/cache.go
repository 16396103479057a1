package translator

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/valpere/tarjim/internal"
)

// Cache is a translation memory keyed by source text and direction.
type Cache interface {
	Lookup(ctx context.Context, text string, dir internal.Direction) (string, bool, error)
	Remember(ctx context.Context, text string, dir internal.Direction, translation string) error
}

type cachedEngine struct {
	next   Engine
	cache  Cache
	logger zerolog.Logger
}

// WithCache serves repeated units from cache. Cache errors are logged and
// never fail a translation.
func WithCache(next Engine, cache Cache, logger zerolog.Logger) Engine {
	return &cachedEngine{next: next, cache: cache, logger: logger}
}

func (c *cachedEngine) Translate(ctx context.Context, text string, dir internal.Direction) (string, error) {
	if hit, ok, err := c.cache.Lookup(ctx, text, dir); err != nil {
		c.logger.Warn().Err(err).Msg("translation memory lookup failed")
	} else if ok {
		return hit, nil
	}

	out, err := c.next.Translate(ctx, text, dir)
	if err != nil {
		return "", err
	}

	if err := c.cache.Remember(ctx, text, dir, out); err != nil {
		c.logger.Warn().Err(err).Msg("translation memory write failed")
	}
	return out, nil
}
