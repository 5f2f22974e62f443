package nominalroll

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ninKeyPrefix           = "nominalroll:nin:"
	serviceNumberKeyPrefix = "nominalroll:svn:"
)

// CachedRegistry layers a Redis read-through cache over another Registry.
// The roll changes rarely (monthly sync from the commission), so hits are
// served from cache for the configured TTL. Cache failures degrade to the
// inner registry; a broken cache must never block registration.
type CachedRegistry struct {
	inner  Registry
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedRegistry(inner Registry, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRegistry {
	return &CachedRegistry{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedRegistry) FindByNIN(ctx context.Context, nin string) (*CivilServant, error) {
	return c.lookup(ctx, ninKeyPrefix+nin, func(ctx context.Context) (*CivilServant, error) {
		return c.inner.FindByNIN(ctx, nin)
	})
}

func (c *CachedRegistry) FindByServiceNumber(ctx context.Context, serviceNumber string) (*CivilServant, error) {
	return c.lookup(ctx, serviceNumberKeyPrefix+serviceNumber, func(ctx context.Context) (*CivilServant, error) {
		return c.inner.FindByServiceNumber(ctx, serviceNumber)
	})
}

func (c *CachedRegistry) lookup(ctx context.Context, key string, load func(context.Context) (*CivilServant, error)) (*CivilServant, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var servant CivilServant
		if err := json.Unmarshal(payload, &servant); err == nil {
			return &servant, nil
		}
		// Corrupt entry: fall through to the source and overwrite it.
		c.logger.WarnContext(ctx, "nominal roll cache entry corrupt", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "nominal roll cache read failed", "key", key, "error", err)
	}

	servant, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(servant); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "nominal roll cache write failed", "key", key, "error", err)
		}
	}
	return servant, nil
}
