package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chansync/backend/internal/domain/channel"
)

const defaultConfKeyPrefix = "channel:conf:"

// RedisChannelConfCache implements channel.ConfProvider by reading channel
// configuration through the channel repository and caching it in Redis.
// Cache failures degrade to a repository read; they never fail the caller.
type RedisChannelConfCache struct {
	client    *redis.Client
	channels  channel.Repository
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

// RedisChannelConfCacheOption is a functional option for configuring the cache.
type RedisChannelConfCacheOption func(*RedisChannelConfCache)

// WithConfKeyPrefix overrides the Redis key prefix.
func WithConfKeyPrefix(prefix string) RedisChannelConfCacheOption {
	return func(c *RedisChannelConfCache) {
		c.keyPrefix = prefix
	}
}

// WithConfCacheLogger sets the logger for the cache.
func WithConfCacheLogger(logger *zap.Logger) RedisChannelConfCacheOption {
	return func(c *RedisChannelConfCache) {
		c.logger = logger
	}
}

// NewRedisChannelConfCache creates a conf provider backed by an existing Redis
// client. TTL bounds how long a stale configuration can be served after the
// channel is updated.
func NewRedisChannelConfCache(client *redis.Client, channels channel.Repository, ttl time.Duration, opts ...RedisChannelConfCacheOption) *RedisChannelConfCache {
	c := &RedisChannelConfCache{
		client:    client,
		channels:  channels,
		ttl:       ttl,
		keyPrefix: defaultConfKeyPrefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Conf returns the configuration map for the given channel, serving from
// Redis when a fresh entry exists and falling through to the repository
// otherwise.
func (c *RedisChannelConfCache) Conf(ctx context.Context, channelID uuid.UUID) (map[string]string, error) {
	key := c.keyPrefix + channelID.String()

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var conf map[string]string
		if jsonErr := json.Unmarshal(payload, &conf); jsonErr == nil {
			return conf, nil
		}
		// Corrupt entry; drop it and reload from the repository.
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("channel conf cache read failed",
			zap.String("channel_id", channelID.String()),
			zap.Error(err))
	}

	ch, err := c.channels.FindByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("load channel %s: %w", channelID, err)
	}

	conf := ch.Conf
	if conf == nil {
		conf = map[string]string{}
	}

	if payload, err := json.Marshal(conf); err == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.Warn("channel conf cache write failed",
				zap.String("channel_id", channelID.String()),
				zap.Error(setErr))
		}
	}
	return conf, nil
}

// Invalidate removes the cached configuration for a channel. Called after a
// channel update so the next read observes the new configuration immediately
// instead of waiting out the TTL.
func (c *RedisChannelConfCache) Invalidate(ctx context.Context, channelID uuid.UUID) error {
	if err := c.client.Del(ctx, c.keyPrefix+channelID.String()).Err(); err != nil {
		return fmt.Errorf("invalidate channel conf %s: %w", channelID, err)
	}
	return nil
}

var _ channel.ConfProvider = (*RedisChannelConfCache)(nil)

// InMemoryChannelConfCache is a process-local channel.ConfProvider for
// deployments that run without Redis. Entries expire after the configured TTL.
type InMemoryChannelConfCache struct {
	channels channel.Repository
	ttl      time.Duration
	entries  sync.Map // map[uuid.UUID]*confEntry
}

type confEntry struct {
	conf      map[string]string
	expiresAt time.Time
}

// NewInMemoryChannelConfCache creates an in-process conf provider.
func NewInMemoryChannelConfCache(channels channel.Repository, ttl time.Duration) *InMemoryChannelConfCache {
	return &InMemoryChannelConfCache{channels: channels, ttl: ttl}
}

// Conf returns the configuration map for the given channel.
func (c *InMemoryChannelConfCache) Conf(ctx context.Context, channelID uuid.UUID) (map[string]string, error) {
	if v, ok := c.entries.Load(channelID); ok {
		entry := v.(*confEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry.conf, nil
		}
		c.entries.Delete(channelID)
	}

	ch, err := c.channels.FindByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("load channel %s: %w", channelID, err)
	}

	conf := ch.Conf
	if conf == nil {
		conf = map[string]string{}
	}
	c.entries.Store(channelID, &confEntry{conf: conf, expiresAt: time.Now().Add(c.ttl)})
	return conf, nil
}

// Invalidate removes the cached configuration for a channel.
func (c *InMemoryChannelConfCache) Invalidate(_ context.Context, channelID uuid.UUID) error {
	c.entries.Delete(channelID)
	return nil
}

var _ channel.ConfProvider = (*InMemoryChannelConfCache)(nil)
