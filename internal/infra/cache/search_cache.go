// Package cache provides a Redis-backed search result cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/swipebox/internal/domain/track"
)

// Config represents cache configuration.
type Config struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" default:"127.0.0.1:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLSec   int    `yaml:"ttl_sec" default:"900" validate:"gte=1"`
}

// Searcher is the search backend being decorated.
type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]track.Track, error)
}

// Connect opens and pings a Redis client.
func Connect(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}
	return rdb, nil
}

// SearchCache caches search results by term and limit. Redis failures fall
// through to the backend, so the feed never depends on the cache being up.
type SearchCache struct {
	next Searcher
	rdb  *redis.Client
	ttl  time.Duration
}

// NewSearchCache wraps the searcher with a Redis cache.
func NewSearchCache(next Searcher, rdb *redis.Client, ttl time.Duration) *SearchCache {
	return &SearchCache{next: next, rdb: rdb, ttl: ttl}
}

// Search returns cached results when present, otherwise queries the backend
// and stores its results.
func (c *SearchCache) Search(ctx context.Context, term string, limit int) ([]track.Track, error) {
	key := searchKey(term, limit)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var tracks []track.Track
		if err := json.Unmarshal(data, &tracks); err == nil {
			zlog.Debug().Str("term", term).Int("results", len(tracks)).Msg("cache: search hit")
			return tracks, nil
		}
		zlog.Warn().Str("key", key).Msg("cache: corrupt entry dropped")
	} else if !errors.Is(err, redis.Nil) {
		zlog.Debug().Err(err).Str("term", term).Msg("cache: lookup failed, falling through")
	}

	tracks, err := c.next.Search(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tracks); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			zlog.Debug().Err(err).Str("term", term).Msg("cache: store failed")
		}
	}
	return tracks, nil
}

func searchKey(term string, limit int) string {
	return fmt.Sprintf("search:%s:%d", term, limit)
}
