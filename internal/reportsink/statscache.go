package reportsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scrutiny/internal/detection"
)

const statsKey = "scrutiny:detection:stats"

// StatsCache keeps the latest operational stats in redis so dashboard polls
// do not trigger a recompute on every request.
type StatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStatsCache constructs a cache with the given entry TTL.
func NewStatsCache(client redis.Cmdable, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// SaveStats stores the stats snapshot, replacing any previous one.
func (c *StatsCache) SaveStats(ctx context.Context, stats detection.Stats) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}
	return nil
}

// LatestStats returns the cached snapshot, or ok=false when none is cached.
func (c *StatsCache) LatestStats(ctx context.Context) (detection.Stats, bool, error) {
	raw, err := c.client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return detection.Stats{}, false, nil
	}
	if err != nil {
		return detection.Stats{}, false, fmt.Errorf("read cached stats: %w", err)
	}
	var stats detection.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return detection.Stats{}, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return stats, true, nil
}
