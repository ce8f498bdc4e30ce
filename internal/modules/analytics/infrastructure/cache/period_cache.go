package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/domain"
	"github.com/quickbiz/quickbiz-api/internal/shared/clock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	periodKeyPrefix = "analytics:period:"
	dateLayout      = "2006-01-02"
)

// PeriodCache memoizes sums of closed windows in Redis. Windows that reach
// today are still being written to and always go to the underlying reader.
// Redis failures are logged and never surface to callers.
type PeriodCache struct {
	next   domain.PeriodReader
	client redis.Cmdable
	ttl    time.Duration
	clock  clock.Clock
	loc    *time.Location
	logger zerolog.Logger
}

func NewPeriodCache(next domain.PeriodReader, client redis.Cmdable, ttl time.Duration, c clock.Clock, loc *time.Location, logger zerolog.Logger) *PeriodCache {
	if c == nil {
		c = clock.System{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PeriodCache{next: next, client: client, ttl: ttl, clock: c, loc: loc, logger: logger}
}

func periodKey(businessID uuid.UUID, start, end time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", periodKeyPrefix, businessID, start.Format(dateLayout), end.Format(dateLayout))
}

func (c *PeriodCache) SumPeriod(ctx context.Context, businessID uuid.UUID, start, end time.Time) (domain.PeriodStats, error) {
	if !end.Before(clock.Today(c.clock, c.loc)) || c.ttl <= 0 {
		return c.next.SumPeriod(ctx, businessID, start, end)
	}

	key := periodKey(businessID, start, end)
	val, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var stats domain.PeriodStats
		if err := json.Unmarshal(val, &stats); err == nil {
			return stats, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding malformed cached period")
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Str("key", key).Msg("period cache read failed")
	}

	stats, err := c.next.SumPeriod(ctx, businessID, start, end)
	if err != nil {
		return domain.PeriodStats{}, err
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return stats, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("period cache write failed")
	}
	return stats, nil
}

var _ domain.PeriodReader = (*PeriodCache)(nil)
