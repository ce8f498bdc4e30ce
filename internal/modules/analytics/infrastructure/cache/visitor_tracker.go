package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/domain"
	"github.com/redis/go-redis/v9"
)

const (
	visitorKeyPrefix = "analytics:visitors:"
	// A day's set must outlive the day in every timezone.
	visitorTTL = 48 * time.Hour
)

// VisitorTracker records the sessions seen per business per date in a Redis set
type VisitorTracker struct {
	client redis.Cmdable
}

func NewVisitorTracker(client redis.Cmdable) *VisitorTracker {
	return &VisitorTracker{client: client}
}

func visitorKey(businessID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s%s:%s", visitorKeyPrefix, businessID, date.Format(dateLayout))
}

func (t *VisitorTracker) MarkVisit(ctx context.Context, businessID uuid.UUID, date time.Time, sessionID string) (bool, error) {
	key := visitorKey(businessID, date)

	pipe := t.client.TxPipeline()
	added := pipe.SAdd(ctx, key, sessionID)
	pipe.Expire(ctx, key, visitorTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to mark visitor: %w", err)
	}
	return added.Val() == 1, nil
}

func (t *VisitorTracker) ReleaseVisit(ctx context.Context, businessID uuid.UUID, date time.Time, sessionID string) error {
	if err := t.client.SRem(ctx, visitorKey(businessID, date), sessionID).Err(); err != nil {
		return fmt.Errorf("failed to release visitor: %w", err)
	}
	return nil
}

var _ domain.VisitorTracker = (*VisitorTracker)(nil)
