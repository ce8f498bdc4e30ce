package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/domain"
	"github.com/shopspring/decimal"
)

type dayKey struct {
	businessID uuid.UUID
	date       time.Time
}

// AnalyticsRepository keeps events and rollups in process memory.
// The maps are guarded by mu; each rollup row carries its own lock so
// increments on different (business, date) pairs do not contend.
type AnalyticsRepository struct {
	mu       sync.RWMutex
	events   []domain.AnalyticsEvent
	daily    map[dayKey]*dailyRow
	lifetime map[uuid.UUID]*lifetimeRow
	now      func() time.Time
}

type dailyRow struct {
	sync.Mutex
	stats domain.DailyStatistics
}

type lifetimeRow struct {
	sync.Mutex
	stats domain.Statistics
}

func NewAnalyticsRepository() *AnalyticsRepository {
	return &AnalyticsRepository{
		daily:    make(map[dayKey]*dailyRow),
		lifetime: make(map[uuid.UUID]*lifetimeRow),
		now:      time.Now,
	}
}

// Events returns a copy of every stored event, oldest first
func (r *AnalyticsRepository) Events() []domain.AnalyticsEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AnalyticsEvent, len(r.events))
	copy(out, r.events)
	return out
}

// StatisticsCount reports how many lifetime rows exist
func (r *AnalyticsRepository) StatisticsCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lifetime)
}

func (r *AnalyticsRepository) dailyRow(businessID uuid.UUID, date time.Time) *dailyRow {
	key := dayKey{businessID: businessID, date: date}

	r.mu.RLock()
	row, ok := r.daily[key]
	r.mu.RUnlock()
	if ok {
		return row
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok = r.daily[key]; ok {
		return row
	}
	now := r.now()
	row = &dailyRow{stats: domain.DailyStatistics{
		BusinessID: businessID,
		Date:       date,
		Revenue:    decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}}
	r.daily[key] = row
	return row
}

func (r *AnalyticsRepository) lifetimeRow(businessID uuid.UUID) *lifetimeRow {
	r.mu.RLock()
	row, ok := r.lifetime[businessID]
	r.mu.RUnlock()
	if ok {
		return row
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok = r.lifetime[businessID]; ok {
		return row
	}
	row = &lifetimeRow{stats: domain.Statistics{
		BusinessID:       businessID,
		TotalRevenue:     decimal.Zero,
		PrevTotalRevenue: decimal.Zero,
		LastUpdated:      r.now(),
	}}
	r.lifetime[businessID] = row
	return row
}

func (r *AnalyticsRepository) RecordEvent(ctx context.Context, event *domain.AnalyticsEvent, date time.Time, uniqueVisitor bool) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.events = append(r.events, *event)
	r.mu.Unlock()

	counter, ok := event.EventType.RollupCounter()
	if !ok {
		return nil
	}

	row := r.dailyRow(event.BusinessID, date)
	row.Lock()
	row.stats.Increment(counter)
	if uniqueVisitor {
		row.stats.Increment(domain.CounterUniqueVisitors)
	}
	row.stats.UpdatedAt = r.now()
	row.Unlock()

	life := r.lifetimeRow(event.BusinessID)
	life.Lock()
	life.stats.Increment(counter)
	life.stats.LastUpdated = r.now()
	life.Unlock()
	return nil
}

func (r *AnalyticsRepository) IncrementDaily(ctx context.Context, businessID uuid.UUID, date time.Time, kind domain.EventKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	counter, ok := kind.RollupCounter()
	if !ok {
		return nil
	}
	row := r.dailyRow(businessID, date)
	row.Lock()
	defer row.Unlock()
	row.stats.Increment(counter)
	row.stats.UpdatedAt = r.now()
	return nil
}

func (r *AnalyticsRepository) AddRevenue(ctx context.Context, businessID uuid.UUID, date time.Time, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := r.dailyRow(businessID, date)
	row.Lock()
	row.stats.Revenue = row.stats.Revenue.Add(amount)
	row.stats.UpdatedAt = r.now()
	row.Unlock()

	life := r.lifetimeRow(businessID)
	life.Lock()
	life.stats.TotalRevenue = life.stats.TotalRevenue.Add(amount)
	life.stats.LastUpdated = r.now()
	life.Unlock()
	return nil
}

func (r *AnalyticsRepository) ListDailyStats(ctx context.Context, businessID uuid.UUID, start, end time.Time) ([]domain.DailyStatistics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := domain.Window{Start: start, End: end}

	r.mu.RLock()
	rows := make([]*dailyRow, 0)
	for key, row := range r.daily {
		if key.businessID == businessID && w.Contains(key.date) {
			rows = append(rows, row)
		}
	}
	r.mu.RUnlock()

	out := make([]domain.DailyStatistics, 0, len(rows))
	for _, row := range rows {
		row.Lock()
		out = append(out, row.stats)
		row.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *AnalyticsRepository) SumPeriod(ctx context.Context, businessID uuid.UUID, start, end time.Time) (domain.PeriodStats, error) {
	rows, err := r.ListDailyStats(ctx, businessID, start, end)
	if err != nil {
		return domain.PeriodStats{}, err
	}
	stats := domain.PeriodStats{Revenue: decimal.Zero}
	for _, d := range rows {
		stats.Add(d)
	}
	return stats, nil
}

func (r *AnalyticsRepository) GetOrCreateStatistics(ctx context.Context, businessID uuid.UUID) (*domain.Statistics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	life := r.lifetimeRow(businessID)
	life.Lock()
	defer life.Unlock()
	stats := life.stats
	return &stats, nil
}

func (r *AnalyticsRepository) SnapshotStatistics(ctx context.Context, businessID uuid.UUID, at time.Time) (*domain.Statistics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	life := r.lifetimeRow(businessID)
	life.Lock()
	defer life.Unlock()
	life.stats.Snapshot(at)
	life.stats.LastUpdated = r.now()
	stats := life.stats
	return &stats, nil
}

var _ domain.AnalyticsRepository = (*AnalyticsRepository)(nil)
