package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodReader sums daily rollups over an inclusive date range
type PeriodReader interface {
	SumPeriod(ctx context.Context, businessID uuid.UUID, start, end time.Time) (PeriodStats, error)
}

// AnalyticsRepository is the single writer of events and rollups
type AnalyticsRepository interface {
	PeriodReader

	// RecordEvent stores the event and, for kinds with a rollup counter,
	// increments the (business, date) row and the lifetime total in the same
	// transaction. uniqueVisitor also bumps unique_visitors.
	RecordEvent(ctx context.Context, event *AnalyticsEvent, date time.Time, uniqueVisitor bool) error
	// IncrementDaily is the rollup step alone: get-or-create the row and add
	// exactly one to the counter mapped from kind.
	IncrementDaily(ctx context.Context, businessID uuid.UUID, date time.Time, kind EventKind) error
	AddRevenue(ctx context.Context, businessID uuid.UUID, date time.Time, amount decimal.Decimal) error

	ListDailyStats(ctx context.Context, businessID uuid.UUID, start, end time.Time) ([]DailyStatistics, error)
	GetOrCreateStatistics(ctx context.Context, businessID uuid.UUID) (*Statistics, error)
	SnapshotStatistics(ctx context.Context, businessID uuid.UUID, at time.Time) (*Statistics, error)
}

// VisitorTracker remembers which sessions visited a business on a date
type VisitorTracker interface {
	// MarkVisit returns true the first time sessionID is seen for the date.
	MarkVisit(ctx context.Context, businessID uuid.UUID, date time.Time, sessionID string) (bool, error)
	// ReleaseVisit forgets a mark whose event could not be stored.
	ReleaseVisit(ctx context.Context, businessID uuid.UUID, date time.Time, sessionID string) error
}
