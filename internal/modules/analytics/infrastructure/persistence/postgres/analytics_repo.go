package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/domain"
	"github.com/shopspring/decimal"
)

type pgAnalyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) domain.AnalyticsRepository {
	return &pgAnalyticsRepository{db: db}
}

const statisticsColumns = `business_id, total_visits, total_bookings, total_orders, total_customers,
	menu_views, qr_scans, total_revenue, prev_total_visits, prev_menu_views, prev_qr_scans,
	prev_total_orders, prev_total_revenue, snapshot_at, last_updated`

// RecordEvent stores the event and bumps its rollups in one transaction
func (r *pgAnalyticsRepository) RecordEvent(ctx context.Context, event *domain.AnalyticsEvent, date time.Time, uniqueVisitor bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO analytics_events (id, business_id, event_type, session_id, ip_address, user_agent, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = tx.ExecContext(ctx, query,
		event.ID, event.BusinessID, event.EventType, event.SessionID,
		event.IPAddress, event.UserAgent, event.Metadata, event.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}

	counter, ok := event.EventType.RollupCounter()
	if ok {
		if err := incrementDaily(ctx, tx, event.BusinessID, date, counter, uniqueVisitor); err != nil {
			return err
		}
		if err := incrementLifetime(ctx, tx, event.BusinessID, counter); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *pgAnalyticsRepository) IncrementDaily(ctx context.Context, businessID uuid.UUID, date time.Time, kind domain.EventKind) error {
	counter, ok := kind.RollupCounter()
	if !ok {
		return nil
	}
	return incrementDaily(ctx, r.db, businessID, date, counter, false)
}

// incrementDaily is a single upsert so concurrent writers never lose an
// increment and the (business_id, date) row is created at most once.
func incrementDaily(ctx context.Context, exec sqlx.ExecerContext, businessID uuid.UUID, date time.Time, counter domain.Counter, uniqueVisitor bool) error {
	unique := 0
	if uniqueVisitor {
		unique = 1
	}
	query := fmt.Sprintf(`
		INSERT INTO daily_statistics (business_id, date, %[1]s, unique_visitors)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (business_id, date)
		DO UPDATE SET
			%[1]s = daily_statistics.%[1]s + 1,
			unique_visitors = daily_statistics.unique_visitors + EXCLUDED.unique_visitors,
			updated_at = NOW()`, counter)

	if _, err := exec.ExecContext(ctx, query, businessID, date, unique); err != nil {
		return fmt.Errorf("failed to increment daily %s: %w", counter, err)
	}
	return nil
}

func incrementLifetime(ctx context.Context, exec sqlx.ExecerContext, businessID uuid.UUID, counter domain.Counter) error {
	column, ok := counter.LifetimeColumn()
	if !ok {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO statistics (business_id, %[1]s)
		VALUES ($1, 1)
		ON CONFLICT (business_id)
		DO UPDATE SET
			%[1]s = statistics.%[1]s + 1,
			last_updated = NOW()`, column)

	if _, err := exec.ExecContext(ctx, query, businessID); err != nil {
		return fmt.Errorf("failed to increment lifetime %s: %w", column, err)
	}
	return nil
}

func (r *pgAnalyticsRepository) AddRevenue(ctx context.Context, businessID uuid.UUID, date time.Time, amount decimal.Decimal) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	dailyQuery := `
		INSERT INTO daily_statistics (business_id, date, revenue)
		VALUES ($1, $2, $3)
		ON CONFLICT (business_id, date)
		DO UPDATE SET
			revenue = daily_statistics.revenue + EXCLUDED.revenue,
			updated_at = NOW()`
	if _, err = tx.ExecContext(ctx, dailyQuery, businessID, date, amount); err != nil {
		return fmt.Errorf("failed to add daily revenue: %w", err)
	}

	lifetimeQuery := `
		INSERT INTO statistics (business_id, total_revenue)
		VALUES ($1, $2)
		ON CONFLICT (business_id)
		DO UPDATE SET
			total_revenue = statistics.total_revenue + EXCLUDED.total_revenue,
			last_updated = NOW()`
	if _, err = tx.ExecContext(ctx, lifetimeQuery, businessID, amount); err != nil {
		return fmt.Errorf("failed to add lifetime revenue: %w", err)
	}

	return tx.Commit()
}

// SumPeriod sums daily rows with start <= date <= end. Missing dates add zero.
func (r *pgAnalyticsRepository) SumPeriod(ctx context.Context, businessID uuid.UUID, start, end time.Time) (domain.PeriodStats, error) {
	var stats domain.PeriodStats
	query := `
		SELECT
			COALESCE(SUM(visits), 0) AS visits,
			COALESCE(SUM(qr_scans), 0) AS qr_scans,
			COALESCE(SUM(menu_views), 0) AS menu_views,
			COALESCE(SUM(orders), 0) AS orders,
			COALESCE(SUM(bookings), 0) AS bookings,
			COALESCE(SUM(revenue), 0) AS revenue
		FROM daily_statistics
		WHERE business_id = $1 AND date >= $2 AND date <= $3`

	if err := r.db.GetContext(ctx, &stats, query, businessID, start, end); err != nil {
		return domain.PeriodStats{}, fmt.Errorf("failed to sum period: %w", err)
	}
	return stats, nil
}

func (r *pgAnalyticsRepository) ListDailyStats(ctx context.Context, businessID uuid.UUID, start, end time.Time) ([]domain.DailyStatistics, error) {
	rows := []domain.DailyStatistics{}
	query := `
		SELECT business_id, date, visits, unique_visitors, qr_scans, menu_views, orders, bookings,
			new_customers, returning_customers, revenue, created_at, updated_at
		FROM daily_statistics
		WHERE business_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`

	if err := r.db.SelectContext(ctx, &rows, query, businessID, start, end); err != nil {
		return nil, fmt.Errorf("failed to list daily statistics: %w", err)
	}
	return rows, nil
}

// GetOrCreateStatistics returns the lifetime row, creating an empty one if missing
func (r *pgAnalyticsRepository) GetOrCreateStatistics(ctx context.Context, businessID uuid.UUID) (*domain.Statistics, error) {
	stats := &domain.Statistics{}

	query := `SELECT ` + statisticsColumns + ` FROM statistics WHERE business_id = $1`
	err := r.db.GetContext(ctx, stats, query, businessID)

	if errors.Is(err, sql.ErrNoRows) {
		createQuery := `
			INSERT INTO statistics (business_id)
			VALUES ($1)
			ON CONFLICT (business_id) DO UPDATE SET business_id = EXCLUDED.business_id
			RETURNING ` + statisticsColumns
		err = r.db.GetContext(ctx, stats, createQuery, businessID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return stats, nil
}

func (r *pgAnalyticsRepository) SnapshotStatistics(ctx context.Context, businessID uuid.UUID, at time.Time) (*domain.Statistics, error) {
	stats := &domain.Statistics{}
	query := `
		INSERT INTO statistics (business_id, snapshot_at)
		VALUES ($1, $2)
		ON CONFLICT (business_id)
		DO UPDATE SET
			prev_total_visits = statistics.total_visits,
			prev_menu_views = statistics.menu_views,
			prev_qr_scans = statistics.qr_scans,
			prev_total_orders = statistics.total_orders,
			prev_total_revenue = statistics.total_revenue,
			snapshot_at = EXCLUDED.snapshot_at,
			last_updated = NOW()
		RETURNING ` + statisticsColumns

	if err := r.db.GetContext(ctx, stats, query, businessID, at); err != nil {
		return nil, fmt.Errorf("failed to snapshot statistics: %w", err)
	}
	return stats, nil
}
