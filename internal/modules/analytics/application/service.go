package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/domain"
	businessDomain "github.com/quickbiz/quickbiz-api/internal/modules/business/domain"
	"github.com/quickbiz/quickbiz-api/internal/shared/clock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type AnalyticsService interface {
	RecordEvent(ctx context.Context, businessID uuid.UUID, kind domain.EventKind, reqCtx *domain.RequestContext, metadata *domain.Metadata) (*domain.AnalyticsEvent, error)
	RecordRevenue(ctx context.Context, businessID uuid.UUID, amount decimal.Decimal) error

	SumPeriod(ctx context.Context, businessID uuid.UUID, start, end time.Time) (domain.PeriodStats, error)
	PeriodStats(ctx context.Context, businessID uuid.UUID, days int) (domain.PeriodStats, error)
	TodayStats(ctx context.Context, businessID uuid.UUID) (domain.PeriodStats, error)
	WeekStats(ctx context.Context, businessID uuid.UUID) (domain.PeriodStats, error)
	MonthStats(ctx context.Context, businessID uuid.UUID) (domain.PeriodStats, error)
	CompareStats(ctx context.Context, businessID uuid.UUID, days int) (domain.Comparison, error)
	DailyBreakdown(ctx context.Context, businessID uuid.UUID, days int) ([]domain.DailyStatistics, error)

	GetLifetimeStats(ctx context.Context, businessID uuid.UUID) (*domain.Statistics, error)
	SnapshotPreviousPeriod(ctx context.Context, businessID uuid.UUID) (*domain.Statistics, error)
	GetDashboard(ctx context.Context, businessID uuid.UUID) (*domain.Dashboard, error)
}

// Options carries the optional collaborators of the service.
// Zero values are valid: system clock, UTC, reads straight from the repo,
// no unique visitor tracking, disabled logger.
type Options struct {
	Clock    clock.Clock
	Location *time.Location
	Periods  domain.PeriodReader
	Visitors domain.VisitorTracker
	Logger   zerolog.Logger
}

type analyticsService struct {
	repo         domain.AnalyticsRepository
	businessRepo businessDomain.BusinessRepository // Tenant directory
	periods      domain.PeriodReader
	visitors     domain.VisitorTracker
	clock        clock.Clock
	loc          *time.Location
	logger       zerolog.Logger
}

func NewAnalyticsService(repo domain.AnalyticsRepository, businessRepo businessDomain.BusinessRepository, opts Options) AnalyticsService {
	s := &analyticsService{
		repo:         repo,
		businessRepo: businessRepo,
		periods:      opts.Periods,
		visitors:     opts.Visitors,
		clock:        opts.Clock,
		loc:          opts.Location,
		logger:       opts.Logger,
	}
	if s.periods == nil {
		s.periods = repo
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

func (s *analyticsService) today() time.Time {
	return clock.Today(s.clock, s.loc)
}

func storageError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
}

// resolveTenant maps the directory lookup onto analytics errors
func (s *analyticsService) resolveTenant(ctx context.Context, businessID uuid.UUID) (*businessDomain.Business, error) {
	b, err := s.businessRepo.GetByID(ctx, businessID)
	if errors.Is(err, businessDomain.ErrBusinessNotFound) {
		return nil, domain.ErrUnknownTenant
	}
	if err != nil {
		return nil, storageError(err)
	}
	if b == nil || !b.IsActive {
		return nil, domain.ErrUnknownTenant
	}
	return b, nil
}

func (s *analyticsService) RecordEvent(ctx context.Context, businessID uuid.UUID, kind domain.EventKind, reqCtx *domain.RequestContext, metadata *domain.Metadata) (*domain.AnalyticsEvent, error) {
	if !kind.Valid() {
		eventFailures.WithLabelValues("invalid_kind").Inc()
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidEventKind, kind)
	}

	if _, err := s.resolveTenant(ctx, businessID); err != nil {
		if errors.Is(err, domain.ErrUnknownTenant) {
			eventFailures.WithLabelValues("unknown_tenant").Inc()
		} else {
			eventFailures.WithLabelValues("storage").Inc()
		}
		return nil, err
	}

	now := s.clock.Now()
	date := clock.DateOf(now, s.loc)
	event := domain.NewAnalyticsEvent(businessID, kind, reqCtx, metadata, now)

	unique := false
	if kind == domain.EventVisit && event.SessionID != nil && s.visitors != nil {
		marked, err := s.visitors.MarkVisit(ctx, businessID, date, *event.SessionID)
		if err != nil {
			s.logger.Warn().Err(err).Str("business_id", businessID.String()).Msg("unique visitor tracking unavailable")
		}
		unique = marked
	}

	if err := s.repo.RecordEvent(ctx, event, date, unique); err != nil {
		if unique {
			if relErr := s.visitors.ReleaseVisit(ctx, businessID, date, *event.SessionID); relErr != nil {
				s.logger.Warn().Err(relErr).Str("business_id", businessID.String()).Msg("failed to release visitor mark")
			}
		}
		eventFailures.WithLabelValues("storage").Inc()
		s.logger.Error().Err(err).
			Str("business_id", businessID.String()).
			Str("event_type", string(kind)).
			Msg("failed to record analytics event")
		return nil, storageError(err)
	}

	eventsRecorded.WithLabelValues(string(kind)).Inc()
	return event, nil
}

func (s *analyticsService) RecordRevenue(ctx context.Context, businessID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return domain.ErrInvalidAmount
	}
	if _, err := s.resolveTenant(ctx, businessID); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	if err := s.repo.AddRevenue(ctx, businessID, s.today(), amount); err != nil {
		s.logger.Error().Err(err).Str("business_id", businessID.String()).Msg("failed to record revenue")
		return storageError(err)
	}
	return nil
}

func (s *analyticsService) SumPeriod(ctx context.Context, businessID uuid.UUID, start, end time.Time) (domain.PeriodStats, error) {
	if _, err := s.resolveTenant(ctx, businessID); err != nil {
		return domain.PeriodStats{}, err
	}
	return s.sumPeriod(ctx, businessID, start, end)
}

// PeriodStats sums [today-days, today], which is days+1 dates wide
func (s *analyticsService) PeriodStats(ctx context.Context, businessID uuid.UUID, days int) (domain.PeriodStats, error) {
	if days < 0 {
		return domain.PeriodStats{}, domain.ErrInvalidPeriod
	}
	if _, err := s.resolveTenant(ctx, businessID); err != nil {
		return domain.PeriodStats{}, err
	}
	return s.periodStats(ctx, businessID, days)
}

func (s *analyticsService) TodayStats(ctx context.Context, businessID uuid.UUID) (domain.PeriodStats, error) {
	return s.PeriodStats(ctx, businessID, 0)
}

func (s *analyticsService) WeekStats(ctx context.Context, businessID uuid.UUID) (domain.PeriodStats, error) {
	return s.PeriodStats(ctx, businessID, 7)
}

func (s *analyticsService) MonthStats(ctx context.Context, businessID uuid.UUID) (domain.PeriodStats, error) {
	return s.PeriodStats(ctx, businessID, 30)
}

func (s *analyticsService) CompareStats(ctx context.Context, businessID uuid.UUID, days int) (domain.Comparison, error) {
	if days < 0 {
		return nil, domain.ErrInvalidPeriod
	}
	if _, err := s.resolveTenant(ctx, businessID); err != nil {
		return nil, err
	}
	return s.compareStats(ctx, businessID, days)
}

func (s *analyticsService) DailyBreakdown(ctx context.Context, businessID uuid.UUID, days int) ([]domain.DailyStatistics, error) {
	if days < 0 {
		return nil, domain.ErrInvalidPeriod
	}
	if _, err := s.resolveTenant(ctx, businessID); err != nil {
		return nil, err
	}
	w := domain.PeriodWindow(s.today(), days)
	rows, err := s.repo.ListDailyStats(ctx, businessID, w.Start, w.End)
	if err != nil {
		return nil, storageError(err)
	}
	return rows, nil
}

func (s *analyticsService) GetLifetimeStats(ctx context.Context, businessID uuid.UUID) (*domain.Statistics, error) {
	if _, err := s.resolveTenant(ctx, businessID); err != nil {
		return nil, err
	}
	return s.lifetimeStats(ctx, businessID)
}

// The helpers below assume the tenant was already resolved.

func (s *analyticsService) sumPeriod(ctx context.Context, businessID uuid.UUID, start, end time.Time) (domain.PeriodStats, error) {
	stats, err := s.periods.SumPeriod(ctx, businessID, start, end)
	if err != nil {
		return domain.PeriodStats{}, storageError(err)
	}
	return stats, nil
}

func (s *analyticsService) periodStats(ctx context.Context, businessID uuid.UUID, days int) (domain.PeriodStats, error) {
	w := domain.PeriodWindow(s.today(), days)
	return s.sumPeriod(ctx, businessID, w.Start, w.End)
}

func (s *analyticsService) compareStats(ctx context.Context, businessID uuid.UUID, days int) (domain.Comparison, error) {
	current, previous := domain.ComparisonWindows(s.today(), days)

	cur, err := s.sumPeriod(ctx, businessID, current.Start, current.End)
	if err != nil {
		return nil, err
	}
	prev, err := s.sumPeriod(ctx, businessID, previous.Start, previous.End)
	if err != nil {
		return nil, err
	}
	return domain.Compare(cur, prev), nil
}

func (s *analyticsService) lifetimeStats(ctx context.Context, businessID uuid.UUID) (*domain.Statistics, error) {
	stats, err := s.repo.GetOrCreateStatistics(ctx, businessID)
	if err != nil {
		return nil, storageError(err)
	}
	return stats, nil
}

// SnapshotPreviousPeriod copies lifetime totals into the prev_* fields.
// It only runs when a caller asks; there is no automatic cadence.
func (s *analyticsService) SnapshotPreviousPeriod(ctx context.Context, businessID uuid.UUID) (*domain.Statistics, error) {
	if _, err := s.resolveTenant(ctx, businessID); err != nil {
		return nil, err
	}
	stats, err := s.repo.SnapshotStatistics(ctx, businessID, s.clock.Now())
	if err != nil {
		return nil, storageError(err)
	}
	return stats, nil
}

// GetDashboard never fails on storage errors; it returns zeros with
// Unavailable set so the page can still render.
func (s *analyticsService) GetDashboard(ctx context.Context, businessID uuid.UUID) (*domain.Dashboard, error) {
	b, err := s.resolveTenant(ctx, businessID)
	if errors.Is(err, domain.ErrUnknownTenant) {
		return nil, err
	}

	dash := &domain.Dashboard{BusinessID: businessID}
	if b != nil {
		dash.BusinessType = string(b.BusinessType)
	}
	if err == nil {
		err = s.fillDashboard(ctx, dash)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("business_id", businessID.String()).Msg("dashboard stats unavailable")
		dash.Today = domain.PeriodStats{}
		dash.Week = domain.PeriodStats{}
		dash.Comparison = domain.EmptyComparison()
		dash.Lifetime = nil
		dash.Unavailable = true
	}
	dash.Highlights = domain.Highlights(dash.BusinessType, dash.Week, dash.Comparison)
	return dash, nil
}

func (s *analyticsService) fillDashboard(ctx context.Context, dash *domain.Dashboard) error {
	var err error
	if dash.Today, err = s.periodStats(ctx, dash.BusinessID, 0); err != nil {
		return err
	}
	if dash.Week, err = s.periodStats(ctx, dash.BusinessID, 7); err != nil {
		return err
	}
	if dash.Comparison, err = s.compareStats(ctx, dash.BusinessID, 7); err != nil {
		return err
	}
	if dash.Lifetime, err = s.lifetimeStats(ctx, dash.BusinessID); err != nil {
		return err
	}
	return nil
}
