package analytics

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/application"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/domain"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/infrastructure/cache"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/infrastructure/persistence/memory"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/infrastructure/persistence/postgres"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/interfaces/http"
	businessDomain "github.com/quickbiz/quickbiz-api/internal/modules/business/domain"
	"github.com/quickbiz/quickbiz-api/internal/shared/clock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Module struct {
	AnalyticsService application.AnalyticsService
	AnalyticsHandler *http.AnalyticsHandler
}

// Options tunes the module. Redis is optional; without it unique visitors
// are tracked in process and period sums are never cached.
type Options struct {
	Redis    *redis.Client
	CacheTTL time.Duration
	Location *time.Location
	Clock    clock.Clock
	Logger   zerolog.Logger
}

func NewModule(db *sqlx.DB, businessRepo businessDomain.BusinessRepository, opts Options) *Module {
	logger := opts.Logger.With().Str("module", "analytics").Logger()
	repo := postgres.NewAnalyticsRepository(db)

	var periods domain.PeriodReader = repo
	var visitors domain.VisitorTracker
	if opts.Redis != nil {
		periods = cache.NewPeriodCache(repo, opts.Redis, opts.CacheTTL, opts.Clock, opts.Location, logger)
		visitors = cache.NewVisitorTracker(opts.Redis)
	} else {
		visitors = memory.NewVisitorTracker()
	}

	service := application.NewAnalyticsService(repo, businessRepo, application.Options{
		Clock:    opts.Clock,
		Location: opts.Location,
		Periods:  periods,
		Visitors: visitors,
		Logger:   logger,
	})
	handler := http.NewAnalyticsHandler(service, businessRepo, logger)

	return &Module{
		AnalyticsService: service,
		AnalyticsHandler: handler,
	}
}
