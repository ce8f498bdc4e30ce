// Command snapshot copies every active business's lifetime totals into the
// previous-period columns. Run it from cron at the start of each period.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics/domain"
	"github.com/quickbiz/quickbiz-api/internal/modules/business"
	"github.com/quickbiz/quickbiz-api/internal/shared/infrastructure/config"
	"github.com/quickbiz/quickbiz-api/internal/shared/infrastructure/database"
	"github.com/quickbiz/quickbiz-api/internal/shared/infrastructure/logger"
	"github.com/rs/zerolog"
)

type businessLister interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type snapshotter interface {
	SnapshotPreviousPeriod(ctx context.Context, businessID uuid.UUID) (*domain.Statistics, error)
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.App.Env).With().Str("job", "snapshot").Logger()

	loc, err := cfg.Analytics.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid analytics configuration")
	}

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	businessModule := business.NewModule(db)
	analyticsModule := analytics.NewModule(db, businessModule.BusinessRepository, analytics.Options{
		Location: loc,
		Logger:   log,
	})

	ok, failed, err := snapshotAll(ctx, businessModule.BusinessRepository, analyticsModule.AnalyticsService, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list businesses")
	}
	log.Info().Int("snapshotted", ok).Int("failed", failed).Msg("snapshot finished")
	if failed > 0 {
		os.Exit(1)
	}
}

// snapshotAll keeps going past per-business failures; only a failure to
// list businesses aborts the run.
func snapshotAll(ctx context.Context, lister businessLister, svc snapshotter, log zerolog.Logger) (int, int, error) {
	ids, err := lister.ListActiveIDs(ctx)
	if err != nil {
		return 0, 0, err
	}

	var ok, failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			return ok, failed + len(ids) - ok - failed, nil
		}
		if _, err := svc.SnapshotPreviousPeriod(ctx, id); err != nil {
			failed++
			log.Error().Err(err).Str("business_id", id.String()).Msg("snapshot failed")
			continue
		}
		ok++
		log.Debug().Str("business_id", id.String()).Msg("snapshot taken")
	}
	return ok, failed, nil
}
