package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/quickbiz/quickbiz-api/internal/gateway"
	"github.com/quickbiz/quickbiz-api/internal/gateway/middleware"
	"github.com/quickbiz/quickbiz-api/internal/modules/analytics"
	"github.com/quickbiz/quickbiz-api/internal/modules/business"
	"github.com/quickbiz/quickbiz-api/internal/shared/infrastructure/config"
	"github.com/quickbiz/quickbiz-api/internal/shared/infrastructure/database"
	"github.com/quickbiz/quickbiz-api/internal/shared/infrastructure/logger"
	"github.com/quickbiz/quickbiz-api/pkg/migration"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.App.Env)

	loc, err := cfg.Analytics.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid analytics configuration")
	}

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to database")

	if cfg.Migration.AutoMigrate {
		if err := migration.AutoMigrate(cfg.Database.URL(), cfg.Migration.Path, log); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	var redisClient *redis.Client
	if cfg.Analytics.RedisEnabled {
		redisClient, err = database.NewRedis(cfg.Redis)
		if err != nil {
			// Analytics still works without redis, just without caching
			// and with per-process unique visitor tracking.
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr()).Msg("redis unavailable, continuing without it")
		} else {
			defer redisClient.Close()
		}
	}

	handler := buildHandler(cfg, loc, db, redisClient, log)

	server := gateway.NewServer(cfg.Server.Port, handler, log)
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

// buildHandler wires modules, routes and the outer middleware chain.
func buildHandler(cfg config.Config, loc *time.Location, db *sqlx.DB, redisClient *redis.Client, log zerolog.Logger) http.Handler {
	businessModule := business.NewModule(db)
	analyticsModule := analytics.NewModule(db, businessModule.BusinessRepository, analytics.Options{
		Redis:    redisClient,
		CacheTTL: cfg.Analytics.CacheTTL,
		Location: loc,
		Logger:   log,
	})

	mux := gateway.SetupRoutes(gateway.RouterConfig{
		AuthMiddleware:   middleware.NewAuthMiddleware(cfg.JWT.Secret),
		AnalyticsHandler: analyticsModule.AnalyticsHandler,
	})

	return middleware.CORSMiddleware(middleware.PrometheusMiddleware(mux), cfg.Server.AllowedOrigins)
}
