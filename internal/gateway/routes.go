package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quickbiz/quickbiz-api/internal/gateway/middleware"
	analytics_http "github.com/quickbiz/quickbiz-api/internal/modules/analytics/interfaces/http"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthMiddleware   *middleware.AuthMiddleWare
	AnalyticsHandler *analytics_http.AnalyticsHandler
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	router := NewRouter()
	a := config.AnalyticsHandler

	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	router.Handle("GET /metrics", promhttp.Handler())

	// Storefront tracking, public
	router.HandleFunc("POST /businesses/{id}/events", a.TrackEvent)

	// Owner dashboard
	owner := router.Group("/businesses/{id}", config.AuthMiddleware.RequireAuth)
	owner.Handle(http.MethodPost, "/revenue", a.RecordRevenue)
	owner.Handle(http.MethodGet, "/analytics/period", a.GetPeriodStats)
	owner.Handle(http.MethodGet, "/analytics/compare", a.GetComparison)
	owner.Handle(http.MethodGet, "/analytics/daily", a.GetDailyBreakdown)
	owner.Handle(http.MethodGet, "/analytics/lifetime", a.GetLifetime)
	owner.Handle(http.MethodGet, "/analytics/dashboard", a.GetDashboard)

	return router.Mux()
}
