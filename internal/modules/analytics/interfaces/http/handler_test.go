package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quickbiz/quickbiz-api/internal/gateway/middleware"
	analyticsDomain "github.com/quickbiz/quickbiz-api/internal/modules/analytics/domain"
	analyticsHTTP "github.com/quickbiz/quickbiz-api/internal/modules/analytics/interfaces/http"
	businessDomain "github.com/quickbiz/quickbiz-api/internal/modules/business/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAnalyticsService struct{ mock.Mock }

func (m *mockAnalyticsService) RecordEvent(ctx context.Context, businessID uuid.UUID, kind analyticsDomain.EventKind, reqCtx *analyticsDomain.RequestContext, metadata *analyticsDomain.Metadata) (*analyticsDomain.AnalyticsEvent, error) {
	args := m.Called(ctx, businessID, kind, reqCtx, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsDomain.AnalyticsEvent), args.Error(1)
}
func (m *mockAnalyticsService) RecordRevenue(ctx context.Context, businessID uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, businessID, amount)
	return args.Error(0)
}
func (m *mockAnalyticsService) SumPeriod(ctx context.Context, businessID uuid.UUID, start, end time.Time) (analyticsDomain.PeriodStats, error) {
	args := m.Called(ctx, businessID, start, end)
	return args.Get(0).(analyticsDomain.PeriodStats), args.Error(1)
}
func (m *mockAnalyticsService) PeriodStats(ctx context.Context, businessID uuid.UUID, days int) (analyticsDomain.PeriodStats, error) {
	args := m.Called(ctx, businessID, days)
	return args.Get(0).(analyticsDomain.PeriodStats), args.Error(1)
}
func (m *mockAnalyticsService) TodayStats(ctx context.Context, businessID uuid.UUID) (analyticsDomain.PeriodStats, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(analyticsDomain.PeriodStats), args.Error(1)
}
func (m *mockAnalyticsService) WeekStats(ctx context.Context, businessID uuid.UUID) (analyticsDomain.PeriodStats, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(analyticsDomain.PeriodStats), args.Error(1)
}
func (m *mockAnalyticsService) MonthStats(ctx context.Context, businessID uuid.UUID) (analyticsDomain.PeriodStats, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(analyticsDomain.PeriodStats), args.Error(1)
}
func (m *mockAnalyticsService) CompareStats(ctx context.Context, businessID uuid.UUID, days int) (analyticsDomain.Comparison, error) {
	args := m.Called(ctx, businessID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(analyticsDomain.Comparison), args.Error(1)
}
func (m *mockAnalyticsService) DailyBreakdown(ctx context.Context, businessID uuid.UUID, days int) ([]analyticsDomain.DailyStatistics, error) {
	args := m.Called(ctx, businessID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]analyticsDomain.DailyStatistics), args.Error(1)
}
func (m *mockAnalyticsService) GetLifetimeStats(ctx context.Context, businessID uuid.UUID) (*analyticsDomain.Statistics, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsDomain.Statistics), args.Error(1)
}
func (m *mockAnalyticsService) SnapshotPreviousPeriod(ctx context.Context, businessID uuid.UUID) (*analyticsDomain.Statistics, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsDomain.Statistics), args.Error(1)
}
func (m *mockAnalyticsService) GetDashboard(ctx context.Context, businessID uuid.UUID) (*analyticsDomain.Dashboard, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsDomain.Dashboard), args.Error(1)
}

type mockBusinessRepo struct{ mock.Mock }

func (m *mockBusinessRepo) GetByID(ctx context.Context, id uuid.UUID) (*businessDomain.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*businessDomain.Business), args.Error(1)
}
func (m *mockBusinessRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func newHandler() (*analyticsHTTP.AnalyticsHandler, *mockAnalyticsService, *mockBusinessRepo) {
	svc := new(mockAnalyticsService)
	repo := new(mockBusinessRepo)
	return analyticsHTTP.NewAnalyticsHandler(svc, repo, zerolog.Nop()), svc, repo
}

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyUserId, userID))
}

func ownedRequest(method, target, body string, bizID, owner uuid.UUID, repo *mockBusinessRepo) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.SetPathValue("id", bizID.String())
	repo.On("GetByID", mock.Anything, bizID).Return(&businessDomain.Business{ID: bizID, OwnerID: owner, IsActive: true}, nil)
	return withUser(req, owner)
}

func TestAnalyticsHandler_TrackEvent(t *testing.T) {
	bizID := uuid.New()

	t.Run("created", func(t *testing.T) {
		h, svc, _ := newHandler()
		event := &analyticsDomain.AnalyticsEvent{ID: uuid.New(), BusinessID: bizID, EventType: analyticsDomain.EventQRScan, Metadata: analyticsDomain.Metadata{}}
		svc.On("RecordEvent", mock.Anything, bizID, analyticsDomain.EventQRScan,
			mock.MatchedBy(func(rc *analyticsDomain.RequestContext) bool {
				return rc.SessionID == "abc" && rc.IPAddress == "203.0.113.7" && rc.UserAgent == "test-agent"
			}),
			mock.MatchedBy(func(md *analyticsDomain.Metadata) bool {
				raw, ok := md.Get("table")
				keys := md.Keys()
				return ok && string(raw) == `"12"` && len(keys) == 2 && keys[0] == "table"
			}),
		).Return(event, nil)

		req := httptest.NewRequest(http.MethodPost, "/businesses/"+bizID.String()+"/events",
			strings.NewReader(`{"event_type":"qr_scan","metadata":{"table":"12","source":"poster"}}`))
		req.SetPathValue("id", bizID.String())
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		req.Header.Set("User-Agent", "test-agent")
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: "abc"})
		rr := httptest.NewRecorder()

		h.TrackEvent(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid kind", analyticsDomain.ErrInvalidEventKind, http.StatusBadRequest},
		{"unknown tenant", analyticsDomain.ErrUnknownTenant, http.StatusNotFound},
		{"storage", analyticsDomain.ErrStorageFailure, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc, _ := newHandler()
			svc.On("RecordEvent", mock.Anything, bizID, mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"event_type":"visit"}`))
			req.SetPathValue("id", bizID.String())
			rr := httptest.NewRecorder()

			h.TrackEvent(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}

	t.Run("metadata must be an object", func(t *testing.T) {
		h, svc, _ := newHandler()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"event_type":"visit","metadata":[1,2]}`))
		req.SetPathValue("id", bizID.String())
		rr := httptest.NewRecorder()

		h.TrackEvent(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "RecordEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad id", func(t *testing.T) {
		h, _, _ := newHandler()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		req.SetPathValue("id", "nope")
		rr := httptest.NewRecorder()

		h.TrackEvent(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAnalyticsHandler_Ownership(t *testing.T) {
	bizID := uuid.New()
	owner := uuid.New()

	t.Run("unauthenticated", func(t *testing.T) {
		h, _, _ := newHandler()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", bizID.String())
		rr := httptest.NewRecorder()

		h.GetDashboard(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("not the owner", func(t *testing.T) {
		h, svc, repo := newHandler()
		req := ownedRequest(http.MethodGet, "/", "", bizID, owner, repo)
		req = withUser(req, uuid.New())
		rr := httptest.NewRecorder()

		h.GetDashboard(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		svc.AssertNotCalled(t, "GetDashboard", mock.Anything, mock.Anything)
	})

	t.Run("missing business", func(t *testing.T) {
		h, _, repo := newHandler()
		repo.On("GetByID", mock.Anything, bizID).Return(nil, businessDomain.ErrBusinessNotFound)
		req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), owner)
		req.SetPathValue("id", bizID.String())
		rr := httptest.NewRecorder()

		h.GetLifetime(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("inactive business on every owner route", func(t *testing.T) {
		routes := map[string]func(*analyticsHTTP.AnalyticsHandler) http.HandlerFunc{
			"period":    func(h *analyticsHTTP.AnalyticsHandler) http.HandlerFunc { return h.GetPeriodStats },
			"compare":   func(h *analyticsHTTP.AnalyticsHandler) http.HandlerFunc { return h.GetComparison },
			"daily":     func(h *analyticsHTTP.AnalyticsHandler) http.HandlerFunc { return h.GetDailyBreakdown },
			"lifetime":  func(h *analyticsHTTP.AnalyticsHandler) http.HandlerFunc { return h.GetLifetime },
			"dashboard": func(h *analyticsHTTP.AnalyticsHandler) http.HandlerFunc { return h.GetDashboard },
			"revenue":   func(h *analyticsHTTP.AnalyticsHandler) http.HandlerFunc { return h.RecordRevenue },
		}
		for name, route := range routes {
			t.Run(name, func(t *testing.T) {
				h, svc, repo := newHandler()
				repo.On("GetByID", mock.Anything, bizID).Return(&businessDomain.Business{ID: bizID, OwnerID: owner, IsActive: false}, nil)
				req := withUser(httptest.NewRequest(http.MethodGet, "/", strings.NewReader(`{"amount":"1"}`)), owner)
				req.SetPathValue("id", bizID.String())
				rr := httptest.NewRecorder()

				route(h)(rr, req)

				assert.Equal(t, http.StatusNotFound, rr.Code)
				assert.Empty(t, svc.Calls)
			})
		}
	})

	t.Run("directory down", func(t *testing.T) {
		h, _, repo := newHandler()
		repo.On("GetByID", mock.Anything, bizID).Return(nil, errors.New("conn refused"))
		req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), owner)
		req.SetPathValue("id", bizID.String())
		rr := httptest.NewRecorder()

		h.GetLifetime(rr, req)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestAnalyticsHandler_GetPeriodStats(t *testing.T) {
	bizID := uuid.New()
	owner := uuid.New()

	t.Run("default days", func(t *testing.T) {
		h, svc, repo := newHandler()
		svc.On("PeriodStats", mock.Anything, bizID, 7).Return(analyticsDomain.PeriodStats{Visits: 11, Revenue: decimal.RequireFromString("3.5")}, nil)
		rr := httptest.NewRecorder()

		h.GetPeriodStats(rr, ownedRequest(http.MethodGet, "/", "", bizID, owner, repo))

		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, 11.0, body["visits"])
		assert.Equal(t, "3.5", body["revenue"])
	})

	t.Run("explicit days", func(t *testing.T) {
		h, svc, repo := newHandler()
		svc.On("PeriodStats", mock.Anything, bizID, 30).Return(analyticsDomain.PeriodStats{}, nil)
		rr := httptest.NewRecorder()

		h.GetPeriodStats(rr, ownedRequest(http.MethodGet, "/?days=30", "", bizID, owner, repo))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("non-numeric days", func(t *testing.T) {
		h, _, repo := newHandler()
		rr := httptest.NewRecorder()

		h.GetPeriodStats(rr, ownedRequest(http.MethodGet, "/?days=week", "", bizID, owner, repo))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("negative days", func(t *testing.T) {
		h, svc, repo := newHandler()
		svc.On("PeriodStats", mock.Anything, bizID, -3).Return(analyticsDomain.PeriodStats{}, analyticsDomain.ErrInvalidPeriod)
		rr := httptest.NewRecorder()

		h.GetPeriodStats(rr, ownedRequest(http.MethodGet, "/?days=-3", "", bizID, owner, repo))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAnalyticsHandler_GetComparisonAndDaily(t *testing.T) {
	bizID := uuid.New()
	owner := uuid.New()

	h, svc, repo := newHandler()
	cmp := analyticsDomain.Compare(analyticsDomain.PeriodStats{Visits: 150}, analyticsDomain.PeriodStats{Visits: 100})
	svc.On("CompareStats", mock.Anything, bizID, 14).Return(cmp, nil)
	svc.On("DailyBreakdown", mock.Anything, bizID, 30).Return([]analyticsDomain.DailyStatistics{{BusinessID: bizID, Visits: 2}}, nil)

	rr := httptest.NewRecorder()
	h.GetComparison(rr, ownedRequest(http.MethodGet, "/?days=14", "", bizID, owner, repo))
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 50.0, body["visits"]["change_percent"])
	assert.Equal(t, true, body["visits"]["is_positive"])

	rr = httptest.NewRecorder()
	h.GetDailyBreakdown(rr, ownedRequest(http.MethodGet, "/", "", bizID, owner, repo))
	require.Equal(t, http.StatusOK, rr.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)
}

func TestAnalyticsHandler_RecordRevenue(t *testing.T) {
	bizID := uuid.New()
	owner := uuid.New()

	t.Run("no content", func(t *testing.T) {
		h, svc, repo := newHandler()
		svc.On("RecordRevenue", mock.Anything, bizID, mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.RequireFromString("12.50"))
		})).Return(nil)
		rr := httptest.NewRecorder()

		h.RecordRevenue(rr, ownedRequest(http.MethodPost, "/", `{"amount":"12.50"}`, bizID, owner, repo))

		assert.Equal(t, http.StatusNoContent, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("negative", func(t *testing.T) {
		h, svc, repo := newHandler()
		svc.On("RecordRevenue", mock.Anything, bizID, mock.Anything).Return(analyticsDomain.ErrInvalidAmount)
		rr := httptest.NewRecorder()

		h.RecordRevenue(rr, ownedRequest(http.MethodPost, "/", `{"amount":"-1"}`, bizID, owner, repo))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed", func(t *testing.T) {
		h, _, repo := newHandler()
		rr := httptest.NewRecorder()

		h.RecordRevenue(rr, ownedRequest(http.MethodPost, "/", `{"amount":"lots"}`, bizID, owner, repo))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAnalyticsHandler_GetDashboard(t *testing.T) {
	bizID := uuid.New()
	owner := uuid.New()
	h, svc, repo := newHandler()
	dash := &analyticsDomain.Dashboard{
		BusinessID:   bizID,
		BusinessType: "menu",
		Comparison:   analyticsDomain.EmptyComparison(),
		Unavailable:  true,
	}
	dash.Highlights = analyticsDomain.Highlights("menu", dash.Week, dash.Comparison)
	svc.On("GetDashboard", mock.Anything, bizID).Return(dash, nil)
	rr := httptest.NewRecorder()

	h.GetDashboard(rr, ownedRequest(http.MethodGet, "/", "", bizID, owner, repo))

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["unavailable"])
	assert.Len(t, body["highlights"], 3)
}

func TestRequestContextFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.2:5555"
	req.Header.Set("X-Session-ID", "hdr-session")
	req.Header.Set("User-Agent", "ua")

	rc := analyticsHTTP.RequestContextFrom(req)
	assert.Equal(t, "hdr-session", rc.SessionID)
	assert.Equal(t, "198.51.100.2", rc.IPAddress)
	assert.Equal(t, "ua", rc.UserAgent)

	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "cookie-session"})
	assert.Equal(t, "cookie-session", analyticsHTTP.RequestContextFrom(req).SessionID)
}
