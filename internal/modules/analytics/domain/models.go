package domain

import (
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind is the type of a raw analytics event
type EventKind string

const (
	EventVisit    EventKind = "visit"
	EventQRScan   EventKind = "qr_scan"
	EventMenuView EventKind = "menu_view"
	EventItemView EventKind = "item_view"
	EventBooking  EventKind = "booking"
	EventOrder    EventKind = "order"
)

// EventKinds lists every accepted kind
var EventKinds = []EventKind{EventVisit, EventQRScan, EventMenuView, EventItemView, EventBooking, EventOrder}

func (k EventKind) Valid() bool {
	for _, known := range EventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Counter names a daily_statistics counter column
type Counter string

const (
	CounterVisits         Counter = "visits"
	CounterUniqueVisitors Counter = "unique_visitors"
	CounterQRScans        Counter = "qr_scans"
	CounterMenuViews      Counter = "menu_views"
	CounterOrders         Counter = "orders"
	CounterBookings       Counter = "bookings"
)

// rollupCounters maps each kind to the daily counter it bumps.
// item_view is intentionally absent: it is kept as an event for history and
// debugging but does not feed the dashboard.
var rollupCounters = map[EventKind]Counter{
	EventVisit:    CounterVisits,
	EventQRScan:   CounterQRScans,
	EventMenuView: CounterMenuViews,
	EventOrder:    CounterOrders,
	EventBooking:  CounterBookings,
}

// lifetimeColumns maps a daily counter to its running total in statistics
var lifetimeColumns = map[Counter]string{
	CounterVisits:    "total_visits",
	CounterQRScans:   "qr_scans",
	CounterMenuViews: "menu_views",
	CounterOrders:    "total_orders",
	CounterBookings:  "total_bookings",
}

// RollupCounter returns the daily counter k increments, if any
func (k EventKind) RollupCounter() (Counter, bool) {
	c, ok := rollupCounters[k]
	return c, ok
}

// LifetimeColumn returns the statistics column that mirrors c
func (c Counter) LifetimeColumn() (string, bool) {
	col, ok := lifetimeColumns[c]
	return col, ok
}

// RequestContext carries what the web layer knows about the caller.
// Every field is optional and opaque to the analytics core.
type RequestContext struct {
	SessionID string
	IPAddress string
	UserAgent string
}

// AnalyticsEvent is an immutable fact. It is never updated or deleted.
type AnalyticsEvent struct {
	ID         uuid.UUID `json:"id" db:"id"`
	BusinessID uuid.UUID `json:"business_id" db:"business_id"`
	EventType  EventKind `json:"event_type" db:"event_type"`
	SessionID  *string   `json:"session_id,omitempty" db:"session_id"`
	IPAddress  *string   `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  string    `json:"user_agent" db:"user_agent"`
	Metadata   Metadata  `json:"metadata" db:"metadata"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// NewAnalyticsEvent builds an event from an optional request context.
// Addresses that do not parse as IPs are dropped.
func NewAnalyticsEvent(businessID uuid.UUID, kind EventKind, reqCtx *RequestContext, metadata *Metadata, at time.Time) *AnalyticsEvent {
	event := &AnalyticsEvent{
		ID:         uuid.New(),
		BusinessID: businessID,
		EventType:  kind,
		Timestamp:  at,
	}
	if metadata != nil {
		event.Metadata = *metadata
	}
	if reqCtx != nil {
		if s := strings.TrimSpace(reqCtx.SessionID); s != "" {
			event.SessionID = &s
		}
		if ip := net.ParseIP(strings.TrimSpace(reqCtx.IPAddress)); ip != nil {
			addr := ip.String()
			event.IPAddress = &addr
		}
		event.UserAgent = reqCtx.UserAgent
	}
	return event
}

// DailyStatistics is the per-business per-date rollup row
type DailyStatistics struct {
	BusinessID         uuid.UUID       `json:"business_id" db:"business_id"`
	Date               time.Time       `json:"date" db:"date"`
	Visits             int             `json:"visits" db:"visits"`
	UniqueVisitors     int             `json:"unique_visitors" db:"unique_visitors"`
	QRScans            int             `json:"qr_scans" db:"qr_scans"`
	MenuViews          int             `json:"menu_views" db:"menu_views"`
	Orders             int             `json:"orders" db:"orders"`
	Bookings           int             `json:"bookings" db:"bookings"`
	NewCustomers       int             `json:"new_customers" db:"new_customers"`
	ReturningCustomers int             `json:"returning_customers" db:"returning_customers"`
	Revenue            decimal.Decimal `json:"revenue" db:"revenue"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// Increment bumps c by one. Unknown counters are ignored.
func (d *DailyStatistics) Increment(c Counter) {
	switch c {
	case CounterVisits:
		d.Visits++
	case CounterUniqueVisitors:
		d.UniqueVisitors++
	case CounterQRScans:
		d.QRScans++
	case CounterMenuViews:
		d.MenuViews++
	case CounterOrders:
		d.Orders++
	case CounterBookings:
		d.Bookings++
	}
}

// Statistics holds lifetime running totals for one business, plus the
// snapshot taken by the last SnapshotPreviousPeriod call.
type Statistics struct {
	BusinessID       uuid.UUID       `json:"business_id" db:"business_id"`
	TotalVisits      int             `json:"total_visits" db:"total_visits"`
	TotalBookings    int             `json:"total_bookings" db:"total_bookings"`
	TotalOrders      int             `json:"total_orders" db:"total_orders"`
	TotalCustomers   int             `json:"total_customers" db:"total_customers"`
	MenuViews        int             `json:"menu_views" db:"menu_views"`
	QRScans          int             `json:"qr_scans" db:"qr_scans"`
	TotalRevenue     decimal.Decimal `json:"total_revenue" db:"total_revenue"`
	PrevTotalVisits  int             `json:"prev_total_visits" db:"prev_total_visits"`
	PrevMenuViews    int             `json:"prev_menu_views" db:"prev_menu_views"`
	PrevQRScans      int             `json:"prev_qr_scans" db:"prev_qr_scans"`
	PrevTotalOrders  int             `json:"prev_total_orders" db:"prev_total_orders"`
	PrevTotalRevenue decimal.Decimal `json:"prev_total_revenue" db:"prev_total_revenue"`
	SnapshotAt       *time.Time      `json:"snapshot_at,omitempty" db:"snapshot_at"`
	LastUpdated      time.Time       `json:"last_updated" db:"last_updated"`
}

// Increment bumps the lifetime total mirroring c
func (s *Statistics) Increment(c Counter) {
	switch c {
	case CounterVisits:
		s.TotalVisits++
	case CounterQRScans:
		s.QRScans++
	case CounterMenuViews:
		s.MenuViews++
	case CounterOrders:
		s.TotalOrders++
	case CounterBookings:
		s.TotalBookings++
	}
}

// Snapshot copies the running totals into the prev_* fields
func (s *Statistics) Snapshot(at time.Time) {
	s.PrevTotalVisits = s.TotalVisits
	s.PrevMenuViews = s.MenuViews
	s.PrevQRScans = s.QRScans
	s.PrevTotalOrders = s.TotalOrders
	s.PrevTotalRevenue = s.TotalRevenue
	s.SnapshotAt = &at
}

// PeriodStats are counter sums over an inclusive date window
type PeriodStats struct {
	Visits    int             `json:"visits" db:"visits"`
	QRScans   int             `json:"qr_scans" db:"qr_scans"`
	MenuViews int             `json:"menu_views" db:"menu_views"`
	Orders    int             `json:"orders" db:"orders"`
	Bookings  int             `json:"bookings" db:"bookings"`
	Revenue   decimal.Decimal `json:"revenue" db:"revenue"`
}

// Add accumulates a daily row into p
func (p *PeriodStats) Add(d DailyStatistics) {
	p.Visits += d.Visits
	p.QRScans += d.QRScans
	p.MenuViews += d.MenuViews
	p.Orders += d.Orders
	p.Bookings += d.Bookings
	p.Revenue = p.Revenue.Add(d.Revenue)
}

// Window is an inclusive range of calendar dates
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether date falls inside w
func (w Window) Contains(date time.Time) bool {
	return !date.Before(w.Start) && !date.After(w.End)
}

// PeriodWindow is [today-days, today]. Both ends are inclusive so the window
// spans days+1 dates; dashboard labels depend on that width.
func PeriodWindow(today time.Time, days int) Window {
	return Window{Start: today.AddDate(0, 0, -days), End: today}
}

// ComparisonWindows returns the current window and the one before it. The
// previous window ends the day before the current one starts and begins
// `days` days before the current start.
func ComparisonWindows(today time.Time, days int) (current, previous Window) {
	current = PeriodWindow(today, days)
	previous = Window{
		Start: current.Start.AddDate(0, 0, -days),
		End:   current.Start.AddDate(0, 0, -1),
	}
	return current, previous
}
