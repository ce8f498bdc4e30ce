package domain

import "github.com/shopspring/decimal"

// Field names a value tracked by the comparison engine
type Field string

const (
	FieldVisits    Field = "visits"
	FieldQRScans   Field = "qr_scans"
	FieldMenuViews Field = "menu_views"
	FieldOrders    Field = "orders"
	FieldBookings  Field = "bookings"
	FieldRevenue   Field = "revenue"
)

// ComparedFields are the fields Compare reports on. Bookings are summed by
// period stats but are not part of the comparison.
var ComparedFields = []Field{FieldVisits, FieldQRScans, FieldMenuViews, FieldOrders, FieldRevenue}

var hundred = decimal.NewFromInt(100)

// Get returns the value of f in p as a decimal
func (p PeriodStats) Get(f Field) decimal.Decimal {
	switch f {
	case FieldVisits:
		return decimal.NewFromInt(int64(p.Visits))
	case FieldQRScans:
		return decimal.NewFromInt(int64(p.QRScans))
	case FieldMenuViews:
		return decimal.NewFromInt(int64(p.MenuViews))
	case FieldOrders:
		return decimal.NewFromInt(int64(p.Orders))
	case FieldBookings:
		return decimal.NewFromInt(int64(p.Bookings))
	case FieldRevenue:
		return p.Revenue
	}
	return decimal.Zero
}

// FieldComparison is one row of a period-over-period comparison
type FieldComparison struct {
	Current       decimal.Decimal `json:"current"`
	Previous      decimal.Decimal `json:"previous"`
	ChangePercent float64         `json:"change_percent"`
	IsPositive    bool            `json:"is_positive"`
}

// Comparison maps each compared field to its delta
type Comparison map[Field]FieldComparison

// ChangePercent is ((current-previous)/previous)*100 rounded to one decimal.
// With no previous value the change is 100 when anything happened now and 0
// otherwise.
func ChangePercent(current, previous decimal.Decimal) decimal.Decimal {
	switch {
	case previous.IsPositive():
		return current.Sub(previous).Div(previous).Mul(hundred).Round(1)
	case current.IsPositive():
		return hundred
	default:
		return decimal.Zero
	}
}

// Compare builds the comparison between two period sums
func Compare(current, previous PeriodStats) Comparison {
	out := make(Comparison, len(ComparedFields))
	for _, f := range ComparedFields {
		cur, prev := current.Get(f), previous.Get(f)
		change := ChangePercent(cur, prev)
		out[f] = FieldComparison{
			Current:       cur,
			Previous:      prev,
			ChangePercent: change.InexactFloat64(),
			IsPositive:    !change.IsNegative(),
		}
	}
	return out
}
