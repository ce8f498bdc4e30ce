package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Highlight is one headline card on the owner dashboard
type Highlight struct {
	Field         Field           `json:"field"`
	Value         decimal.Decimal `json:"value"`
	ChangePercent float64         `json:"change_percent"`
	IsPositive    bool            `json:"is_positive"`
}

// Dashboard aggregates everything the owner dashboard renders.
// Unavailable is set when storage failed; values are then zero.
type Dashboard struct {
	BusinessID   uuid.UUID   `json:"business_id"`
	BusinessType string      `json:"business_type"`
	Today        PeriodStats `json:"today"`
	Week         PeriodStats `json:"week"`
	Comparison   Comparison  `json:"comparison"`
	Lifetime     *Statistics `json:"lifetime,omitempty"`
	Highlights   []Highlight `json:"highlights"`
	Unavailable  bool        `json:"unavailable"`
}

var highlightFields = map[string][]Field{
	"menu":    {FieldVisits, FieldMenuViews, FieldQRScans},
	"shop":    {FieldRevenue, FieldOrders, FieldVisits},
	"booking": {FieldVisits, FieldBookings},
}

// Highlights picks the headline cards for a business type. Fields missing
// from the comparison (bookings) show the week's value with no change.
func Highlights(businessType string, week PeriodStats, cmp Comparison) []Highlight {
	fields, ok := highlightFields[businessType]
	if !ok {
		fields = highlightFields["menu"]
	}
	out := make([]Highlight, 0, len(fields))
	for _, f := range fields {
		if c, ok := cmp[f]; ok {
			out = append(out, Highlight{Field: f, Value: c.Current, ChangePercent: c.ChangePercent, IsPositive: c.IsPositive})
			continue
		}
		out = append(out, Highlight{Field: f, Value: week.Get(f), IsPositive: true})
	}
	return out
}

// EmptyComparison is the comparison of two all-zero periods
func EmptyComparison() Comparison {
	return Compare(PeriodStats{}, PeriodStats{})
}
