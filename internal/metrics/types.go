// Package metrics computes business aggregates over the denormalized sales
// table. Every function is pure: it takes an already-filtered table and
// returns a scalar or a small ordered series, without touching shared state.
package metrics

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"salespulse/internal/period"
	"salespulse/internal/sales"
)

// Ratio is a ratio metric result. Defined is false when the denominator (or
// growth base) was zero; an undefined ratio marshals as JSON null, never as
// zero or infinity.
type Ratio struct {
	Value   float64
	Defined bool
}

// DefinedRatio wraps a computed ratio value.
func DefinedRatio(v float64) Ratio {
	return Ratio{Value: v, Defined: true}
}

// UndefinedRatio is the explicit division-undefined result.
var UndefinedRatio = Ratio{}

// MarshalJSON renders undefined ratios as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts null as the undefined ratio.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = UndefinedRatio
		return nil
	}
	r.Defined = true
	return json.Unmarshal(data, &r.Value)
}

// Amount is a currency metric result with the same undefined semantics as
// Ratio, used where the value is money (e.g. average order value).
type Amount struct {
	Value   decimal.Decimal
	Defined bool
}

// DefinedAmount wraps a computed currency value.
func DefinedAmount(v decimal.Decimal) Amount {
	return Amount{Value: v, Defined: true}
}

// UndefinedAmount is the explicit division-undefined result.
var UndefinedAmount = Amount{}

// MarshalJSON renders undefined amounts as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON accepts null as the undefined amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = UndefinedAmount
		return nil
	}
	a.Defined = true
	return json.Unmarshal(data, &a.Value)
}

// MonthRevenue is one point of a revenue-by-month series.
type MonthRevenue struct {
	Month   period.YearMonth `json:"month"`
	Revenue decimal.Decimal  `json:"revenue"`
}

// MonthGrowth extends MonthRevenue with the growth rate against the previous
// point in the series.
type MonthGrowth struct {
	Month   period.YearMonth `json:"month"`
	Revenue decimal.Decimal  `json:"revenue"`
	Growth  Ratio            `json:"growth"`
}

// CategoryRevenue is one entry of the revenue-by-category ranking.
type CategoryRevenue struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// StateRevenue is one entry of the revenue-by-state ranking. States with no
// sales are absent; backfilling the full state list is a presentation
// concern.
type StateRevenue struct {
	State   string          `json:"state"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ScoreCount is one entry of the review score distribution.
type ScoreCount struct {
	Score   int     `json:"score"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// BucketScore is the mean review score of one delivery-speed bucket.
type BucketScore struct {
	Bucket   sales.DeliveryBucket `json:"bucket"`
	Orders   int                  `json:"orders"`
	AvgScore Ratio                `json:"avg_score"`
}

// StatusCount is one entry of the order status distribution.
type StatusCount struct {
	Status  string  `json:"status"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// PaymentTypeCount is one entry of the payment type distribution.
type PaymentTypeCount struct {
	Type    string          `json:"type"`
	Count   int             `json:"count"`
	Percent float64         `json:"percent"`
	Value   decimal.Decimal `json:"value"`
}
