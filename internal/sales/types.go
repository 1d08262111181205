package sales

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salespulse/internal/dataset"
	"salespulse/internal/period"
)

// Row is the denormalized per-order-item record used as the unit of
// aggregation. One row exists per surviving order item; enrichment columns
// are populated by the assembler and never recomputed downstream.
type Row struct {
	OrderID      string
	ItemSequence int
	ProductID    string
	SellerID     string
	Price        decimal.Decimal
	Freight      decimal.Decimal

	CustomerID  string
	Status      string
	PurchasedAt time.Time
	DeliveredAt time.Time

	// Derived once at assembly time from PurchasedAt.
	PurchaseYear  int
	PurchaseMonth int

	// Enrichment columns. The Has*/Delivered flags distinguish "absent"
	// from zero values so aggregates never treat missing data as zero.
	CategoryName string
	State        string
	City         string

	ReviewScore int
	HasReview   bool

	DeliverySpeedDays int
	Delivered         bool
}

// Period returns the calendar month the order was purchased in.
func (r Row) Period() period.YearMonth {
	return period.YearMonth{Year: r.PurchaseYear, Month: r.PurchaseMonth}
}

// ItemKey is the composite key of an order item.
type ItemKey struct {
	OrderID      string `json:"order_id"`
	ItemSequence int    `json:"item_sequence"`
}

// StatusFilter restricts assembly to orders in a status set. The zero value
// keeps every status.
type StatusFilter struct {
	statuses map[string]struct{}
}

// AllStatuses returns a filter that keeps every order status.
func AllStatuses() StatusFilter {
	return StatusFilter{}
}

// DeliveredOnly returns the default filter restricting to delivered orders.
func DeliveredOnly() StatusFilter {
	return Statuses(dataset.StatusDelivered)
}

// Statuses returns a filter keeping only the given statuses.
func Statuses(statuses ...string) StatusFilter {
	set := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return StatusFilter{statuses: set}
}

// All reports whether the filter keeps every status.
func (f StatusFilter) All() bool {
	return len(f.statuses) == 0
}

// Allows reports whether the given status passes the filter.
func (f StatusFilter) Allows(status string) bool {
	if f.All() {
		return true
	}
	_, ok := f.statuses[strings.ToLower(status)]
	return ok
}

// Values returns the filtered statuses in sorted order, or nil for "all".
func (f StatusFilter) Values() []string {
	if f.All() {
		return nil
	}
	values := make([]string, 0, len(f.statuses))
	for s := range f.statuses {
		values = append(values, s)
	}
	sort.Strings(values)
	return values
}

// String renders the filter for cache keys and logs.
func (f StatusFilter) String() string {
	if f.All() {
		return "all"
	}
	return strings.Join(f.Values(), ",")
}

// Diagnostics makes join row-drops auditable: every row excluded by a join or
// filter is counted, with a bounded sample of dropped item keys.
type Diagnostics struct {
	RunID            string    `json:"run_id"`
	InputItems       int       `json:"input_items"`
	OutputRows       int       `json:"output_rows"`
	OrphanItems      int       `json:"orphan_items"`      // no matching order
	DuplicateItems   int       `json:"duplicate_items"`   // repeated composite key
	StatusFiltered   int       `json:"status_filtered"`   // excluded by status filter
	MissingProducts  int       `json:"missing_products"`  // no category match
	MissingCustomers int       `json:"missing_customers"` // no geography match
	MissingReviews   int       `json:"missing_reviews"`   // orders without a review
	Undelivered      int       `json:"undelivered"`       // rows without delivery speed
	DroppedKeys      []ItemKey `json:"dropped_keys,omitempty"`
}

// Dropped returns the total number of input items excluded from the output.
func (d Diagnostics) Dropped() int {
	return d.OrphanItems + d.DuplicateItems + d.StatusFiltered
}
