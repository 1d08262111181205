// Package sales builds the denormalized sales table every metric is computed
// over: one row per order item, joined with its order and enriched with
// product, customer, review and delivery information.
package sales

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"salespulse/internal/dataset"
)

// maxDroppedKeySample bounds the dropped-key sample carried in diagnostics.
const maxDroppedKeySample = 50

// AssemblerConfig controls which enrichment steps run and which order
// statuses survive assembly.
type AssemblerConfig struct {
	Statuses          StatusFilter
	WithCategories    bool
	WithGeography     bool
	WithReviews       bool
	WithDeliverySpeed bool
}

// DefaultAssemblerConfig restricts to delivered orders with every enrichment
// enabled, matching the standard analysis run.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		Statuses:          DeliveredOnly(),
		WithCategories:    true,
		WithGeography:     true,
		WithReviews:       true,
		WithDeliverySpeed: true,
	}
}

// Assembler produces the denormalized sales table from loaded datasets.
// Inputs are never mutated; every invocation returns a fresh table.
type Assembler struct {
	logger *slog.Logger
	config AssemblerConfig
}

// NewAssembler creates a sales assembler. A nil logger falls back to
// slog.Default.
func NewAssembler(logger *slog.Logger, config AssemblerConfig) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger, config: config}
}

// Build joins order items with orders, applies the status filter and the
// configured enrichments, and returns the sales table with join diagnostics.
// Items with no matching order are dropped and counted, never errored.
func (a *Assembler) Build(ctx context.Context, ds *dataset.Datasets) ([]Row, *Diagnostics, error) {
	diag := &Diagnostics{
		RunID:      uuid.NewString(),
		InputItems: len(ds.OrderItems),
	}

	a.logger.InfoContext(ctx, "assembling sales table",
		slog.String("run_id", diag.RunID),
		slog.Int("order_items", len(ds.OrderItems)),
		slog.String("status_filter", a.config.Statuses.String()),
	)

	ordersByID := make(map[string]dataset.Order, len(ds.Orders))
	for _, o := range ds.Orders {
		ordersByID[o.OrderID] = o
	}

	var categories map[string]string
	if a.config.WithCategories {
		categories = make(map[string]string, len(ds.Products))
		for _, p := range ds.Products {
			categories[p.ProductID] = p.CategoryName
		}
	}

	var customersByID map[string]dataset.Customer
	if a.config.WithGeography {
		customersByID = make(map[string]dataset.Customer, len(ds.Customers))
		for _, c := range ds.Customers {
			customersByID[c.CustomerID] = c
		}
	}

	var reviewsByOrder map[string]dataset.Review
	if a.config.WithReviews {
		reviewsByOrder = selectReviews(ds.Reviews)
	}

	seen := make(map[ItemKey]struct{}, len(ds.OrderItems))
	rows := make([]Row, 0, len(ds.OrderItems))

	for _, item := range ds.OrderItems {
		key := ItemKey{OrderID: item.OrderID, ItemSequence: item.ItemSequence}
		if _, dup := seen[key]; dup {
			diag.DuplicateItems++
			a.sampleDropped(diag, key)
			continue
		}
		seen[key] = struct{}{}

		order, ok := ordersByID[item.OrderID]
		if !ok {
			diag.OrphanItems++
			a.sampleDropped(diag, key)
			continue
		}

		if !a.config.Statuses.Allows(order.Status) {
			diag.StatusFiltered++
			continue
		}

		row := Row{
			OrderID:       item.OrderID,
			ItemSequence:  item.ItemSequence,
			ProductID:     item.ProductID,
			SellerID:      item.SellerID,
			Price:         item.Price,
			Freight:       item.FreightValue,
			CustomerID:    order.CustomerID,
			Status:        order.Status,
			PurchasedAt:   order.PurchasedAt,
			DeliveredAt:   order.DeliveredAt,
			PurchaseYear:  order.PurchasedAt.Year(),
			PurchaseMonth: int(order.PurchasedAt.Month()),
		}

		if a.config.WithCategories {
			category, ok := categories[item.ProductID]
			if !ok || category == "" {
				diag.MissingProducts++
			}
			row.CategoryName = category
		}

		if a.config.WithGeography {
			customer, ok := customersByID[order.CustomerID]
			if !ok {
				diag.MissingCustomers++
			}
			row.State = customer.State
			row.City = customer.City
		}

		if a.config.WithReviews {
			if review, ok := reviewsByOrder[item.OrderID]; ok {
				row.ReviewScore = review.Score
				row.HasReview = true
			} else {
				diag.MissingReviews++
			}
		}

		if a.config.WithDeliverySpeed {
			if order.Delivered() {
				row.DeliverySpeedDays = deliveryDays(order)
				row.Delivered = true
			} else {
				diag.Undelivered++
			}
		}

		rows = append(rows, row)
	}

	diag.OutputRows = len(rows)

	a.logger.InfoContext(ctx, "sales table assembled",
		slog.String("run_id", diag.RunID),
		slog.Int("output_rows", diag.OutputRows),
		slog.Int("orphan_items", diag.OrphanItems),
		slog.Int("status_filtered", diag.StatusFiltered),
		slog.Int("duplicate_items", diag.DuplicateItems),
	)

	return rows, diag, nil
}

func (a *Assembler) sampleDropped(diag *Diagnostics, key ItemKey) {
	if len(diag.DroppedKeys) < maxDroppedKeySample {
		diag.DroppedKeys = append(diag.DroppedKeys, key)
	}
}

// selectReviews keeps at most one review per order. The earliest creation
// date wins; ties and missing dates fall back to first-in-file order.
func selectReviews(reviews []dataset.Review) map[string]dataset.Review {
	selected := make(map[string]dataset.Review, len(reviews))
	for _, r := range reviews {
		current, ok := selected[r.OrderID]
		if !ok {
			selected[r.OrderID] = r
			continue
		}
		if !r.CreatedAt.IsZero() && (current.CreatedAt.IsZero() || r.CreatedAt.Before(current.CreatedAt)) {
			selected[r.OrderID] = r
		}
	}
	return selected
}

// deliveryDays is the whole number of days between purchase and delivery.
func deliveryDays(order dataset.Order) int {
	return int(order.DeliveredAt.Sub(order.PurchasedAt).Hours() / 24)
}
