// Package compare runs the metrics engine over two already-filtered sales
// tables and reports deltas and growth rates. It is the sole aggregation
// point the presentation layer consumes.
package compare

import (
	"sort"

	"github.com/shopspring/decimal"

	"salespulse/internal/metrics"
	"salespulse/internal/sales"
)

// MetricFunc computes one scalar metric over a sales table. Scalars are
// expressed as metrics.Ratio so counts, amounts and ratios compare uniformly
// and undefined values survive the trip.
type MetricFunc func(rows []sales.Row) metrics.Ratio

// Canonical metric names exposed by the default registry.
const (
	MetricRevenue           = "revenue"
	MetricOrders            = "orders"
	MetricAverageOrderValue = "average_order_value"
	MetricItemsPerOrder     = "items_per_order"
	MetricReviewScore       = "average_review_score"
	MetricDeliveryDays      = "average_delivery_days"
)

// DefaultRegistry returns the named scalar metrics compared between periods.
// Callers may pass a subset or add their own entries.
func DefaultRegistry() map[string]MetricFunc {
	return map[string]MetricFunc{
		MetricRevenue: func(rows []sales.Row) metrics.Ratio {
			return metrics.DefinedRatio(metrics.TotalRevenue(rows).InexactFloat64())
		},
		MetricOrders: func(rows []sales.Row) metrics.Ratio {
			return metrics.DefinedRatio(float64(metrics.TotalOrders(rows)))
		},
		MetricAverageOrderValue: func(rows []sales.Row) metrics.Ratio {
			aov := metrics.AverageOrderValue(rows)
			if !aov.Defined {
				return metrics.UndefinedRatio
			}
			return metrics.DefinedRatio(aov.Value.InexactFloat64())
		},
		MetricItemsPerOrder: metrics.ItemsPerOrder,
		MetricReviewScore:   metrics.AverageReviewScore,
		MetricDeliveryDays:  metrics.AverageDeliveryDays,
	}
}

// Comparison holds one metric evaluated on both periods. Deltas are
// undefined when either side is; the percent delta is additionally undefined
// when the comparison value is zero, uniformly with revenue growth.
type Comparison struct {
	Current       metrics.Ratio `json:"current"`
	Comparison    metrics.Ratio `json:"comparison"`
	AbsoluteDelta metrics.Ratio `json:"absolute_delta"`
	PercentDelta  metrics.Ratio `json:"percent_delta"`
}

// Compare evaluates every registry metric on the current and comparison
// tables. Empty tables are valid inputs and produce defined zero counts with
// undefined ratios.
func Compare(current, comparison []sales.Row, registry map[string]MetricFunc) map[string]Comparison {
	result := make(map[string]Comparison, len(registry))
	for name, fn := range registry {
		cur := fn(current)
		cmp := fn(comparison)
		result[name] = Comparison{
			Current:       cur,
			Comparison:    cmp,
			AbsoluteDelta: absoluteDelta(cur, cmp),
			PercentDelta:  percentDelta(cur, cmp),
		}
	}
	return result
}

// MetricNames returns the registry's metric names in sorted order, for
// stable report output.
func MetricNames(registry map[string]MetricFunc) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func absoluteDelta(current, comparison metrics.Ratio) metrics.Ratio {
	if !current.Defined || !comparison.Defined {
		return metrics.UndefinedRatio
	}
	return metrics.DefinedRatio(current.Value - comparison.Value)
}

func percentDelta(current, comparison metrics.Ratio) metrics.Ratio {
	if !current.Defined || !comparison.Defined {
		return metrics.UndefinedRatio
	}
	return metrics.GrowthFloat(current.Value, comparison.Value)
}

// Summary is the one-period statistics block backing dashboard cards.
type Summary struct {
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalOrders         int             `json:"total_orders"`
	AverageOrderValue   metrics.Amount  `json:"average_order_value"`
	ItemsPerOrder       metrics.Ratio   `json:"items_per_order"`
	AverageReviewScore  metrics.Ratio   `json:"average_review_score"`
	AverageDeliveryDays metrics.Ratio   `json:"average_delivery_days"`
}

// Summarize computes the summary statistics for one period.
func Summarize(rows []sales.Row) Summary {
	return Summary{
		TotalRevenue:        metrics.TotalRevenue(rows),
		TotalOrders:         metrics.TotalOrders(rows),
		AverageOrderValue:   metrics.AverageOrderValue(rows),
		ItemsPerOrder:       metrics.ItemsPerOrder(rows),
		AverageReviewScore:  metrics.AverageReviewScore(rows),
		AverageDeliveryDays: metrics.AverageDeliveryDays(rows),
	}
}
