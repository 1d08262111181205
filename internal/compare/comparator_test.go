package compare

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/metrics"
	"salespulse/internal/sales"
)

func salesRow(orderID string, year, month int, price int64) sales.Row {
	return sales.Row{
		OrderID:       orderID,
		ItemSequence:  1,
		Price:         decimal.NewFromInt(price),
		PurchaseYear:  year,
		PurchaseMonth: month,
	}
}

func TestCompareDefaultRegistry(t *testing.T) {
	current := []sales.Row{
		salesRow("a", 2023, 1, 100),
		salesRow("b", 2023, 1, 120),
	}
	comparison := []sales.Row{
		salesRow("x", 2022, 1, 100),
	}

	result := Compare(current, comparison, DefaultRegistry())
	require.Len(t, result, len(DefaultRegistry()))

	revenue := result[MetricRevenue]
	require.True(t, revenue.Current.Defined)
	assert.InDelta(t, 220, revenue.Current.Value, 1e-9)
	assert.InDelta(t, 100, revenue.Comparison.Value, 1e-9)
	require.True(t, revenue.AbsoluteDelta.Defined)
	assert.InDelta(t, 120, revenue.AbsoluteDelta.Value, 1e-9)
	require.True(t, revenue.PercentDelta.Defined)
	assert.InDelta(t, 1.2, revenue.PercentDelta.Value, 1e-9)

	orders := result[MetricOrders]
	assert.InDelta(t, 2, orders.Current.Value, 1e-9)
	assert.InDelta(t, 1, orders.Comparison.Value, 1e-9)
	assert.InDelta(t, 1, orders.AbsoluteDelta.Value, 1e-9)
}

func TestCompareEmptyComparisonPeriod(t *testing.T) {
	current := []sales.Row{salesRow("a", 2023, 1, 100)}

	result := Compare(current, nil, DefaultRegistry())

	revenue := result[MetricRevenue]
	require.True(t, revenue.Comparison.Defined, "revenue of an empty table is zero, not undefined")
	assert.Zero(t, revenue.Comparison.Value)
	// Delta against zero is defined; percent growth from a zero base is not.
	require.True(t, revenue.AbsoluteDelta.Defined)
	assert.InDelta(t, 100, revenue.AbsoluteDelta.Value, 1e-9)
	assert.False(t, revenue.PercentDelta.Defined)

	aov := result[MetricAverageOrderValue]
	assert.True(t, aov.Current.Defined)
	assert.False(t, aov.Comparison.Defined)
	assert.False(t, aov.AbsoluteDelta.Defined)
	assert.False(t, aov.PercentDelta.Defined)
}

func TestCompareUndefinedMetricBothSides(t *testing.T) {
	// No reviews anywhere: the review metric is undefined on both sides.
	result := Compare(
		[]sales.Row{salesRow("a", 2023, 1, 10)},
		[]sales.Row{salesRow("b", 2022, 1, 10)},
		DefaultRegistry(),
	)

	score := result[MetricReviewScore]
	assert.False(t, score.Current.Defined)
	assert.False(t, score.Comparison.Defined)
	assert.False(t, score.AbsoluteDelta.Defined)
	assert.False(t, score.PercentDelta.Defined)
}

func TestCompareCustomRegistry(t *testing.T) {
	registry := map[string]MetricFunc{
		"row_count": func(rows []sales.Row) metrics.Ratio {
			return metrics.DefinedRatio(float64(len(rows)))
		},
	}

	result := Compare(
		[]sales.Row{salesRow("a", 2023, 1, 1), salesRow("b", 2023, 1, 1)},
		[]sales.Row{salesRow("x", 2022, 1, 1)},
		registry,
	)
	require.Len(t, result, 1)
	assert.InDelta(t, 2, result["row_count"].Current.Value, 1e-9)
}

func TestMetricNamesSorted(t *testing.T) {
	names := MetricNames(DefaultRegistry())
	assert.Equal(t, []string{
		MetricAverageOrderValue,
		MetricDeliveryDays,
		MetricItemsPerOrder,
		MetricOrders,
		MetricReviewScore,
		MetricRevenue,
	}, names)
}

func TestSummarize(t *testing.T) {
	reviewed := salesRow("a", 2023, 1, 100)
	reviewed.HasReview = true
	reviewed.ReviewScore = 4
	reviewed.Delivered = true
	reviewed.DeliverySpeedDays = 3

	rows := []sales.Row{reviewed, salesRow("b", 2023, 1, 50)}

	summary := Summarize(rows)
	assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 2, summary.TotalOrders)
	require.True(t, summary.AverageOrderValue.Defined)
	assert.True(t, summary.AverageOrderValue.Value.Equal(decimal.NewFromInt(75)))
	require.True(t, summary.ItemsPerOrder.Defined)
	assert.InDelta(t, 1.0, summary.ItemsPerOrder.Value, 1e-9)
	require.True(t, summary.AverageReviewScore.Defined)
	assert.InDelta(t, 4.0, summary.AverageReviewScore.Value, 1e-9)
	require.True(t, summary.AverageDeliveryDays.Defined)
	assert.InDelta(t, 3.0, summary.AverageDeliveryDays.Value, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.True(t, summary.TotalRevenue.IsZero())
	assert.Zero(t, summary.TotalOrders)
	assert.False(t, summary.AverageOrderValue.Defined)
	assert.False(t, summary.ItemsPerOrder.Defined)
	assert.False(t, summary.AverageReviewScore.Defined)
	assert.False(t, summary.AverageDeliveryDays.Defined)
}
