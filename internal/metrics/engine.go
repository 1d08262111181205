package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"salespulse/internal/dataset"
	"salespulse/internal/period"
	"salespulse/internal/sales"
)

// TotalRevenue sums the price column. Freight is excluded from revenue.
// An empty table yields zero.
func TotalRevenue(rows []sales.Row) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Price)
	}
	return total
}

// RevenueByMonth groups revenue by purchase (year, month) and returns the
// series in calendar order. Months with no sales are absent, not zero.
func RevenueByMonth(rows []sales.Row) []MonthRevenue {
	byMonth := make(map[period.YearMonth]decimal.Decimal)
	for _, row := range rows {
		ym := row.Period()
		byMonth[ym] = byMonth[ym].Add(row.Price)
	}

	series := make([]MonthRevenue, 0, len(byMonth))
	for ym, revenue := range byMonth {
		series = append(series, MonthRevenue{Month: ym, Revenue: revenue})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Month.Before(series[j].Month)
	})
	return series
}

// Growth is the fractional change from base to current (0.10 means +10%).
// A zero base makes the growth undefined, never infinity.
func Growth(current, base decimal.Decimal) Ratio {
	if base.IsZero() {
		return UndefinedRatio
	}
	return DefinedRatio(current.Sub(base).Div(base).InexactFloat64())
}

// GrowthFloat is Growth over plain float values, used for ratio metrics.
func GrowthFloat(current, base float64) Ratio {
	if base == 0 {
		return UndefinedRatio
	}
	return DefinedRatio((current - base) / base)
}

// MonthOverMonthGrowth annotates a revenue series with the growth rate
// against the preceding point. The first point has no base and is undefined.
func MonthOverMonthGrowth(series []MonthRevenue) []MonthGrowth {
	result := make([]MonthGrowth, 0, len(series))
	for i, point := range series {
		growth := UndefinedRatio
		if i > 0 {
			growth = Growth(point.Revenue, series[i-1].Revenue)
		}
		result = append(result, MonthGrowth{Month: point.Month, Revenue: point.Revenue, Growth: growth})
	}
	return result
}

// TotalOrders counts distinct orders in the table.
func TotalOrders(rows []sales.Row) int {
	orders := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		orders[row.OrderID] = struct{}{}
	}
	return len(orders)
}

// AverageOrderValue is total revenue divided by distinct order count,
// undefined when the table holds no orders.
func AverageOrderValue(rows []sales.Row) Amount {
	orders := TotalOrders(rows)
	if orders == 0 {
		return UndefinedAmount
	}
	return DefinedAmount(TotalRevenue(rows).Div(decimal.NewFromInt(int64(orders))))
}

// ItemsPerOrder is row count divided by distinct order count, undefined when
// the table holds no orders.
func ItemsPerOrder(rows []sales.Row) Ratio {
	orders := TotalOrders(rows)
	if orders == 0 {
		return UndefinedRatio
	}
	return DefinedRatio(float64(len(rows)) / float64(orders))
}

// RevenueByCategory ranks product categories by revenue, descending, with
// ties broken by category name ascending. Rows with no category match are
// excluded.
func RevenueByCategory(rows []sales.Row) []CategoryRevenue {
	byCategory := make(map[string]decimal.Decimal)
	for _, row := range rows {
		if row.CategoryName == "" {
			continue
		}
		byCategory[row.CategoryName] = byCategory[row.CategoryName].Add(row.Price)
	}

	ranking := make([]CategoryRevenue, 0, len(byCategory))
	for category, revenue := range byCategory {
		ranking = append(ranking, CategoryRevenue{Category: category, Revenue: revenue})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if !ranking[i].Revenue.Equal(ranking[j].Revenue) {
			return ranking[i].Revenue.GreaterThan(ranking[j].Revenue)
		}
		return ranking[i].Category < ranking[j].Category
	})
	return ranking
}

// RevenueByState ranks customer states by revenue, descending, ties broken
// by state ascending. States with zero sales are absent; the presentation
// layer backfills the full state list.
func RevenueByState(rows []sales.Row) []StateRevenue {
	byState := make(map[string]decimal.Decimal)
	for _, row := range rows {
		if row.State == "" {
			continue
		}
		byState[row.State] = byState[row.State].Add(row.Price)
	}

	ranking := make([]StateRevenue, 0, len(byState))
	for state, revenue := range byState {
		ranking = append(ranking, StateRevenue{State: state, Revenue: revenue})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if !ranking[i].Revenue.Equal(ranking[j].Revenue) {
			return ranking[i].Revenue.GreaterThan(ranking[j].Revenue)
		}
		return ranking[i].State < ranking[j].State
	})
	return ranking
}

// AverageReviewScore is the mean review score over rows that carry a review.
// Rows without a review are excluded from numerator and denominator, so a
// single 5-score review over two orders averages 5.0, not 2.5.
func AverageReviewScore(rows []sales.Row) Ratio {
	var sum, count int
	for _, row := range rows {
		if !row.HasReview {
			continue
		}
		sum += row.ReviewScore
		count++
	}
	if count == 0 {
		return UndefinedRatio
	}
	return DefinedRatio(float64(sum) / float64(count))
}

// ReviewScoreDistribution counts review scores over distinct orders and
// returns one entry per observed score, ascending.
func ReviewScoreDistribution(rows []sales.Row) []ScoreCount {
	scoreByOrder := make(map[string]int)
	for _, row := range rows {
		if !row.HasReview {
			continue
		}
		scoreByOrder[row.OrderID] = row.ReviewScore
	}

	counts := make(map[int]int)
	for _, score := range scoreByOrder {
		counts[score]++
	}

	total := len(scoreByOrder)
	distribution := make([]ScoreCount, 0, len(counts))
	for score, count := range counts {
		distribution = append(distribution, ScoreCount{
			Score:   score,
			Count:   count,
			Percent: 100 * float64(count) / float64(total),
		})
	}
	sort.Slice(distribution, func(i, j int) bool {
		return distribution[i].Score < distribution[j].Score
	})
	return distribution
}

// AverageDeliveryDays is the mean delivery speed over rows where delivery
// occurred. Undelivered rows are excluded, never treated as zero days.
func AverageDeliveryDays(rows []sales.Row) Ratio {
	var sum, count int
	for _, row := range rows {
		if !row.Delivered {
			continue
		}
		sum += row.DeliverySpeedDays
		count++
	}
	if count == 0 {
		return UndefinedRatio
	}
	return DefinedRatio(float64(sum) / float64(count))
}

// ReviewByDeliveryBucket buckets delivered rows by delivery speed and
// computes the mean review score per bucket. Undelivered rows fall in no
// bucket; rows without a review do not contribute to the bucket mean. Every
// bucket appears in the result, with an undefined score when it has no
// reviewed rows.
func ReviewByDeliveryBucket(rows []sales.Row) []BucketScore {
	type bucketAgg struct {
		orders   map[string]struct{}
		scoreSum int
		scored   int
	}

	aggs := make(map[sales.DeliveryBucket]*bucketAgg, len(sales.DeliveryBuckets))
	for _, bucket := range sales.DeliveryBuckets {
		aggs[bucket] = &bucketAgg{orders: make(map[string]struct{})}
	}

	for _, row := range rows {
		if !row.Delivered {
			continue
		}
		agg := aggs[sales.BucketForDays(row.DeliverySpeedDays)]
		agg.orders[row.OrderID] = struct{}{}
		if row.HasReview {
			agg.scoreSum += row.ReviewScore
			agg.scored++
		}
	}

	result := make([]BucketScore, 0, len(sales.DeliveryBuckets))
	for _, bucket := range sales.DeliveryBuckets {
		agg := aggs[bucket]
		score := UndefinedRatio
		if agg.scored > 0 {
			score = DefinedRatio(float64(agg.scoreSum) / float64(agg.scored))
		}
		result = append(result, BucketScore{
			Bucket:   bucket,
			Orders:   len(agg.orders),
			AvgScore: score,
		})
	}
	return result
}

// OrderStatusDistribution counts orders per status, descending by count with
// ties broken by status name.
func OrderStatusDistribution(orders []dataset.Order) []StatusCount {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[o.Status]++
	}

	distribution := make([]StatusCount, 0, len(counts))
	for status, count := range counts {
		distribution = append(distribution, StatusCount{
			Status:  status,
			Count:   count,
			Percent: 100 * float64(count) / float64(len(orders)),
		})
	}
	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].Count != distribution[j].Count {
			return distribution[i].Count > distribution[j].Count
		}
		return distribution[i].Status < distribution[j].Status
	})
	return distribution
}

// PaymentTypeDistribution counts payment legs per type with their total
// value, descending by count.
func PaymentTypeDistribution(payments []dataset.Payment) []PaymentTypeCount {
	type agg struct {
		count int
		value decimal.Decimal
	}
	byType := make(map[string]*agg)
	for _, p := range payments {
		a, ok := byType[p.Type]
		if !ok {
			a = &agg{}
			byType[p.Type] = a
		}
		a.count++
		a.value = a.value.Add(p.Value)
	}

	distribution := make([]PaymentTypeCount, 0, len(byType))
	for paymentType, a := range byType {
		distribution = append(distribution, PaymentTypeCount{
			Type:    paymentType,
			Count:   a.count,
			Percent: 100 * float64(a.count) / float64(len(payments)),
			Value:   a.value,
		})
	}
	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].Count != distribution[j].Count {
			return distribution[i].Count > distribution[j].Count
		}
		return distribution[i].Type < distribution[j].Type
	})
	return distribution
}
