package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/compare"
	"salespulse/internal/config"
	"salespulse/internal/dataset"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/period"
	"salespulse/internal/sales"
	"salespulse/internal/shared/testutil"
)

func newTestService(t *testing.T, dataDir string) *AnalyticsService {
	t.Helper()
	cfg := &config.Config{Paths: config.PathsConfig{DataDir: dataDir}}
	return NewAnalyticsService(cfg, nil, prometheus.NewRegistry())
}

func mustRange(t *testing.T, sy, sm, ey, em int) period.Range {
	t.Helper()
	r, err := period.NewRange(sy, sm, ey, em)
	require.NoError(t, err)
	return r
}

func TestCompareEndToEnd(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)
	svc := newTestService(t, dir)

	result, err := svc.Compare(context.Background(), CompareRequest{
		Statuses:   sales.DeliveredOnly(),
		Current:    mustRange(t, 2023, 1, 2023, 12),
		Comparison: mustRange(t, 2022, 1, 2022, 12),
	})
	require.NoError(t, err)

	assert.Equal(t, "delivered", result.StatusFilter)

	revenue := result.Metrics[compare.MetricRevenue]
	require.True(t, revenue.Current.Defined)
	assert.InDelta(t, 350, revenue.Current.Value, 1e-9)
	assert.Zero(t, revenue.Comparison.Value, "no delivered sales in 2022")
	assert.False(t, revenue.PercentDelta.Defined)

	orders := result.Metrics[compare.MetricOrders]
	assert.InDelta(t, 3, orders.Current.Value, 1e-9)

	assert.True(t, result.CurrentSummary.TotalRevenue.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, 3, result.CurrentSummary.TotalOrders)
	assert.Zero(t, result.ComparisonSummary.TotalOrders)

	require.Len(t, result.Categories, 2)
	assert.Equal(t, "electronics", result.Categories[0].Category)
	assert.True(t, result.Categories[0].Revenue.Equal(decimal.NewFromInt(300)))

	require.Len(t, result.States, 3)
	assert.Equal(t, "TX", result.States[0].State)

	require.Len(t, result.MonthlyCurrent, 2)
	assert.True(t, result.MonthlyCurrent[0].Revenue.Equal(decimal.NewFromInt(150)))
	assert.True(t, result.MonthlyCurrent[1].Revenue.Equal(decimal.NewFromInt(200)))
	assert.False(t, result.MonthlyCurrent[0].Growth.Defined)

	require.NotNil(t, result.Diagnostics)
	assert.Equal(t, 1, result.Diagnostics.OrphanItems)
	assert.Equal(t, 1, result.Diagnostics.StatusFiltered)

	assert.Len(t, result.LoadStats, 6)
	assert.False(t, result.GeneratedAt.IsZero())
}

func TestCompareDeliveryBuckets(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)
	svc := newTestService(t, dir)

	result, err := svc.Compare(context.Background(), CompareRequest{
		Statuses:   sales.DeliveredOnly(),
		Current:    mustRange(t, 2023, 1, 2023, 12),
		Comparison: mustRange(t, 2022, 1, 2022, 12),
	})
	require.NoError(t, err)

	require.Len(t, result.DeliveryBuckets, 3)
	byBucket := make(map[sales.DeliveryBucket]int)
	for i, b := range result.DeliveryBuckets {
		byBucket[b.Bucket] = i
	}

	fast := result.DeliveryBuckets[byBucket[sales.BucketFast]]
	assert.Equal(t, 1, fast.Orders)
	require.True(t, fast.AvgScore.Defined)
	assert.InDelta(t, 5.0, fast.AvgScore.Value, 1e-9, "the earliest review wins over the duplicate")

	medium := result.DeliveryBuckets[byBucket[sales.BucketMedium]]
	assert.Equal(t, 1, medium.Orders)
	assert.InDelta(t, 4.0, medium.AvgScore.Value, 1e-9)

	slow := result.DeliveryBuckets[byBucket[sales.BucketSlow]]
	assert.Equal(t, 1, slow.Orders)
	assert.False(t, slow.AvgScore.Defined, "o2 carries no review")
}

func TestSummary(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)
	svc := newTestService(t, dir)

	result, err := svc.Summary(context.Background(), SummaryRequest{
		Statuses: sales.DeliveredOnly(),
		Period:   mustRange(t, 2023, 1, 2023, 1),
	})
	require.NoError(t, err)

	assert.True(t, result.Summary.TotalRevenue.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 2, result.Summary.TotalOrders)
	require.True(t, result.Summary.AverageOrderValue.Defined)
	assert.True(t, result.Summary.AverageOrderValue.Value.Equal(decimal.NewFromInt(75)))
}

func TestDatasetDistributions(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)
	svc := newTestService(t, dir)

	result, err := svc.DatasetDistributions(context.Background(), "")
	require.NoError(t, err)

	require.NotEmpty(t, result.OrderStatuses)
	assert.Equal(t, dataset.StatusDelivered, result.OrderStatuses[0].Status)
	assert.Equal(t, 3, result.OrderStatuses[0].Count)
	assert.InDelta(t, 60.0, result.OrderStatuses[0].Percent, 1e-9)

	require.Len(t, result.PaymentTypes, 2)
	assert.Equal(t, "credit_card", result.PaymentTypes[0].Type)
	assert.Equal(t, 2, result.PaymentTypes[0].Count)
	assert.True(t, result.PaymentTypes[0].Value.Equal(decimal.NewFromInt(330)))
}

func TestAssemblyCacheHit(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)
	svc := newTestService(t, dir)

	req := SummaryRequest{
		Statuses: sales.DeliveredOnly(),
		Period:   mustRange(t, 2023, 1, 2023, 12),
	}

	_, err := svc.Summary(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Summary(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(svc.runsTotal))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(svc.cacheHitsTotal))
}

func TestAssemblyCacheInvalidatedOnFileChange(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)
	svc := newTestService(t, dir)

	req := SummaryRequest{
		Statuses: sales.DeliveredOnly(),
		Period:   mustRange(t, 2023, 1, 2023, 12),
	}

	_, err := svc.Summary(context.Background(), req)
	require.NoError(t, err)

	// A new modification time changes the source fingerprint.
	path := filepath.Join(dir, dataset.FileOrders)
	later := time.Now().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	_, err = svc.Summary(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2.0, promtestutil.ToFloat64(svc.runsTotal))
}

func TestAssemblyCachePerStatusFilter(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)
	svc := newTestService(t, dir)

	period2023 := mustRange(t, 2023, 1, 2023, 12)

	_, err := svc.Summary(context.Background(), SummaryRequest{
		Statuses: sales.DeliveredOnly(), Period: period2023,
	})
	require.NoError(t, err)

	result, err := svc.Summary(context.Background(), SummaryRequest{
		Statuses: sales.AllStatuses(), Period: period2023,
	})
	require.NoError(t, err)

	// The shipped order o4 is only visible without the delivered filter.
	assert.Equal(t, 4, result.Summary.TotalOrders)
	assert.Equal(t, 2.0, promtestutil.ToFloat64(svc.runsTotal))
}

func TestCompareMissingDataDir(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "nope"))

	_, err := svc.Compare(context.Background(), CompareRequest{
		Statuses:   sales.DeliveredOnly(),
		Current:    mustRange(t, 2023, 1, 2023, 12),
		Comparison: mustRange(t, 2022, 1, 2022, 12),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
}

func TestDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)

	// Configured directory is bogus; the request override must win.
	svc := newTestService(t, filepath.Join(t.TempDir(), "nope"))

	result, err := svc.Summary(context.Background(), SummaryRequest{
		DataDir:  dir,
		Statuses: sales.DeliveredOnly(),
		Period:   mustRange(t, 2023, 1, 2023, 12),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Summary.TotalOrders)
}
