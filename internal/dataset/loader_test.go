package dataset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salespulse/internal/errors"
	"salespulse/internal/shared/testutil"
)

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)

	loader := NewLoader(slog.Default())
	ds, stats, err := loader.LoadAll(context.Background(), dir)
	require.NoError(t, err)

	assert.Len(t, ds.Orders, 5)
	assert.Len(t, ds.OrderItems, 5)
	assert.Len(t, ds.Products, 2)
	assert.Len(t, ds.Customers, 3)
	assert.Len(t, ds.Reviews, 3)
	assert.Len(t, ds.Payments, 3)
	assert.Len(t, stats, 6)

	for _, s := range stats {
		assert.Zero(t, s.Skipped, "no rows should be skipped in %s", s.File)
	}
}

func TestLoadAllTypes(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)

	loader := NewLoader(nil)
	ds, _, err := loader.LoadAll(context.Background(), dir)
	require.NoError(t, err)

	o1 := ds.Orders[0]
	assert.Equal(t, "o1", o1.OrderID)
	assert.Equal(t, StatusDelivered, o1.Status)
	assert.Equal(t, time.Date(2023, 1, 5, 10, 0, 0, 0, time.UTC), o1.PurchasedAt)
	assert.True(t, o1.Delivered())

	// o4 is shipped but not delivered; its delivery timestamp must stay unset.
	o4 := ds.Orders[3]
	assert.Equal(t, "o4", o4.OrderID)
	assert.False(t, o4.Delivered())
	assert.True(t, o4.DeliveredAt.IsZero())

	item := ds.OrderItems[0]
	assert.Equal(t, "o1", item.OrderID)
	assert.Equal(t, 1, item.ItemSequence)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, item.FreightValue.Equal(decimal.RequireFromString("10.00")))

	customer := ds.Customers[0]
	assert.Equal(t, "CA", customer.State)

	review := ds.Reviews[0]
	assert.Equal(t, 5, review.Score)
	assert.False(t, review.CreatedAt.IsZero())

	payment := ds.Payments[2]
	assert.Equal(t, "credit_card", payment.Type)
	assert.Equal(t, 2, payment.Installments)
	assert.True(t, payment.Value.Equal(decimal.RequireFromString("220.00")))
}

func TestLoadAllMissingFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, FileReviews)))

	loader := NewLoader(nil)
	_, _, err := loader.LoadAll(context.Background(), dir)
	require.Error(t, err)

	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))

	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, FileReviews, appErr.Context["file"])
	assert.Contains(t, appErr.Error(), FileReviews)
}

func TestLoadAllSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)

	items := `order_id,order_item_id,product_id,seller_id,price,freight_value
o1,1,p1,s1,100.00,10.00
o2,not-a-number,p2,s1,50.00,5.00
o3,1,p1,s2,bad-price,20.00
,1,p1,s1,10.00,1.00
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileOrderItems), []byte(items), 0644))

	loader := NewLoader(nil)
	ds, stats, err := loader.LoadAll(context.Background(), dir)
	require.NoError(t, err)

	assert.Len(t, ds.OrderItems, 1)
	for _, s := range stats {
		if s.File == FileOrderItems {
			assert.Equal(t, 3, s.Skipped)
			assert.Equal(t, 1, s.Rows)
		}
	}
}

func TestLoadAllCancelledContext(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDatasetFixtures(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := NewLoader(nil)
	_, _, err := loader.LoadAll(ctx, dir)
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{"datetime", "2023-01-05 10:00:00", time.Date(2023, 1, 5, 10, 0, 0, 0, time.UTC), false},
		{"date only", "2023-01-05", time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"empty is zero time", "", time.Time{}, false},
		{"garbage", "not-a-date", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
