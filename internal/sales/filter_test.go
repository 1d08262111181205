package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/period"
)

func monthRow(orderID string, year, month int, price int64) Row {
	return Row{
		OrderID:       orderID,
		ItemSequence:  1,
		Price:         decimal.NewFromInt(price),
		PurchaseYear:  year,
		PurchaseMonth: month,
	}
}

func TestFilterByRange(t *testing.T) {
	rows := []Row{
		monthRow("a", 2022, 11, 10),
		monthRow("b", 2022, 12, 20),
		monthRow("c", 2023, 1, 30),
		monthRow("d", 2023, 2, 40),
		monthRow("e", 2023, 3, 50),
	}

	r, err := period.NewRange(2022, 12, 2023, 2)
	require.NoError(t, err)

	filtered := FilterByRange(rows, r)
	require.Len(t, filtered, 3)
	assert.Equal(t, "b", filtered[0].OrderID)
	assert.Equal(t, "d", filtered[2].OrderID)
}

func TestFilterByRangeIdempotent(t *testing.T) {
	rows := []Row{
		monthRow("a", 2023, 1, 10),
		monthRow("b", 2023, 2, 20),
	}

	r, err := period.NewRange(2023, 1, 2023, 2)
	require.NoError(t, err)

	once := FilterByRange(rows, r)
	twice := FilterByRange(once, r)
	assert.Equal(t, once, twice)
}

func TestFilterByRangeEmptyResult(t *testing.T) {
	rows := []Row{monthRow("a", 2023, 1, 10)}

	r, err := period.NewRange(2020, 1, 2020, 12)
	require.NoError(t, err)

	filtered := FilterByRange(rows, r)
	assert.NotNil(t, filtered)
	assert.Empty(t, filtered)
}

func TestFilterByRangeDoesNotMutateInput(t *testing.T) {
	rows := []Row{
		monthRow("a", 2023, 1, 10),
		monthRow("b", 2023, 6, 20),
	}

	r, err := period.NewRange(2023, 1, 2023, 1)
	require.NoError(t, err)

	_ = FilterByRange(rows, r)
	assert.Len(t, rows, 2)
	assert.Equal(t, "b", rows[1].OrderID)
}

func TestBucketForDays(t *testing.T) {
	tests := []struct {
		days int
		want DeliveryBucket
	}{
		{0, BucketFast},
		{1, BucketFast},
		{2, BucketFast},
		{3, BucketFast},
		{4, BucketMedium},
		{7, BucketMedium},
		{8, BucketSlow},
		{30, BucketSlow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketForDays(tt.days), "days=%d", tt.days)
	}
}
