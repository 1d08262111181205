package sales

import (
	"salespulse/internal/period"
)

// FilterByRange returns the rows whose purchase (year, month) falls inside
// the inclusive range. The input is never mutated; an empty result is a valid
// outcome, not an error. Filtering an already-filtered table to the same
// range returns an equal table.
func FilterByRange(rows []Row, r period.Range) []Row {
	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		if r.Contains(row.Period()) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// DeliveryBucket groups delivery speed into the buckets the experience
// metrics report on.
type DeliveryBucket string

const (
	BucketFast   DeliveryBucket = "1-3 days"
	BucketMedium DeliveryBucket = "4-7 days"
	BucketSlow   DeliveryBucket = "8+ days"
)

// DeliveryBuckets lists the buckets in ascending speed order.
var DeliveryBuckets = []DeliveryBucket{BucketFast, BucketMedium, BucketSlow}

// BucketForDays maps a whole-day delivery speed onto its bucket. Boundaries
// are inclusive: 3 days is fast, 7 days is medium, 8 days is slow.
func BucketForDays(days int) DeliveryBucket {
	switch {
	case days <= 3:
		return BucketFast
	case days <= 7:
		return BucketMedium
	default:
		return BucketSlow
	}
}
