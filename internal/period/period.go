// Package period implements inclusive (year, month) ranges used to slice
// sales data for comparison.
package period

import (
	"fmt"
	"time"

	apperrors "salespulse/internal/errors"
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Of returns the YearMonth containing ts.
func Of(ts time.Time) YearMonth {
	return YearMonth{Year: ts.Year(), Month: int(ts.Month())}
}

// ordinal maps the month onto a single calendar sequence so ranges spanning
// year boundaries compare correctly.
func (ym YearMonth) ordinal() int {
	return ym.Year*12 + (ym.Month - 1)
}

// Before reports whether ym precedes other in calendar order.
func (ym YearMonth) Before(other YearMonth) bool {
	return ym.ordinal() < other.ordinal()
}

// Valid reports whether the month is in 1..12.
func (ym YearMonth) Valid() bool {
	return ym.Month >= 1 && ym.Month <= 12
}

// Next returns the following calendar month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == 12 {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// String returns the YYYY-MM representation.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Range is an inclusive year-month interval.
type Range struct {
	Start YearMonth `json:"start"`
	End   YearMonth `json:"end"`
}

// NewRange builds a validated inclusive range. A start after the end in
// calendar order is an error, never silently swapped.
func NewRange(startYear, startMonth, endYear, endMonth int) (Range, error) {
	r := Range{
		Start: YearMonth{Year: startYear, Month: startMonth},
		End:   YearMonth{Year: endYear, Month: endMonth},
	}

	if !r.Start.Valid() {
		return Range{}, apperrors.NewRangeError(fmt.Sprintf("invalid start month: %d", startMonth))
	}
	if !r.End.Valid() {
		return Range{}, apperrors.NewRangeError(fmt.Sprintf("invalid end month: %d", endMonth))
	}
	if r.End.Before(r.Start) {
		return Range{}, apperrors.NewRangeError(
			fmt.Sprintf("start period %s is after end period %s", r.Start, r.End))
	}

	return r, nil
}

// Contains reports whether ym falls inside the range, inclusive on both ends.
func (r Range) Contains(ym YearMonth) bool {
	o := ym.ordinal()
	return o >= r.Start.ordinal() && o <= r.End.ordinal()
}

// Months returns the number of calendar months the range spans.
func (r Range) Months() int {
	return r.End.ordinal() - r.Start.ordinal() + 1
}

// String returns "YYYY-MM..YYYY-MM".
func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
