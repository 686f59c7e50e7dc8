// Package pricing computes storage fees from the time an item spent in storage.
//
// Durations are counted in whole calendar days and converted to 30-day months.
// Every full year costs YearlyRate per unit; a partial year adds a flat
// surcharge: ShortTermSurcharge below six months, LongTermSurcharge otherwise.
package pricing

import (
	"errors"
	"math"
	"time"
)

const (
	YearlyRate         = 66
	ShortTermSurcharge = 36
	LongTermSurcharge  = 66

	daysPerMonth         = 30
	monthsPerYear        = 12
	longTermFromMonths   = 6
	hoursPerCalendarDate = 24
)

// ErrInvalidQuantity is returned when the quantity is not a positive integer.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// Quote is the fee breakdown for one outflow.
type Quote struct {
	Days            int     `json:"days"`
	Months          int     `json:"months"`
	Years           int     `json:"years"`
	RemainingMonths int     `json:"remaining_months"`
	UnitPrice       float64 `json:"unit_price"`
	TotalPrice      float64 `json:"total_price"`
}

// ComputeStorageFee prices quantity units stored from inflow to outflow.
// The order of the two dates does not matter.
func ComputeStorageFee(inflow, outflow time.Time, quantity int) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, ErrInvalidQuantity
	}

	days := ElapsedDays(inflow, outflow)
	months := (days + daysPerMonth - 1) / daysPerMonth
	years := months / monthsPerYear
	remaining := months % monthsPerYear

	unit := float64(years * YearlyRate)
	switch {
	case remaining == 0:
	case remaining < longTermFromMonths:
		unit += ShortTermSurcharge
	default:
		unit += LongTermSurcharge
	}

	return Quote{
		Days:            days,
		Months:          months,
		Years:           years,
		RemainingMonths: remaining,
		UnitPrice:       unit,
		TotalPrice:      unit * float64(quantity),
	}, nil
}

// ElapsedDays returns the absolute number of calendar days between a and b.
func ElapsedDays(a, b time.Time) int {
	diff := CalendarDate(b).Sub(CalendarDate(a))
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / hoursPerCalendarDate))
}

// CalendarDate keeps the year, month and day of t as observed in t's own
// location and anchors them at midnight UTC.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
