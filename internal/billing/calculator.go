// Package billing turns a rental's time window into billable hours and cost.
// Every call site (creation preview, payment suggestion, reporting) goes
// through ExpectedAmount so quoted and billed prices never diverge.
package billing

import (
	"time"

	"github.com/segyhp/bike-rental-engine/internal/domain"
	"github.com/segyhp/bike-rental-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

// MinimumHours is the smallest billable unit.
const MinimumHours = 1

// Input is the snapshot of a rental needed to price it.
type Input struct {
	Status        domain.RentalStatus
	Start         time.Time
	PlannedReturn *time.Time
	ActualReturn  *time.Time
	Rate          decimal.Decimal
}

// Quote is the result of pricing a rental.
type Quote struct {
	Amount      decimal.Decimal
	Rate        decimal.Decimal
	Hours       int
	ResolvedEnd *time.Time
}

// DurationHours returns the whole hours between start and end, floored and
// clamped to MinimumHours.
func DurationHours(start, end time.Time) int {
	hours := utils.FloorHours(start, end)
	if hours < MinimumHours {
		return MinimumHours
	}
	return hours
}

// ResolveBillingEnd picks the end instant used for billing: the actual return
// when there is one, otherwise the later of now and the planned return.
func ResolveBillingEnd(plannedReturn, actualReturn *time.Time, now time.Time) time.Time {
	if actualReturn != nil {
		return *actualReturn
	}
	if plannedReturn == nil {
		return now
	}
	return utils.MaxTime(now, *plannedReturn)
}

// Cost is rate x hours rounded to 2 decimal places.
func Cost(rate decimal.Decimal, hours int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(hours))).Round(2)
}

// ExpectedAmount prices a rental as of now. Cancelled rentals are free.
func ExpectedAmount(in Input, now time.Time) Quote {
	if in.Status == domain.RentalStatusCancelled {
		return Quote{
			Amount: decimal.Zero,
			Rate:   in.Rate,
			Hours:  0,
		}
	}

	end := ResolveBillingEnd(in.PlannedReturn, in.ActualReturn, now)
	hours := DurationHours(in.Start, end)

	return Quote{
		Amount:      Cost(in.Rate, hours),
		Rate:        in.Rate,
		Hours:       hours,
		ResolvedEnd: &end,
	}
}

// Preview prices a rental at the moment it is booked, which always resolves
// to the planned window.
func Preview(rate decimal.Decimal, start, plannedReturn time.Time) Quote {
	return ExpectedAmount(Input{
		Status:        domain.RentalStatusActive,
		Start:         start,
		PlannedReturn: &plannedReturn,
		Rate:          rate,
	}, start)
}

// InputFor builds the pricing snapshot of a stored rental.
func InputFor(rental *domain.Rental, rate decimal.Decimal, ret *domain.Return) Input {
	in := Input{
		Status:        rental.Status,
		Start:         rental.RentalStart,
		PlannedReturn: rental.PlannedReturn,
		Rate:          rate,
	}
	if ret != nil {
		actual := ret.ActualReturn
		in.ActualReturn = &actual
	}
	return in
}

// InputForRecord builds the pricing snapshot of a joined rental record.
func InputForRecord(rec *domain.RentalRecord) Input {
	return Input{
		Status:        rec.Status,
		Start:         rec.RentalStart,
		PlannedReturn: rec.PlannedReturn,
		ActualReturn:  rec.ActualReturn,
		Rate:          rec.HourlyRate,
	}
}
