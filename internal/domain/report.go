package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RentalSummary aggregates rentals starting in [From, To).
type RentalSummary struct {
	From             time.Time            `json:"from"`
	To               time.Time            `json:"to"`
	TotalRentals     int                  `json:"total_rentals"`
	ByStatus         map[RentalStatus]int `json:"by_status"`
	BilledHours      int                  `json:"billed_hours"`
	ExpectedRevenue  decimal.Decimal      `json:"expected_revenue"`
	CollectedRevenue decimal.Decimal      `json:"collected_revenue"`
	Outstanding      decimal.Decimal      `json:"outstanding"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

type OverdueRental struct {
	RentalID      int64     `json:"rental_id"`
	MemberID      int64     `json:"member_id"`
	BikeID        int64     `json:"bike_id"`
	PlannedReturn time.Time `json:"planned_return"`
	OverdueHours  int       `json:"overdue_hours"`
}
