package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

// Pending and Active are only the initial persisted values. Overdue is never
// stored, and a rental with a return row is Completed whatever its stored status.
const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusOverdue   RentalStatus = "overdue"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusCancelled RentalStatus = "cancelled"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

const DefaultReturnCondition = "Good"

// Rental is the aggregate root of the rental domain.
type Rental struct {
	ID            int64        `json:"id" db:"id"`
	MemberID      int64        `json:"member_id" db:"member_id"`
	BikeID        int64        `json:"bike_id" db:"bike_id"`
	AdminID       int64        `json:"admin_id" db:"admin_id"`
	RentalStart   time.Time    `json:"rental_start" db:"rental_start"`
	PlannedReturn *time.Time   `json:"planned_return,omitempty" db:"planned_return"`
	Status        RentalStatus `json:"status" db:"status"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// IsTerminal reports whether the persisted status forbids further transitions.
func (r *Rental) IsTerminal() bool {
	return r.Status == RentalStatusCompleted || r.Status == RentalStatusCancelled
}

// RentalRecord is a rental joined with what billing needs: the bike's hourly
// rate and the latest actual return, if any.
type RentalRecord struct {
	Rental
	HourlyRate   decimal.Decimal `json:"hourly_rate" db:"hourly_rate"`
	ActualReturn *time.Time      `json:"actual_return,omitempty" db:"actual_return"`
}

// DisplayStatus classifies the record as of now.
func (r *RentalRecord) DisplayStatus(now time.Time) RentalStatus {
	return ClassifyStatus(r.Status, r.RentalStart, r.PlannedReturn, r.ActualReturn != nil, now)
}

// Return records the actual hand-back of a bike. Only the latest row per
// rental is authoritative.
type Return struct {
	ID           int64     `json:"id" db:"id"`
	RentalID     int64     `json:"rental_id" db:"rental_id"`
	ActualReturn time.Time `json:"actual_return" db:"actual_return"`
	Condition    string    `json:"condition" db:"condition_notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess applies the ownership rule: members only touch their own rentals.
func (a Actor) CanAccess(r *Rental) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleMember && r.MemberID == a.ID
}

// ExtensionOutcome tells the caller how an extension was applied. It is
// either ExtendedInPlace or ExtendedAsNewRental.
type ExtensionOutcome interface {
	isExtensionOutcome()
}

// ExtendedInPlace means the original rental's planned return was moved.
type ExtendedInPlace struct{}

// ExtendedAsNewRental means the original rental was already paid and the
// extension was booked as a sibling rental.
type ExtendedAsNewRental struct {
	RentalID int64
}

func (ExtendedInPlace) isExtensionOutcome()     {}
func (ExtendedAsNewRental) isExtensionOutcome() {}

// DTOs for requests and responses

type CreateRentalRequest struct {
	BikeID        int64  `json:"bike_id" validate:"required,gt=0"`
	PickupDate    string `json:"pickup_date" validate:"required,datetime=2006-01-02"`
	PickupTime    string `json:"pickup_time" validate:"required"`
	DurationHours int    `json:"duration_hours" validate:"required,gte=1,lte=720"`
}

type CreateRentalResponse struct {
	RentalID      int64           `json:"rental_id"`
	Status        RentalStatus    `json:"status"`
	Cost          decimal.Decimal `json:"cost"`
	RentalStart   time.Time       `json:"rental_start"`
	PlannedReturn time.Time       `json:"planned_return"`
}

type ExtendRentalRequest struct {
	AdditionalHours int `json:"additional_hours" validate:"required,gte=1,lte=720"`
}

type ExtendRentalResult struct {
	RentalID         int64
	NewPlannedReturn time.Time
	NewDurationHours int
	ExtraHours       int
	Outcome          ExtensionOutcome
}

// ExtensionRentalID returns the sibling rental id, or nil when the rental was
// extended in place.
func (r *ExtendRentalResult) ExtensionRentalID() *int64 {
	if o, ok := r.Outcome.(ExtendedAsNewRental); ok {
		id := o.RentalID
		return &id
	}
	return nil
}

type ExtendRentalResponse struct {
	RentalID          int64     `json:"rental_id"`
	NewPlannedReturn  time.Time `json:"new_planned_return"`
	NewDurationHours  int       `json:"new_duration_hours"`
	ExtraHours        int       `json:"extra_hours"`
	ExtensionRentalID *int64    `json:"extension_rental_id"`
}

func NewExtendRentalResponse(r *ExtendRentalResult) ExtendRentalResponse {
	return ExtendRentalResponse{
		RentalID:          r.RentalID,
		NewPlannedReturn:  r.NewPlannedReturn,
		NewDurationHours:  r.NewDurationHours,
		ExtraHours:        r.ExtraHours,
		ExtensionRentalID: r.ExtensionRentalID(),
	}
}

// EndAction selects how a member ends a rental. The empty value falls back
// to inference from the rental start time.
type EndAction string

const (
	EndActionNone     EndAction = ""
	EndActionComplete EndAction = "complete"
	EndActionCancel   EndAction = "cancel"
)

type EndRentalRequest struct {
	Action EndAction `json:"action" validate:"omitempty,oneof=complete cancel"`
}

type EndRentalResponse struct {
	RentalID     int64        `json:"rental_id"`
	Status       RentalStatus `json:"status"`
	AlreadyEnded bool         `json:"already_ended"`
	Message      string       `json:"message"`
}

// RentalView is a read snapshot with its derived status and live quote.
type RentalView struct {
	Rental        *Rental         `json:"rental"`
	DisplayStatus RentalStatus    `json:"display_status"`
	ActualReturn  *time.Time      `json:"actual_return,omitempty"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	Hours         int             `json:"hours"`
	Amount        decimal.Decimal `json:"amount"`
}

type RentalFilter struct {
	MemberID *int64
	BikeID   *int64
	From     *time.Time
	To       *time.Time
}
