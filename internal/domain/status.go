package domain

import "time"

// ClassifyStatus derives the display status of a rental from its stored facts.
// Cancelled and Completed are terminal and come from storage (or, for
// Completed, from the presence of a return row); the rest depends on now.
func ClassifyStatus(persisted RentalStatus, start time.Time, plannedReturn *time.Time, hasReturn bool, now time.Time) RentalStatus {
	switch {
	case persisted == RentalStatusCancelled:
		return RentalStatusCancelled
	case persisted == RentalStatusCompleted || hasReturn:
		return RentalStatusCompleted
	case now.Before(start):
		return RentalStatusPending
	case plannedReturn != nil && now.After(*plannedReturn):
		return RentalStatusOverdue
	default:
		return RentalStatusActive
	}
}

// InitialStatus is the persisted status of a freshly created rental.
func InitialStatus(start, now time.Time) RentalStatus {
	if start.After(now) {
		return RentalStatusPending
	}
	return RentalStatusActive
}

// IsTerminalStatus reports whether no further transitions are allowed.
func IsTerminalStatus(s RentalStatus) bool {
	return s == RentalStatusCompleted || s == RentalStatusCancelled
}
