package models

// Booking statuses. The exact strings are part of the external contract
// and must not change.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusDeclined   = "declined"
)

// Caller roles for booking transitions.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
)

// Schedule item kinds.
const (
	KindAvailability = "availability"
	KindOverride     = "override"
	KindBooking      = "booking"
)

// IsTerminal reports whether a status permits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusCancelled, StatusDeclined:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known booking statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusDeclined:
		return true
	}
	return false
}
