package domain

// Status is the booking lifecycle status. It is a closed enumeration so the
// transition rules can be checked exhaustively.
type Status string

const (
	StatusPending               Status = "pending"
	StatusAssigned              Status = "assigned"
	StatusStarted               Status = "started"
	StatusCompleted             Status = "completed"
	StatusWithdrawBefore24      Status = "withdrawbefore24"
	StatusWithdrawAfter24       Status = "withdrawafter24"
	StatusTimedOut              Status = "timedout"
	StatusNotCarriedOutCustomer Status = "not_carried_out_customer"
)

// AllStatuses lists every valid status value.
var AllStatuses = []Status{
	StatusPending,
	StatusAssigned,
	StatusStarted,
	StatusCompleted,
	StatusWithdrawBefore24,
	StatusWithdrawAfter24,
	StatusTimedOut,
	StatusNotCarriedOutCustomer,
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the booking for good.
// timedout is not terminal: a timed-out booking can be reopened.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusWithdrawBefore24, StatusWithdrawAfter24, StatusNotCarriedOutCustomer:
		return true
	}
	return false
}
