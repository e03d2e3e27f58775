package domain

import "time"

// ActorRole identifies who initiated a lifecycle action.
type ActorRole string

const (
	RoleCustomer   ActorRole = "customer"
	RoleTranslator ActorRole = "translator"
	RoleAdmin      ActorRole = "admin"
)

// CreateCommand creates a booking on behalf of a customer.
type CreateCommand struct {
	CustomerID     string
	CustomerEmail  string
	ConsumerType   string // paid, rwsconsumer, ngo
	FromLanguageID string
	Immediate      bool
	Due            time.Time // ignored when Immediate
	Duration       int       // minutes

	Gender    Gender
	Certified Certification

	CustomerPhoneAllowed    bool
	CustomerPhysicalAllowed bool
	Town                    string
	Reference               string
}

// AcceptCommand is a translator's attempt to take a pending booking.
type AcceptCommand struct {
	JobID        string
	TranslatorID string
}

// StartCommand moves an assigned booking into its session.
type StartCommand struct {
	JobID string
}

// EndCommand completes a started session.
type EndCommand struct {
	JobID   string
	ActorID string // who ended it; recorded as completed_by
}

// CustomerNotCallCommand closes a session the customer never showed up for.
type CustomerNotCallCommand struct {
	JobID        string
	TranslatorID string
}

// CancelCommand withdraws a booking. Customer cancellations always go
// through; translator cancellations are rejected inside the 24h window.
type CancelCommand struct {
	JobID   string
	ActorID string
	Role    ActorRole
}

// AdminEditCommand is the bundled admin update. Each dimension is diffed
// independently against the stored job and triggers its own notification only
// when it actually changed.
type AdminEditCommand struct {
	JobID string

	Status        Status
	AdminComments string
	SessionTime   string // required when forcing started -> completed
	Reference     string

	Due            time.Time // zero means unchanged
	FromLanguageID string    // empty means unchanged
	TranslatorID   string    // empty means unchanged
}

// ReopenCommand puts a booking back on the market.
type ReopenCommand struct {
	JobID   string
	ActorID string
}
