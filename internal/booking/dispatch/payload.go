package dispatch

import (
	"time"

	"github.com/tolkline/booking-be/internal/booking/domain"
)

// Kind selects the wording template on the delivery side. The core never
// renders human text, it only picks the key and supplies the facts.
type Kind string

const (
	KindSuitableJob        Kind = "suitable_job"
	KindJobAccepted        Kind = "job_accepted"
	KindJobCancelled       Kind = "job_cancelled"
	KindJobExpired         Kind = "job_expired"
	KindSessionStartRemind Kind = "session_start_remind"
	KindSessionEnded       Kind = "session_ended"
	KindChangedDate        Kind = "changed_date"
	KindChangedLanguage    Kind = "changed_language"
	KindChangedTranslator  Kind = "changed_translator"
	KindSearchingReplace   Kind = "searching_replacement"
)

// Billing framings for session-ended notices: the customer copy references
// the invoice, the translator copy references payroll.
const (
	FramingInvoice = "invoice"
	FramingPayroll = "payroll"
)

// Payload carries the facts a wording template needs.
type Payload struct {
	Kind           Kind      `json:"notification_type"`
	JobID          string    `json:"job_id"`
	FromLanguageID string    `json:"from_language_id"`
	Duration       int       `json:"duration"`
	Due            time.Time `json:"due"`
	Immediate      bool      `json:"immediate"`
	Physical       bool      `json:"physical"`
	Town           string    `json:"town,omitempty"`

	SessionTime string `json:"session_time,omitempty"`
	Framing     string `json:"framing,omitempty"`

	OldDue        *time.Time `json:"old_due,omitempty"`
	OldLanguageID string     `json:"old_language_id,omitempty"`
	OldTranslator string     `json:"old_translator,omitempty"`
}

// NewPayload seeds a payload with the job facts shared by every kind.
func NewPayload(kind Kind, job *domain.Job) Payload {
	return Payload{
		Kind:           kind,
		JobID:          job.ID,
		FromLanguageID: job.FromLanguageID,
		Duration:       job.Duration,
		Due:            job.Due,
		Immediate:      job.Immediate,
		Physical:       job.PhysicalOnly(),
		Town:           job.Town,
	}
}

// Recipient is one delivery target.
type Recipient struct {
	ID     string           `json:"id"`
	Email  string           `json:"email"`
	Mobile string           `json:"mobile,omitempty"`
	Role   domain.ActorRole `json:"role"`
}

// TranslatorRecipient builds a recipient from a translator profile.
func TranslatorRecipient(t *domain.Translator) Recipient {
	return Recipient{ID: t.ID, Email: t.Email, Mobile: t.Mobile, Role: domain.RoleTranslator}
}

// CustomerRecipient builds a recipient for the job's customer.
func CustomerRecipient(job *domain.Job) Recipient {
	return Recipient{ID: job.CustomerID, Email: job.CustomerEmail, Role: domain.RoleCustomer}
}

// Message is the wire envelope published per notify batch and consumed by the
// dispatch worker.
type Message struct {
	Recipients []Recipient `json:"recipients"`
	Payload    Payload     `json:"payload"`
	Delayed    bool        `json:"delayed"`
	SendAfter  *time.Time  `json:"send_after,omitempty"`
}
