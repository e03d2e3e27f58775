package domain

import "time"

// Gender is a translator gender or a job's gender requirement.
// The empty value on a job means no preference.
type Gender string

const (
	GenderAny    Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Certification is a job's certification requirement.
type Certification string

const (
	CertNone         Certification = ""
	CertNormal       Certification = "normal"
	CertCertified    Certification = "yes"
	CertLaw          Certification = "law"
	CertHealth       Certification = "health"
	CertBoth         Certification = "both"
	CertNormalLaw    Certification = "n_law"
	CertNormalHealth Certification = "n_health"
)

// JobType classifies who pays for the booking.
type JobType string

const (
	JobTypePaid   JobType = "paid"
	JobTypeRWS    JobType = "rws"
	JobTypeUnpaid JobType = "unpaid"
)

// JobTypeForConsumer maps a customer's consumer type to the job type of the
// bookings it creates. Unknown consumer types default to unpaid.
func JobTypeForConsumer(consumerType string) JobType {
	switch consumerType {
	case "paid":
		return JobTypePaid
	case "rwsconsumer":
		return JobTypeRWS
	default:
		return JobTypeUnpaid
	}
}

// TranslatorType classifies a translator and implies the job types they serve.
type TranslatorType string

const (
	TranslatorProfessional TranslatorType = "professional"
	TranslatorRWS          TranslatorType = "rwstranslator"
	TranslatorVolunteer    TranslatorType = "volunteer"
)

// JobTypeFor returns the job type a translator of this type is eligible for.
// Unknown types fall back to unpaid.
func (t TranslatorType) JobTypeFor() JobType {
	switch t {
	case TranslatorProfessional:
		return JobTypePaid
	case TranslatorRWS:
		return JobTypeRWS
	case TranslatorVolunteer:
		return JobTypeUnpaid
	}
	return JobTypeUnpaid
}

// Level is a translator certification level tag.
type Level string

const (
	LevelCertified       Level = "certified"
	LevelCertifiedLaw    Level = "certified_law"
	LevelCertifiedHealth Level = "certified_health"
	LevelLayman          Level = "layman"
	LevelReadCourses     Level = "read_courses"
)

// EligibleLevels returns the translator levels that satisfy a certification
// requirement.
func EligibleLevels(c Certification) []Level {
	switch c {
	case CertNone:
		return []Level{LevelCertified, LevelCertifiedLaw, LevelCertifiedHealth, LevelLayman, LevelReadCourses}
	case CertNormal:
		return []Level{LevelLayman, LevelReadCourses}
	case CertCertified:
		return []Level{LevelCertified, LevelCertifiedLaw, LevelCertifiedHealth}
	case CertBoth:
		return []Level{LevelCertified, LevelCertifiedLaw, LevelCertifiedHealth, LevelLayman, LevelReadCourses}
	case CertLaw, CertNormalLaw:
		return []Level{LevelCertifiedLaw}
	case CertHealth, CertNormalHealth:
		return []Level{LevelCertifiedHealth}
	}
	return nil
}

// Job is a single interpretation booking.
type Job struct {
	ID             string
	CustomerID     string
	CustomerEmail  string
	FromLanguageID string
	Gender         Gender        // requirement; empty means no preference
	Certified      Certification // requirement
	JobType        JobType
	Immediate      bool
	Due            time.Time
	Duration       int // minutes
	Status         Status

	CustomerPhoneAllowed    bool
	CustomerPhysicalAllowed bool
	Town                    string

	AdminComments string
	Reference     string
	SessionTime   string // hh:mm:ss, set on completion

	WithdrawAt   *time.Time
	EndedAt      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	WillExpireAt time.Time

	// ReminderEmailsSent is cleared when a timed-out booking goes back to
	// pending so the reminder cycle restarts.
	ReminderEmailsSent bool
}

// PhysicalOnly reports whether the booking requires in-person attendance with
// no phone fallback, in which case translators must be in the customer's town.
func (j *Job) PhysicalOnly() bool {
	return j.CustomerPhysicalAllowed && !j.CustomerPhoneAllowed
}

// Translator is the read-only profile the matching engine sees.
type Translator struct {
	ID     string
	Email  string
	Mobile string
	Type   TranslatorType
	Gender Gender
	Town   string

	Languages []string
	Levels    []Level

	NotGetEmergency    bool
	NotGetNighttime    bool
	NotGetNotification bool

	// BlacklistedBy holds IDs of customers that blocked this translator.
	BlacklistedBy []string
}

// BlacklistedFor reports whether the translator is blocked by the customer.
func (t *Translator) BlacklistedFor(customerID string) bool {
	for _, id := range t.BlacklistedBy {
		if id == customerID {
			return true
		}
	}
	return false
}

// Assignment binds a job to the translator serving it. History rows (canceled
// or completed) are kept forever; at most one row per job is current.
type Assignment struct {
	ID           string
	JobID        string
	TranslatorID string
	AssignedAt   time.Time
	CanceledAt   *time.Time
	CompletedAt  *time.Time
	CompletedBy  string
}

// Current reports whether this assignment still binds the translator.
func (a *Assignment) Current() bool {
	return a.CanceledAt == nil && a.CompletedAt == nil
}

// ReleaseCause says why a current assignment is released.
type ReleaseCause string

const (
	ReleaseWithdrawn ReleaseCause = "withdrawn"
	ReleaseTimedOut  ReleaseCause = "timedout"
	ReleaseCompleted ReleaseCause = "completed"
)
