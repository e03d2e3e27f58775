// Package match decides which translators are eligible for a booking and how
// notification fan-out is partitioned. Everything here is pure: no I/O, no
// clock reads.
package match

import (
	"github.com/tolkline/booking-be/internal/booking/domain"
)

// Ineligibility reasons reported by Check.
const (
	ReasonJobType       = "job_type_mismatch"
	ReasonLanguage      = "language_not_spoken"
	ReasonGender        = "gender_mismatch"
	ReasonCertification = "certification_level"
	ReasonBlacklist     = "blacklisted"
	ReasonTown          = "town_mismatch"
)

// IsEligible reports whether the translator may accept the job.
func IsEligible(job *domain.Job, t *domain.Translator) bool {
	ok, _ := Check(job, t)
	return ok
}

// Check evaluates the eligibility rules in order and returns the first failed
// rule. Notification opt-outs are not eligibility: an opted-out translator
// can still accept, they just don't get pushed (see Partition).
func Check(job *domain.Job, t *domain.Translator) (bool, string) {
	if t.Type.JobTypeFor() != job.JobType {
		return false, ReasonJobType
	}

	if !speaks(t, job.FromLanguageID) {
		return false, ReasonLanguage
	}

	if job.Gender != domain.GenderAny && t.Gender != job.Gender {
		return false, ReasonGender
	}

	if !levelsIntersect(t.Levels, domain.EligibleLevels(job.Certified)) {
		return false, ReasonCertification
	}

	if t.BlacklistedFor(job.CustomerID) {
		return false, ReasonBlacklist
	}

	// Physical-only bookings need a translator in the customer's town; as
	// soon as phone fallback is allowed, town is irrelevant.
	if job.PhysicalOnly() && t.Town != job.Town {
		return false, ReasonTown
	}

	return true, ""
}

func speaks(t *domain.Translator, languageID string) bool {
	for _, l := range t.Languages {
		if l == languageID {
			return true
		}
	}
	return false
}

func levelsIntersect(have []domain.Level, want []domain.Level) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// Batch is one notification fan-out, split into recipients pushed right away
// and recipients whose push is deferred to the next business instant.
type Batch struct {
	Now     []domain.Translator
	Delayed []domain.Translator
}

// Empty reports whether the batch has no recipients at all.
func (b Batch) Empty() bool {
	return len(b.Now) == 0 && len(b.Delayed) == 0
}

// Partition filters candidates down to the translators that should be
// notified about the job and splits them by delivery timing. night says
// whether it is currently night hours (caller reads the calendar).
func Partition(job *domain.Job, candidates []domain.Translator, night bool) Batch {
	var batch Batch
	for i := range candidates {
		t := candidates[i]
		if !IsEligible(job, &t) {
			continue
		}
		if t.NotGetNotification {
			continue
		}
		if job.Immediate && t.NotGetEmergency {
			continue
		}
		if night && t.NotGetNighttime {
			batch.Delayed = append(batch.Delayed, t)
		} else {
			batch.Now = append(batch.Now, t)
		}
	}
	return batch
}
