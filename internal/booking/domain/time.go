package domain

import (
	"fmt"
	"time"
)

// ImmediateLeadTime is how far ahead the due time of an immediate booking is
// resolved at creation.
const ImmediateLeadTime = 5 * time.Minute

// CancelCutoff is the window before due inside which translators cannot
// cancel through self-service, and after which customer withdrawals count as
// late.
const CancelCutoff = 24 * time.Hour

// WillExpireAt computes when a pending booking stops being offered, from its
// due time and the moment it was (re)put on the market.
func WillExpireAt(due, createdAt time.Time) time.Time {
	diff := due.Sub(createdAt)
	switch {
	case diff <= 24*time.Hour:
		return createdAt.Add(90 * time.Minute)
	case diff <= 72*time.Hour:
		return createdAt.Add(16 * time.Hour)
	case diff <= 90*time.Hour:
		return due
	default:
		return due.Add(-48 * time.Hour)
	}
}

// SessionInterval formats the wall-clock delta between due and completion as
// hh:mm:ss, the form stored on the job and quoted in completion notices.
func SessionInterval(due, completed time.Time) string {
	d := completed.Sub(due)
	if d < 0 {
		d = -d
	}
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
