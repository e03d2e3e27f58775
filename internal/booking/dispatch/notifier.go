package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/tolkline/booking-be/internal/booking/domain"
)

// Notifier delivers one notify batch. Delivery is best effort: the lifecycle
// commits state first and only logs notifier failures, it never rolls back.
type Notifier interface {
	Notify(ctx context.Context, recipients []Recipient, payload Payload, delayed bool) error
}

// EventSink receives lifecycle events for external subscribers (billing,
// audit).
type EventSink interface {
	Publish(ctx context.Context, e domain.Event) error
}

// Clock supplies the current time. Injected so tests control it.
type Clock interface {
	Now() time.Time
}

// Calendar answers the night-hours questions delayed pushes depend on.
type Calendar interface {
	IsNightHours(t time.Time) bool
	NextBusinessInstant(t time.Time) time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// OfficeCalendar is a fixed-hours calendar: night runs from NightStart to
// NightEnd, business day opens at BusinessStart. Hours are local to Location.
type OfficeCalendar struct {
	NightStart    int // hour, inclusive
	NightEnd      int // hour, exclusive
	BusinessStart int // hour
	Location      *time.Location
}

// DefaultCalendar covers 22:00-06:00 nights with a 09:00 business open.
func DefaultCalendar() OfficeCalendar {
	return OfficeCalendar{NightStart: 22, NightEnd: 6, BusinessStart: 9, Location: time.Local}
}

// ParseCalendar builds a calendar from hh:mm wall-clock strings and an IANA
// timezone name. Empty fields keep the defaults.
func ParseCalendar(nightStart, nightEnd, businessStart, timezone string) (OfficeCalendar, error) {
	cal := DefaultCalendar()

	parse := func(s string, into *int) error {
		if s == "" {
			return nil
		}
		t, err := time.Parse("15:04", s)
		if err != nil {
			return fmt.Errorf("invalid wall-clock time %q: %w", s, err)
		}
		*into = t.Hour()
		return nil
	}
	if err := parse(nightStart, &cal.NightStart); err != nil {
		return cal, err
	}
	if err := parse(nightEnd, &cal.NightEnd); err != nil {
		return cal, err
	}
	if err := parse(businessStart, &cal.BusinessStart); err != nil {
		return cal, err
	}

	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return cal, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
		cal.Location = loc
	}

	return cal, nil
}

func (c OfficeCalendar) IsNightHours(t time.Time) bool {
	h := t.In(c.loc()).Hour()
	if c.NightStart > c.NightEnd {
		// Window wraps midnight.
		return h >= c.NightStart || h < c.NightEnd
	}
	return h >= c.NightStart && h < c.NightEnd
}

func (c OfficeCalendar) NextBusinessInstant(t time.Time) time.Time {
	local := t.In(c.loc())
	open := time.Date(local.Year(), local.Month(), local.Day(), c.BusinessStart, 0, 0, 0, c.loc())
	if !local.Before(open) {
		open = open.AddDate(0, 0, 1)
	}
	return open
}

func (c OfficeCalendar) loc() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.Local
}
