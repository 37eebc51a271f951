package report

import (
	"fmt"
	"time"
)

// DefaultTimezone is the local zone whose midnights bound a report day.
const DefaultTimezone = "Africa/Lubumbashi"

// Clock resolves calendar dates into UTC instant windows for one fixed
// local timezone. The conversion goes through a real time.Location, not
// a hardcoded offset.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock loads the IANA timezone and builds a Clock on the system
// time source.
func NewClock(timezone string) (*Clock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("report: load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// NewClockAt builds a Clock with an injected time source, for tests and
// replaying historical runs.
func NewClockAt(timezone string, now func() time.Time) (*Clock, error) {
	c, err := NewClock(timezone)
	if err != nil {
		return nil, err
	}
	c.now = now
	return c, nil
}

// Location exposes the clock's zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in UTC.
func (c *Clock) Now() time.Time {
	return c.now().UTC()
}

// Today returns the current calendar date in the local zone.
func (c *Clock) Today() Date {
	return DateOf(c.now(), c.loc)
}

// Yesterday returns the previous local calendar date, the default
// target for scheduled report generation.
func (c *Clock) Yesterday() Date {
	return c.Today().Prev()
}

// IsToday reports whether the date is the current local day.
func (c *Clock) IsToday(d Date) bool {
	return d == c.Today()
}

// Window converts a date into the half-open UTC range
// [local midnight, next local midnight). Events stamped exactly at the
// end instant belong to the next day's window.
func (c *Clock) Window(d Date) (start, end time.Time) {
	start = d.In(c.loc).UTC()
	end = d.Next().In(c.loc).UTC()
	return start, end
}
