// Package clock implements the business-hours calendar used when searching
// for free slots.
//
// The working calendar is Monday through Friday, OpenHour (inclusive) to
// CloseHour (exclusive). Weekday and hour are read in the Calendar's
// Location; instants are never converted, only inspected and moved.
//
// Two operations govern the calendar:
//
//	IsBusinessInstant(t): weekday in Mon..Fri and OpenHour <= hour < CloseHour.
//	SnapForward(t):       move t to the next instant inside business hours,
//	                      or leave it alone if it already is one.
//
// SnapForward is idempotent: SnapForward(SnapForward(t)) == SnapForward(t).
package clock

import "time"

// Calendar is a business-hours definition. The zero value is not usable;
// start from Default or New.
type Calendar struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
}

// Default is the 08:00-17:00 Monday-Friday calendar in UTC.
var Default = Calendar{Location: time.UTC, OpenHour: 8, CloseHour: 17}

// New returns the default hours evaluated in loc. A nil loc means UTC.
func New(loc *time.Location) Calendar {
	c := Default
	if loc != nil {
		c.Location = loc
	}
	return c
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// IsBusinessInstant reports whether t falls inside business hours.
func (c Calendar) IsBusinessInstant(t time.Time) bool {
	lt := t.In(c.loc())
	if isWeekend(lt.Weekday()) {
		return false
	}
	h := lt.Hour()
	return h >= c.OpenHour && h < c.CloseHour
}

// SnapForward moves t to the next business instant:
//
//	Saturday/Sunday        -> next Monday at OpenHour:00:00
//	weekday before open    -> same day at OpenHour:00:00
//	weekday at/after close -> next day at OpenHour:00:00, then the weekend
//	                          rule once (Friday evening lands on Monday)
//
// Instants already inside business hours are returned unchanged.
func (c Calendar) SnapForward(t time.Time) time.Time {
	lt := t.In(c.loc())
	switch wd := lt.Weekday(); {
	case wd == time.Sunday:
		return c.openOn(lt, 1)
	case wd == time.Saturday:
		return c.openOn(lt, 2)
	case lt.Hour() < c.OpenHour:
		return c.openOn(lt, 0)
	case lt.Hour() >= c.CloseHour:
		next := c.openOn(lt, 1)
		switch next.Weekday() {
		case time.Saturday:
			next = c.openOn(next, 2)
		case time.Sunday:
			next = c.openOn(next, 1)
		}
		return next
	}
	return t
}

// openOn returns OpenHour:00:00 on the day addDays after t's calendar day.
func (c Calendar) openOn(t time.Time, addDays int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+addDays, c.OpenHour, 0, 0, 0, c.loc())
}

func isWeekend(wd time.Weekday) bool {
	return wd == time.Saturday || wd == time.Sunday
}
