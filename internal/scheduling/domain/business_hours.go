package domain

import "time"

// BusinessHours is the weekday window in which calls may be placed.
type BusinessHours struct {
	StartHour int
	EndHour   int
	Location  *time.Location
}

// DefaultBusinessHours returns 09:00-18:00 in the process's local zone.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{StartHour: 9, EndHour: 18, Location: time.Local}
}

func (b BusinessHours) loc() *time.Location {
	if b.Location == nil {
		return time.Local
	}
	return b.Location
}

// In converts t into the business-hours zone.
func (b BusinessHours) In(t time.Time) time.Time {
	return t.In(b.loc())
}

// Contains reports whether t's local hour is in [StartHour, EndHour).
// The weekday is not checked.
func (b BusinessHours) Contains(t time.Time) bool {
	h := b.In(t).Hour()
	return h >= b.StartHour && h < b.EndHour
}

// AtHour returns hour:00 on t's local calendar day.
func (b BusinessHours) AtHour(t time.Time, hour int) time.Time {
	local := b.In(t)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, b.loc())
}

// Opening returns the start of business hours on t's local calendar day.
func (b BusinessHours) Opening(t time.Time) time.Time {
	return b.AtHour(t, b.StartHour)
}

// Closing returns the end of business hours on t's local calendar day.
func (b BusinessHours) Closing(t time.Time) time.Time {
	return b.AtHour(t, b.EndHour)
}

// SameDay reports whether a and b fall on the same local calendar day.
func (b BusinessHours) SameDay(x, y time.Time) bool {
	lx, ly := b.In(x), b.In(y)
	return lx.Year() == ly.Year() && lx.YearDay() == ly.YearDay()
}

// NextBusinessDayOpening returns opening time on the first weekday after t's day.
func (b BusinessHours) NextBusinessDayOpening(t time.Time) time.Time {
	local := b.In(t)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, b.StartHour, 0, 0, 0, b.loc())
	return SkipWeekend(next)
}

// IsWeekend reports whether t falls on Saturday or Sunday in its own zone.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// SkipWeekend moves a Saturday or Sunday forward to the following Monday,
// keeping the wall-clock time.
func SkipWeekend(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	default:
		return t
	}
}
