// Package icalendar renders booked calls as an iCalendar feed.
package icalendar

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/emersion/go-ical"

	"github.com/felixgeelhaar/calltracker/internal/calls/domain"
)

const (
	// ProductID identifies exported calendars.
	ProductID = "-//calltracker//HR Calls//EN"
	// PropXEmployee carries the employee ID on every event.
	PropXEmployee = "X-CALLTRACKER-EMPLOYEE"
)

// Entry is a call with the employee details shown on the event.
type Entry struct {
	Call         *domain.Call
	EmployeeName string
	Department   string
}

// Build creates a calendar with one event per entry, ordered by start time.
// now is used as the DTSTAMP of every event.
func Build(entries []Entry, now time.Time) *ical.Calendar {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Call.ScheduledAt().Before(sorted[j].Call.ScheduledAt())
	})

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	for _, e := range sorted {
		cal.Children = append(cal.Children, toEvent(e, now).Component)
	}
	return cal
}

// Encode writes the calendar for entries to w.
func Encode(w io.Writer, entries []Entry, now time.Time) error {
	if err := ical.NewEncoder(w).Encode(Build(entries, now)); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func toEvent(e Entry, now time.Time) *ical.Event {
	c := e.Call

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, c.ID().String()+"@calltracker")
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, c.ScheduledAt().UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, c.EndsAt().UTC())
	event.Props.SetText(ical.PropSummary, "Call HR: "+e.EmployeeName)
	event.Props.SetText(ical.PropStatus, eventStatus(c.Status()))

	description := fmt.Sprintf("Dipendente: %s", e.EmployeeName)
	if e.Department != "" {
		description += "\nReparto: " + e.Department
	}
	if c.Notes() != "" {
		description += "\n\n" + c.Notes()
	}
	event.Props.SetText(ical.PropDescription, description)
	if e.Department != "" {
		event.Props.SetText(ical.PropCategories, e.Department)
	}

	employee := ical.NewProp(PropXEmployee)
	employee.Value = c.EmployeeID().String()
	event.Props.Set(employee)

	return event
}

func eventStatus(s domain.CallStatus) string {
	switch s {
	case domain.CallStatusCancelled, domain.CallStatusSuspended:
		return "CANCELLED"
	case domain.CallStatusRescheduled:
		return "TENTATIVE"
	default:
		return "CONFIRMED"
	}
}
