package models

import (
	"fmt"
	"time"
)

// CalendarItemKind discriminates what a calendar entry was built from.
type CalendarItemKind string

const (
	CalendarKindInquiry  CalendarItemKind = "inquiry"
	CalendarKindEvent    CalendarItemKind = "event"
	CalendarKindExternal CalendarItemKind = "external"
)

// CalendarItem is the closed union rendered on the calendar view: a pending
// inquiry, a booked event, or an entry pulled from the user's Google
// Calendar. Use the constructors; Kind is never set by hand.
type CalendarItem struct {
	Kind     CalendarItemKind `json:"kind"`
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Date     time.Time        `json:"date"`
	Status   string           `json:"status,omitempty"`
	Progress float64          `json:"progress,omitempty"`
}

// CalendarItemFromInquiry builds a calendar entry for a pending inquiry.
func CalendarItemFromInquiry(inq *Inquiry) CalendarItem {
	return CalendarItem{
		Kind:     CalendarKindInquiry,
		ID:       fmt.Sprintf("inquiry-%d", inq.ID),
		Title:    fmt.Sprintf("%s - %s (inquiry)", inq.Fraternity, inq.School),
		Date:     inq.InquiryDate,
		Progress: inq.Progress,
	}
}

// CalendarItemFromEvent builds a calendar entry for a booked event.
func CalendarItemFromEvent(ev *Event) CalendarItem {
	return CalendarItem{
		Kind:     CalendarKindEvent,
		ID:       fmt.Sprintf("event-%d", ev.ID),
		Title:    fmt.Sprintf("%s - %s", ev.Fraternity, ev.School),
		Date:     ev.EventDate,
		Status:   ev.Status,
		Progress: ev.Progress,
	}
}

// CalendarItemFromExternal builds a calendar entry for a Google Calendar
// event that did not originate in the CRM.
func CalendarItemFromExternal(id, summary string, start time.Time) CalendarItem {
	return CalendarItem{
		Kind:  CalendarKindExternal,
		ID:    "google-" + id,
		Title: summary,
		Date:  start,
	}
}
