package domain

import "time"

// Event is a calendar-sourced community event. The ID is derived from the
// source calendar's UID ("cal-<uid>") and stays stable across re-fetches, so
// reconciliation can upsert and delete by identity.
type Event struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	Date            time.Time  `json:"date"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	Source          string     `json:"source,omitempty"`
	AttendanceLimit *int       `json:"attendanceLimit"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CalendarEvent is one parsed VEVENT from an upstream feed, before it has
// been reconciled into storage. LimitOverride carries an explicit
// "limit: N" found in the feed description; nil means the description did
// not specify one, which is distinct from a limit of zero.
type CalendarEvent struct {
	ID            string
	Title         string
	Description   string
	Location      string
	Date          time.Time
	EndDate       *time.Time
	Source        string
	LimitOverride *int
}

// RSVP records one attendee against an event. Names are a courtesy label,
// not an identity: several RSVPs may carry the same name for one event.
type RSVP struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	AttendeeName string    `json:"attendeeName"`
	Attendance   string    `json:"attendance"`
	CreatedAt    time.Time `json:"timestamp"`
}

// AttendanceYes is the only attendance status the system records. Adding an
// RSVP means "attending"; removing deletes the attending row.
const AttendanceYes = "yes"

// EventAttendance is an event joined with its aggregated attendance.
type EventAttendance struct {
	Event
	AttendingCount int      `json:"attendingCount"`
	Attendees      []string `json:"attendees"`
}
