package domain

import "time"

// DefaultCapacity applies when an event is created without one.
const DefaultCapacity = 200

// DateLayout is the calendar date format events are stored in.
const DateLayout = "2006-01-02"

type Event struct {
	ID          string
	Title       string
	Description string
	Date        string // YYYY-MM-DD
	Time        string // free-form, e.g. "9:00 AM - 5:00 PM"
	Venue       string
	Image       string // absolute URL or /media/{id}
	OrganiserID string
	MaxCapacity int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Read-only, filled in by the store.
	OrganiserName   string
	OrganiserEmail  string
	RegisteredCount int
}

// Attendee is one entry of an event roster as shown to the organiser.
type Attendee struct {
	ID    string
	Name  string
	Email string
}

// EventDetail is an event together with its roster.
type EventDetail struct {
	Event
	Attendees []Attendee
}

// IsFull reports whether the roster has reached capacity.
func (e Event) IsFull() bool { return e.RegisteredCount >= e.MaxCapacity }

// SpotsLeft never goes negative, even after a soft-mode overshoot.
func (e Event) SpotsLeft() int { return max(e.MaxCapacity-e.RegisteredCount, 0) }
