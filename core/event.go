package core

import "time"

// An Event is a talk or workshop in the schedule. End may precede Start, that is not validated.
type Event struct {
	ID         int
	Owner      string // username
	Title      string
	Body       string // markdown
	Start      time.Time
	End        time.Time
	VenueID    int
	VenueTitle string // filled by joins
}

type EventDB interface {
	GetEventsAt(venueID int) ([]*Event, error)
	GetSchedule() ([]*Event, error) // ordered by start
	InsertEvent(e *Event) error     // sets e.ID
}
