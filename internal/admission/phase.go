// Package admission holds the pure allocation engine: lottery phase resolution,
// seat and parking allocation, and waitlist ordering. Nothing here performs I/O;
// callers provide a consistent snapshot of the event and its active participants.
package admission

import "time"

// PhaseResolver decides whether an event's lottery deadline has passed. The deadline is
// the last millisecond of the event's calendar day in Location.
type PhaseResolver struct {
	Location *time.Location
}

// NewPhaseResolver returns a resolver for the given application timezone. A nil location means UTC.
func NewPhaseResolver(loc *time.Location) PhaseResolver {
	if loc == nil {
		loc = time.UTC
	}
	return PhaseResolver{Location: loc}
}

// Deadline returns 23:59:59.999 of eventDate's calendar day in the resolver's location.
// The year, month and day of eventDate are taken as recorded, regardless of its zone.
func (r PhaseResolver) Deadline(eventDate time.Time) time.Time {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := eventDate.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// IsLotteryClosed reports whether reference is strictly after the deadline.
// The deadline instant itself is still open.
func (r PhaseResolver) IsLotteryClosed(eventDate, reference time.Time) bool {
	return reference.After(r.Deadline(eventDate))
}
