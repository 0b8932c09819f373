package domain

import (
	"context"
	"time"
)

// AdmissionDecision is the computed seat and parking outcome for one application.
type AdmissionDecision struct {
	Status  ParticipantStatus `json:"status"`
	Parking *bool             `json:"parking"`
}

// Matches reports whether p already carries this decision.
func (d AdmissionDecision) Matches(p *Participant) bool {
	if p.Status != d.Status {
		return false
	}
	if p.Parking == nil || d.Parking == nil {
		return p.Parking == nil && d.Parking == nil
	}
	return *p.Parking == *d.Parking
}

// AdmissionTx exposes the repositories bound to one per-event critical section.
type AdmissionTx struct {
	Events       EventReader
	Participants ParticipantRepository
}

// AdmissionStore serializes allocation decisions per event. Every read of the active
// participant set performed through tx is consistent with the writes that follow it;
// the section either commits as a whole or not at all.
type AdmissionStore interface {
	WithinEvent(ctx context.Context, eventID string, fn func(ctx context.Context, tx AdmissionTx) error) error
}

// AdmissionNotifier is told about committed admission outcomes.
type AdmissionNotifier interface {
	NotifyAdmission(ctx context.Context, event *Event, participant *Participant) error
}

// EventSummary is the capacity read model of an event.
// swagger:model EventSummary
type EventSummary struct {
	EventID         string    `json:"event_id"`
	SeatCapacity    int       `json:"seat_capacity"`
	ConfirmedCount  int       `json:"confirmed_count"`
	ParkingCapacity int       `json:"parking_capacity"`
	ParkingCount    int       `json:"parking_count"`
	PendingCount    int       `json:"pending_count"`
	LotteryClosed   bool      `json:"lottery_closed"`
	LotteryDeadline time.Time `json:"lottery_deadline"`
}

// WaitlistEntry is a pending participant with its 1-based waitlist position.
// swagger:model WaitlistEntry
type WaitlistEntry struct {
	Position    int          `json:"position"`
	Participant *Participant `json:"participant"`
}

// AdmissionService defines the participation operations exposed to delivery.
type AdmissionService interface {
	// Apply admits the user to the event. Returns (participant, created, err): created is false
	// when an existing active participation was re-evaluated instead.
	Apply(ctx context.Context, eventID, userID string, parking bool) (*Participant, bool, error)
	// Reapply recomputes an active participation owned by userID from scratch.
	Reapply(ctx context.Context, participantID, userID string, parking bool) (*Participant, error)
	// Cancel terminates a participation owned by userID.
	Cancel(ctx context.Context, participantID, userID string) (*Participant, error)
	// Invalidate terminates a participation administratively.
	Invalidate(ctx context.Context, participantID string) (*Participant, error)
	// WaitlistPositionFor returns the 1-based position; ok is false when the participant is not waitlisted.
	WaitlistPositionFor(ctx context.Context, eventID, participantID string) (position int, ok bool, err error)
	// ListWaitlist returns one page of the event's waitlist and the total number of pending participants.
	ListWaitlist(ctx context.Context, eventID string, page PaginationParams) ([]*WaitlistEntry, int, error)
	// Reallocate re-evaluates the event's waitlist in order, promoting into free seats and
	// parking slots, and returns the participants whose outcome changed.
	Reallocate(ctx context.Context, eventID string) ([]*Participant, error)
	Summary(ctx context.Context, eventID string) (*EventSummary, error)
}
