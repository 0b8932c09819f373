package domain

import (
	"context"
	"fmt"
	"time"
)

// ParticipantStatus is the admission state of a participation.
type ParticipantStatus string

const (
	// StatusPending is undecided before the lottery deadline and waitlisted after it.
	StatusPending ParticipantStatus = "pending"
	// StatusConfirmed holds a seat.
	StatusConfirmed ParticipantStatus = "confirmed"
	// StatusCanceled is terminal; set by the participant.
	StatusCanceled ParticipantStatus = "canceled"
	// StatusInvalid is terminal; set by an administrator.
	StatusInvalid ParticipantStatus = "invalid"
)

// ParseParticipantStatus converts a stored value into a ParticipantStatus.
func ParseParticipantStatus(s string) (ParticipantStatus, error) {
	switch st := ParticipantStatus(s); st {
	case StatusPending, StatusConfirmed, StatusCanceled, StatusInvalid:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown participant status %q", ErrInvalidInput, s)
}

// IsActive reports whether the status counts towards capacity and the waitlist.
func (s ParticipantStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusConfirmed:
		return true
	case StatusCanceled, StatusInvalid:
		return false
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Active participations may be re-evaluated in either direction between pending and
// confirmed; canceled and invalid are terminal.
func (s ParticipantStatus) CanTransitionTo(next ParticipantStatus) bool {
	switch s {
	case StatusPending, StatusConfirmed:
		switch next {
		case StatusPending, StatusConfirmed, StatusCanceled, StatusInvalid:
			return true
		}
		return false
	case StatusCanceled, StatusInvalid:
		return false
	}
	return false
}

// Participant is a user's application to an event.
// swagger:model Participant
type Participant struct {
	ID      string            `json:"id"`
	EventID string            `json:"event_id"`
	UserID  string            `json:"user_id"`
	Status  ParticipantStatus `json:"status"`
	// Parking is nil when parking was not requested or is still undecided,
	// true when a slot is held and false when the request is waitlisted.
	Parking          *bool     `json:"parking"`
	ParkingRequested bool      `json:"parking_requested"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewParticipant returns a new Participant with a computed decision. ID is set by the repository on insert.
func NewParticipant(eventID, userID string, decision AdmissionDecision, parkingRequested bool, now time.Time) *Participant {
	return &Participant{
		EventID:          eventID,
		UserID:           userID,
		Status:           decision.Status,
		Parking:          decision.Parking,
		ParkingRequested: parkingRequested,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// HasParking reports whether the participant currently holds a parking slot.
func (p *Participant) HasParking() bool {
	return p.Parking != nil && *p.Parking
}

// ParkingOutcome describes the parking decision: "granted", "waitlisted" or "" when
// parking was not requested or is still undecided.
func (p *Participant) ParkingOutcome() string {
	switch {
	case p.Parking == nil:
		return ""
	case *p.Parking:
		return "granted"
	}
	return "waitlisted"
}

// Clone returns a copy that does not share the Parking pointer.
func (p *Participant) Clone() *Participant {
	c := *p
	if p.Parking != nil {
		v := *p.Parking
		c.Parking = &v
	}
	return &c
}

// ParticipantRepository defines storage operations for participants.
type ParticipantRepository interface {
	GetByID(ctx context.Context, id string) (*Participant, error)
	// GetActiveByEventAndUser returns the user's pending or confirmed participation, or ErrNotFound.
	GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*Participant, error)
	// ListActive returns pending and confirmed participants of the event, skipping excludeID when non-empty.
	ListActive(ctx context.Context, eventID, excludeID string) ([]*Participant, error)
	// ListPending returns pending participants ordered by created_at, id.
	ListPending(ctx context.Context, eventID string) ([]*Participant, error)
	Insert(ctx context.Context, p *Participant) error
	UpdateStatusAndParking(ctx context.Context, id string, status ParticipantStatus, parking *bool) error
	UpdateParkingRequested(ctx context.Context, id string, requested bool) error
}
