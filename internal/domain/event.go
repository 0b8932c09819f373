package domain

import (
	"context"
	"time"
)

// EventDateLayout is the wire format of an event's calendar day.
const EventDateLayout = "2006-01-02"

// Event represents a club event with a seat pool and an independent parking pool.
// swagger:model Event
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Date is the calendar day the event occurs on. Only its year, month and day are meaningful.
	Date            time.Time `json:"date"`
	SeatCapacity    *int      `json:"seat_capacity"`
	ParkingCapacity *int      `json:"parking_capacity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(name string, date time.Time, seatCapacity, parkingCapacity *int, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Name:            name,
		Date:            date,
		SeatCapacity:    seatCapacity,
		ParkingCapacity: parkingCapacity,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
}

// Seats returns the seat capacity, treating an absent value as 0.
func (e *Event) Seats() int {
	if e.SeatCapacity == nil {
		return 0
	}
	return *e.SeatCapacity
}

// ParkingSlots returns the parking capacity, treating an absent value as 0.
func (e *Event) ParkingSlots() int {
	if e.ParkingCapacity == nil {
		return 0
	}
	return *e.ParkingCapacity
}

// Validate reports whether the event can be used as an allocation input.
func (e *Event) Validate() []string {
	var errs []string
	if e.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	if e.SeatCapacity != nil && *e.SeatCapacity < 0 {
		errs = append(errs, "seat_capacity must be >= 0")
	}
	if e.ParkingCapacity != nil && *e.ParkingCapacity < 0 {
		errs = append(errs, "parking_capacity must be >= 0")
	}
	return errs
}

// EventReader loads a single event. It is the read side the admission engine depends on.
type EventReader interface {
	GetByID(ctx context.Context, id string) (*Event, error)
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	EventReader
	Create(ctx context.Context, event *Event) error
	UpdateCapacity(ctx context.Context, id string, seatCapacity, parkingCapacity *int) (*Event, error)
}

// EventService defines the event management operations exposed to delivery.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	UpdateCapacity(ctx context.Context, id string, seatCapacity, parkingCapacity *int) (*Event, error)
}
