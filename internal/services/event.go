package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clubevents/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.Name = strings.TrimSpace(event.Name)
	if event.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if errs := event.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(errs, "; "))
	}

	y, m, d := event.Date.Date()
	event.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	event.CreatedAt = s.now()
	event.UpdatedAt = event.CreatedAt

	return s.eventRepo.Create(ctx, event)
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.eventRepo.GetByID(ctx, id)
}

// UpdateCapacity replaces both capacities. Allocations already made are kept; only future
// decisions see the new values.
func (s *eventService) UpdateCapacity(ctx context.Context, id string, seatCapacity, parkingCapacity *int) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if seatCapacity != nil && *seatCapacity < 0 {
		return nil, fmt.Errorf("%w: seat_capacity must be >= 0", domain.ErrInvalidInput)
	}
	if parkingCapacity != nil && *parkingCapacity < 0 {
		return nil, fmt.Errorf("%w: parking_capacity must be >= 0", domain.ErrInvalidInput)
	}
	return s.eventRepo.UpdateCapacity(ctx, id, seatCapacity, parkingCapacity)
}
