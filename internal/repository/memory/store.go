// Package memory is an in-process implementation of the repositories and the admission
// store. It backs STORAGE=memory and the service tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"clubevents/internal/domain"
)

// Store keeps events, participants and users in maps. Allocation decisions for one
// event are serialized by a per-event lock; different events proceed in parallel.
type Store struct {
	mu           sync.RWMutex
	events       map[string]*domain.Event
	participants map[string]*domain.Participant
	users        map[string]*domain.User

	eventLocks *keyedMutex
	now        func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		events:       make(map[string]*domain.Event),
		participants: make(map[string]*domain.Participant),
		users:        make(map[string]*domain.User),
		eventLocks:   newKeyedMutex(),
		now:          time.Now,
	}
}

func (s *Store) Events() domain.EventRepository {
	return &eventRepository{s: s}
}

func (s *Store) Participants() domain.ParticipantRepository {
	return &participantRepository{s: s}
}

func (s *Store) Users() domain.UserRepository {
	return &userRepository{s: s}
}

// WithinEvent runs fn while holding the event's lock. Participant writes made through tx are
// staged and applied together when fn returns nil; on error nothing is applied.
func (s *Store) WithinEvent(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.AdmissionTx) error) error {
	unlock, err := s.eventLocks.Lock(ctx, eventID)
	if err != nil {
		return fmt.Errorf("lock event: %w", err)
	}
	defer unlock()

	if _, err := s.Events().GetByID(ctx, eventID); err != nil {
		return err
	}

	staged := &participantRepository{s: s, staged: make(map[string]*domain.Participant)}
	if err := fn(ctx, domain.AdmissionTx{Events: s.Events(), Participants: staged}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range staged.staged {
		s.participants[id] = p
	}
	return nil
}

type eventRepository struct {
	s *Store
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.s.events[e.ID] = cloneEvent(e)
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *eventRepository) UpdateCapacity(ctx context.Context, id string, seatCapacity, parkingCapacity *int) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.SeatCapacity = copyInt(seatCapacity)
	e.ParkingCapacity = copyInt(parkingCapacity)
	e.UpdatedAt = r.s.now()
	return cloneEvent(e), nil
}

type participantRepository struct {
	s *Store
	// staged holds writes of an open WithinEvent section; nil outside one.
	staged map[string]*domain.Participant
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	if p, ok := r.staged[id]; ok {
		return p.Clone(), nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.participants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *participantRepository) GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	for _, p := range r.snapshot(eventID) {
		if p.UserID == userID && p.Status.IsActive() {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *participantRepository) ListActive(ctx context.Context, eventID, excludeID string) ([]*domain.Participant, error) {
	out := make([]*domain.Participant, 0)
	for _, p := range r.snapshot(eventID) {
		if p.Status.IsActive() && p.ID != excludeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *participantRepository) ListPending(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	out := make([]*domain.Participant, 0)
	for _, p := range r.snapshot(eventID) {
		if p.Status == domain.StatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *participantRepository) Insert(ctx context.Context, p *domain.Participant) error {
	if p.Status.IsActive() {
		if _, err := r.GetActiveByEventAndUser(ctx, p.EventID, p.UserID); err == nil {
			return fmt.Errorf("%w: user already holds an active participation", domain.ErrConcurrencyConflict)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.s.now()
		p.UpdatedAt = p.CreatedAt
	}
	r.write(p.Clone())
	return nil
}

func (r *participantRepository) UpdateStatusAndParking(ctx context.Context, id string, status domain.ParticipantStatus, parking *bool) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Status = status
	p.Parking = nil
	if parking != nil {
		v := *parking
		p.Parking = &v
	}
	p.UpdatedAt = r.s.now()
	r.write(p)
	return nil
}

func (r *participantRepository) UpdateParkingRequested(ctx context.Context, id string, requested bool) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.ParkingRequested = requested
	p.UpdatedAt = r.s.now()
	r.write(p)
	return nil
}

func (r *participantRepository) write(p *domain.Participant) {
	if r.staged != nil {
		r.staged[p.ID] = p
		return
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.participants[p.ID] = p
}

// snapshot returns copies of the event's participants with staged writes applied,
// ordered by application time.
func (r *participantRepository) snapshot(eventID string) []*domain.Participant {
	r.s.mu.RLock()
	byID := make(map[string]*domain.Participant)
	for id, p := range r.s.participants {
		if p.EventID == eventID {
			byID[id] = p.Clone()
		}
	}
	r.s.mu.RUnlock()
	for id, p := range r.staged {
		if p.EventID == eventID {
			byID[id] = p.Clone()
		}
	}

	out := make([]*domain.Participant, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *domain.Participant) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

type userRepository struct {
	s *Store
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *userRepository) Upsert(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now().UTC()
	stored, ok := r.s.users[u.ID]
	if !ok {
		stored = &domain.User{ID: u.ID, CreatedAt: now}
		r.s.users[u.ID] = stored
	}
	if u.Email != "" {
		stored.Email = u.Email
	}
	if u.Name != "" {
		stored.Name = u.Name
	}
	stored.UpdatedAt = now
	*u = *stored
	return nil
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	c.SeatCapacity = copyInt(e.SeatCapacity)
	c.ParkingCapacity = copyInt(e.ParkingCapacity)
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
