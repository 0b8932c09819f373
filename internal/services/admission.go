package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clubevents/internal/admission"
	"clubevents/internal/domain"
)

// AdmissionOptions tunes the admission service.
type AdmissionOptions struct {
	// Timeout bounds each operation including retries.
	Timeout time.Duration
	// MaxRetries is how many times an attempt is repeated after a concurrency conflict.
	MaxRetries int
	// RetryBackoff is the first wait between attempts; it doubles on every retry.
	RetryBackoff time.Duration
	// PromoteOnCancel re-runs allocation for the waitlist when a seat is released.
	PromoteOnCancel bool
	// Now is the clock used as the reference instant. Defaults to time.Now.
	Now func() time.Time
}

type admissionService struct {
	store        domain.AdmissionStore
	events       domain.EventReader
	participants domain.ParticipantRepository
	allocator    admission.Allocator
	notifier     domain.AdmissionNotifier
	logger       *slog.Logger
	opts         AdmissionOptions
}

// NewAdmissionService returns an AdmissionService. events and participants serve reads that
// need no critical section; every allocation decision runs through store. notifier may be nil.
func NewAdmissionService(
	store domain.AdmissionStore,
	events domain.EventReader,
	participants domain.ParticipantRepository,
	allocator admission.Allocator,
	notifier domain.AdmissionNotifier,
	logger *slog.Logger,
	opts AdmissionOptions,
) domain.AdmissionService {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &admissionService{
		store:        store,
		events:       events,
		participants: participants,
		allocator:    allocator,
		notifier:     notifier,
		logger:       logger,
		opts:         opts,
	}
}

func (s *admissionService) Apply(ctx context.Context, eventID, userID string, parking bool) (*domain.Participant, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if strings.TrimSpace(userID) == "" {
		return nil, false, fmt.Errorf("%w: user is required", domain.ErrInvalidInput)
	}

	var (
		event   *domain.Event
		result  *domain.Participant
		created bool
		changed bool
	)
	err := s.withRetry(ctx, "apply", func() error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.AdmissionTx) error {
			ev, err := loadEvent(ctx, tx.Events, eventID)
			if err != nil {
				return err
			}
			now := s.opts.Now()

			existing, err := tx.Participants.GetActiveByEventAndUser(ctx, eventID, userID)
			switch {
			case err == nil:
				p, diff, err := s.reevaluate(ctx, tx, ev, existing, parking, now)
				if err != nil {
					return err
				}
				event, result, created, changed = ev, p, false, diff
				return nil
			case !errors.Is(err, domain.ErrNotFound):
				return fmt.Errorf("load participation: %w", err)
			}

			active, err := tx.Participants.ListActive(ctx, eventID, "")
			if err != nil {
				return fmt.Errorf("list active participants: %w", err)
			}
			p := domain.NewParticipant(eventID, userID, s.allocator.Decide(ev, active, parking, now), parking, now)
			if err := tx.Participants.Insert(ctx, p); err != nil {
				return fmt.Errorf("insert participant: %w", err)
			}
			event, result, created, changed = ev, p, true, true
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}

	s.logDecision("apply", result)
	if changed {
		s.notify(ctx, event, result)
	}
	return result, created, nil
}

// Reapply recomputes the participation against the current snapshot. An empty userID skips the
// ownership check.
func (s *admissionService) Reapply(ctx context.Context, participantID, userID string, parking bool) (*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	eventID, err := s.eventOf(ctx, participantID)
	if err != nil {
		return nil, err
	}

	var (
		event   *domain.Event
		result  *domain.Participant
		changed bool
	)
	err = s.withRetry(ctx, "reapply", func() error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.AdmissionTx) error {
			p, err := loadOwned(ctx, tx.Participants, participantID, eventID, userID)
			if err != nil {
				return err
			}
			if !p.Status.IsActive() {
				return fmt.Errorf("%w: participation is %s", domain.ErrInvalidTransition, p.Status)
			}
			ev, err := loadEvent(ctx, tx.Events, eventID)
			if err != nil {
				return err
			}
			updated, diff, err := s.reevaluate(ctx, tx, ev, p, parking, s.opts.Now())
			if err != nil {
				return err
			}
			event, result, changed = ev, updated, diff
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logDecision("reapply", result)
	if changed {
		s.notify(ctx, event, result)
	}
	return result, nil
}

func (s *admissionService) Cancel(ctx context.Context, participantID, userID string) (*domain.Participant, error) {
	return s.terminate(ctx, "cancel", participantID, userID, domain.StatusCanceled)
}

func (s *admissionService) Invalidate(ctx context.Context, participantID string) (*domain.Participant, error) {
	return s.terminate(ctx, "invalidate", participantID, "", domain.StatusInvalid)
}

func (s *admissionService) terminate(ctx context.Context, op, participantID, userID string, next domain.ParticipantStatus) (*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	eventID, err := s.eventOf(ctx, participantID)
	if err != nil {
		return nil, err
	}

	var (
		event    *domain.Event
		result   *domain.Participant
		promoted []*domain.Participant
	)
	err = s.withRetry(ctx, op, func() error {
		promoted = nil
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.AdmissionTx) error {
			p, err := loadOwned(ctx, tx.Participants, participantID, eventID, userID)
			if err != nil {
				return err
			}
			if !p.Status.CanTransitionTo(next) {
				return fmt.Errorf("%w: participation is already %s", domain.ErrInvalidTransition, p.Status)
			}
			ev, err := tx.Events.GetByID(ctx, eventID)
			if err != nil {
				return fmt.Errorf("load event: %w", err)
			}
			if err := tx.Participants.UpdateStatusAndParking(ctx, p.ID, next, nil); err != nil {
				return fmt.Errorf("update participant: %w", err)
			}
			p.Status = next
			p.Parking = nil
			event, result = ev, p

			if !s.opts.PromoteOnCancel || len(ev.Validate()) > 0 {
				return nil
			}
			promoted, err = s.rebalance(ctx, tx, ev, s.opts.Now())
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.logDecision(op, result)
	s.notify(ctx, event, result)
	for _, p := range promoted {
		s.logDecision("promote", p)
		s.notify(ctx, event, p)
	}
	return result, nil
}

func (s *admissionService) Reallocate(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	var (
		event   *domain.Event
		changed []*domain.Participant
	)
	err := s.withRetry(ctx, "reallocate", func() error {
		return s.store.WithinEvent(ctx, eventID, func(ctx context.Context, tx domain.AdmissionTx) error {
			ev, err := loadEvent(ctx, tx.Events, eventID)
			if err != nil {
				return err
			}
			ps, err := s.rebalance(ctx, tx, ev, s.opts.Now())
			if err != nil {
				return err
			}
			event, changed = ev, ps
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("waitlist reallocated", "event_id", eventID, "changed", len(changed))
	for _, p := range changed {
		s.logDecision("promote", p)
		s.notify(ctx, event, p)
	}
	return changed, nil
}

func (s *admissionService) WaitlistPositionFor(ctx context.Context, eventID, participantID string) (int, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return 0, false, err
	}
	pending, err := s.participants.ListPending(ctx, eventID)
	if err != nil {
		return 0, false, fmt.Errorf("list pending participants: %w", err)
	}
	pos, ok := admission.WaitlistPosition(pending, participantID)
	return pos, ok, nil
}

func (s *admissionService) ListWaitlist(ctx context.Context, eventID string, page domain.PaginationParams) ([]*domain.WaitlistEntry, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, 0, err
	}
	pending, err := s.participants.ListPending(ctx, eventID)
	if err != nil {
		return nil, 0, fmt.Errorf("list pending participants: %w", err)
	}
	entries := admission.Waitlist(pending)
	start, end := page.Bounds(len(entries))
	return entries[start:end], len(entries), nil
}

func (s *admissionService) Summary(ctx context.Context, eventID string) (*domain.EventSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	active, err := s.participants.ListActive(ctx, eventID, "")
	if err != nil {
		return nil, fmt.Errorf("list active participants: %w", err)
	}

	sum := &domain.EventSummary{
		EventID:         ev.ID,
		SeatCapacity:    ev.Seats(),
		ParkingCapacity: ev.ParkingSlots(),
		LotteryClosed:   s.allocator.Phase.IsLotteryClosed(ev.Date, s.opts.Now()),
		LotteryDeadline: s.allocator.Phase.Deadline(ev.Date),
	}
	for _, p := range active {
		switch p.Status {
		case domain.StatusConfirmed:
			sum.ConfirmedCount++
			if p.HasParking() {
				sum.ParkingCount++
			}
		case domain.StatusPending:
			sum.PendingCount++
		}
	}
	return sum, nil
}

// reevaluate recomputes p from scratch against the other active participants and writes the
// outcome when it differs. The returned bool reports whether anything changed.
func (s *admissionService) reevaluate(ctx context.Context, tx domain.AdmissionTx, ev *domain.Event, p *domain.Participant, parking bool, now time.Time) (*domain.Participant, bool, error) {
	active, err := tx.Participants.ListActive(ctx, ev.ID, p.ID)
	if err != nil {
		return nil, false, fmt.Errorf("list active participants: %w", err)
	}
	d := s.allocator.Decide(ev, active, parking, now)

	changed := false
	if p.ParkingRequested != parking {
		if err := tx.Participants.UpdateParkingRequested(ctx, p.ID, parking); err != nil {
			return nil, false, fmt.Errorf("update parking request: %w", err)
		}
		p.ParkingRequested = parking
		changed = true
	}
	if !d.Matches(p) {
		if err := tx.Participants.UpdateStatusAndParking(ctx, p.ID, d.Status, d.Parking); err != nil {
			return nil, false, fmt.Errorf("update participant: %w", err)
		}
		p.Status = d.Status
		p.Parking = d.Parking
		changed = true
	}
	if changed {
		p.UpdatedAt = now
	}
	return p, changed, nil
}

// rebalance applies the allocator's waitlist pass and returns the updated participants.
func (s *admissionService) rebalance(ctx context.Context, tx domain.AdmissionTx, ev *domain.Event, now time.Time) ([]*domain.Participant, error) {
	active, err := tx.Participants.ListActive(ctx, ev.ID, "")
	if err != nil {
		return nil, fmt.Errorf("list active participants: %w", err)
	}
	changes := s.allocator.Rebalance(ev, active, now)
	out := make([]*domain.Participant, 0, len(changes))
	for _, c := range changes {
		if err := tx.Participants.UpdateStatusAndParking(ctx, c.Participant.ID, c.Decision.Status, c.Decision.Parking); err != nil {
			return nil, fmt.Errorf("update participant: %w", err)
		}
		c.Participant.UpdatedAt = now
		out = append(out, c.Participant)
	}
	return out, nil
}

// withRetry repeats fn while it fails with a concurrency conflict, doubling the wait each time.
func (s *admissionService) withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := s.opts.RetryBackoff
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) || attempt >= s.opts.MaxRetries {
			return err
		}
		s.logger.Warn("admission conflict, retrying", "op", op, "attempt", attempt+1, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
		backoff *= 2
	}
}

// eventOf resolves the event a participation belongs to, outside any critical section.
func (s *admissionService) eventOf(ctx context.Context, participantID string) (string, error) {
	p, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		return "", err
	}
	return p.EventID, nil
}

func (s *admissionService) notify(ctx context.Context, event *domain.Event, p *domain.Participant) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.Timeout)
	defer cancel()
	if err := s.notifier.NotifyAdmission(ctx, event, p); err != nil {
		s.logger.Error("admission notification failed", "event_id", p.EventID, "participant_id", p.ID, "error", err)
	}
}

func (s *admissionService) logDecision(op string, p *domain.Participant) {
	s.logger.Info("admission decided",
		"op", op,
		"event_id", p.EventID,
		"participant_id", p.ID,
		"status", p.Status,
		"parking", p.ParkingOutcome(),
	)
}

// loadEvent reads the event and rejects one that cannot be allocated against.
func loadEvent(ctx context.Context, events domain.EventReader, id string) (*domain.Event, error) {
	ev, err := events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if errs := ev.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(errs, "; "))
	}
	return ev, nil
}

// loadOwned re-reads the participation inside the section and checks it still belongs to the
// locked event and, when userID is set, to that user.
func loadOwned(ctx context.Context, participants domain.ParticipantRepository, id, eventID, userID string) (*domain.Participant, error) {
	p, err := participants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	if userID != "" && p.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return p, nil
}
