package admission

import (
	"time"

	"clubevents/internal/domain"
)

// Allocator computes admission outcomes against a snapshot of active participants.
// active must hold the event's pending and confirmed participants, excluding the
// application under evaluation.
type Allocator struct {
	Phase PhaseResolver
}

// NewAllocator returns an Allocator resolving deadlines in loc.
func NewAllocator(loc *time.Location) Allocator {
	return Allocator{Phase: NewPhaseResolver(loc)}
}

// AllocateSeat returns confirmed when the lottery is closed and a seat is free, pending otherwise.
func (a Allocator) AllocateSeat(event *domain.Event, active []*domain.Participant, reference time.Time) domain.ParticipantStatus {
	if !a.Phase.IsLotteryClosed(event.Date, reference) {
		return domain.StatusPending
	}
	capacity := event.Seats()
	confirmed := min(countConfirmed(active), capacity)
	if confirmed < capacity {
		return domain.StatusConfirmed
	}
	return domain.StatusPending
}

// AllocateParking returns nil when parking was not requested or the lottery is still open,
// otherwise whether a slot of the parking pool is free.
func (a Allocator) AllocateParking(event *domain.Event, active []*domain.Participant, requested bool, reference time.Time) *bool {
	if !requested {
		return nil
	}
	if !a.Phase.IsLotteryClosed(event.Date, reference) {
		return nil
	}
	granted := countParking(active) < event.ParkingSlots()
	return &granted
}

// Decide combines seat and parking allocation for one application. A parking slot is only
// ever granted together with a seat: a waitlisted seat leaves a parking request waitlisted too.
func (a Allocator) Decide(event *domain.Event, active []*domain.Participant, requestedParking bool, reference time.Time) domain.AdmissionDecision {
	status := a.AllocateSeat(event, active, reference)
	parking := a.AllocateParking(event, active, requestedParking, reference)
	if parking != nil && status != domain.StatusConfirmed {
		denied := false
		parking = &denied
	}
	return domain.AdmissionDecision{Status: status, Parking: parking}
}

// Change is a re-evaluated outcome for one participant.
type Change struct {
	Participant *domain.Participant
	Decision    domain.AdmissionDecision
}

// Rebalance re-runs allocation for every active participant once the lottery is closed.
// Pending participants are re-evaluated in waitlist order, so freed seats go to the head of
// the line; then confirmed participants whose parking request is waitlisted are offered freed
// parking slots in application order. Only participants whose outcome differs are returned.
// Before the deadline nothing changes.
func (a Allocator) Rebalance(event *domain.Event, active []*domain.Participant, reference time.Time) []Change {
	if !a.Phase.IsLotteryClosed(event.Date, reference) {
		return nil
	}

	working := make([]*domain.Participant, len(active))
	for i, p := range active {
		working[i] = p.Clone()
	}

	var changes []Change
	record := func(p *domain.Participant, d domain.AdmissionDecision) {
		if d.Matches(p) {
			return
		}
		p.Status = d.Status
		p.Parking = d.Parking
		changes = append(changes, Change{Participant: p, Decision: d})
	}

	for _, p := range SortWaitlist(working) {
		record(p, a.Decide(event, without(working, p.ID), p.ParkingRequested, reference))
	}

	for _, p := range sortByApplication(working) {
		if p.Status != domain.StatusConfirmed || !p.ParkingRequested || p.HasParking() {
			continue
		}
		parking := a.AllocateParking(event, without(working, p.ID), true, reference)
		record(p, domain.AdmissionDecision{Status: p.Status, Parking: parking})
	}
	return changes
}

func countConfirmed(ps []*domain.Participant) int {
	n := 0
	for _, p := range ps {
		if p.Status == domain.StatusConfirmed {
			n++
		}
	}
	return n
}

// countParking counts held parking slots. Only confirmed participants can hold one.
func countParking(ps []*domain.Participant) int {
	n := 0
	for _, p := range ps {
		if p.Status == domain.StatusConfirmed && p.HasParking() {
			n++
		}
	}
	return n
}

func without(ps []*domain.Participant, id string) []*domain.Participant {
	out := make([]*domain.Participant, 0, len(ps))
	for _, p := range ps {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
