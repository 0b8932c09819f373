package admission

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubevents/internal/domain"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func participant(id string, status domain.ParticipantStatus, parking *bool, minute int) *domain.Participant {
	return &domain.Participant{
		ID:               id,
		EventID:          "ev-1",
		UserID:           "user-" + id,
		Status:           status,
		Parking:          parking,
		ParkingRequested: parking != nil,
		CreatedAt:        base.Add(time.Duration(minute) * time.Minute),
	}
}

func aprilEvent() *domain.Event {
	return &domain.Event{
		ID:              "ev-1",
		Date:            time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		SeatCapacity:    intPtr(2),
		ParkingCapacity: intPtr(1),
	}
}

var (
	beforeDeadline = time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)
	afterDeadline  = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
)

func TestAllocator_Decide_ReferenceScenarios(t *testing.T) {
	a := NewAllocator(time.UTC)

	tests := []struct {
		name      string
		event     *domain.Event
		active    []*domain.Participant
		parking   bool
		reference time.Time
		want      domain.AdmissionDecision
	}{
		{
			name:      "before deadline everything is pending even with a confirmed participant",
			event:     aprilEvent(),
			active:    []*domain.Participant{participant("a", domain.StatusConfirmed, nil, 0)},
			parking:   false,
			reference: beforeDeadline,
			want:      domain.AdmissionDecision{Status: domain.StatusPending, Parking: nil},
		},
		{
			name:      "after deadline with one of two seats taken",
			event:     aprilEvent(),
			active:    []*domain.Participant{participant("a", domain.StatusConfirmed, nil, 0)},
			parking:   false,
			reference: afterDeadline,
			want:      domain.AdmissionDecision{Status: domain.StatusConfirmed, Parking: nil},
		},
		{
			name: "after deadline at seat capacity is waitlisted",
			event: aprilEvent(),
			active: []*domain.Participant{
				participant("a", domain.StatusConfirmed, nil, 0),
				participant("b", domain.StatusConfirmed, nil, 1),
			},
			parking:   false,
			reference: afterDeadline,
			want:      domain.AdmissionDecision{Status: domain.StatusPending, Parking: nil},
		},
		{
			name:      "after deadline with free seat and parking",
			event:     aprilEvent(),
			parking:   true,
			reference: afterDeadline,
			want:      domain.AdmissionDecision{Status: domain.StatusConfirmed, Parking: boolPtr(true)},
		},
		{
			name:      "after deadline parking pool full",
			event:     aprilEvent(),
			active:    []*domain.Participant{participant("a", domain.StatusConfirmed, boolPtr(true), 0)},
			parking:   true,
			reference: afterDeadline,
			want:      domain.AdmissionDecision{Status: domain.StatusConfirmed, Parking: boolPtr(false)},
		},
		{
			name: "null capacities behave as zero",
			event: &domain.Event{
				ID:   "ev-2",
				Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			},
			parking:   true,
			reference: afterDeadline,
			want:      domain.AdmissionDecision{Status: domain.StatusPending, Parking: boolPtr(false)},
		},
		{
			name:      "before deadline parking request stays undecided",
			event:     aprilEvent(),
			parking:   true,
			reference: beforeDeadline,
			want:      domain.AdmissionDecision{Status: domain.StatusPending, Parking: nil},
		},
		{
			name: "waitlisted seat never holds parking even with free slots",
			event: &domain.Event{
				Date:            time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
				SeatCapacity:    intPtr(1),
				ParkingCapacity: intPtr(5),
			},
			active:    []*domain.Participant{participant("a", domain.StatusConfirmed, nil, 0)},
			parking:   true,
			reference: afterDeadline,
			want:      domain.AdmissionDecision{Status: domain.StatusPending, Parking: boolPtr(false)},
		},
		{
			name: "pending participants do not consume seats",
			event: aprilEvent(),
			active: []*domain.Participant{
				participant("a", domain.StatusPending, nil, 0),
				participant("b", domain.StatusPending, nil, 1),
				participant("c", domain.StatusConfirmed, nil, 2),
			},
			reference: afterDeadline,
			want:      domain.AdmissionDecision{Status: domain.StatusConfirmed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Decide(tt.event, tt.active, tt.parking, tt.reference)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllocator_AllocateSeat_OverCapacitySnapshot(t *testing.T) {
	// Capacity lowered after three confirmations: the count is capped and no seat is free.
	a := NewAllocator(time.UTC)
	ev := aprilEvent()
	ev.SeatCapacity = intPtr(1)
	active := []*domain.Participant{
		participant("a", domain.StatusConfirmed, nil, 0),
		participant("b", domain.StatusConfirmed, nil, 1),
		participant("c", domain.StatusConfirmed, nil, 2),
	}
	assert.Equal(t, domain.StatusPending, a.AllocateSeat(ev, active, afterDeadline))
}

func TestAllocator_AllocateParking(t *testing.T) {
	a := NewAllocator(time.UTC)
	ev := aprilEvent()

	t.Run("not requested is nil in both phases", func(t *testing.T) {
		assert.Nil(t, a.AllocateParking(ev, nil, false, beforeDeadline))
		assert.Nil(t, a.AllocateParking(ev, nil, false, afterDeadline))
	})

	t.Run("parking held by a pending row is not counted", func(t *testing.T) {
		active := []*domain.Participant{participant("a", domain.StatusPending, boolPtr(true), 0)}
		got := a.AllocateParking(ev, active, true, afterDeadline)
		require.NotNil(t, got)
		assert.True(t, *got)
	})
}

func TestAllocator_Decide_PreDeadlineIgnoresCapacity(t *testing.T) {
	a := NewAllocator(time.UTC)
	capacities := []*int{nil, intPtr(0), intPtr(1), intPtr(100)}
	for _, seats := range capacities {
		for _, slots := range capacities {
			ev := &domain.Event{Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), SeatCapacity: seats, ParkingCapacity: slots}
			for _, parking := range []bool{false, true} {
				got := a.Decide(ev, nil, parking, beforeDeadline)
				assert.Equal(t, domain.AdmissionDecision{Status: domain.StatusPending}, got)
			}
		}
	}
}

func TestAllocator_Decide_NullCapacityEqualsZero(t *testing.T) {
	a := NewAllocator(time.UTC)
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	null := &domain.Event{Date: date}
	zero := &domain.Event{Date: date, SeatCapacity: intPtr(0), ParkingCapacity: intPtr(0)}
	for _, parking := range []bool{false, true} {
		assert.Equal(t, a.Decide(zero, nil, parking, afterDeadline), a.Decide(null, nil, parking, afterDeadline))
	}
}

func TestAllocator_Decide_Idempotent(t *testing.T) {
	a := NewAllocator(time.UTC)
	ev := aprilEvent()
	active := []*domain.Participant{
		participant("a", domain.StatusConfirmed, boolPtr(true), 0),
		participant("b", domain.StatusPending, nil, 1),
	}
	first := a.Decide(ev, active, true, afterDeadline)
	second := a.Decide(ev, active, true, afterDeadline)
	assert.Equal(t, first, second)
}

func TestAllocator_Rebalance(t *testing.T) {
	a := NewAllocator(time.UTC)

	t.Run("no changes before the deadline", func(t *testing.T) {
		active := []*domain.Participant{participant("a", domain.StatusPending, nil, 0)}
		assert.Empty(t, a.Rebalance(aprilEvent(), active, beforeDeadline))
	})

	t.Run("promotes the head of the waitlist into the freed seat", func(t *testing.T) {
		active := []*domain.Participant{
			participant("a", domain.StatusConfirmed, nil, 0),
			participant("c", domain.StatusPending, nil, 5),
			participant("b", domain.StatusPending, nil, 3),
		}
		changes := a.Rebalance(aprilEvent(), active, afterDeadline)
		require.Len(t, changes, 1)
		assert.Equal(t, "b", changes[0].Participant.ID)
		assert.Equal(t, domain.StatusConfirmed, changes[0].Decision.Status)
		assert.Equal(t, domain.StatusPending, active[2].Status, "input snapshot must not be mutated")
	})

	t.Run("promoted participant gets parking when a slot is free", func(t *testing.T) {
		p := participant("b", domain.StatusPending, boolPtr(false), 3)
		changes := a.Rebalance(aprilEvent(), []*domain.Participant{p}, afterDeadline)
		require.Len(t, changes, 1)
		assert.Equal(t, domain.AdmissionDecision{Status: domain.StatusConfirmed, Parking: boolPtr(true)}, changes[0].Decision)
	})

	t.Run("freed parking slot goes to the earliest confirmed request", func(t *testing.T) {
		active := []*domain.Participant{
			participant("late", domain.StatusConfirmed, boolPtr(false), 9),
			participant("early", domain.StatusConfirmed, boolPtr(false), 1),
		}
		changes := a.Rebalance(aprilEvent(), active, afterDeadline)
		require.Len(t, changes, 1)
		assert.Equal(t, "early", changes[0].Participant.ID)
		assert.Equal(t, boolPtr(true), changes[0].Decision.Parking)
	})

	t.Run("pre-deadline applications are normalized after the deadline", func(t *testing.T) {
		ev := aprilEvent()
		ev.SeatCapacity = intPtr(1)
		active := []*domain.Participant{
			participant("a", domain.StatusPending, nil, 0),
			participant("b", domain.StatusPending, nil, 1),
		}
		active[1].ParkingRequested = true
		changes := a.Rebalance(ev, active, afterDeadline)
		require.Len(t, changes, 2)
		assert.Equal(t, "a", changes[0].Participant.ID)
		assert.Equal(t, domain.StatusConfirmed, changes[0].Decision.Status)
		assert.Equal(t, domain.AdmissionDecision{Status: domain.StatusPending, Parking: boolPtr(false)}, changes[1].Decision)
	})
}

// TestAllocator_Invariants drives random apply/cancel/rebalance sequences and checks
// the capacity invariants after every step.
func TestAllocator_Invariants(t *testing.T) {
	a := NewAllocator(time.UTC)
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		ev := &domain.Event{Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}
		if rng.Intn(4) > 0 {
			ev.SeatCapacity = intPtr(rng.Intn(5))
		}
		if rng.Intn(4) > 0 {
			ev.ParkingCapacity = intPtr(rng.Intn(4))
		}
		var all []*domain.Participant
		for step := 0; step < 30; step++ {
			ref := beforeDeadline
			if step > 10 {
				ref = afterDeadline
			}
			active := activeOf(all)
			switch op := rng.Intn(10); {
			case op < 6:
				requested := rng.Intn(2) == 0
				d := a.Decide(ev, active, requested, ref)
				p := participant(fmt.Sprintf("p%02d", step), d.Status, d.Parking, step)
				p.ParkingRequested = requested
				if !ref.After(a.Phase.Deadline(ev.Date)) {
					require.Equal(t, domain.AdmissionDecision{Status: domain.StatusPending}, d)
				}
				all = append(all, p)
			case op < 8 && len(active) > 0:
				victim := active[rng.Intn(len(active))]
				victim.Status = domain.StatusCanceled
				victim.Parking = nil
			default:
				for _, c := range a.Rebalance(ev, active, ref) {
					for _, p := range all {
						if p.ID == c.Participant.ID {
							p.Status = c.Decision.Status
							p.Parking = c.Decision.Parking
						}
					}
				}
			}
			assertInvariants(t, ev, all)
		}
	}
}

func activeOf(all []*domain.Participant) []*domain.Participant {
	var out []*domain.Participant
	for _, p := range all {
		if p.Status.IsActive() {
			out = append(out, p)
		}
	}
	return out
}

func assertInvariants(t *testing.T, ev *domain.Event, all []*domain.Participant) {
	t.Helper()
	confirmed, parked := 0, 0
	for _, p := range all {
		if p.HasParking() {
			require.Equal(t, domain.StatusConfirmed, p.Status, "parking without a seat: %s", p.ID)
		}
		if p.Status == domain.StatusConfirmed {
			confirmed++
			if p.HasParking() {
				parked++
			}
		}
	}
	require.LessOrEqual(t, confirmed, ev.Seats())
	require.LessOrEqual(t, parked, ev.ParkingSlots())

	entries := Waitlist(all)
	for i, e := range entries {
		require.Equal(t, i+1, e.Position)
		if i > 0 {
			require.False(t, e.Participant.CreatedAt.Before(entries[i-1].Participant.CreatedAt))
		}
	}
}
