package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantStatus_CanTransitionTo(t *testing.T) {
	all := []ParticipantStatus{StatusPending, StatusConfirmed, StatusCanceled, StatusInvalid}

	for _, from := range all {
		for _, to := range all {
			want := from.IsActive()
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, ParticipantStatus("bogus").CanTransitionTo(StatusPending))
}

func TestParseParticipantStatus(t *testing.T) {
	st, err := ParseParticipantStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, st)

	_, err = ParseParticipantStatus("waitlisted")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestParticipant_HasParkingAndClone(t *testing.T) {
	granted := true
	p := NewParticipant("ev-1", "user-1", AdmissionDecision{Status: StatusConfirmed, Parking: &granted}, true, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, p.HasParking())
	assert.True(t, p.ParkingRequested)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	c := p.Clone()
	*c.Parking = false
	assert.True(t, p.HasParking(), "clone must not share the parking pointer")
	assert.False(t, c.HasParking())

	assert.False(t, (&Participant{}).HasParking())
}

func TestEvent_CapacitiesAndValidate(t *testing.T) {
	neg := -1
	two := 2

	e := &Event{}
	assert.Equal(t, 0, e.Seats())
	assert.Equal(t, 0, e.ParkingSlots())
	assert.Equal(t, []string{"date is required"}, e.Validate())

	e = &Event{Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), SeatCapacity: &two, ParkingCapacity: &neg}
	assert.Equal(t, 2, e.Seats())
	assert.Equal(t, []string{"parking_capacity must be >= 0"}, e.Validate())
}

func TestPaginationParams_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		params    PaginationParams
		n         int
		wantStart int
		wantEnd   int
	}{
		{"first page", PaginationParams{Page: 1, PageSize: 2}, 5, 0, 2},
		{"last partial page", PaginationParams{Page: 3, PageSize: 2}, 5, 4, 5},
		{"past the end", PaginationParams{Page: 9, PageSize: 2}, 5, 5, 5},
		{"page zero is first page", PaginationParams{Page: 0, PageSize: 2}, 5, 0, 2},
		{"no page size selects all", PaginationParams{}, 5, 0, 5},
		{"empty list", PaginationParams{Page: 1, PageSize: 10}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.params.Bounds(tt.n)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestAuthClaims_HasRole(t *testing.T) {
	c := AuthClaims{UserID: "u1", Roles: []string{"member", RoleAdmin}}
	assert.True(t, c.HasRole(RoleAdmin))
	assert.False(t, AuthClaims{}.HasRole(RoleAdmin))
}

func TestParticipant_ParkingOutcome(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, "", (&Participant{}).ParkingOutcome())
	assert.Equal(t, "granted", (&Participant{Parking: &yes}).ParkingOutcome())
	assert.Equal(t, "waitlisted", (&Participant{Parking: &no}).ParkingOutcome())
}
