package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhaseResolver_IsLotteryClosed(t *testing.T) {
	r := NewPhaseResolver(time.UTC)
	eventDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2026, 3, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	tests := []struct {
		name      string
		reference time.Time
		want      bool
	}{
		{"one second before deadline", deadline.Add(-time.Second), false},
		{"one second after deadline", deadline.Add(time.Second), true},
		{"exactly at deadline is still open", deadline, false},
		{"one millisecond after deadline", deadline.Add(time.Millisecond), true},
		{"morning of the event", time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC), false},
		{"week before", eventDate.AddDate(0, 0, -7), false},
		{"next day", eventDate.AddDate(0, 0, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.IsLotteryClosed(eventDate, tt.reference))
		})
	}
}

func TestPhaseResolver_Deadline(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	t.Run("uses the calendar day as recorded", func(t *testing.T) {
		// A DATE column read back as UTC midnight must not shift to another day in a zone ahead of UTC.
		r := NewPhaseResolver(tokyo)
		got := r.Deadline(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2026, 4, 1, 23, 59, 59, int(999*time.Millisecond), tokyo), got)
	})

	t.Run("deadline instant depends on the configured zone only", func(t *testing.T) {
		date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		utcDeadline := NewPhaseResolver(time.UTC).Deadline(date)
		tokyoDeadline := NewPhaseResolver(tokyo).Deadline(date)
		assert.Equal(t, 9*time.Hour, utcDeadline.Sub(tokyoDeadline))
	})

	t.Run("nil location falls back to UTC", func(t *testing.T) {
		r := PhaseResolver{}
		got := r.Deadline(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, time.UTC, got.Location())
		assert.Equal(t, 23, got.Hour())
	})
}
