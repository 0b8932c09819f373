package admission

import (
	"slices"

	"clubevents/internal/domain"
)

// SortWaitlist returns the pending participants ordered by application time, ties broken by id.
// The input slice is not modified.
func SortWaitlist(ps []*domain.Participant) []*domain.Participant {
	pending := make([]*domain.Participant, 0, len(ps))
	for _, p := range ps {
		if p.Status == domain.StatusPending {
			pending = append(pending, p)
		}
	}
	return sortByApplication(pending)
}

// WaitlistPosition returns the 1-based position of subjectID among pending participants.
// ok is false when the subject is not currently waitlisted.
func WaitlistPosition(ps []*domain.Participant, subjectID string) (position int, ok bool) {
	for i, p := range SortWaitlist(ps) {
		if p.ID == subjectID {
			return i + 1, true
		}
	}
	return 0, false
}

// Waitlist returns every pending participant with its position.
func Waitlist(ps []*domain.Participant) []*domain.WaitlistEntry {
	sorted := SortWaitlist(ps)
	entries := make([]*domain.WaitlistEntry, len(sorted))
	for i, p := range sorted {
		entries[i] = &domain.WaitlistEntry{Position: i + 1, Participant: p}
	}
	return entries
}

func sortByApplication(ps []*domain.Participant) []*domain.Participant {
	out := slices.Clone(ps)
	slices.SortStableFunc(out, func(a, b *domain.Participant) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}
