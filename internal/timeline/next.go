package timeline

import (
	"sort"
	"time"

	"github.com/tripdesk/backend/internal/types"
)

// NextFollowUp returns the earliest follow-up scheduled after the current time
func NextFollowUp(events []types.Engagement) *types.Engagement {
	return NextFollowUpAt(events, time.Now())
}

// NextFollowUpAt returns a copy of the earliest follow-up engagement whose
// scheduled time is strictly after now, or nil. Ties keep input order.
func NextFollowUpAt(events []types.Engagement, now time.Time) *types.Engagement {
	pending := Upcoming(events, now)
	if len(pending) == 0 {
		return nil
	}
	next := pending[0]
	return &next
}

// Upcoming returns the pending follow-ups in scheduled order. The result is
// a new slice; events is not modified.
func Upcoming(events []types.Engagement, now time.Time) []types.Engagement {
	pending := make([]types.Engagement, 0, len(events))
	for _, e := range events {
		if e.Type != types.EngagementTypeFollowUp || e.NextFollowUpAt == nil {
			continue
		}
		if !e.NextFollowUpAt.After(now) {
			continue
		}
		pending = append(pending, e)
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].NextFollowUpAt.Before(*pending[j].NextFollowUpAt)
	})
	return pending
}
