package leadstatus

import (
	"time"

	"github.com/tripdesk/backend/internal/types"
)

// NextAction buckets a lead's next action against the current time
func NextAction(lead *types.Lead) types.NextActionStatus {
	return NextActionAt(lead, time.Now())
}

// NextActionAt buckets a lead's next action against now. A due time that
// already passed earlier today is overdue, not today.
func NextActionAt(lead *types.Lead, now time.Time) types.NextActionStatus {
	if lead == nil || lead.NextActionDueAt == nil {
		return types.NextActionNone
	}

	due := *lead.NextActionDueAt
	if due.Before(now) {
		return types.NextActionOverdue
	}
	if sameDay(due, now) {
		return types.NextActionToday
	}
	return types.NextActionUpcoming
}

// sameDay compares calendar dates in now's location
func sameDay(t, now time.Time) bool {
	ty, tm, td := t.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	return ty == ny && tm == nm && td == nd
}
