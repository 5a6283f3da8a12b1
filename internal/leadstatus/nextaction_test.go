package leadstatus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tripdesk/backend/internal/types"
)

func TestNextActionAt(t *testing.T) {
	endOfDay := time.Date(2024, 9, 15, 23, 59, 0, 0, time.UTC)
	tomorrow := time.Date(2024, 9, 16, 0, 1, 0, 0, time.UTC)

	tests := []struct {
		name string
		lead *types.Lead
		want types.NextActionStatus
	}{
		{"nil lead", nil, types.NextActionNone},
		{"no due date", &types.Lead{}, types.NextActionNone},
		{"past", &types.Lead{NextActionDueAt: at(-72 * time.Hour)}, types.NextActionOverdue},
		{"earlier today is overdue", &types.Lead{NextActionDueAt: at(-2 * time.Hour)}, types.NextActionOverdue},
		{"later today", &types.Lead{NextActionDueAt: at(3 * time.Hour)}, types.NextActionToday},
		{"end of today", &types.Lead{NextActionDueAt: &endOfDay}, types.NextActionToday},
		{"due now", &types.Lead{NextActionDueAt: at(0)}, types.NextActionToday},
		{"just after midnight", &types.Lead{NextActionDueAt: &tomorrow}, types.NextActionUpcoming},
		{"next week", &types.Lead{NextActionDueAt: at(7 * 24 * time.Hour)}, types.NextActionUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextActionAt(tt.lead, now))
		})
	}
}

func TestNextActionUsesLocalCalendarDay(t *testing.T) {
	tz := time.FixedZone("UTC+5", 5*3600)
	localNow := time.Date(2024, 9, 15, 20, 0, 0, 0, tz) // 15:00 UTC

	// 23:30 local, stored in UTC: same local day
	due := time.Date(2024, 9, 15, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, types.NextActionToday, NextActionAt(&types.Lead{NextActionDueAt: &due}, localNow))

	// 01:00 local next day, still the 15th in UTC
	due = time.Date(2024, 9, 15, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, types.NextActionUpcoming, NextActionAt(&types.Lead{NextActionDueAt: &due}, localNow))
}
