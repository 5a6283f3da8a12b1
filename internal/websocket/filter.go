package websocket

import (
	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/types"
)

// FilterSnapshot scopes a snapshot to what viewer may see. Admins and
// managers get the full snapshot; anyone else gets the slice computed over
// their own assigned leads, or an empty dashboard when they own none.
func FilterSnapshot(viewer auth.Viewer, snap *types.DashboardSnapshot) *types.DashboardSnapshot {
	if snap == nil || viewer.Privileged() {
		return snap
	}

	if own, ok := snap.Members[viewer.UserID]; ok && own != nil {
		scoped := *own
		scoped.Members = nil
		return &scoped
	}

	return &types.DashboardSnapshot{
		Type:                    snap.Type,
		Timestamp:               snap.Timestamp,
		Totals:                  types.AggregateRow{Key: "All"},
		ByDestination:           []types.AggregateRow{},
		ByAgent:                 []types.AggregateRow{},
		ByTeamMember:            []types.AggregateRow{},
		StageBreakdown:          map[string]int{},
		HealthBreakdown:         map[string]int{},
		NextActionBreakdown:     map[string]int{},
		ChannelBreakdown:        map[string]int{},
		EngagementsByTeamMember: map[string]int{},
		EngagementTrend:         []types.TrendBucket{},
		LeadTrend:               []types.TrendBucket{},
	}
}
