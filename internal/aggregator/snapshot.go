package aggregator

import (
	"time"

	"github.com/tripdesk/backend/internal/leadstatus"
	"github.com/tripdesk/backend/internal/types"
)

// DefaultTrendDays is the number of daily buckets kept for trend charts
const DefaultTrendDays = 14

// SnapshotOptions controls presentation-only parameters of a snapshot
type SnapshotOptions struct {
	TrendDays int
	Location  *time.Location
}

// Loc returns the calendar-day location, UTC when unset
func (o SnapshotOptions) Loc() *time.Location {
	return locOrUTC(o.Location)
}

func locOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// HealthBreakdown counts leads by health label
func HealthBreakdown(leads []types.Lead, now time.Time) map[string]int {
	return CountBy(leads, func(l types.Lead) string { return leadstatus.ClassifyAt(&l, now).Label })
}

// NextActionBreakdown counts leads by next-action bucket
func NextActionBreakdown(leads []types.Lead, now time.Time) map[string]int {
	return CountBy(leads, func(l types.Lead) string { return string(leadstatus.NextActionAt(&l, now)) })
}

// BuildSnapshot computes the whole dashboard from the current record lists.
// The same inputs and now always give the same snapshot.
func BuildSnapshot(leads []types.Lead, engagements []types.Engagement, now time.Time, opts SnapshotOptions) types.DashboardSnapshot {
	trendDays := opts.TrendDays
	if trendDays == 0 {
		trendDays = DefaultTrendDays
	}
	// trend days and next-action "today" share one calendar
	loc := opts.Loc()
	now = now.In(loc)

	return types.DashboardSnapshot{
		Type:                    "dashboard",
		Timestamp:               now,
		Totals:                  Totals(leads),
		ByDestination:           Sorted(ByDestination(leads)),
		ByAgent:                 Sorted(ByAgent(leads)),
		ByTeamMember:            Sorted(ByTeamMember(leads)),
		StageBreakdown:          StageBreakdown(leads),
		HealthBreakdown:         HealthBreakdown(leads, now),
		NextActionBreakdown:     NextActionBreakdown(leads, now),
		ChannelBreakdown:        ChannelCounts(engagements),
		EngagementsByTeamMember: EngagementsByTeamMember(engagements),
		EngagementTrend:         DailyTrend(engagements, trendDays, loc),
		LeadTrend:               LeadTrend(leads, trendDays, loc),
	}
}

// BuildScoped builds the full snapshot plus one per assignee covering only
// the leads assigned to them and the engagements logged on those leads.
func BuildScoped(leads []types.Lead, engagements []types.Engagement, now time.Time, opts SnapshotOptions) types.DashboardSnapshot {
	snap := BuildSnapshot(leads, engagements, now, opts)

	leadsByUser := make(map[string][]types.Lead)
	owner := make(map[string]string, len(leads))
	for _, l := range leads {
		if l.AssignedTo == "" {
			continue
		}
		leadsByUser[l.AssignedTo] = append(leadsByUser[l.AssignedTo], l)
		owner[l.ID] = l.AssignedTo
	}

	engagementsByUser := make(map[string][]types.Engagement)
	for _, e := range engagements {
		if user, ok := owner[e.LeadID]; ok {
			engagementsByUser[user] = append(engagementsByUser[user], e)
		}
	}

	snap.Members = make(map[string]*types.DashboardSnapshot, len(leadsByUser))
	for user, own := range leadsByUser {
		member := BuildSnapshot(own, engagementsByUser[user], now, opts)
		snap.Members[user] = &member
	}
	return snap
}
