package types

import "time"

// DashboardSnapshot is the full dashboard payload, recomputed from the
// current lead and engagement lists on every request and every tick
type DashboardSnapshot struct {
	Type          string         `json:"type"` // always "dashboard"
	Timestamp     time.Time      `json:"timestamp"`
	Totals        AggregateRow   `json:"totals"`
	ByDestination []AggregateRow `json:"byDestination"`
	ByAgent       []AggregateRow `json:"byAgent"`
	ByTeamMember  []AggregateRow `json:"byTeamMember"`

	StageBreakdown          map[string]int `json:"stageBreakdown"`
	HealthBreakdown         map[string]int `json:"healthBreakdown"`
	NextActionBreakdown     map[string]int `json:"nextActionBreakdown"`
	ChannelBreakdown        map[string]int `json:"channelBreakdown"`
	EngagementsByTeamMember map[string]int `json:"engagementsByTeamMember"`
	EngagementTrend         []TrendBucket  `json:"engagementTrend"`
	LeadTrend               []TrendBucket  `json:"leadTrend"`

	// Members holds the same snapshot restricted to each assignee's own
	// leads, keyed by user id. It is never serialized.
	Members map[string]*DashboardSnapshot `json:"-"`
}
