package leadstatus

import (
	"time"

	"github.com/tripdesk/backend/internal/types"
)

// ColdAfterDays is the inactivity span after which an open lead is cold
const ColdAfterDays = 7

const msPerDay = float64(24 * time.Hour / time.Millisecond)

// Classify evaluates a lead's health against the current time
func Classify(lead *types.Lead) types.HealthResult {
	return ClassifyAt(lead, time.Now())
}

// ClassifyAt evaluates a lead's health against now. Rules are checked in
// order: missing lead, won, lost, overdue next action, inactivity.
func ClassifyAt(lead *types.Lead, now time.Time) types.HealthResult {
	if lead == nil {
		return types.HealthResult{Label: types.HealthUnknown, Color: types.ColorGray}
	}

	switch lead.Stage {
	case types.StageClosedWon:
		return types.HealthResult{Label: types.HealthWon, Color: types.ColorGreen}
	case types.StageClosedLost:
		return types.HealthResult{Label: types.HealthLost, Color: types.ColorRed}
	}

	if lead.NextActionDueAt != nil && lead.NextActionDueAt.Before(now) {
		return types.HealthResult{Label: types.HealthAtRisk, Color: types.ColorRed}
	}

	if lead.LastActivityAt != nil && daysSince(*lead.LastActivityAt, now) > ColdAfterDays {
		return types.HealthResult{Label: types.HealthCold, Color: types.ColorOrange}
	}

	return types.HealthResult{Label: types.HealthHealthy, Color: types.ColorGreen}
}

// daysSince returns fractional days between t and now
func daysSince(t, now time.Time) float64 {
	return float64(now.Sub(t).Milliseconds()) / msPerDay
}
