package types

import "time"

// Stage represents the lifecycle position of a lead
type Stage string

const (
	StageNew        Stage = "new"
	StageFollowUp   Stage = "follow_up"
	StageQuoted     Stage = "quoted"
	StageClosedWon  Stage = "closed_won"
	StageClosedLost Stage = "closed_lost"
)

// UnknownLabel is used wherever a grouping key or label is missing
const UnknownLabel = "Unknown"

// AllStages lists the stages in pipeline order
var AllStages = []Stage{
	StageNew,
	StageFollowUp,
	StageQuoted,
	StageClosedWon,
	StageClosedLost,
}

// Valid reports whether s is one of the known stages
func (s Stage) Valid() bool {
	switch s {
	case StageNew, StageFollowUp, StageQuoted, StageClosedWon, StageClosedLost:
		return true
	}
	return false
}

// Label returns the stage value, or "Unknown" for anything outside the enum
func (s Stage) Label() string {
	if !s.Valid() {
		return UnknownLabel
	}
	return string(s)
}

// Lead is a normalized lead document
type Lead struct {
	ID              string `json:"id"`
	Stage           Stage  `json:"stage"`
	DestinationID   string `json:"destinationId,omitempty"`
	DestinationName string `json:"destinationName,omitempty"`
	AgentID         string `json:"agentId,omitempty"`   // travel-agent partner
	AgentName       string `json:"agentName,omitempty"` // travel-agent partner
	AssignedTo      string `json:"assignedTo,omitempty"`
	AssignedToName  string `json:"assignedToName,omitempty"`

	LastQuotedAmount  *float64 `json:"lastQuotedAmount,omitempty"`
	TotalQuotedAmount *float64 `json:"totalQuotedAmount,omitempty"`

	NextActionDueAt *time.Time `json:"nextActionDueAt,omitempty"`
	LastActivityAt  *time.Time `json:"lastActivityAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
