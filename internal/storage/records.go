package storage

import (
	"time"

	"github.com/tripdesk/backend/internal/types"
)

// unlinkedLeadKey is the partition used for engagements logged against a
// partner agent rather than a lead
const unlinkedLeadKey = "_unlinked"

// Persisted shapes. Timestamps are stored as RFC3339 strings and converted
// at the boundary so that the derivation layer only sees time.Time.

type leadRecord struct {
	LeadID            string
	Stage             string
	DestinationID     string   `dynamodbav:",omitempty"`
	DestinationName   string   `dynamodbav:",omitempty"`
	AgentID           string   `dynamodbav:",omitempty"`
	AgentName         string   `dynamodbav:",omitempty"`
	AssignedTo        string   `dynamodbav:",omitempty"`
	AssignedToName    string   `dynamodbav:",omitempty"`
	LastQuotedAmount  *float64 `dynamodbav:",omitempty"`
	TotalQuotedAmount *float64 `dynamodbav:",omitempty"`
	NextActionDueAt   string   `dynamodbav:",omitempty"`
	LastActivityAt    string   `dynamodbav:",omitempty"`
	CreatedAt         string   `dynamodbav:",omitempty"`
}

type engagementRecord struct {
	LeadID         string
	EngagementID   string
	Type           string `dynamodbav:",omitempty"`
	Channel        string `dynamodbav:",omitempty"`
	AgentID        string `dynamodbav:",omitempty"`
	CreatedBy      string `dynamodbav:",omitempty"`
	CreatedByName  string `dynamodbav:",omitempty"`
	Notes          string `dynamodbav:",omitempty"`
	NextFollowUpAt string `dynamodbav:",omitempty"`
	CreatedAt      string `dynamodbav:",omitempty"`
}

type sessionRecord struct {
	CheckIn  string
	CheckOut string `dynamodbav:",omitempty"`
}

type attendanceRecord struct {
	UserID          string
	Date            string
	TotalMinutes    int
	IsLeave         bool
	IsHoliday       bool
	WorkedOnHoliday bool
	IsRegularized   bool
	Sessions        []sessionRecord `dynamodbav:",omitempty"`
}

func toLeadRecord(l types.Lead) leadRecord {
	return leadRecord{
		LeadID:            l.ID,
		Stage:             string(l.Stage),
		DestinationID:     l.DestinationID,
		DestinationName:   l.DestinationName,
		AgentID:           l.AgentID,
		AgentName:         l.AgentName,
		AssignedTo:        l.AssignedTo,
		AssignedToName:    l.AssignedToName,
		LastQuotedAmount:  l.LastQuotedAmount,
		TotalQuotedAmount: l.TotalQuotedAmount,
		NextActionDueAt:   types.FormatTime(l.NextActionDueAt),
		LastActivityAt:    types.FormatTime(l.LastActivityAt),
		CreatedAt:         formatRequired(l.CreatedAt),
	}
}

func (r leadRecord) toLead() types.Lead {
	return types.Lead{
		ID:                r.LeadID,
		Stage:             types.Stage(r.Stage),
		DestinationID:     r.DestinationID,
		DestinationName:   r.DestinationName,
		AgentID:           r.AgentID,
		AgentName:         r.AgentName,
		AssignedTo:        r.AssignedTo,
		AssignedToName:    r.AssignedToName,
		LastQuotedAmount:  r.LastQuotedAmount,
		TotalQuotedAmount: r.TotalQuotedAmount,
		NextActionDueAt:   types.ParseTime(r.NextActionDueAt),
		LastActivityAt:    types.ParseTime(r.LastActivityAt),
		CreatedAt:         parseRequired(r.CreatedAt),
	}
}

func toEngagementRecord(e types.Engagement) engagementRecord {
	leadKey := e.LeadID
	if leadKey == "" {
		leadKey = unlinkedLeadKey
	}
	return engagementRecord{
		LeadID:         leadKey,
		EngagementID:   e.ID,
		Type:           e.Type,
		Channel:        string(e.Channel),
		AgentID:        e.AgentID,
		CreatedBy:      e.CreatedBy,
		CreatedByName:  e.CreatedByName,
		Notes:          e.Notes,
		NextFollowUpAt: types.FormatTime(e.NextFollowUpAt),
		CreatedAt:      formatRequired(e.CreatedAt),
	}
}

func (r engagementRecord) toEngagement() types.Engagement {
	leadID := r.LeadID
	if leadID == unlinkedLeadKey {
		leadID = ""
	}
	return types.Engagement{
		ID:             r.EngagementID,
		Type:           r.Type,
		Channel:        types.Channel(r.Channel),
		LeadID:         leadID,
		AgentID:        r.AgentID,
		CreatedBy:      r.CreatedBy,
		CreatedByName:  r.CreatedByName,
		Notes:          r.Notes,
		NextFollowUpAt: types.ParseTime(r.NextFollowUpAt),
		CreatedAt:      parseRequired(r.CreatedAt),
	}
}

func toAttendanceRecord(d types.AttendanceDay) attendanceRecord {
	r := attendanceRecord{
		UserID:          d.UserID,
		Date:            d.Date,
		TotalMinutes:    d.TotalMinutes,
		IsLeave:         d.IsLeave,
		IsHoliday:       d.IsHoliday,
		WorkedOnHoliday: d.WorkedOnHoliday,
		IsRegularized:   d.IsRegularized,
	}
	for _, s := range d.Sessions {
		r.Sessions = append(r.Sessions, sessionRecord{
			CheckIn:  formatRequired(s.CheckIn),
			CheckOut: types.FormatTime(s.CheckOut),
		})
	}
	return r
}

func (r attendanceRecord) toAttendanceDay() types.AttendanceDay {
	d := types.AttendanceDay{
		UserID:          r.UserID,
		Date:            r.Date,
		TotalMinutes:    r.TotalMinutes,
		IsLeave:         r.IsLeave,
		IsHoliday:       r.IsHoliday,
		WorkedOnHoliday: r.WorkedOnHoliday,
		IsRegularized:   r.IsRegularized,
	}
	for _, s := range r.Sessions {
		d.Sessions = append(d.Sessions, types.WorkSession{
			CheckIn:  parseRequired(s.CheckIn),
			CheckOut: types.ParseTime(s.CheckOut),
		})
	}
	return d
}

func formatRequired(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return types.FormatTime(&t)
}

func parseRequired(s string) time.Time {
	if t := types.ParseTime(s); t != nil {
		return *t
	}
	return time.Time{}
}
