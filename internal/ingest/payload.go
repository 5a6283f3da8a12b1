package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/tripdesk/backend/internal/attendance"
	"github.com/tripdesk/backend/internal/types"
)

// LeadPayload is the wire shape of a lead document
type LeadPayload struct {
	ID                string          `json:"id"`
	Stage             string          `json:"stage"`
	DestinationID     string          `json:"destinationId"`
	DestinationName   string          `json:"destinationName"`
	AgentID           string          `json:"agentId"`
	AgentName         string          `json:"agentName"`
	AssignedTo        string          `json:"assignedTo"`
	AssignedToName    string          `json:"assignedToName"`
	LastQuotedAmount  types.Amount    `json:"lastQuotedAmount"`
	TotalQuotedAmount types.Amount    `json:"totalQuotedAmount"`
	NextActionDueAt   types.Timestamp `json:"nextActionDueAt"`
	LastActivityAt    types.Timestamp `json:"lastActivityAt"`
	CreatedAt         types.Timestamp `json:"createdAt"`
}

// ToLead normalizes the payload into a domain lead
func (p LeadPayload) ToLead() types.Lead {
	return types.Lead{
		ID:                strings.TrimSpace(p.ID),
		Stage:             types.Stage(strings.TrimSpace(p.Stage)),
		DestinationID:     p.DestinationID,
		DestinationName:   p.DestinationName,
		AgentID:           p.AgentID,
		AgentName:         p.AgentName,
		AssignedTo:        p.AssignedTo,
		AssignedToName:    p.AssignedToName,
		LastQuotedAmount:  p.LastQuotedAmount.Ptr(),
		TotalQuotedAmount: p.TotalQuotedAmount.Ptr(),
		NextActionDueAt:   p.NextActionDueAt.Ptr(),
		LastActivityAt:    p.LastActivityAt.Ptr(),
		CreatedAt:         p.CreatedAt.Time(),
	}
}

// EngagementMetadata carries type-specific engagement fields
type EngagementMetadata struct {
	NextFollowUpAt types.Timestamp `json:"nextFollowUpAt"`
}

// EngagementPayload is the wire shape of an engagement. The follow-up time
// may arrive flat or under metadata; the flat field wins when both are set.
type EngagementPayload struct {
	ID             string             `json:"id"`
	Type           string             `json:"type"`
	Channel        string             `json:"channel"`
	LeadID         string             `json:"leadId"`
	AgentID        string             `json:"agentId"`
	CreatedBy      string             `json:"createdBy"`
	CreatedByName  string             `json:"createdByName"`
	Notes          string             `json:"notes"`
	NextFollowUpAt types.Timestamp    `json:"nextFollowUpAt"`
	Metadata       EngagementMetadata `json:"metadata"`
	CreatedAt      types.Timestamp    `json:"createdAt"`
}

// ToEngagement normalizes the payload into a domain engagement
func (p EngagementPayload) ToEngagement() types.Engagement {
	next := p.NextFollowUpAt.Ptr()
	if next == nil {
		next = p.Metadata.NextFollowUpAt.Ptr()
	}
	return types.Engagement{
		ID:             strings.TrimSpace(p.ID),
		Type:           strings.TrimSpace(p.Type),
		Channel:        types.Channel(strings.ToLower(strings.TrimSpace(p.Channel))),
		LeadID:         p.LeadID,
		AgentID:        p.AgentID,
		CreatedBy:      p.CreatedBy,
		CreatedByName:  p.CreatedByName,
		Notes:          p.Notes,
		NextFollowUpAt: next,
		CreatedAt:      p.CreatedAt.Time(),
	}
}

// SessionPayload is one check-in/check-out pair
type SessionPayload struct {
	CheckIn  types.Timestamp `json:"checkIn"`
	CheckOut types.Timestamp `json:"checkOut"`
}

// AttendancePayload is the wire shape of an attendance day
type AttendancePayload struct {
	UserID          string           `json:"userId"`
	Date            string           `json:"date"`
	TotalMinutes    types.Amount     `json:"totalMinutes"`
	IsLeave         bool             `json:"isLeave"`
	IsHoliday       bool             `json:"isHoliday"`
	WorkedOnHoliday bool             `json:"workedOnHoliday"`
	IsRegularized   bool             `json:"isRegularized"`
	Sessions        []SessionPayload `json:"sessions"`
}

var (
	errMissingUser = errors.New("userId is required")
	errBadDate     = errors.New("date must be YYYY-MM-DD")
)

// ToAttendanceDay normalizes the payload. A missing totalMinutes is
// computed from the closed sessions.
func (p AttendancePayload) ToAttendanceDay() (types.AttendanceDay, error) {
	userID := strings.TrimSpace(p.UserID)
	if userID == "" {
		return types.AttendanceDay{}, errMissingUser
	}
	date, err := normalizeDate(p.Date)
	if err != nil {
		return types.AttendanceDay{}, err
	}

	day := types.AttendanceDay{
		UserID:          userID,
		Date:            date,
		IsLeave:         p.IsLeave,
		IsHoliday:       p.IsHoliday,
		WorkedOnHoliday: p.WorkedOnHoliday,
		IsRegularized:   p.IsRegularized,
	}
	for _, s := range p.Sessions {
		day.Sessions = append(day.Sessions, types.WorkSession{
			CheckIn:  s.CheckIn.Time(),
			CheckOut: s.CheckOut.Ptr(),
		})
	}

	if v := p.TotalMinutes.Ptr(); v != nil {
		day.TotalMinutes = clampMinutes(*v)
	} else {
		day.TotalMinutes = attendance.WorkedMinutes(day.Sessions)
	}
	return day, nil
}

// clampMinutes rounds to whole minutes within [0, MaxInt32]
func clampMinutes(v float64) int {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(math.Round(v))
}

func normalizeDate(s string) (string, error) {
	t := types.ParseTime(s)
	if t == nil {
		return "", fmt.Errorf("%w: %q", errBadDate, s)
	}
	return t.Format("2006-01-02"), nil
}

// decodeOneOrMany accepts a single JSON object or an array of them
func decodeOneOrMany[T any](r io.Reader) ([]T, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}

	if body[0] == '[' {
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var item T
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, err
	}
	return []T{item}, nil
}
