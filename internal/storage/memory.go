package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tripdesk/backend/internal/types"
)

// MemoryStore is an in-process Store used when DynamoDB is disabled and in
// tests. Lists come back in insertion order.
type MemoryStore struct {
	mu sync.RWMutex

	leads     map[string]types.Lead
	leadOrder []string

	engagements     map[string]types.Engagement
	engagementOrder []string

	attendance map[string]map[string]types.AttendanceDay // user -> date -> day
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.leads = make(map[string]types.Lead)
	s.leadOrder = nil
	s.engagements = make(map[string]types.Engagement)
	s.engagementOrder = nil
	s.attendance = make(map[string]map[string]types.AttendanceDay)
}

// SaveLead upserts a lead
func (s *MemoryStore) SaveLead(_ context.Context, lead types.Lead) error {
	if lead.ID == "" {
		return fmt.Errorf("lead id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[lead.ID]; !ok {
		s.leadOrder = append(s.leadOrder, lead.ID)
	}
	s.leads[lead.ID] = cloneLead(lead)
	return nil
}

// GetLead returns a lead by id
func (s *MemoryStore) GetLead(_ context.Context, id string) (types.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[id]
	if !ok {
		return types.Lead{}, fmt.Errorf("lead %s: %w", id, ErrNotFound)
	}
	return cloneLead(lead), nil
}

// ListLeads returns every lead
func (s *MemoryStore) ListLeads(_ context.Context) ([]types.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leads := make([]types.Lead, 0, len(s.leadOrder))
	for _, id := range s.leadOrder {
		leads = append(leads, cloneLead(s.leads[id]))
	}
	return leads, nil
}

// SaveEngagement upserts an engagement
func (s *MemoryStore) SaveEngagement(_ context.Context, engagement types.Engagement) error {
	if engagement.ID == "" {
		return fmt.Errorf("engagement id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engagements[engagement.ID]; !ok {
		s.engagementOrder = append(s.engagementOrder, engagement.ID)
	}
	s.engagements[engagement.ID] = cloneEngagement(engagement)
	return nil
}

// ListEngagements returns every engagement
func (s *MemoryStore) ListEngagements(_ context.Context) ([]types.Engagement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Engagement, 0, len(s.engagementOrder))
	for _, id := range s.engagementOrder {
		out = append(out, cloneEngagement(s.engagements[id]))
	}
	return out, nil
}

// ListEngagementsByLead returns a lead's engagements oldest first
func (s *MemoryStore) ListEngagementsByLead(_ context.Context, leadID string) ([]types.Engagement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Engagement
	for _, id := range s.engagementOrder {
		if e := s.engagements[id]; e.LeadID == leadID {
			out = append(out, cloneEngagement(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SaveAttendanceDay upserts one user's day
func (s *MemoryStore) SaveAttendanceDay(_ context.Context, day types.AttendanceDay) error {
	if day.UserID == "" || day.Date == "" {
		return fmt.Errorf("attendance user id and date are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	days, ok := s.attendance[day.UserID]
	if !ok {
		days = make(map[string]types.AttendanceDay)
		s.attendance[day.UserID] = days
	}
	day.Sessions = append([]types.WorkSession(nil), day.Sessions...)
	days[day.Date] = day
	return nil
}

// ListAttendance returns a user's days within [from, to] in date order
func (s *MemoryStore) ListAttendance(_ context.Context, userID, from, to string) ([]types.AttendanceDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.AttendanceDay
	for date, day := range s.attendance[userID] {
		if from != "" && date < from {
			continue
		}
		if to != "" && date > to {
			continue
		}
		day.Sessions = append([]types.WorkSession(nil), day.Sessions...)
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// TruncateAll drops every record
func (s *MemoryStore) TruncateAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

func cloneLead(l types.Lead) types.Lead {
	l.LastQuotedAmount = cloneFloat(l.LastQuotedAmount)
	l.TotalQuotedAmount = cloneFloat(l.TotalQuotedAmount)
	l.NextActionDueAt = cloneTime(l.NextActionDueAt)
	l.LastActivityAt = cloneTime(l.LastActivityAt)
	return l
}

func cloneEngagement(e types.Engagement) types.Engagement {
	e.NextFollowUpAt = cloneTime(e.NextFollowUpAt)
	return e
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
