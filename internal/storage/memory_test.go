package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/backend/internal/types"
)

func TestMemoryStoreLeads(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	amount := 1200.0
	require.NoError(t, s.SaveLead(ctx, types.Lead{ID: "l1", Stage: types.StageNew, LastQuotedAmount: &amount}))
	require.NoError(t, s.SaveLead(ctx, types.Lead{ID: "l2", Stage: types.StageQuoted}))
	require.NoError(t, s.SaveLead(ctx, types.Lead{ID: "l1", Stage: types.StageClosedWon, LastQuotedAmount: &amount}))

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "l1", leads[0].ID)
	assert.Equal(t, types.StageClosedWon, leads[0].Stage)

	// Stored values are copies
	amount = 1
	*leads[0].LastQuotedAmount = 99
	got, err := s.GetLead(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, *got.LastQuotedAmount)

	_, err = s.GetLead(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Error(t, s.SaveLead(ctx, types.Lead{}))
}

func TestMemoryStoreEngagementsByLead(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveEngagement(ctx, types.Engagement{ID: "e2", LeadID: "l1", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, s.SaveEngagement(ctx, types.Engagement{ID: "e1", LeadID: "l1", CreatedAt: base}))
	require.NoError(t, s.SaveEngagement(ctx, types.Engagement{ID: "e3", LeadID: "l2", CreatedAt: base}))

	byLead, err := s.ListEngagementsByLead(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, byLead, 2)
	assert.Equal(t, "e1", byLead[0].ID)
	assert.Equal(t, "e2", byLead[1].ID)

	all, err := s.ListEngagements(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "e2", all[0].ID)
}

func TestMemoryStoreAttendanceRange(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, date := range []string{"2024-09-03", "2024-09-01", "2024-09-02", "2024-09-10"} {
		require.NoError(t, s.SaveAttendanceDay(ctx, types.AttendanceDay{UserID: "u1", Date: date, TotalMinutes: 480}))
	}
	require.NoError(t, s.SaveAttendanceDay(ctx, types.AttendanceDay{UserID: "u2", Date: "2024-09-01"}))

	days, err := s.ListAttendance(ctx, "u1", "2024-09-01", "2024-09-03")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-09-01", days[0].Date)
	assert.Equal(t, "2024-09-03", days[2].Date)

	open, err := s.ListAttendance(ctx, "u1", "", "")
	require.NoError(t, err)
	assert.Len(t, open, 4)

	none, err := s.ListAttendance(ctx, "u3", "", "")
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.Error(t, s.SaveAttendanceDay(ctx, types.AttendanceDay{UserID: "u1"}))
}

func TestMemoryStoreTruncateAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.SaveLead(ctx, types.Lead{ID: "l1"}))
	require.NoError(t, s.SaveEngagement(ctx, types.Engagement{ID: "e1"}))
	require.NoError(t, s.SaveAttendanceDay(ctx, types.AttendanceDay{UserID: "u1", Date: "2024-09-01"}))

	require.NoError(t, s.TruncateAll(ctx))

	leads, _ := s.ListLeads(ctx)
	engagements, _ := s.ListEngagements(ctx)
	days, _ := s.ListAttendance(ctx, "u1", "", "")
	assert.Empty(t, leads)
	assert.Empty(t, engagements)
	assert.Empty(t, days)
}

func TestRecordRoundTripKeepsInstants(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	due := time.Date(2024, 9, 15, 9, 30, 0, 0, ist)
	created := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

	lead := types.Lead{ID: "l1", Stage: types.StageQuoted, NextActionDueAt: &due, CreatedAt: created}
	got := toLeadRecord(lead).toLead()

	require.NotNil(t, got.NextActionDueAt)
	assert.True(t, got.NextActionDueAt.Equal(due))
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Nil(t, got.LastActivityAt)

	unlinked := types.Engagement{ID: "e1", AgentID: "a1"}
	rec := toEngagementRecord(unlinked)
	assert.Equal(t, unlinkedLeadKey, rec.LeadID)
	assert.Equal(t, "", rec.toEngagement().LeadID)
	assert.True(t, rec.toEngagement().CreatedAt.IsZero())

	checkOut := created.Add(4 * time.Hour)
	day := types.AttendanceDay{UserID: "u1", Date: "2024-09-01", Sessions: []types.WorkSession{{CheckIn: created, CheckOut: &checkOut}, {CheckIn: created}}}
	back := toAttendanceRecord(day).toAttendanceDay()
	require.Len(t, back.Sessions, 2)
	assert.True(t, back.Sessions[0].CheckOut.Equal(checkOut))
	assert.Nil(t, back.Sessions[1].CheckOut)
}
