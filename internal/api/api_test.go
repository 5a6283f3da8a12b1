package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/backend/internal/aggregator"
	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/storage"
	"github.com/tripdesk/backend/internal/types"
)

var apiNow = time.Date(2024, 9, 15, 14, 0, 0, 0, time.UTC)

func tp(t time.Time) *time.Time { return &t }

func amt(v float64) *float64 { return &v }

func claimsFor(userID string, role auth.Role) *auth.Claims {
	return &auth.Claims{
		Name:             userID,
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}
}

func seedStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	leads := []types.Lead{
		{ID: "l1", Stage: types.StageClosedWon, DestinationName: "Bali", AssignedTo: "u1", LastQuotedAmount: amt(1000), CreatedAt: apiNow.AddDate(0, 0, -3)},
		{ID: "l2", Stage: types.StageQuoted, DestinationName: "Bali", AssignedTo: "u1", NextActionDueAt: tp(apiNow.Add(-time.Hour)), CreatedAt: apiNow.AddDate(0, 0, -2)},
		{ID: "l3", Stage: types.StageNew, DestinationName: "Goa", AssignedTo: "u2", CreatedAt: apiNow.AddDate(0, 0, -1)},
	}
	for _, l := range leads {
		require.NoError(t, store.SaveLead(ctx, l))
	}

	engagements := []types.Engagement{
		{ID: "e2", LeadID: "l2", Type: types.EngagementTypeFollowUp, Channel: types.ChannelEmail, NextFollowUpAt: tp(apiNow.Add(48 * time.Hour)), CreatedAt: apiNow},
		{ID: "e1", LeadID: "l2", Type: types.EngagementTypeFollowUp, Channel: types.ChannelCall, NextFollowUpAt: tp(apiNow.Add(24 * time.Hour)), CreatedAt: apiNow.AddDate(0, 0, -1)},
		{ID: "e3", LeadID: "l3", Type: types.EngagementTypeNote, Channel: types.ChannelCall, CreatedAt: apiNow},
	}
	for _, e := range engagements {
		require.NoError(t, store.SaveEngagement(ctx, e))
	}

	days := []types.AttendanceDay{
		{UserID: "u1", Date: "2024-09-12", TotalMinutes: 500},
		{UserID: "u1", Date: "2024-09-13", TotalMinutes: 300},
		{UserID: "u1", Date: "2024-09-14", IsLeave: true},
	}
	for _, d := range days {
		require.NoError(t, store.SaveAttendanceDay(ctx, d))
	}
	return store
}

type routerDeps struct {
	loc      *time.Location
	notifier Notifier
}

func newTestRouter(store storage.Store, claims *auth.Claims) http.Handler {
	return newTestRouterWith(store, claims, routerDeps{loc: time.UTC})
}

func newTestRouterWith(store storage.Store, claims *auth.Claims, deps routerDeps) http.Handler {
	logger := zerolog.Nop()
	leads := NewLeadHandler(store, deps.loc, logger)
	leads.now = func() time.Time { return apiNow }
	dashboard := NewDashboardHandler(store, aggregator.SnapshotOptions{TrendDays: 14, Location: deps.loc}, logger)
	dashboard.now = func() time.Time { return apiNow }
	admin := NewAdminHandler(store, deps.notifier, logger)
	admin.now = func() time.Time { return apiNow }

	r := chi.NewRouter()
	if claims != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	Handlers{
		Leads:      leads,
		Dashboard:  dashboard,
		Attendance: NewAttendanceHandler(store, logger),
		Admin:      admin,
	}.Mount(r)
	return r
}

type recordingNotifier struct {
	frames [][]byte
}

func (n *recordingNotifier) Broadcast(message []byte) {
	n.frames = append(n.frames, message)
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	router := newTestRouter(seedStore(t), nil)

	for _, path := range []string{"/api/leads", "/api/dashboard", "/api/attendance/u1"} {
		rec := do(t, router, http.MethodGet, path)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestListLeadsScopedToViewer(t *testing.T) {
	store := seedStore(t)

	tests := []struct {
		name  string
		user  string
		role  auth.Role
		wants []string
	}{
		{name: "manager sees all", user: "m1", role: auth.RoleManager, wants: []string{"l1", "l2", "l3"}},
		{name: "admin sees all", user: "a1", role: auth.RoleAdmin, wants: []string{"l1", "l2", "l3"}},
		{name: "agent sees own", user: "u1", role: auth.RoleAgent, wants: []string{"l1", "l2"}},
		{name: "viewer without leads", user: "u9", role: auth.RoleViewer, wants: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestRouter(store, claimsFor(tt.user, tt.role)), http.MethodGet, "/api/leads")
			require.Equal(t, http.StatusOK, rec.Code)

			views := decode[[]LeadView](t, rec)
			ids := make([]string, 0, len(views))
			for _, v := range views {
				ids = append(ids, v.ID)
			}
			assert.Equal(t, tt.wants, ids)
		})
	}
}

func TestListLeadsCarriesDerivedStatus(t *testing.T) {
	rec := do(t, newTestRouter(seedStore(t), claimsFor("u1", auth.RoleAgent)), http.MethodGet, "/api/leads")
	require.Equal(t, http.StatusOK, rec.Code)

	views := decode[[]LeadView](t, rec)
	require.Len(t, views, 2)
	assert.Equal(t, types.HealthWon, views[0].Health.Label)
	assert.Equal(t, types.NextActionNone, views[0].NextAction)
	assert.Equal(t, types.HealthAtRisk, views[1].Health.Label)
	assert.Equal(t, types.NextActionOverdue, views[1].NextAction)
}

func TestNextActionUsesConfiguredLocation(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	// due 2024-09-15 23:30 UTC is 2024-09-16 05:00 in Kolkata, where
	// apiNow is still 2024-09-15 19:30
	due := time.Date(2024, 9, 15, 23, 30, 0, 0, time.UTC)
	require.NoError(t, store.SaveLead(ctx, types.Lead{
		ID:              "ist",
		Stage:           types.StageFollowUp,
		AssignedTo:      "u1",
		NextActionDueAt: &due,
		CreatedAt:       apiNow,
	}))

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	tests := []struct {
		name string
		loc  *time.Location
		want types.NextActionStatus
	}{
		{name: "utc", loc: time.UTC, want: types.NextActionToday},
		{name: "kolkata", loc: kolkata, want: types.NextActionUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouterWith(store, claimsFor("u1", auth.RoleAgent), routerDeps{loc: tt.loc})
			rec := do(t, router, http.MethodGet, "/api/leads/ist")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decode[LeadDetail](t, rec).NextAction)
		})
	}
}

func TestGetLead(t *testing.T) {
	store := seedStore(t)

	t.Run("detail with next follow-up", func(t *testing.T) {
		rec := do(t, newTestRouter(store, claimsFor("u1", auth.RoleAgent)), http.MethodGet, "/api/leads/l2")
		require.Equal(t, http.StatusOK, rec.Code)

		detail := decode[LeadDetail](t, rec)
		assert.Equal(t, "l2", detail.ID)
		require.NotNil(t, detail.NextFollowUp)
		assert.Equal(t, "e1", detail.NextFollowUp.ID)
	})

	t.Run("other agent forbidden", func(t *testing.T) {
		rec := do(t, newTestRouter(store, claimsFor("u2", auth.RoleAgent)), http.MethodGet, "/api/leads/l2")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing lead", func(t *testing.T) {
		rec := do(t, newTestRouter(store, claimsFor("m1", auth.RoleManager)), http.MethodGet, "/api/leads/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestTimeline(t *testing.T) {
	router := newTestRouter(seedStore(t), claimsFor("m1", auth.RoleManager))

	rec := do(t, router, http.MethodGet, "/api/leads/l2/timeline")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[TimelineResponse](t, rec)
	assert.Equal(t, "l2", resp.LeadID)
	require.Len(t, resp.Engagements, 2)
	assert.Equal(t, "e1", resp.Engagements[0].ID)
	assert.Equal(t, "e2", resp.Engagements[1].ID)
	require.NotNil(t, resp.NextFollowUp)
	assert.Equal(t, "e1", resp.NextFollowUp.ID)

	rec = do(t, router, http.MethodGet, "/api/leads/l1/timeline")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[TimelineResponse](t, rec)
	assert.Empty(t, resp.Engagements)
	assert.Nil(t, resp.NextFollowUp)
}

func TestDashboardScopedToViewer(t *testing.T) {
	store := seedStore(t)

	rec := do(t, newTestRouter(store, claimsFor("m1", auth.RoleManager)), http.MethodGet, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	full := decode[types.DashboardSnapshot](t, rec)
	assert.Equal(t, "dashboard", full.Type)
	assert.Equal(t, 3, full.Totals.Total)
	assert.Equal(t, map[string]int{"call": 2, "email": 1}, full.ChannelBreakdown)

	rec = do(t, newTestRouter(store, claimsFor("u1", auth.RoleAgent)), http.MethodGet, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	own := decode[types.DashboardSnapshot](t, rec)
	assert.Equal(t, 2, own.Totals.Total)
	assert.Equal(t, 1, own.Totals.Won)
	assert.Equal(t, 50, own.Totals.Conversion)
	assert.Equal(t, map[string]int{"call": 1, "email": 1}, own.ChannelBreakdown)
	require.Len(t, own.ByTeamMember, 1)
	assert.Equal(t, "u1", own.ByTeamMember[0].Key)
}

func TestDashboardDimension(t *testing.T) {
	router := newTestRouter(seedStore(t), claimsFor("m1", auth.RoleManager))

	rec := do(t, router, http.MethodGet, "/api/dashboard/destinations")
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode[[]types.AggregateRow](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bali", rows[0].Key)
	assert.Equal(t, 2, rows[0].Total)
	assert.Equal(t, 1000.0, rows[0].Revenue)
	assert.Equal(t, "Goa", rows[1].Key)

	rec = do(t, router, http.MethodGet, "/api/dashboard/agents")
	require.Equal(t, http.StatusOK, rec.Code)
	rows = decode[[]types.AggregateRow](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, types.UnknownLabel, rows[0].Key)

	rec = do(t, router, http.MethodGet, "/api/dashboard/planets")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardTrend(t *testing.T) {
	router := newTestRouter(seedStore(t), claimsFor("m1", auth.RoleManager))

	rec := do(t, router, http.MethodGet, "/api/dashboard/trend?days=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []types.TrendBucket{{Day: "2024-09-15", Count: 2}}, decode[[]types.TrendBucket](t, rec))

	rec = do(t, router, http.MethodGet, "/api/dashboard/trend")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.TrendBucket](t, rec), 2)

	for _, q := range []string{"abc", "0", "366"} {
		rec = do(t, router, http.MethodGet, "/api/dashboard/trend?days="+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestAttendance(t *testing.T) {
	store := seedStore(t)

	t.Run("own range with summary", func(t *testing.T) {
		router := newTestRouter(store, claimsFor("u1", auth.RoleAgent))
		rec := do(t, router, http.MethodGet, "/api/attendance/u1?from=2024-09-13&to=2024-09-14")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[AttendanceResponse](t, rec)
		require.Len(t, resp.Days, 2)
		assert.Equal(t, types.AttendanceHalfDay, resp.Days[0].Status)
		assert.Equal(t, types.AttendanceLeave, resp.Days[1].Status)
		assert.Equal(t, 2, resp.Summary.Days)
		assert.Equal(t, 300, resp.Summary.TotalMinutes)
	})

	t.Run("manager reads anyone", func(t *testing.T) {
		router := newTestRouter(store, claimsFor("m1", auth.RoleManager))
		rec := do(t, router, http.MethodGet, "/api/attendance/u1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[AttendanceResponse](t, rec).Days, 3)
	})

	t.Run("agent cannot read others", func(t *testing.T) {
		router := newTestRouter(store, claimsFor("u2", auth.RoleAgent))
		rec := do(t, router, http.MethodGet, "/api/attendance/u1")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("invalid ranges", func(t *testing.T) {
		router := newTestRouter(store, claimsFor("u1", auth.RoleAgent))
		for _, q := range []string{"?from=13-09-2024", "?to=2024-13-01", "?from=2024-09-14&to=2024-09-13"} {
			rec := do(t, router, http.MethodGet, "/api/attendance/u1"+q)
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})
}

func TestAdminReset(t *testing.T) {
	store := seedStore(t)
	notifier := &recordingNotifier{}

	rec := do(t, newTestRouterWith(store, claimsFor("m1", auth.RoleManager), routerDeps{notifier: notifier}), http.MethodPost, "/api/admin/reset")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	leads, err := store.ListLeads(context.Background())
	require.NoError(t, err)
	assert.Len(t, leads, 3)

	assert.Empty(t, notifier.frames)

	rec = do(t, newTestRouterWith(store, claimsFor("a1", auth.RoleAdmin), routerDeps{notifier: notifier}), http.MethodPost, "/api/admin/reset")
	require.Equal(t, http.StatusOK, rec.Code)

	leads, err = store.ListLeads(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)

	require.Len(t, notifier.frames, 1)
	var event ResetEvent
	require.NoError(t, json.Unmarshal(notifier.frames[0], &event))
	assert.Equal(t, "reset", event.Type)
	assert.True(t, event.Timestamp.Equal(apiNow))
}

func TestAdminResetWithoutNotifier(t *testing.T) {
	rec := do(t, newTestRouter(seedStore(t), claimsFor("a1", auth.RoleAdmin)), http.MethodPost, "/api/admin/reset")
	assert.Equal(t, http.StatusOK, rec.Code)
}
