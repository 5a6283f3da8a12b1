package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/types"
)

func TestFilterSnapshot(t *testing.T) {
	now := time.Date(2024, 9, 15, 14, 0, 0, 0, time.UTC)
	own := &types.DashboardSnapshot{
		Type:         "dashboard",
		Timestamp:    now,
		Totals:       types.AggregateRow{Key: "All", Total: 2},
		ByTeamMember: []types.AggregateRow{{Key: "u1", Total: 2}},
	}
	full := &types.DashboardSnapshot{
		Type:         "dashboard",
		Timestamp:    now,
		Totals:       types.AggregateRow{Key: "All", Total: 5},
		ByTeamMember: []types.AggregateRow{{Key: "u2", Total: 3}, {Key: "u1", Total: 2}},
		Members:      map[string]*types.DashboardSnapshot{"u1": own},
	}

	t.Run("admin and manager see everything", func(t *testing.T) {
		for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleManager} {
			got := FilterSnapshot(auth.Viewer{UserID: "x", Role: role}, full)
			assert.Same(t, full, got)
		}
	})

	t.Run("agent sees own slice only", func(t *testing.T) {
		got := FilterSnapshot(auth.Viewer{UserID: "u1", Role: auth.RoleAgent}, full)
		require.NotNil(t, got)
		assert.Equal(t, 2, got.Totals.Total)
		assert.Equal(t, []types.AggregateRow{{Key: "u1", Total: 2}}, got.ByTeamMember)
		assert.Nil(t, got.Members)
	})

	t.Run("viewer without leads gets empty dashboard", func(t *testing.T) {
		got := FilterSnapshot(auth.Viewer{UserID: "u9", Role: auth.RoleViewer}, full)
		require.NotNil(t, got)
		assert.Equal(t, 0, got.Totals.Total)
		assert.Empty(t, got.ByTeamMember)
		assert.Equal(t, now, got.Timestamp)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		assert.Nil(t, FilterSnapshot(auth.Viewer{Role: auth.RoleAgent}, nil))
	})
}
