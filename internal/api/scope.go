package api

import (
	"net/http"

	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/types"
)

// VisibleLeads returns the leads viewer may see. Admins and managers see
// every lead; everyone else sees the leads assigned to them.
func VisibleLeads(viewer auth.Viewer, leads []types.Lead) []types.Lead {
	if viewer.Privileged() {
		return leads
	}

	visible := make([]types.Lead, 0)
	if viewer.UserID == "" {
		return visible
	}
	for _, l := range leads {
		if l.AssignedTo == viewer.UserID {
			visible = append(visible, l)
		}
	}
	return visible
}

// CanSeeLead reports whether viewer may see a single lead
func CanSeeLead(viewer auth.Viewer, lead types.Lead) bool {
	return viewer.Privileged() || (viewer.UserID != "" && lead.AssignedTo == viewer.UserID)
}

// engagementsForLeads keeps the engagements logged on the given leads
func engagementsForLeads(engagements []types.Engagement, leads []types.Lead) []types.Engagement {
	ids := make(map[string]bool, len(leads))
	for _, l := range leads {
		ids[l.ID] = true
	}

	out := make([]types.Engagement, 0)
	for _, e := range engagements {
		if ids[e.LeadID] {
			out = append(out, e)
		}
	}
	return out
}

// RequireAdmin middleware, only the admin role is allowed
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok || !viewer.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
