package auth

import "context"

// Role is the caller's application role
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAgent   Role = "agent"
	RoleViewer  Role = "viewer"
)

// rolePriority orders roles from most to least privileged
var rolePriority = []Role{RoleAdmin, RoleManager, RoleAgent, RoleViewer}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	for _, known := range rolePriority {
		if r == known {
			return true
		}
	}
	return false
}

// Viewer is the explicit identity passed to every scoping decision
type Viewer struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Privileged reports whether the viewer sees every lead
func (v Viewer) Privileged() bool {
	return v.Role == RoleAdmin || v.Role == RoleManager
}

// IsAdmin reports whether the viewer may run admin operations
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// CanSeeUser reports whether the viewer may read data owned by userID
func (v Viewer) CanSeeUser(userID string) bool {
	return v.Privileged() || (v.UserID != "" && v.UserID == userID)
}

// Viewer converts verified claims into a viewer
func (c *Claims) Viewer() Viewer {
	name := c.Name
	if name == "" {
		name = c.Email
	}
	return Viewer{UserID: c.Subject, Name: name, Role: c.Role}
}

// ViewerFromContext returns the authenticated viewer of a request
func ViewerFromContext(ctx context.Context) (Viewer, bool) {
	claims, ok := GetUserFromContext(ctx)
	if !ok || claims == nil {
		return Viewer{}, false
	}
	return claims.Viewer(), true
}
