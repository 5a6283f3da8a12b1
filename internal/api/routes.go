package api

import "github.com/go-chi/chi/v5"

// Handlers groups the REST handlers mounted under /api
type Handlers struct {
	Leads      *LeadHandler
	Dashboard  *DashboardHandler
	Attendance *AttendanceHandler
	Admin      *AdminHandler
}

// Mount registers the API routes. r must already carry the auth middleware.
func (h Handlers) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/leads", h.Leads.List)
		r.Get("/leads/{leadId}", h.Leads.Get)
		r.Get("/leads/{leadId}/timeline", h.Leads.Timeline)

		r.Get("/dashboard", h.Dashboard.Get)
		r.Get("/dashboard/channels", h.Dashboard.Channels)
		r.Get("/dashboard/trend", h.Dashboard.Trend)
		r.Get("/dashboard/{dimension}", h.Dashboard.Dimension)

		r.Get("/attendance/{userId}", h.Attendance.Get)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/admin/reset", h.Admin.Reset)
		})
	})
}
