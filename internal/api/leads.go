package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripdesk/backend/internal/leadstatus"
	"github.com/tripdesk/backend/internal/storage"
	"github.com/tripdesk/backend/internal/timeline"
	"github.com/tripdesk/backend/internal/types"
)

// LeadView is a lead with its derived status, computed per request
type LeadView struct {
	types.Lead
	Health     types.HealthResult     `json:"health"`
	NextAction types.NextActionStatus `json:"nextAction"`
}

// LeadDetail adds the next scheduled follow-up from the lead's timeline
type LeadDetail struct {
	LeadView
	NextFollowUp *types.Engagement `json:"nextFollowUp"`
}

// TimelineResponse is a lead's engagement history
type TimelineResponse struct {
	LeadID       string             `json:"leadId"`
	Engagements  []types.Engagement `json:"engagements"`
	NextFollowUp *types.Engagement  `json:"nextFollowUp"`
}

// LeadHandler serves lead lists, details and timelines
type LeadHandler struct {
	store  storage.Store
	loc    *time.Location
	logger zerolog.Logger
	now    func() time.Time
}

// NewLeadHandler creates a new LeadHandler. Calendar-day checks such as
// "due today" use loc, or UTC when loc is nil.
func NewLeadHandler(store storage.Store, loc *time.Location, logger zerolog.Logger) *LeadHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &LeadHandler{
		store:  store,
		loc:    loc,
		logger: logger.With().Str("component", "lead_handler").Logger(),
		now:    time.Now,
	}
}

func (h *LeadHandler) clock() time.Time {
	return h.now().In(h.loc)
}

func viewOf(lead types.Lead, now time.Time) LeadView {
	return LeadView{
		Lead:       lead,
		Health:     leadstatus.ClassifyAt(&lead, now),
		NextAction: leadstatus.NextActionAt(&lead, now),
	}
}

// List returns the viewer's leads with derived status
// GET /api/leads
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	leads, err := h.store.ListLeads(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list leads")
		writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}

	now := h.clock()
	visible := VisibleLeads(viewer, leads)
	views := make([]LeadView, 0, len(visible))
	for _, l := range visible {
		views = append(views, viewOf(l, now))
	}

	writeJSON(w, http.StatusOK, views)
}

// loadVisibleLead fetches a lead and checks the viewer's scope, writing the
// error response itself when it returns false
func (h *LeadHandler) loadVisibleLead(w http.ResponseWriter, r *http.Request) (types.Lead, bool) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return types.Lead{}, false
	}

	leadID := chi.URLParam(r, "leadId")
	lead, err := h.store.GetLead(r.Context(), leadID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "lead not found")
		return types.Lead{}, false
	}
	if err != nil {
		h.logger.Error().Err(err).Str("lead_id", leadID).Msg("failed to get lead")
		writeError(w, http.StatusInternalServerError, "failed to get lead")
		return types.Lead{}, false
	}

	if !CanSeeLead(viewer, lead) {
		writeError(w, http.StatusForbidden, "lead not assigned to you")
		return types.Lead{}, false
	}
	return lead, true
}

// Get returns one lead with derived status and its next follow-up
// GET /api/leads/{leadId}
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.loadVisibleLead(w, r)
	if !ok {
		return
	}

	engagements, err := h.store.ListEngagementsByLead(r.Context(), lead.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("lead_id", lead.ID).Msg("failed to list engagements")
		writeError(w, http.StatusInternalServerError, "failed to load timeline")
		return
	}

	now := h.clock()
	writeJSON(w, http.StatusOK, LeadDetail{
		LeadView:     viewOf(lead, now),
		NextFollowUp: timeline.NextFollowUpAt(engagements, now),
	})
}

// Timeline returns a lead's engagements and its next follow-up
// GET /api/leads/{leadId}/timeline
func (h *LeadHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	lead, ok := h.loadVisibleLead(w, r)
	if !ok {
		return
	}

	engagements, err := h.store.ListEngagementsByLead(r.Context(), lead.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("lead_id", lead.ID).Msg("failed to list engagements")
		writeError(w, http.StatusInternalServerError, "failed to load timeline")
		return
	}
	if engagements == nil {
		engagements = []types.Engagement{}
	}

	writeJSON(w, http.StatusOK, TimelineResponse{
		LeadID:       lead.ID,
		Engagements:  engagements,
		NextFollowUp: timeline.NextFollowUpAt(engagements, h.clock()),
	})
}
