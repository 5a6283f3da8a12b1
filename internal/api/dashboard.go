package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripdesk/backend/internal/aggregator"
	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/storage"
	"github.com/tripdesk/backend/internal/types"
)

// maxTrendDays bounds the trend query parameter
const maxTrendDays = 365

// DashboardHandler serves dashboard aggregates recomputed on every request
type DashboardHandler struct {
	store  storage.Store
	opts   aggregator.SnapshotOptions
	logger zerolog.Logger
	now    func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(store storage.Store, opts aggregator.SnapshotOptions, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		store:  store,
		opts:   opts,
		logger: logger.With().Str("component", "dashboard_handler").Logger(),
		now:    time.Now,
	}
}

// load returns the leads and engagements the viewer may see
func (h *DashboardHandler) load(ctx context.Context, viewer auth.Viewer) ([]types.Lead, []types.Engagement, error) {
	leads, err := h.store.ListLeads(ctx)
	if err != nil {
		return nil, nil, err
	}
	engagements, err := h.store.ListEngagements(ctx)
	if err != nil {
		return nil, nil, err
	}

	if viewer.Privileged() {
		return leads, engagements, nil
	}
	visible := VisibleLeads(viewer, leads)
	return visible, engagementsForLeads(engagements, visible), nil
}

func (h *DashboardHandler) loadOrFail(w http.ResponseWriter, r *http.Request) ([]types.Lead, []types.Engagement, bool) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return nil, nil, false
	}

	leads, engagements, err := h.load(r.Context(), viewer)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load dashboard records")
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return nil, nil, false
	}
	return leads, engagements, true
}

// Get returns the full dashboard scoped to the viewer
// GET /api/dashboard
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	leads, engagements, ok := h.loadOrFail(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, aggregator.BuildSnapshot(leads, engagements, h.now(), h.opts))
}

// Dimension returns sorted aggregate rows for one grouping
// GET /api/dashboard/{dimension}
func (h *DashboardHandler) Dimension(w http.ResponseWriter, r *http.Request) {
	var group func([]types.Lead) aggregator.Rows
	switch chi.URLParam(r, "dimension") {
	case "destinations":
		group = aggregator.ByDestination
	case "agents":
		group = aggregator.ByAgent
	case "team":
		group = aggregator.ByTeamMember
	default:
		writeError(w, http.StatusNotFound, "unknown dimension")
		return
	}

	leads, _, ok := h.loadOrFail(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, aggregator.Sorted(group(leads)))
}

// Channels returns engagement counts by channel
// GET /api/dashboard/channels
func (h *DashboardHandler) Channels(w http.ResponseWriter, r *http.Request) {
	_, engagements, ok := h.loadOrFail(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, aggregator.ChannelCounts(engagements))
}

// Trend returns daily engagement counts for the most recent days
// GET /api/dashboard/trend?days=N
func (h *DashboardHandler) Trend(w http.ResponseWriter, r *http.Request) {
	days := h.opts.TrendDays
	if days <= 0 {
		days = aggregator.DefaultTrendDays
	}
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTrendDays {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}

	_, engagements, ok := h.loadOrFail(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, aggregator.DailyTrend(engagements, days, h.opts.Loc()))
}
