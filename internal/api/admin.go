package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/storage"
)

// Notifier pushes an unscoped frame to every connected dashboard
type Notifier interface {
	Broadcast(message []byte)
}

// ResetEvent tells dashboards to drop their cached state
type ResetEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// AdminHandler serves destructive maintenance operations
type AdminHandler struct {
	store    storage.Store
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAdminHandler creates a new AdminHandler. notifier may be nil.
func NewAdminHandler(store storage.Store, notifier Notifier, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "admin_handler").Logger(),
		now:      time.Now,
	}
}

// Reset truncates every table and tells connected dashboards
// POST /api/admin/reset
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.TruncateAll(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("failed to truncate store")
		writeError(w, http.StatusInternalServerError, "failed to truncate store")
		return
	}

	viewer, _ := auth.ViewerFromContext(r.Context())
	h.logger.Warn().Str("user_id", viewer.UserID).Msg("store truncated via admin")

	if h.notifier != nil {
		frame, err := json.Marshal(ResetEvent{Type: "reset", Timestamp: h.now().UTC()})
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to marshal reset event")
		} else {
			h.notifier.Broadcast(frame)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "store truncated"})
}
