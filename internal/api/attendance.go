package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripdesk/backend/internal/attendance"
	"github.com/tripdesk/backend/internal/storage"
)

// AttendanceResponse is a user's attendance range with resolved statuses
type AttendanceResponse struct {
	UserID  string               `json:"userId"`
	From    string               `json:"from,omitempty"`
	To      string               `json:"to,omitempty"`
	Days    []attendance.DayView `json:"days"`
	Summary attendance.Summary   `json:"summary"`
}

// AttendanceHandler serves attendance history
type AttendanceHandler struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler
func NewAttendanceHandler(store storage.Store, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		store:  store,
		logger: logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Get returns a user's days with resolved status plus a summary
// GET /api/attendance/{userId}?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	userID := chi.URLParam(r, "userId")
	if !viewer.CanSeeUser(userID) {
		writeError(w, http.StatusForbidden, "attendance of other users requires manager role")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			writeError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD")
			return
		}
	}
	if from != "" && to != "" && from > to {
		writeError(w, http.StatusBadRequest, "from must not be after to")
		return
	}

	days, err := h.store.ListAttendance(r.Context(), userID, from, to)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list attendance")
		writeError(w, http.StatusInternalServerError, "failed to retrieve attendance")
		return
	}

	writeJSON(w, http.StatusOK, AttendanceResponse{
		UserID:  userID,
		From:    from,
		To:      to,
		Days:    attendance.Views(days),
		Summary: attendance.Summarize(days),
	})
}
