package api

import (
	"encoding/json"
	"net/http"

	"github.com/tripdesk/backend/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requireViewer returns the authenticated viewer or writes 401
func requireViewer(w http.ResponseWriter, r *http.Request) (auth.Viewer, bool) {
	viewer, ok := auth.ViewerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return auth.Viewer{}, false
	}
	return viewer, true
}
