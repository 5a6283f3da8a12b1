package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets the dashboard origins read the API and post ingest batches.
// Tokens travel in the Authorization header, never in cookies.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           600, // seconds; Chromium caps preflight caching here
	})

	return c.Handler
}
