package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	const dashboard = "http://localhost:5173"

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	corsHandler := CORS([]string{dashboard})(handler)

	tests := []struct {
		name          string
		method        string
		path          string
		origin        string
		requestMethod string // Access-Control-Request-Method on preflight
		requestHeader string
		expectOrigin  string
		expectMethods string
	}{
		{
			name:         "dashboard reads snapshot",
			method:       http.MethodGet,
			path:         "/api/dashboard",
			origin:       dashboard,
			expectOrigin: dashboard,
		},
		{
			name:   "foreign origin reads snapshot",
			method: http.MethodGet,
			path:   "/api/dashboard",
			origin: "http://evil.example",
		},
		{
			name:          "preflight ingest post",
			method:        http.MethodOptions,
			path:          "/internal/leads",
			origin:        dashboard,
			requestMethod: http.MethodPost,
			requestHeader: "Content-Type",
			expectOrigin:  dashboard,
			expectMethods: http.MethodPost,
		},
		{
			name:          "preflight with bearer token",
			method:        http.MethodOptions,
			path:          "/api/leads",
			origin:        dashboard,
			requestMethod: http.MethodGet,
			requestHeader: "Authorization",
			expectOrigin:  dashboard,
			expectMethods: http.MethodGet,
		},
		{
			name:          "preflight delete refused",
			method:        http.MethodOptions,
			path:          "/api/admin/reset",
			origin:        dashboard,
			requestMethod: http.MethodDelete,
		},
		{
			name:          "preflight custom header refused",
			method:        http.MethodOptions,
			path:          "/internal/leads",
			origin:        dashboard,
			requestMethod: http.MethodPost,
			requestHeader: "X-CSRF-Token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Origin", tt.origin)
			if tt.requestMethod != "" {
				req.Header.Set("Access-Control-Request-Method", tt.requestMethod)
			}
			if tt.requestHeader != "" {
				req.Header.Set("Access-Control-Request-Headers", tt.requestHeader)
			}

			rec := httptest.NewRecorder()
			corsHandler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.expectOrigin {
				t.Errorf("expected Access-Control-Allow-Origin %q, got %q", tt.expectOrigin, got)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods"); got != tt.expectMethods {
				t.Errorf("expected Access-Control-Allow-Methods %q, got %q", tt.expectMethods, got)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
				t.Errorf("expected no Access-Control-Allow-Credentials, got %q", got)
			}
		})
	}
}
