package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Ingest metrics, keyed by record kind (lead, engagement, attendance)
	recordsReceived map[string]int64
	recordsRejected map[string]int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketMessagesTotal       int64
	WebSocketErrorsTotal         int64
	activeConnections            int64

	// Snapshot metrics
	SnapshotCyclesTotal  int64
	SnapshotErrorsTotal  int64
	lastSnapshotDuration time.Duration

	// Lead distribution from the last snapshot
	leadsByHealth map[string]int
	leadsByStage  map[string]int
	totalLeads    int

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // route -> status -> count
	httpRequestDurations map[string][]float64     // route -> durations

	startTime time.Time
}

var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates an empty, unshared metrics set
func New() *Metrics {
	return &Metrics{
		recordsReceived:      make(map[string]int64),
		recordsRejected:      make(map[string]int64),
		leadsByHealth:        make(map[string]int),
		leadsByStage:         make(map[string]int),
		httpRequestsTotal:    make(map[string]map[int]int64),
		httpRequestDurations: make(map[string][]float64),
		startTime:            time.Now(),
	}
}

// RecordIngested counts accepted records of one kind
func (m *Metrics) RecordIngested(kind string, n int) {
	m.mu.Lock()
	m.recordsReceived[kind] += int64(n)
	m.mu.Unlock()
}

// RecordRejected counts a rejected ingest request of one kind
func (m *Metrics) RecordRejected(kind string) {
	m.mu.Lock()
	m.recordsRejected[kind]++
	m.mu.Unlock()
}

// Ingested returns the accepted record count of one kind
func (m *Metrics) Ingested(kind string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recordsReceived[kind]
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketMessage increments message counter
func (m *Metrics) RecordWebSocketMessage() {
	m.mu.Lock()
	m.WebSocketMessagesTotal++
	m.mu.Unlock()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// RecordSnapshotCycle records one dashboard recompute
func (m *Metrics) RecordSnapshotCycle(duration time.Duration) {
	m.mu.Lock()
	m.SnapshotCyclesTotal++
	m.lastSnapshotDuration = duration
	m.mu.Unlock()
}

// RecordSnapshotError increments the snapshot error counter
func (m *Metrics) RecordSnapshotError() {
	m.mu.Lock()
	m.SnapshotErrorsTotal++
	m.mu.Unlock()
}

// UpdateLeadStats replaces the lead distribution gauges
func (m *Metrics) UpdateLeadStats(total int, byHealth, byStage map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalLeads = total
	m.leadsByHealth = make(map[string]int, len(byHealth))
	for k, v := range byHealth {
		m.leadsByHealth[k] = v
	}
	m.leadsByStage = make(map[string]int, len(byStage))
	for k, v := range byStage {
		m.leadsByStage[k] = v
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// HTTPRequests returns the request count for a route and status
func (m *Metrics) HTTPRequests(endpoint string, statusCode int) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.httpRequestsTotal[endpoint][statusCode]
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Middleware records every request under its chi route pattern so that
// path parameters do not explode the label set
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RecordHTTPRequest(endpoint, status, time.Since(start))
	})
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		write("tripdesk_uptime_seconds", time.Since(m.startTime).Seconds())

		for kind, count := range m.recordsReceived {
			write("tripdesk_ingest_records_total", count, "kind", kind)
		}
		for kind, count := range m.recordsRejected {
			write("tripdesk_ingest_rejected_total", count, "kind", kind)
		}

		write("tripdesk_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("tripdesk_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("tripdesk_websocket_active_connections", m.activeConnections)
		write("tripdesk_websocket_messages_total", m.WebSocketMessagesTotal)
		write("tripdesk_websocket_errors_total", m.WebSocketErrorsTotal)

		write("tripdesk_snapshot_cycles_total", m.SnapshotCyclesTotal)
		write("tripdesk_snapshot_errors_total", m.SnapshotErrorsTotal)
		write("tripdesk_snapshot_duration_seconds", m.lastSnapshotDuration.Seconds())

		write("tripdesk_leads_total", m.totalLeads)
		for label, count := range m.leadsByHealth {
			write("tripdesk_leads_by_health", count, "health", label)
		}
		for stage, count := range m.leadsByStage {
			write("tripdesk_leads_by_stage", count, "stage", stage)
		}

		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("tripdesk_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
