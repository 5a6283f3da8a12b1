package ingest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripdesk/backend/internal/metrics"
	"github.com/tripdesk/backend/internal/storage"
	"github.com/tripdesk/backend/internal/types"
)

// Record kinds, used as metric labels and in stats
const (
	KindLead       = "lead"
	KindEngagement = "engagement"
	KindAttendance = "attendance"
)

// MaxBodyBytes bounds a single ingest request
const MaxBodyBytes int64 = 10 << 20

// Receiver accepts raw CRM documents from upstream writers and stores them
// unchanged apart from boundary normalization
type Receiver struct {
	store   storage.Store
	logger  zerolog.Logger
	maxBody int64

	leadsReceived       int64
	engagementsReceived int64
	attendanceReceived  int64

	lastReceived time.Time
	mu           sync.RWMutex
}

// NewReceiver creates a new ingest receiver
func NewReceiver(store storage.Store, logger zerolog.Logger) *Receiver {
	return &Receiver{
		store:   store,
		logger:  logger.With().Str("component", "ingest").Logger(),
		maxBody: MaxBodyBytes,
	}
}

type ingestResponse struct {
	Accepted int      `json:"accepted"`
	IDs      []string `json:"ids"`
}

// HandleLeads receives one lead or an array of leads
func (r *Receiver) HandleLeads(w http.ResponseWriter, req *http.Request) {
	m := metrics.Get()

	payloads, err := decodeOneOrMany[LeadPayload](http.MaxBytesReader(w, req.Body, r.maxBody))
	if err != nil {
		r.reject(w, KindLead, err)
		return
	}

	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		lead := p.ToLead()
		if lead.ID == "" {
			lead.ID = uuid.New().String()
		}
		if err := r.store.SaveLead(req.Context(), lead); err != nil {
			r.logger.Error().Err(err).Str("lead_id", lead.ID).Msg("failed to save lead")
			http.Error(w, "failed to save lead", http.StatusInternalServerError)
			return
		}
		ids = append(ids, lead.ID)
	}

	m.RecordIngested(KindLead, len(ids))
	r.accepted(&r.leadsReceived, KindLead, len(ids))
	writeJSON(w, ingestResponse{Accepted: len(ids), IDs: ids})
}

// HandleEngagements receives one engagement or an array of engagements
func (r *Receiver) HandleEngagements(w http.ResponseWriter, req *http.Request) {
	m := metrics.Get()

	payloads, err := decodeOneOrMany[EngagementPayload](http.MaxBytesReader(w, req.Body, r.maxBody))
	if err != nil {
		r.reject(w, KindEngagement, err)
		return
	}

	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		engagement := p.ToEngagement()
		if engagement.ID == "" {
			engagement.ID = uuid.New().String()
		}
		if err := r.store.SaveEngagement(req.Context(), engagement); err != nil {
			r.logger.Error().Err(err).Str("engagement_id", engagement.ID).Msg("failed to save engagement")
			http.Error(w, "failed to save engagement", http.StatusInternalServerError)
			return
		}
		ids = append(ids, engagement.ID)
	}

	m.RecordIngested(KindEngagement, len(ids))
	r.accepted(&r.engagementsReceived, KindEngagement, len(ids))
	writeJSON(w, ingestResponse{Accepted: len(ids), IDs: ids})
}

// HandleAttendance receives one attendance day or an array of days. The
// whole batch is rejected if any day lacks a user or a valid date.
func (r *Receiver) HandleAttendance(w http.ResponseWriter, req *http.Request) {
	m := metrics.Get()

	payloads, err := decodeOneOrMany[AttendancePayload](http.MaxBytesReader(w, req.Body, r.maxBody))
	if err != nil {
		r.reject(w, KindAttendance, err)
		return
	}

	days := make([]types.AttendanceDay, 0, len(payloads))
	for _, p := range payloads {
		day, err := p.ToAttendanceDay()
		if err != nil {
			r.reject(w, KindAttendance, err)
			return
		}
		days = append(days, day)
	}

	ids := make([]string, 0, len(days))
	for _, day := range days {
		if err := r.store.SaveAttendanceDay(req.Context(), day); err != nil {
			r.logger.Error().Err(err).Str("user_id", day.UserID).Str("date", day.Date).Msg("failed to save attendance")
			http.Error(w, "failed to save attendance", http.StatusInternalServerError)
			return
		}
		ids = append(ids, day.UserID+"/"+day.Date)
	}

	m.RecordIngested(KindAttendance, len(ids))
	r.accepted(&r.attendanceReceived, KindAttendance, len(ids))
	writeJSON(w, ingestResponse{Accepted: len(ids), IDs: ids})
}

// GetStats returns receiver statistics
func (r *Receiver) GetStats(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	lastReceived := r.lastReceived
	r.mu.RUnlock()

	stats := map[string]interface{}{
		"leads_received":       atomic.LoadInt64(&r.leadsReceived),
		"engagements_received": atomic.LoadInt64(&r.engagementsReceived),
		"attendance_received":  atomic.LoadInt64(&r.attendanceReceived),
		"last_received":        lastReceived,
	}

	writeJSON(w, stats)
}

func (r *Receiver) accepted(counter *int64, kind string, n int) {
	total := atomic.AddInt64(counter, int64(n))
	r.mu.Lock()
	r.lastReceived = time.Now()
	r.mu.Unlock()

	r.logger.Debug().
		Str("kind", kind).
		Int("count", n).
		Int64("total_received", total).
		Msg("records ingested")
}

func (r *Receiver) reject(w http.ResponseWriter, kind string, err error) {
	metrics.Get().RecordRejected(kind)
	r.logger.Warn().Err(err).Str("kind", kind).Msg("rejected ingest payload")

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, kind+" batch exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "invalid "+kind+": "+err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
