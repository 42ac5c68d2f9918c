package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/theirongolddev/tripgate/internal/gateway"
	"github.com/theirongolddev/tripgate/internal/metrics"
	"github.com/theirongolddev/tripgate/internal/quota"
	"github.com/theirongolddev/tripgate/internal/router"
)

const maxBodySize = 1 << 20

// ClassifyRequest is the body of POST /v1/classify.
type ClassifyRequest struct {
	Message       string `json:"message"`
	ContextTokens int64  `json:"context_tokens"`
}

// QuotaCheckRequest is the body of POST /v1/quota/check.
type QuotaCheckRequest struct {
	UserID string `json:"user_id"`
	Tier   string `json:"tier"`
	// Peek reads the quota state without claiming a strict-mode slot.
	Peek bool `json:"peek,omitempty"`
}

// UsageAccepted is the response of POST /v1/usage.
type UsageAccepted struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	summary := s.snapshotStatus().Summary
	writeSSE(w, Event{Type: EventSnapshot, Timestamp: time.Now(), Snapshot: &summary})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.Router().Catalog().Models())
}

func (s *Service) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.rt.Classify(req.Message, req.ContextTokens))
}

func (s *Service) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req router.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.rt.Route(req))
}

func (s *Service) handleQuotaCheck(w http.ResponseWriter, r *http.Request) {
	var req QuotaCheckRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	check := s.rt.CheckQuota
	if req.Peek {
		check = s.rt.PeekQuota
	}
	d, err := check(r.Context(), req.UserID, req.Tier)
	if err != nil {
		s.quotaError(w, err, d)
		return
	}
	if !req.Peek {
		s.noteBlocked(req.UserID, d)
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Service) handleAdmit(w http.ResponseWriter, r *http.Request) {
	var req gateway.AdmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	adm, err := s.rt.Admit(r.Context(), req)
	if err != nil {
		s.quotaError(w, err, adm)
		return
	}
	s.noteBlocked(req.UserID, adm.Quota)
	writeJSON(w, http.StatusOK, adm)
}

// quotaError answers a failed check: bad input is 400, an unreadable
// ledger is 503 with the denied decision as the body.
func (s *Service) quotaError(w http.ResponseWriter, err error, body any) {
	if errors.Is(err, gateway.ErrMissingUser) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
	writeJSON(w, http.StatusServiceUnavailable, body)
}

func (s *Service) noteBlocked(userID string, d quota.Decision) {
	if d.Allowed {
		return
	}
	s.publish(Event{Type: EventQuotaBlocked, Quota: &QuotaEvent{
		UserID: userID, Tier: d.CallerTier, Window: d.Window, Reason: d.Reason,
	}})
}

func (s *Service) handleUsage(w http.ResponseWriter, r *http.Request) {
	var req gateway.UsageEntry
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := s.rt.RecordUsage(req)
	if err != nil {
		if errors.Is(err, gateway.ErrMissingUser) || errors.Is(err, gateway.ErrInvalidUsage) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusAccepted, UsageAccepted{ID: rec.ID, CreatedAt: rec.CreatedAt})
}

func (s *Service) handleUserStats(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 366 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("days must be between 1 and 366"))
			return
		}
		days = n
	}
	stats, err := s.rt.UserStats(r.Context(), r.PathValue("id"), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Service) handleTripStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.rt.TripStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusWriter records the response status for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func instrument(endpoint string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)
		metrics.RequestCount.WithLabelValues(r.Method, endpoint, strconv.Itoa(sw.status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}
