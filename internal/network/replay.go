package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MRamiBalles/JailbreakIdle/internal/events"
	"github.com/MRamiBalles/JailbreakIdle/internal/infra/storage"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/logger"
)

// Recapper builds away-time recaps from persisted messages.
type Recapper interface {
	GenerateRecap(ctx context.Context, slot string, since time.Time, maxEvents int) (*storage.Recap, error)
}

// ReplayResponse is the message history returned to a client.
type ReplayResponse struct {
	Slot        string             `json:"slot"`
	TotalEvents int                `json:"total_events"`
	FilteredBy  string             `json:"filtered_by,omitempty"`
	GeneratedAt string             `json:"generated_at"`
	NextSeq     int                `json:"next_seq"`
	Events      []events.GameEvent `json:"events"`
}

// ReplayHandler serves the message log and recaps over HTTP.
type ReplayHandler struct {
	log     *events.EventLog
	recaps  Recapper
	slot    string
	logger  *logger.Logger
	maxList int
}

// NewReplayHandler creates a handler over the in-memory log. recaps may be
// nil, in which case /api/recap answers 503.
func NewReplayHandler(log *events.EventLog, recaps Recapper, slot string, lg *logger.Logger) *ReplayHandler {
	return &ReplayHandler{log: log, recaps: recaps, slot: slot, logger: lg, maxList: 500}
}

// HandleMessages returns messages from the log.
// GET /api/messages?since=SEQ&type=TYPE&limit=N
func (rh *ReplayHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	since, err := intParam(q.Get("since"), 0)
	if err != nil || since < 0 {
		jsonError(w, "Invalid since", http.StatusBadRequest)
		return
	}
	limit, err := intParam(q.Get("limit"), rh.maxList)
	if err != nil || limit <= 0 {
		jsonError(w, "Invalid limit", http.StatusBadRequest)
		return
	}
	limit = min(limit, rh.maxList)
	eventType := q.Get("type")

	all := rh.log.Since(since)
	next := since
	if len(all) > 0 {
		next = all[len(all)-1].Seq + 1
	}

	filtered := make([]events.GameEvent, 0, len(all))
	for _, e := range all {
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		filtered = append(filtered, e)
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	writeJSON(w, http.StatusOK, ReplayResponse{
		Slot:        rh.slot,
		TotalEvents: len(filtered),
		FilteredBy:  eventType,
		GeneratedAt: time.Now().Format(time.RFC3339),
		NextSeq:     next,
		Events:      filtered,
	})
}

// HandleStats returns message counts by type.
// GET /api/messages/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	all := rh.log.Replay()
	counts := make(map[events.EventType]int)
	for _, e := range all {
		counts[e.Type]++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": time.Now().Format(time.RFC3339),
		"total_events": len(all),
		"by_type":      counts,
	})
}

// HandleRecap summarises persisted messages since a point in time. since
// is either RFC 3339 or a duration back from now such as "2h".
// GET /api/recap?since=2h&max=50
func (rh *ReplayHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if rh.recaps == nil {
		jsonError(w, "Recaps need persistent storage", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	since, err := sinceParam(q.Get("since"), time.Now())
	if err != nil {
		jsonError(w, "Invalid since", http.StatusBadRequest)
		return
	}
	maxEvents, err := intParam(q.Get("max"), 50)
	if err != nil || maxEvents < 0 {
		jsonError(w, "Invalid max", http.StatusBadRequest)
		return
	}

	recap, err := rh.recaps.GenerateRecap(r.Context(), rh.slot, since, maxEvents)
	if err != nil {
		rh.logger.Errorf("recap for %s: %v", rh.slot, err)
		jsonError(w, "Failed to build recap", http.StatusInternalServerError)
		return
	}
	rh.logger.Event("RECAP", rh.slot, "Events:"+strconv.Itoa(len(recap.Events)))
	writeJSON(w, http.StatusOK, recap)
}

// RegisterRoutes mounts the replay API.
func (rh *ReplayHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/messages", rh.HandleMessages)
	r.Get("/api/messages/stats", rh.HandleStats)
	r.Get("/api/recap", rh.HandleRecap)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func sinceParam(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now.Add(-24 * time.Hour), nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return now.Add(-d), nil
	}
	return time.Parse(time.RFC3339, raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// jsonError sends an error response.
func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
