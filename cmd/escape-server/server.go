package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MRamiBalles/JailbreakIdle/internal/engine"
	"github.com/MRamiBalles/JailbreakIdle/internal/infra/storage"
	"github.com/MRamiBalles/JailbreakIdle/internal/network"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/logger"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/metrics"
)

type routerDeps struct {
	engine    *engine.Engine
	hub       *network.Hub
	saves     storage.SaveRepository
	recaps    network.Recapper
	autosaver *engine.Autosaver
	slot      string
	metrics   *metrics.Collector
	logger    *logger.Logger
}

// saveBody carries an encoded save in either direction.
type saveBody struct {
	Data string `json:"data"`
}

// revisionView is one entry of the save history.
type revisionView struct {
	Revision   string  `json:"revision"`
	SavedAt    string  `json:"saved_at"`
	SavedAgo   string  `json:"saved_ago"`
	Playtime   float64 `json:"playtime"`
	PlaytimeHR string  `json:"playtime_human"`
	Stage      int     `json:"stage"`
	ResetTimes int     `json:"reset_times"`
	Size       string  `json:"size"`
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Get("/metrics", d.metrics.Handler())
	r.Get("/metrics/prometheus", d.metrics.PrometheusHandler())

	bridge := network.NewCommandBridge(d.hub)
	replay := network.NewReplayHandler(d.engine.Events(), d.recaps, d.slot, d.logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		bridge.RegisterRoutes(r)
		replay.RegisterRoutes(r)

		r.Get("/api/save", d.handleExport)
		r.Post("/api/save", d.handleImport)
		r.Delete("/api/save", d.handleWipe)
		r.Post("/api/save/checkpoint", d.handleCheckpoint)
		r.Get("/api/history", d.handleHistory)
	})
	return r
}

// GET /api/save
func (d routerDeps) handleExport(w http.ResponseWriter, r *http.Request) {
	encoded, err := d.engine.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, saveBody{Data: encoded})
}

// POST /api/save
func (d routerDeps) handleImport(w http.ResponseWriter, r *http.Request) {
	var body saveBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := d.engine.Import(body.Data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid save")
		return
	}
	d.hub.BroadcastState()
	writeJSON(w, http.StatusOK, map[string]bool{"loaded": true})
}

// DELETE /api/save wipes the stored history and hard-resets the game.
func (d routerDeps) handleWipe(w http.ResponseWriter, r *http.Request) {
	if err := d.saves.Delete(r.Context(), d.slot); err != nil {
		d.logger.Error("delete slot: " + err.Error())
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	d.engine.HardReset()
	d.hub.BroadcastState()
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/save/checkpoint
func (d routerDeps) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	if err := d.autosaver.SaveNow(r.Context()); err != nil {
		d.logger.Error("manual save: " + err.Error())
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/history?limit=N
func (d routerDeps) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	recs, err := d.saves.History(r.Context(), d.slot, limit)
	if err != nil && !errors.Is(err, storage.ErrNoSave) {
		d.logger.Error("save history: " + err.Error())
		writeError(w, http.StatusInternalServerError, "history failed")
		return
	}

	out := make([]revisionView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, revisionView{
			Revision:   rec.Revision,
			SavedAt:    rec.SavedAt.Format(time.RFC3339),
			SavedAgo:   humanize.Time(rec.SavedAt),
			Playtime:   rec.Playtime,
			PlaytimeHR: playtimeHuman(rec.Playtime),
			Stage:      rec.Stage,
			ResetTimes: rec.ResetTimes,
			Size:       humanize.Bytes(uint64(len(rec.Data))),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// playtimeHuman renders seconds of play as "3 hours" and similar.
func playtimeHuman(seconds float64) string {
	var zero time.Time
	return strings.TrimSpace(humanize.RelTime(zero, zero.Add(time.Duration(seconds*float64(time.Second))), "", ""))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
