// Package metrics provides observability for the simulation server.
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers runtime counters. All Record methods are safe for
// concurrent use.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	tickDiffMax    uint64 // float64 bits, seconds
	LastTickTime   time.Time

	// Simulation metrics
	EvasionResets      int64
	StrategiesSolved   int64
	GraphRegenerations int64
	Victories          int64

	// Persistence metrics
	SavesWritten     int64
	SaveFailures     int64
	SaveLatencySum   int64
	MessagesStored   int64
	MessageErrors    int64
	SnapshotsWritten int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = NewCollector()

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// NewCollector returns an empty collector. Tests use their own.
func NewCollector() *Collector {
	return &Collector{StartTime: time.Now()}
}

func storeMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if v <= cur || atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

// RecordTick records one simulation tick and the elapsed game time it covered.
func (c *Collector) RecordTick(latency time.Duration, diff float64) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))
	storeMax(&c.TickLatencyMax, int64(latency))

	for {
		cur := atomic.LoadUint64(&c.tickDiffMax)
		if diff <= math.Float64frombits(cur) ||
			atomic.CompareAndSwapUint64(&c.tickDiffMax, cur, math.Float64bits(diff)) {
			break
		}
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// MaxTickDiff returns the largest elapsed time a single tick integrated.
func (c *Collector) MaxTickDiff() float64 {
	return math.Float64frombits(atomic.LoadUint64(&c.tickDiffMax))
}

// RecordEvasionReset counts a capture.
func (c *Collector) RecordEvasionReset() { atomic.AddInt64(&c.EvasionResets, 1) }

// RecordStrategySolved counts a strategy payout.
func (c *Collector) RecordStrategySolved() { atomic.AddInt64(&c.StrategiesSolved, 1) }

// RecordRegeneration counts a fresh strategy graph.
func (c *Collector) RecordRegeneration() { atomic.AddInt64(&c.GraphRegenerations, 1) }

// RecordVictory counts a won trial.
func (c *Collector) RecordVictory() { atomic.AddInt64(&c.Victories, 1) }

// RecordSave records a save-slot write.
func (c *Collector) RecordSave(latency time.Duration, err error) {
	if err != nil {
		atomic.AddInt64(&c.SaveFailures, 1)
		return
	}
	atomic.AddInt64(&c.SavesWritten, 1)
	atomic.AddInt64(&c.SaveLatencySum, int64(latency))
}

// RecordSnapshot counts a compressed snapshot file.
func (c *Collector) RecordSnapshot() { atomic.AddInt64(&c.SnapshotsWritten, 1) }

// RecordMessageWrite records a message persisted to storage.
func (c *Collector) RecordMessageWrite(err error) {
	if err != nil {
		atomic.AddInt64(&c.MessageErrors, 1)
		return
	}
	atomic.AddInt64(&c.MessagesStored, 1)
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	last := c.LastTickTime
	c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	saves := atomic.LoadInt64(&c.SavesWritten)

	var tickAvg, saveAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if saves > 0 {
		saveAvg = float64(atomic.LoadInt64(&c.SaveLatencySum)) / float64(saves) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":            tickCount,
			"avg_latency_ms":   tickAvg,
			"max_latency_ms":   float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"max_diff_seconds": c.MaxTickDiff(),
			"last_tick":        last.Format(time.RFC3339),
		},

		"simulation": map[string]interface{}{
			"evasion_resets":      atomic.LoadInt64(&c.EvasionResets),
			"strategies_solved":   atomic.LoadInt64(&c.StrategiesSolved),
			"graph_regenerations": atomic.LoadInt64(&c.GraphRegenerations),
			"victories":           atomic.LoadInt64(&c.Victories),
		},

		"persistence": map[string]interface{}{
			"saves_written":     saves,
			"save_failures":     atomic.LoadInt64(&c.SaveFailures),
			"avg_save_ms":       saveAvg,
			"snapshots_written": atomic.LoadInt64(&c.SnapshotsWritten),
			"messages_stored":   atomic.LoadInt64(&c.MessagesStored),
			"message_errors":    atomic.LoadInt64(&c.MessageErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the JSON metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP escape_%s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE escape_%s counter\n", name)
			fmt.Fprintf(w, "escape_%s %d\n\n", name, v)
		}

		counter("tick_count", "Total simulation ticks", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP escape_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE escape_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "escape_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP escape_tick_diff_max_seconds Largest elapsed time integrated by one tick\n")
		fmt.Fprintf(w, "# TYPE escape_tick_diff_max_seconds gauge\n")
		fmt.Fprintf(w, "escape_tick_diff_max_seconds %.3f\n\n", c.MaxTickDiff())

		counter("evasion_resets_total", "Captures by the police", atomic.LoadInt64(&c.EvasionResets))
		counter("strategies_solved_total", "Strategy graphs solved", atomic.LoadInt64(&c.StrategiesSolved))
		counter("graph_regenerations_total", "Strategy graphs generated", atomic.LoadInt64(&c.GraphRegenerations))
		counter("saves_written_total", "Save slots written", atomic.LoadInt64(&c.SavesWritten))
		counter("save_failures_total", "Failed save writes", atomic.LoadInt64(&c.SaveFailures))
		counter("messages_stored_total", "Messages persisted", atomic.LoadInt64(&c.MessagesStored))

		fmt.Fprintf(w, "# HELP escape_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE escape_ws_connections gauge\n")
		fmt.Fprintf(w, "escape_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP escape_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE escape_ws_messages_total counter\n")
		fmt.Fprintf(w, "escape_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "escape_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
