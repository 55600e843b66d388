package health

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"antigravity-engine/internal/audit"
	"antigravity-engine/internal/broker"
	"antigravity-engine/internal/bus"
	"antigravity-engine/internal/httputil"
	"antigravity-engine/internal/types"
)

type Handler struct {
	pool        *pgxpool.Pool
	pipeline    *bus.Bus
	dispatcher  *broker.Dispatcher
	audits      audit.Store
	startedAt   time.Time
	internalTok string
}

func NewHandler(pool *pgxpool.Pool, pipeline *bus.Bus, dispatcher *broker.Dispatcher, audits audit.Store, startedAt time.Time, internalToken string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{
		pool:        pool,
		pipeline:    pipeline,
		dispatcher:  dispatcher,
		audits:      audits,
		startedAt:   start,
		internalTok: strings.TrimSpace(internalToken),
	}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
}

type readyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
	Database  dbStat `json:"database"`
}

type dbStat struct {
	Configured bool   `json:"configured"`
	Reachable  bool   `json:"reachable"`
	PingMs     int64  `json:"ping_ms"`
	Error      string `json:"error,omitempty"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

func secureTokenEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (h *Handler) requireInternalToken(w http.ResponseWriter, r *http.Request) bool {
	if h.internalTok == "" {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{Error: "internal token is not configured"})
		return false
	}
	provided := strings.TrimSpace(r.Header.Get("X-Internal-Token"))
	if !secureTokenEqual(provided, h.internalTok) {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "invalid internal token"})
		return false
	}
	return true
}

func (h *Handler) collectDB(ctx context.Context) dbStat {
	if h.pool == nil {
		// In-memory mode: no database configured, nothing to fail.
		return dbStat{Configured: false, Reachable: true}
	}
	pingStart := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	err := h.pool.Ping(pingCtx)
	stat := dbStat{Configured: true, PingMs: time.Since(pingStart).Milliseconds()}
	if err != nil {
		stat.Error = err.Error()
		return stat
	}
	stat.Reachable = true
	return stat
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.Ready(w, r)
}

func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(h.uptime(now).Seconds()),
	})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	db := h.collectDB(r.Context())
	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, httpStatus, readyResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(h.uptime(now).Seconds()),
		Database:  db,
	})
}

// Metrics returns plain-text gauges and is protected by X-Internal-Token.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if !h.requireInternalToken(w, r) {
		return
	}
	now := time.Now().UTC()
	db := h.collectDB(r.Context())
	dbUp := 0
	if db.Reachable {
		dbUp = 1
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "# HELP antigravity_up Service process is running.\n")
	_, _ = fmt.Fprintf(w, "# TYPE antigravity_up gauge\n")
	_, _ = fmt.Fprintf(w, "antigravity_up 1\n")
	_, _ = fmt.Fprintf(w, "antigravity_uptime_seconds %d\n", int64(h.uptime(now).Seconds()))
	_, _ = fmt.Fprintf(w, "antigravity_db_up %d\n", dbUp)
	_, _ = fmt.Fprintf(w, "antigravity_db_ping_milliseconds %d\n", db.PingMs)
	_, _ = fmt.Fprintf(w, "antigravity_go_goroutines %d\n", runtime.NumGoroutine())
	_, _ = fmt.Fprintf(w, "antigravity_go_mem_alloc_bytes %d\n", mem.Alloc)

	if h.pipeline != nil {
		_, _ = fmt.Fprintf(w, "# HELP antigravity_bus_depth Undelivered events buffered per channel.\n")
		_, _ = fmt.Fprintf(w, "# TYPE antigravity_bus_depth gauge\n")
		for topic := range bus.Topics {
			_, _ = fmt.Fprintf(w, "antigravity_bus_depth{topic=%q} %d\n", string(topic), h.pipeline.Depth(topic))
		}
	}
	if h.dispatcher != nil {
		dispatched, failed, queued := h.dispatcher.Stats()
		_, _ = fmt.Fprintf(w, "antigravity_broker_orders_dispatched %d\n", dispatched)
		_, _ = fmt.Fprintf(w, "antigravity_broker_orders_failed %d\n", failed)
		_, _ = fmt.Fprintf(w, "antigravity_broker_orders_queued %d\n", queued)
	}
	if h.audits != nil {
		counts, err := h.audits.CountByAction(r.Context())
		if err == nil {
			for _, action := range []types.AuditAction{types.AuditActionEventTrace, types.AuditActionParseFailure, types.AuditActionAlert} {
				_, _ = fmt.Fprintf(w, "antigravity_audit_records{action=%q} %d\n", string(action), counts[action])
			}
		}
	}
}
