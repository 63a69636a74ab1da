package http

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/redmonkez12/mybucks/internal/httputil"
)

const (
	dependencyConnected    = "connected"
	dependencyDisconnected = "disconnected"
	dependencyInMemory     = "in-memory"
	dependencyDisabled     = "disabled"

	pingTimeout = 2 * time.Second
)

// PingFunc reports whether a backing service is reachable
type PingFunc func(ctx context.Context) error

// MemoryStats is the subset of runtime.MemStats reported by /api/health
type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	Sys        uint64 `json:"sys"`
	HeapInUse  uint64 `json:"heapInUse"`
	NumGC      uint32 `json:"numGC"`
	Goroutines int    `json:"goroutines"`
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Database  string      `json:"database"`
	Redis     string      `json:"redis"`
	Uptime    float64     `json:"uptime"` // seconds
	Memory    MemoryStats `json:"memory"`
}

// TestResponse is the body of GET /api/test
type TestResponse struct {
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthHandler reports process uptime and the state of the store and Redis.
// A nil ping means the dependency is not configured.
type HealthHandler struct {
	startedAt time.Time
	pingDB    PingFunc
	pingRedis PingFunc
	now       func() time.Time
}

func NewHealthHandler(startedAt time.Time, pingDB, pingRedis PingFunc) *HealthHandler {
	return &HealthHandler{
		startedAt: startedAt,
		pingDB:    pingDB,
		pingRedis: pingRedis,
		now:       time.Now,
	}
}

// Health handles GET /api/health. It always answers 200; dependency state is in the body.
// @Summary      Health check
// @Description  Process uptime, memory and the state of the database and Redis
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	now := h.now()
	httputil.RespondJSON(w, HealthResponse{
		Status:    "healthy",
		Timestamp: now.UTC(),
		Database:  probe(r.Context(), h.pingDB, dependencyInMemory),
		Redis:     probe(r.Context(), h.pingRedis, dependencyDisabled),
		Uptime:    now.Sub(h.startedAt).Seconds(),
		Memory: MemoryStats{
			Alloc:      ms.Alloc,
			TotalAlloc: ms.TotalAlloc,
			Sys:        ms.Sys,
			HeapInUse:  ms.HeapInuse,
			NumGC:      ms.NumGC,
			Goroutines: runtime.NumGoroutine(),
		},
	}, http.StatusOK)
}

// Test handles GET /api/test
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} TestResponse
// @Router       /test [get]
func (h *HealthHandler) Test(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, TestResponse{Body: "test ok", Timestamp: h.now().UTC()}, http.StatusOK)
}

func probe(ctx context.Context, ping PingFunc, unset string) string {
	if ping == nil {
		return unset
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		return dependencyDisconnected
	}
	return dependencyConnected
}
