package handler

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/border1px/video-remix/internal/downloader"
)

var startTime = time.Now()

// SessionCounter reports how many script sessions are held in memory.
type SessionCounter interface {
	Len() int
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	downloadsDir string
	sessions     SessionCounter
	backend      KeySourcer
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(downloadsDir string, sessions SessionCounter, backend KeySourcer) *HealthHandler {
	return &HealthHandler{
		downloadsDir: downloadsDir,
		sessions:     sessions,
		backend:      backend,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// SystemStats reports process, library and backend state.
type SystemStats struct {
	Uptime      int64        `json:"uptime_seconds"`
	UptimeHuman string       `json:"uptime_human"`
	Goroutines  int          `json:"goroutines"`
	HeapMB      int64        `json:"heap_mb"`
	Library     LibraryStats `json:"library"`
	Sessions    int          `json:"sessions"`
	KeySource   string       `json:"key_source"`
}

// LibraryStats describes the downloads directory.
type LibraryStats struct {
	Dir       string `json:"dir"`
	FreeBytes int64  `json:"free_bytes"`
}

// Live handles GET /health.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Stats handles GET /api/v1/stats.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := time.Since(startTime)

	writeJSON(w, http.StatusOK, SystemStats{
		Uptime:      int64(uptime.Seconds()),
		UptimeHuman: formatUptime(uptime),
		Goroutines:  runtime.NumGoroutine(),
		HeapMB:      int64(m.HeapAlloc >> 20),
		Library: LibraryStats{
			Dir:       h.downloadsDir,
			FreeBytes: downloader.FreeSpace(h.downloadsDir),
		},
		Sessions:  h.sessions.Len(),
		KeySource: h.backend.KeySource(),
	})
}

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	mins := (d - hours*time.Hour) / time.Minute

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
