package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/xgrabbot/internal/domain"
)

var startTime = time.Now()

// StatsHandler serves the usage counters and process statistics.
type StatsHandler struct {
	stats   StatsService
	dataDir string
	logger  *slog.Logger
}

// NewStatsHandler creates a new stats handler. dataDir is the directory
// whose filesystem usage is reported.
func NewStatsHandler(stats StatsService, dataDir string, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		stats:   stats,
		dataDir: dataDir,
		logger:  logger,
	}
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	Counters domain.Stats `json:"counters"`
	System   SystemStats  `json:"system"`
}

// SystemStats contains system resource statistics.
type SystemStats struct {
	Uptime         int64   `json:"uptime_seconds"`
	UptimeHuman    string  `json:"uptime_human"`
	MemAllocMB     int64   `json:"mem_alloc_mb"`
	MemSysMB       int64   `json:"mem_sys_mb"`
	NumGoroutines  int     `json:"num_goroutines"`
	NumCPU         int     `json:"num_cpu"`
	DataDir        string  `json:"data_dir"`
	DiskTotalBytes int64   `json:"disk_total_bytes"`
	DiskFreeBytes  int64   `json:"disk_free_bytes"`
	DiskUsedBytes  int64   `json:"disk_used_bytes"`
	DiskUsedPct    float64 `json:"disk_used_pct"`
	DiskFreeHuman  string  `json:"disk_free_human"`
}

// Get handles GET /api/v1/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	counters, err := h.stats.Stats(r.Context())
	if err != nil {
		h.logger.Error("read counters failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read counters")
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Counters: counters,
		System:   h.systemStats(),
	})
}

// Reset handles POST /api/v1/stats/reset.
func (h *StatsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.stats.ResetStats(r.Context()); err != nil {
		h.logger.Error("reset counters failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset counters")
		return
	}

	counters, err := h.stats.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Counters: counters,
		System:   h.systemStats(),
	})
}

func (h *StatsHandler) systemStats() SystemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)

	stats := SystemStats{
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		MemSysMB:      int64(m.Sys / 1024 / 1024),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		DataDir:       h.dataDir,
	}

	if h.dataDir != "" {
		stats.DiskTotalBytes, stats.DiskFreeBytes, stats.DiskUsedBytes, stats.DiskUsedPct = getDiskStats(h.dataDir)
		stats.DiskFreeHuman = humanize.IBytes(uint64(stats.DiskFreeBytes))
	}

	return stats
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
