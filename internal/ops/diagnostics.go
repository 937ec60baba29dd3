package ops

import (
	"runtime"
	"time"
)

// SystemStats is a point-in-time snapshot of process health, logged on
// SIGHUP and available to the bootstrap for a startup banner. It never
// touches the Gopher wire protocol.
type SystemStats struct {
	Uptime        time.Duration
	GoVersion     string
	NumGoroutines int
	MemAllocMB    float64
}

// ConnectionStats is a point-in-time snapshot of the connection supervisor's
// slot table.
type ConnectionStats struct {
	ActiveSlots    int
	FreeSlots      int
	TotalAccepted  uint64
	TotalErrors    uint64
}

// DiagnosticsCollector produces SystemStats/ConnectionStats snapshots.
type DiagnosticsCollector struct {
	startTime time.Time
}

// NewDiagnosticsCollector creates a collector whose uptime is measured
// from the moment it's constructed (i.e. server startup).
func NewDiagnosticsCollector() *DiagnosticsCollector {
	return &DiagnosticsCollector{startTime: time.Now()}
}

// CollectSystemStats reports goroutine count, uptime and heap usage.
func (d *DiagnosticsCollector) CollectSystemStats() SystemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemStats{
		Uptime:        time.Since(d.startTime),
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemAllocMB:    float64(m.Alloc) / 1024 / 1024,
	}
}

// LogDiagnostics writes a single structured log line combining system and
// connection stats, used by the bootstrap's SIGHUP handler.
func (l *Logger) LogDiagnostics(sys SystemStats, conn ConnectionStats) {
	l.Info("diagnostics",
		"uptime_s", sys.Uptime.Seconds(),
		"goroutines", sys.NumGoroutines,
		"mem_alloc_mb", sys.MemAllocMB,
		"active_slots", conn.ActiveSlots,
		"free_slots", conn.FreeSlots,
		"total_accepted", conn.TotalAccepted,
		"total_errors", conn.TotalErrors,
	)
}
