package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Outbound Zoom call timeouts. Transcript downloads can be large, so they
// get a longer budget than metadata lookups.
const (
	ZoomDetailTimeout     = 10 * time.Second
	ZoomRecordingsTimeout = 15 * time.Second
	ZoomDownloadTimeout   = 30 * time.Second
)

// Backfill sweep bounds
const (
	BackfillStartupDelay = 2 * time.Minute
	BackfillLookback     = 30 * 24 * time.Hour
)

// Supervisor URL backfill
const (
	SupervisorBackfillLimit     = 50
	SupervisorBackfillItemDelay = 500 * time.Millisecond
)
