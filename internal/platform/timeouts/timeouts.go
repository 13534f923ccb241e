// Package timeouts defines shared timeout constants used across tracker
// processes.
package timeouts

import "time"

// HealthWait caps how long a health probe waits for SERVING.
const HealthWait = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// StoreOp caps a single persistence call issued outside a request context.
const StoreOp = 3 * time.Second

// TelemetryFlush caps how long pending spans may take to export on exit.
const TelemetryFlush = 5 * time.Second
