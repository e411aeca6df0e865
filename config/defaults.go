package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultHost binds every interface.
	DefaultHost = "0.0.0.0"

	// DefaultPort is the fsbrowse service port.
	DefaultPort = 8189

	// DefaultRoot is the directory sessions start in, relative to the
	// process working directory.
	DefaultRoot = "serverDir"

	// DefaultMaxLineBytes caps an unterminated command line.
	DefaultMaxLineBytes = 64 * 1024

	// DefaultConnTimeout is the client dial timeout.
	DefaultConnTimeout = 10 * time.Second

	// DefaultRetries is how many times the client redials a refused
	// connection.
	DefaultRetries = 3

	// DefaultRetryBackoff caps the exponential backoff between dials.
	DefaultRetryBackoff = 5 * time.Second

	// DefaultGracePeriod is how long the metrics endpoint gets to drain
	// on shutdown.
	DefaultGracePeriod = 5 * time.Second
)
