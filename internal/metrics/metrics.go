// Package metrics provides lightweight, lock-free counters and gauges
// for tracking runtime statistics of an fsbrowse server.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Verbs the dispatcher counts individually.  Anything else lands in
// VerbOther.
const (
	VerbLs    = "ls"
	VerbCd    = "cd"
	VerbCat   = "cat"
	VerbTouch = "touch"
	VerbOther = "other"
)

var verbs = []string{VerbLs, VerbCd, VerbCat, VerbTouch, VerbOther}

// Collector tracks runtime metrics for a server.
// A nil Collector is safe to use: all methods become no-ops.
type Collector struct {
	connectionsActive  atomic.Int64
	connectionsTotal   atomic.Int64
	connectionsRefused atomic.Int64
	bytesIn            atomic.Int64
	bytesOut           atomic.Int64
	errorsTotal        atomic.Int64
	commands           map[string]*atomic.Int64 // fixed key set, read-only after New
	commandFailures    map[string]*atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	c := &Collector{
		startTime:       time.Now(),
		commands:        make(map[string]*atomic.Int64, len(verbs)),
		commandFailures: make(map[string]*atomic.Int64, len(verbs)),
	}
	for _, v := range verbs {
		c.commands[v] = new(atomic.Int64)
		c.commandFailures[v] = new(atomic.Int64)
	}
	return c
}

func verbKey(verb string) string {
	switch verb {
	case VerbLs, VerbCd, VerbCat, VerbTouch:
		return verb
	default:
		return VerbOther
	}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ConnectionRefused counts a connection dropped at the session limit.
func (c *Collector) ConnectionRefused() {
	if c == nil {
		return
	}
	c.connectionsRefused.Add(1)
}

// ActiveConnections returns the current number of open connections.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// RefusedConnections returns how many connections hit the limit.
func (c *Collector) RefusedConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsRefused.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Command metrics ──────────────────────────────────────────────────

// CommandHandled records one dispatched command.  failed marks replies
// that carried an error message.
func (c *Collector) CommandHandled(verb string, failed bool) {
	if c == nil {
		return
	}
	k := verbKey(verb)
	c.commands[k].Add(1)
	if failed {
		c.commandFailures[k].Add(1)
	}
}

// Commands returns how many commands of verb were dispatched.
func (c *Collector) Commands(verb string) int64 {
	if c == nil {
		return 0
	}
	return c.commands[verbKey(verb)].Load()
}

// CommandFailures returns how many commands of verb got an error reply.
func (c *Collector) CommandFailures(verb string) int64 {
	if c == nil {
		return 0
	}
	return c.commandFailures[verbKey(verb)].Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime             string           `json:"uptime"`
	ConnectionsActive  int64            `json:"connections_active"`
	ConnectionsTotal   int64            `json:"connections_total"`
	ConnectionsRefused int64            `json:"connections_refused"`
	BytesIn            int64            `json:"bytes_in"`
	BytesOut           int64            `json:"bytes_out"`
	Commands           map[string]int64 `json:"commands"`
	ErrorsTotal        int64            `json:"errors_total"`
	LastError          string           `json:"last_error,omitempty"`
	LastErrorMessage   string           `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:             time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectionsActive:  c.connectionsActive.Load(),
		ConnectionsTotal:   c.connectionsTotal.Load(),
		ConnectionsRefused: c.connectionsRefused.Load(),
		BytesIn:            c.bytesIn.Load(),
		BytesOut:           c.bytesOut.Load(),
		Commands:           make(map[string]int64, len(verbs)),
		ErrorsTotal:        c.errorsTotal.Load(),
	}
	for _, v := range verbs {
		s.Commands[v] = c.commands[v].Load()
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as a single-line JSON object, suitable for
// a log line.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.Marshal(s)
	return string(data)
}
