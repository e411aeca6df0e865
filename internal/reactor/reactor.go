// Package reactor wraps the operating system's readiness multiplexer
// (epoll on Linux, poll(2) on other Unix systems) and the raw
// non-blocking socket calls the event loop drives through it.
//
// A Poller is used from a single goroutine, except for Wake, which may
// be called from anywhere to interrupt a blocked Wait.
package reactor

import "time"

// Events is a bit set of readiness conditions.
type Events uint32

const (
	// Readable means a read (or accept) will not block.
	Readable Events = 1 << iota
	// Writable means a write will not block.
	Writable
	// HangUp means the peer closed its side.  Pending data may still
	// be readable.
	HangUp
	// Failed means the descriptor reported an error condition.
	Failed
)

// Has reports whether every bit of want is set.
func (e Events) Has(want Events) bool { return e&want == want }

// Any reports whether at least one bit of want is set.
func (e Events) Any(want Events) bool { return e&want != 0 }

// Event is one readiness notification.
type Event struct {
	FD     int
	Events Events
}

// Poller is a readiness multiplexer.
type Poller interface {
	// Add registers fd for the given interest set.
	Add(fd int, interest Events) error

	// Modify replaces the interest set of a registered fd.
	Modify(fd int, interest Events) error

	// Remove deregisters fd.  Closing fd afterwards is the caller's job.
	Remove(fd int) error

	// Wait blocks until at least one registered fd is ready, Wake is
	// called, or timeout elapses (timeout < 0 blocks indefinitely).  It
	// fills events and returns how many were written.  A wake-up or an
	// interrupted system call returns 0 and a nil error.
	Wait(events []Event, timeout time.Duration) (int, error)

	// Wake makes a concurrent or subsequent Wait return.
	Wake() error

	// Close releases the multiplexer.
	Close() error
}

func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	return int(d / time.Millisecond)
}
