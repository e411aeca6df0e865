// Package session holds the server-side state of one accepted client
// connection: its working directory, the bytes read so far that do not
// yet form a complete line, and the response bytes still waiting to be
// written.
//
// A Session is owned by the event loop.  None of its methods are safe
// for concurrent use.
package session

import (
	"bytes"
	"time"

	"github.com/google/uuid"

	ncerr "fsbrowse/internal/errors"
)

// DefaultMaxLine is the longest unterminated line a session buffers
// before it is treated as abusive.
const DefaultMaxLine = 64 * 1024

// State is a point in the session lifecycle.
type State int

const (
	// StateAccepted means the socket exists but is not yet registered
	// with the poller.
	StateAccepted State = iota
	// StateReading means the session receives read readiness events.
	StateReading
	// StateClosed means the socket has been released.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAccepted:
		return "accepted"
	case StateReading:
		return "reading"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session encapsulates the runtime state of a single connection.
type Session struct {
	ID      string
	FD      int    // socket descriptor; the session's identity in the poller
	Remote  string // peer address, for logs
	WorkDir string // directory relative commands resolve against
	Opened  time.Time

	state   State
	maxLine int
	in      bytes.Buffer
	out     bytes.Buffer
}

// New creates a Session for fd whose working directory starts at root.
// maxLine <= 0 selects DefaultMaxLine.
func New(fd int, remote, root string, maxLine int) *Session {
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}
	return &Session{
		ID:      uuid.NewString(),
		FD:      fd,
		Remote:  remote,
		WorkDir: root,
		Opened:  time.Now(),
		state:   StateAccepted,
		maxLine: maxLine,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// MarkReading records registration for read readiness.
func (s *Session) MarkReading() {
	if s.state == StateAccepted {
		s.state = StateReading
	}
}

// MarkClosed moves the session to its terminal state and drops any
// buffered bytes.  It reports false if the session was already closed.
func (s *Session) MarkClosed() bool {
	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	s.in.Reset()
	s.out.Reset()
	return true
}

// ── inbound ──────────────────────────────────────────────────────────

// Feed appends freshly read bytes to the accumulator.  It returns
// ErrLineTooLong when the unterminated tail grows beyond the limit.
func (s *Session) Feed(p []byte) error {
	s.in.Write(p)
	buf := s.in.Bytes()
	tail := len(buf) - (bytes.LastIndexByte(buf, '\n') + 1)
	if tail > s.maxLine {
		return ncerr.ErrLineTooLong
	}
	return nil
}

// NextLine extracts one complete line from the accumulator with its
// trailing CR and LF characters removed.  ok is false when no newline
// has arrived yet; the partial bytes stay buffered.
func (s *Session) NextLine() (line string, ok bool) {
	i := bytes.IndexByte(s.in.Bytes(), '\n')
	if i < 0 {
		return "", false
	}
	raw := s.in.Next(i + 1)
	return string(bytes.TrimRight(raw, "\r\n")), true
}

// Rest drains an unterminated tail as one final line once the peer has
// stopped sending.  ok is false when nothing is left.
func (s *Session) Rest() (line string, ok bool) {
	if s.in.Len() == 0 {
		return "", false
	}
	line = string(bytes.TrimRight(s.in.Bytes(), "\r\n"))
	s.in.Reset()
	return line, true
}

// Buffered returns the number of inbound bytes not yet returned as a
// line.
func (s *Session) Buffered() int { return s.in.Len() }

// ── outbound ─────────────────────────────────────────────────────────

// Queue appends a response to the outbound buffer.
func (s *Session) Queue(p []byte) { s.out.Write(p) }

// Pending returns the unsent outbound bytes.  The slice is only valid
// until the next Queue or Consume.
func (s *Session) Pending() []byte { return s.out.Bytes() }

// HasPending reports whether any outbound bytes are waiting.
func (s *Session) HasPending() bool { return s.out.Len() > 0 }

// Consume discards the first n outbound bytes after a write.
func (s *Session) Consume(n int) {
	s.out.Next(n)
	if s.out.Len() == 0 {
		s.out.Reset()
	}
}
