// Package server runs the single-threaded readiness loop that accepts
// clients, reassembles their command lines and writes back replies.
//
// All session state is owned by the goroutine inside Serve.  The only
// cross-goroutine traffic is the shutdown signal, delivered by waking
// the poller.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"fsbrowse/internal/dispatch"
	ncerr "fsbrowse/internal/errors"
	"fsbrowse/internal/fsys"
	"fsbrowse/internal/metrics"
	"fsbrowse/internal/reactor"
	"fsbrowse/internal/session"
	"fsbrowse/util"
)

// maxEvents is how many readiness events one Wait may return.
const maxEvents = 128

// Options configures a Server.
type Options struct {
	Address      string   // "host:port"; port 0 picks an ephemeral port
	Root         string   // initial working directory of every session
	MaxSessions  int      // 0 = unlimited
	MaxLineBytes int      // 0 = session.DefaultMaxLine
	FS           *fsys.FS // nil = fsys.Host()
}

// conn is the loop's bookkeeping around a session.
type conn struct {
	sess     *session.Session
	log      *util.Logger
	interest reactor.Events // currently registered with the poller
	readDone bool           // peer sent EOF; close once output drains
	commands int
}

// Server is the event loop.  Create it with New, bind with Listen,
// then run Serve on one goroutine.
type Server struct {
	opts    Options
	disp    *dispatch.Dispatcher
	logger  *util.Logger
	metrics *metrics.Collector

	poller   reactor.Poller
	listenFD int
	addr     net.Addr
	conns    map[int]*conn
	active   atomic.Int64
	stopping atomic.Bool

	mu      sync.Mutex
	serving bool
	closed  bool
	quit    chan struct{}
	done    chan struct{}
}

// New creates a Server.  A nil collector disables metrics.
func New(opts Options, logger *util.Logger, m *metrics.Collector) *Server {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	if opts.FS == nil {
		opts.FS = fsys.Host()
	}
	return &Server{
		opts:     opts,
		disp:     dispatch.New(opts.FS, logger, m),
		logger:   logger,
		metrics:  m,
		listenFD: -1,
		conns:    make(map[int]*conn),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Listen binds the non-blocking listening socket and registers it with a
// fresh poller.  A failure here is fatal to startup.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ncerr.ErrServerClosed
	}
	if s.poller != nil {
		return fmt.Errorf("already listening on %s", s.addr)
	}

	poller, err := reactor.NewPoller()
	if err != nil {
		return ncerr.Wrap("listen", s.opts.Address, err)
	}
	fd, addr, err := reactor.Listen(s.opts.Address, reactor.DefaultBacklog)
	if err != nil {
		poller.Close()
		return ncerr.Wrap("listen", s.opts.Address, err)
	}
	if err := poller.Add(fd, reactor.Readable); err != nil {
		reactor.Close(fd)
		poller.Close()
		return ncerr.Wrap("listen", s.opts.Address, err)
	}

	s.poller, s.listenFD, s.addr = poller, fd, addr
	s.logger.Info("listening on %s (root %s)", addr, s.opts.Root)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int { return int(s.active.Load()) }

// Serve runs the loop until ctx is cancelled (returning nil) or Close is
// called (returning ErrServerClosed).  Every session is closed before it
// returns.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ncerr.ErrServerClosed
	case s.poller == nil:
		s.mu.Unlock()
		return ncerr.ErrNotListening
	case s.serving:
		s.mu.Unlock()
		return fmt.Errorf("serve: already running")
	}
	s.serving = true
	s.mu.Unlock()
	defer close(s.done)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-s.quit:
		case <-stop:
			return
		}
		s.stopping.Store(true)
		if err := s.poller.Wake(); err != nil {
			s.logger.Warn("wake: %v", err)
		}
	}()

	err := s.loop()
	s.shutdown()
	if err != nil {
		return err
	}

	select {
	case <-s.quit:
		return ncerr.ErrServerClosed
	default:
		return nil
	}
}

func (s *Server) loop() error {
	events := make([]reactor.Event, maxEvents)
	for !s.stopping.Load() {
		n, err := s.poller.Wait(events, -1)
		if err != nil {
			s.logger.Error("poll: %v", err)
			return ncerr.Wrap("poll", s.addr.String(), err)
		}

		// New sockets may reuse descriptors of sessions closed in this
		// batch, so accept only after every client event is handled.
		acceptReady := false
		for _, ev := range events[:n] {
			if ev.FD == s.listenFD {
				acceptReady = true
				continue
			}
			s.handle(ev)
		}
		if acceptReady && !s.stopping.Load() {
			s.acceptAll()
		}
	}
	return nil
}

func (s *Server) handle(ev reactor.Event) {
	c, ok := s.conns[ev.FD]
	if !ok {
		return
	}
	if ev.Events.Has(reactor.Failed) {
		s.closeConn(c, "socket error")
		return
	}
	if !c.readDone && ev.Events.Any(reactor.Readable|reactor.HangUp) {
		if !s.read(c) {
			return
		}
	}
	if c.sess.HasPending() && ev.Events.Any(reactor.Writable|reactor.HangUp) {
		s.flush(c)
	}
}

// acceptAll takes every pending connection off the listener.
func (s *Server) acceptAll() {
	for {
		fd, remote, err := reactor.Accept(s.listenFD)
		if err != nil {
			switch {
			case ncerr.IsWouldBlock(err):
			case ncerr.IsAcceptTransient(err):
				continue
			default:
				s.logger.Warn("accept: %v", err)
				s.metrics.RecordError("accept: " + err.Error())
			}
			return
		}

		if limit := s.opts.MaxSessions; limit > 0 && len(s.conns) >= limit {
			reactor.Close(fd)
			s.metrics.ConnectionRefused()
			s.logger.Verbose("refused %s: %v (%d open)", remote, ncerr.ErrSessionLimit, len(s.conns))
			continue
		}

		sess := session.New(fd, remote.String(), s.opts.Root, s.opts.MaxLineBytes)
		if err := s.poller.Add(fd, reactor.Readable); err != nil {
			reactor.Close(fd)
			s.logger.Warn("register %s: %v", remote, err)
			s.metrics.RecordError("register: " + err.Error())
			continue
		}
		sess.MarkReading()

		c := &conn{
			sess:     sess,
			log:      s.logger.Named(shortID(sess.ID)),
			interest: reactor.Readable,
		}
		s.conns[fd] = c
		s.active.Add(1)
		s.metrics.ConnectionOpened()
		c.log.Verbose("accepted %s", remote)
	}
}

// read drains the socket, dispatching each complete line as soon as it
// is buffered.  It reports whether the session is still open.
func (s *Server) read(c *conn) bool {
	bufp := util.GetBuf()
	defer util.PutBuf(bufp)
	buf := *bufp

	for {
		n, err := reactor.Read(c.sess.FD, buf)
		if n > 0 {
			s.metrics.BytesReceived(int64(n))
			if ferr := c.sess.Feed(buf[:n]); ferr != nil {
				c.log.Warn("%v (%d bytes buffered)", ferr, c.sess.Buffered())
				s.closeConn(c, ferr.Error())
				return false
			}
			s.process(c)
			continue
		}
		if err != nil {
			if ncerr.IsWouldBlock(err) {
				break
			}
			if !ncerr.IsPeerGone(err) {
				c.log.Warn("read: %v", err)
				s.metrics.RecordError("read: " + err.Error())
			}
			s.closeConn(c, "read error")
			return false
		}
		// EOF: a last line without its newline still runs.
		c.readDone = true
		if line, ok := c.sess.Rest(); ok {
			s.run(c, line)
		}
		break
	}

	return s.flush(c)
}

func (s *Server) process(c *conn) {
	for {
		line, ok := c.sess.NextLine()
		if !ok {
			return
		}
		s.run(c, line)
	}
}

func (s *Server) run(c *conn, line string) {
	c.commands++
	if reply := s.disp.Dispatch(c.sess, line); len(reply) > 0 {
		c.sess.Queue(reply)
	}
}

// flush writes queued output until it is drained or the socket would
// block.  It reports whether the session is still open.
func (s *Server) flush(c *conn) bool {
	for c.sess.HasPending() {
		n, err := reactor.Write(c.sess.FD, c.sess.Pending())
		if n > 0 {
			c.sess.Consume(n)
			s.metrics.BytesSent(int64(n))
		}
		if err != nil {
			if ncerr.IsWouldBlock(err) {
				break
			}
			if !ncerr.IsPeerGone(err) {
				c.log.Warn("write: %v", err)
				s.metrics.RecordError("write: " + err.Error())
			}
			s.closeConn(c, "write error")
			return false
		}
		if n == 0 {
			break
		}
	}

	if c.readDone && !c.sess.HasPending() {
		s.closeConn(c, "peer closed")
		return false
	}
	if want := c.wanted(); want != c.interest {
		c.interest = want
		if err := s.poller.Modify(c.sess.FD, want); err != nil {
			c.log.Warn("%v", err)
			s.closeConn(c, "poller error")
			return false
		}
	}
	return true
}

// wanted is the readiness the session needs next: input until EOF,
// output while anything is queued.
func (c *conn) wanted() reactor.Events {
	var ev reactor.Events
	if !c.readDone {
		ev |= reactor.Readable
	}
	if c.sess.HasPending() {
		ev |= reactor.Writable
	}
	return ev
}

func (s *Server) closeConn(c *conn, reason string) {
	if !c.sess.MarkClosed() {
		return
	}
	fd := c.sess.FD
	if err := s.poller.Remove(fd); err != nil {
		c.log.Debug("%v", err)
	}
	if err := reactor.Close(fd); err != nil {
		c.log.Debug("close: %v", err)
	}
	delete(s.conns, fd)
	s.active.Add(-1)
	s.metrics.ConnectionClosed()
	c.log.Verbose("closed (%s) after %d commands, %s",
		reason, c.commands, time.Since(c.sess.Opened).Round(time.Millisecond))
}

// shutdown closes every session, then the listener and the poller.
func (s *Server) shutdown() {
	for _, c := range s.conns {
		s.closeConn(c, "server shutdown")
	}
	s.release()
	s.logger.Info("stopped listening on %s", s.addr)
	if s.metrics != nil {
		s.logger.Verbose("totals: %s", s.metrics.JSON())
	}
}

func (s *Server) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listenFD >= 0 {
		if s.poller != nil {
			s.poller.Remove(s.listenFD) //nolint:errcheck
		}
		reactor.Close(s.listenFD)
		s.listenFD = -1
	}
	if s.poller != nil {
		s.poller.Close()
	}
}

// Close stops a running Serve and waits for it to return.  Without a
// running Serve it just releases the listener.  Close is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.quit)
	serving := s.serving
	s.mu.Unlock()

	if serving {
		<-s.done
		return nil
	}
	s.release()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
