//go:build unix && !linux

package reactor

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// pollSet is the portable Poller built on poll(2).  The interest table
// is rebuilt into a pollfd slice on every Wait.
type pollSet struct {
	interest map[int]Events
	pfds     []unix.PollFd
	wakeR    int
	wakeW    int

	mu     sync.Mutex
	closed bool
}

// NewPoller creates a poll(2) based multiplexer with a self-pipe for
// wake-ups.
func NewPoller() (Poller, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(p[0])
			unix.Close(p[1])
			return nil, fmt.Errorf("pipe nonblock: %w", err)
		}
	}
	return &pollSet{interest: make(map[int]Events), wakeR: p[0], wakeW: p[1]}, nil
}

func (p *pollSet) Add(fd int, interest Events) error {
	if _, ok := p.interest[fd]; ok {
		return fmt.Errorf("poll add %d: %w", fd, unix.EEXIST)
	}
	p.interest[fd] = interest
	return nil
}

func (p *pollSet) Modify(fd int, interest Events) error {
	if _, ok := p.interest[fd]; !ok {
		return fmt.Errorf("poll mod %d: %w", fd, unix.ENOENT)
	}
	p.interest[fd] = interest
	return nil
}

func (p *pollSet) Remove(fd int) error {
	if _, ok := p.interest[fd]; !ok {
		return fmt.Errorf("poll del %d: %w", fd, unix.ENOENT)
	}
	delete(p.interest, fd)
	return nil
}

func (p *pollSet) Wait(events []Event, timeout time.Duration) (int, error) {
	p.pfds = append(p.pfds[:0], unix.PollFd{Fd: int32(p.wakeR), Events: unix.POLLIN})
	for fd, in := range p.interest {
		var ev int16
		if in.Any(Readable) {
			ev |= unix.POLLIN
		}
		if in.Any(Writable) {
			ev |= unix.POLLOUT
		}
		p.pfds = append(p.pfds, unix.PollFd{Fd: int32(fd), Events: ev})
	}

	if _, err := unix.Poll(p.pfds, timeoutMillis(timeout)); err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("poll: %w", err)
	}

	if p.pfds[0].Revents != 0 {
		var buf [64]byte
		for {
			if n, err := unix.Read(p.wakeR, buf[:]); n <= 0 || err != nil {
				break
			}
		}
	}

	out := 0
	for _, pfd := range p.pfds[1:] {
		if pfd.Revents == 0 || out == len(events) {
			continue
		}
		var ev Events
		if pfd.Revents&unix.POLLIN != 0 {
			ev |= Readable
		}
		if pfd.Revents&unix.POLLOUT != 0 {
			ev |= Writable
		}
		if pfd.Revents&unix.POLLHUP != 0 {
			ev |= HangUp
		}
		if pfd.Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
			ev |= Failed
		}
		events[out] = Event{FD: int(pfd.Fd), Events: ev}
		out++
	}
	return out, nil
}

func (p *pollSet) Wake() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	if _, err := unix.Write(p.wakeW, []byte{1}); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("wake pipe write: %w", err)
	}
	return nil
}

func (p *pollSet) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	unix.Close(p.wakeW)
	return unix.Close(p.wakeR)
}
