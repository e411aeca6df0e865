//go:build linux

package reactor

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epoll is the Linux Poller.  Level-triggered, so a descriptor that is
// not fully drained is reported again on the next Wait.
type epoll struct {
	fd     int
	wakeFD int // eventfd registered for EPOLLIN

	mu     sync.Mutex // guards closed against Wake
	closed bool
	raw    []unix.EpollEvent
}

// NewPoller creates an epoll instance with its wake-up eventfd.
func NewPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	wfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wfd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wfd, &ev); err != nil {
		unix.Close(wfd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll_ctl add eventfd: %w", err)
	}
	return &epoll{fd: epfd, wakeFD: wfd}, nil
}

func toEpoll(interest Events) uint32 {
	var ev uint32
	if interest.Any(Readable) {
		ev |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if interest.Any(Writable) {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func fromEpoll(ev uint32) Events {
	var out Events
	if ev&unix.EPOLLIN != 0 {
		out |= Readable
	}
	if ev&unix.EPOLLOUT != 0 {
		out |= Writable
	}
	if ev&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		out |= HangUp
	}
	if ev&unix.EPOLLERR != 0 {
		out |= Failed
	}
	return out
}

func (p *epoll) Add(fd int, interest Events) error {
	ev := unix.EpollEvent{Events: toEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl add %d: %w", fd, err)
	}
	return nil
}

func (p *epoll) Modify(fd int, interest Events) error {
	ev := unix.EpollEvent{Events: toEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl mod %d: %w", fd, err)
	}
	return nil
}

func (p *epoll) Remove(fd int) error {
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll_ctl del %d: %w", fd, err)
	}
	return nil
}

func (p *epoll) Wait(events []Event, timeout time.Duration) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if cap(p.raw) < len(events) {
		p.raw = make([]unix.EpollEvent, len(events))
	}
	raw := p.raw[:len(events)]

	n, err := unix.EpollWait(p.fd, raw, timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll_wait: %w", err)
	}

	out := 0
	for _, ev := range raw[:n] {
		if int(ev.Fd) == p.wakeFD {
			p.drainWake()
			continue
		}
		events[out] = Event{FD: int(ev.Fd), Events: fromEpoll(ev.Events)}
		out++
	}
	return out, nil
}

func (p *epoll) drainWake() {
	var buf [8]byte
	unix.Read(p.wakeFD, buf[:]) //nolint:errcheck
}

func (p *epoll) Wake() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	one := [8]byte{1}
	if _, err := unix.Write(p.wakeFD, one[:]); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

func (p *epoll) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	unix.Close(p.wakeFD)
	return unix.Close(p.fd)
}
