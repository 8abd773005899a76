//go:build linux && !io_uring

// File: poller/epoll_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Edge-triggered epoll backend. The 64-bit token rides in the event payload
// split across the Fd and Pad words, so dispatch never touches the table.

package poller

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
)

type epollPoller struct {
	epfd   int
	tab    *table
	events []unix.EpollEvent
	closed bool
}

func newPlatformPoller() (api.Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &epollPoller{
		epfd:   epfd,
		tab:    newTable(),
		events: make([]unix.EpollEvent, defaultEvents),
	}, nil
}

func (p *epollPoller) Register(pl api.Pollable, tok api.Token, interest api.Interest) error {
	fd := pl.PollFd()
	if err := p.tab.add(tok, entry{fd: fd, interest: interest}); err != nil {
		return err
	}
	ev := unix.EpollEvent{
		Events: epollMask(interest) | unix.EPOLLET,
		Fd:     int32(uint32(tok)),
		Pad:    int32(uint32(tok >> 32)),
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		p.tab.remove(tok)
		return fmt.Errorf("epoll_ctl add: %w", err)
	}
	return nil
}

func (p *epollPoller) Deregister(tok api.Token) error {
	e, err := p.tab.remove(tok)
	if err != nil {
		return err
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, int(e.fd), nil); err != nil {
		return fmt.Errorf("epoll_ctl del: %w", err)
	}
	return nil
}

func (p *epollPoller) Poll(timeout time.Duration, fn func(api.Event)) (int, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
		// epoll_wait has millisecond granularity; a positive sub-millisecond
		// timeout must still bound the wait rather than degrade to a
		// nonblocking poll.
		if ms == 0 && timeout > 0 {
			ms = 1
		}
	}
	for {
		n, err := unix.EpollWait(p.epfd, p.events, ms)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return 0, fmt.Errorf("epoll_wait: %w", err)
		}
		for i := 0; i < n; i++ {
			ev := &p.events[i]
			tok := api.Token(uint32(ev.Fd)) | api.Token(uint32(ev.Pad))<<32
			fn(api.Event{Token: tok, Ready: readyMask(ev.Events)})
		}
		if n > 0 {
			control.PollWakeups.Inc()
		}
		return n, nil
	}
}

func (p *epollPoller) Close() error {
	if p.closed {
		return api.ErrClosed
	}
	p.closed = true
	return unix.Close(p.epfd)
}

func epollMask(interest api.Interest) uint32 {
	var m uint32
	if interest&api.Readable != 0 {
		m |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if interest&api.Writable != 0 {
		m |= unix.EPOLLOUT
	}
	return m
}

// readyMask folds error and hangup conditions into both directions so the
// owner always wakes up and discovers the failure on its next I/O call.
func readyMask(events uint32) api.Interest {
	var r api.Interest
	if events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		r |= api.Readable
	}
	if events&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		r |= api.Writable
	}
	return r
}
