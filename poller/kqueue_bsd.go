//go:build darwin || freebsd || netbsd || openbsd

// File: poller/kqueue_bsd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// kqueue backend. EV_CLEAR gives the same edge-triggered delivery contract
// as the Linux backend. kevent identifies events by descriptor, so tokens
// are recovered through the table's reverse index.

package poller

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
)

type kqueuePoller struct {
	kq     int
	tab    *table
	events []unix.Kevent_t
	closed bool
}

func newPlatformPoller() (api.Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue: %w", err)
	}
	unix.CloseOnExec(kq)
	return &kqueuePoller{
		kq:     kq,
		tab:    newTable(),
		events: make([]unix.Kevent_t, defaultEvents),
	}, nil
}

func (p *kqueuePoller) Register(pl api.Pollable, tok api.Token, interest api.Interest) error {
	fd := pl.PollFd()
	if err := p.tab.add(tok, entry{fd: fd, interest: interest}); err != nil {
		return err
	}
	changes := make([]unix.Kevent_t, 0, 2)
	if interest&api.Readable != 0 {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, int(fd), unix.EVFILT_READ, unix.EV_ADD|unix.EV_CLEAR)
		changes = append(changes, ev)
	}
	if interest&api.Writable != 0 {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, int(fd), unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_CLEAR)
		changes = append(changes, ev)
	}
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		p.tab.remove(tok)
		return fmt.Errorf("kevent add: %w", err)
	}
	return nil
}

func (p *kqueuePoller) Deregister(tok api.Token) error {
	e, err := p.tab.remove(tok)
	if err != nil {
		return err
	}
	changes := make([]unix.Kevent_t, 0, 2)
	if e.interest&api.Readable != 0 {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, int(e.fd), unix.EVFILT_READ, unix.EV_DELETE)
		changes = append(changes, ev)
	}
	if e.interest&api.Writable != 0 {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, int(e.fd), unix.EVFILT_WRITE, unix.EV_DELETE)
		changes = append(changes, ev)
	}
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		return fmt.Errorf("kevent delete: %w", err)
	}
	return nil
}

func (p *kqueuePoller) Poll(timeout time.Duration, fn func(api.Event)) (int, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	for {
		n, err := unix.Kevent(p.kq, nil, p.events, ts)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return 0, fmt.Errorf("kevent wait: %w", err)
		}
		dispatched := 0
		for i := 0; i < n; i++ {
			ev := &p.events[i]
			tok, ok := p.tab.byFd(uintptr(ev.Ident))
			if !ok {
				continue
			}
			var ready api.Interest
			switch ev.Filter {
			case unix.EVFILT_READ:
				ready = api.Readable
			case unix.EVFILT_WRITE:
				ready = api.Writable
			default:
				continue
			}
			fn(api.Event{Token: tok, Ready: ready})
			dispatched++
		}
		if dispatched > 0 {
			control.PollWakeups.Inc()
		}
		return dispatched, nil
	}
}

func (p *kqueuePoller) Close() error {
	if p.closed {
		return api.ErrClosed
	}
	p.closed = true
	return unix.Close(p.kq)
}
