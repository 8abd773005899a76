//go:build windows

// File: poller/poller_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WSAPoll backend. x/sys/windows does not wrap WSAPoll, so it is resolved
// from ws2_32.dll directly. The poll set is a flat array rebuilt by
// register/deregister; at facade scale that is cheaper than bookkeeping.
//
// WSAPoll is level-triggered. Owners drain sockets until would-block anyway,
// so the delivery contract observed by callers matches the other backends.

package poller

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
)

var (
	modws2      = windows.NewLazySystemDLL("ws2_32.dll")
	procWSAPoll = modws2.NewProc("WSAPoll")
)

// winsock2.h poll flags.
const (
	pollRDNorm = 0x0100
	pollWRNorm = 0x0010
	pollErr    = 0x0001
	pollHup    = 0x0002
	pollNval   = 0x0004
)

// wsaPollFd mirrors WSAPOLLFD.
type wsaPollFd struct {
	fd      uintptr
	events  int16
	revents int16
}

type wsaPoller struct {
	tab    *table
	fds    []wsaPollFd
	toks   []api.Token
	closed bool
}

func newPlatformPoller() (api.Poller, error) {
	return &wsaPoller{tab: newTable()}, nil
}

func (p *wsaPoller) Register(pl api.Pollable, tok api.Token, interest api.Interest) error {
	fd := pl.PollFd()
	if err := p.tab.add(tok, entry{fd: fd, interest: interest}); err != nil {
		return err
	}
	p.fds = append(p.fds, wsaPollFd{fd: fd, events: pollMask(interest)})
	p.toks = append(p.toks, tok)
	return nil
}

func (p *wsaPoller) Deregister(tok api.Token) error {
	if _, err := p.tab.remove(tok); err != nil {
		return err
	}
	for i, t := range p.toks {
		if t == tok {
			last := len(p.toks) - 1
			p.fds[i] = p.fds[last]
			p.toks[i] = p.toks[last]
			p.fds = p.fds[:last]
			p.toks = p.toks[:last]
			break
		}
	}
	return nil
}

func (p *wsaPoller) Poll(timeout time.Duration, fn func(api.Event)) (int, error) {
	if len(p.fds) == 0 {
		if timeout > 0 {
			time.Sleep(timeout)
		}
		return 0, nil
	}
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
		// WSAPoll has millisecond granularity; a positive sub-millisecond
		// timeout must still bound the wait rather than degrade to a
		// nonblocking poll.
		if ms == 0 && timeout > 0 {
			ms = 1
		}
	}
	for i := range p.fds {
		p.fds[i].revents = 0
	}
	r1, _, callErr := procWSAPoll.Call(
		uintptr(unsafe.Pointer(&p.fds[0])),
		uintptr(len(p.fds)),
		uintptr(ms),
	)
	n := int(int32(r1))
	if n < 0 {
		if errno, ok := callErr.(syscall.Errno); ok {
			return 0, fmt.Errorf("WSAPoll: %w", errno)
		}
		return 0, fmt.Errorf("WSAPoll: %v", callErr)
	}
	dispatched := 0
	for i := range p.fds {
		re := p.fds[i].revents
		if re == 0 {
			continue
		}
		ready := readyMask(re, p.fds[i].events)
		if ready == 0 {
			continue
		}
		fn(api.Event{Token: p.toks[i], Ready: ready})
		dispatched++
	}
	if dispatched > 0 {
		control.PollWakeups.Inc()
	}
	return dispatched, nil
}

func (p *wsaPoller) Close() error {
	if p.closed {
		return api.ErrClosed
	}
	p.closed = true
	p.fds = nil
	p.toks = nil
	return nil
}

func pollMask(interest api.Interest) int16 {
	var m int16
	if interest&api.Readable != 0 {
		m |= pollRDNorm
	}
	if interest&api.Writable != 0 {
		m |= pollWRNorm
	}
	return m
}

// readyMask folds error and hangup conditions into the directions the owner
// subscribed to, so it wakes up and sees the failure on its next call.
func readyMask(revents, events int16) api.Interest {
	var r api.Interest
	if revents&pollRDNorm != 0 {
		r |= api.Readable
	}
	if revents&pollWRNorm != 0 {
		r |= api.Writable
	}
	if revents&(pollErr|pollHup|pollNval) != 0 {
		if events&pollRDNorm != 0 {
			r |= api.Readable
		}
		if events&pollWRNorm != 0 {
			r |= api.Writable
		}
	}
	return r
}
