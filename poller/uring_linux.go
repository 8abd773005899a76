//go:build linux && io_uring

// File: poller/uring_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Experimental io_uring backend, selected with the io_uring build tag. It
// drives readiness through oneshot IORING_OP_POLL_ADD entries that are
// re-armed after every delivery, and bounds waits with IORING_OP_TIMEOUT.
// x/sys carries the syscall numbers; the ring ABI is laid out here.

package poller

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
)

const (
	uringEntries = 128

	opPollAdd    = 6
	opPollRemove = 7
	opTimeout    = 11

	offSQRing = 0
	offCQRing = 0x8000000
	offSQEs   = 0x10000000

	enterGetEvents = 1

	pollIn  = 0x1
	pollOut = 0x4
	pollErr = 0x8
	pollHup = 0x10

	// user_data reserved for the wait-bounding timeout entry.
	timeoutData = ^uint64(0)
)

type sqringOffsets struct {
	head, tail, ringMask, ringEntries uint32
	flags, dropped, array, resv1      uint32
	resv2                             uint64
}

type cqringOffsets struct {
	head, tail, ringMask, ringEntries uint32
	overflow, cqes, flags, resv1      uint32
	resv2                             uint64
}

type uringParams struct {
	sqEntries    uint32
	cqEntries    uint32
	flags        uint32
	sqThreadCPU  uint32
	sqThreadIdle uint32
	features     uint32
	wqFd         uint32
	resv         [3]uint32
	sqOff        sqringOffsets
	cqOff        cqringOffsets
}

type uringSQE struct {
	opcode      uint8
	flags       uint8
	ioprio      uint16
	fd          int32
	off         uint64
	addr        uint64
	len         uint32
	opFlags     uint32
	userData    uint64
	bufIndex    uint16
	personality uint16
	spliceFdIn  int32
	pad         [2]uint64
}

type uringCQE struct {
	userData uint64
	res      int32
	flags    uint32
}

type uringPoller struct {
	fd  int
	tab *table

	sqHead    *uint32
	sqTail    *uint32
	sqMask    uint32
	sqEntries uint32
	sqArray   []uint32
	sqes      []uringSQE

	cqHead *uint32
	cqTail *uint32
	cqMask uint32
	cqes   []uringCQE

	sqMmap  []byte
	cqMmap  []byte
	sqeMmap []byte

	pending uint32
	ts      unix.Timespec
	closed  bool
}

func newPlatformPoller() (api.Poller, error) {
	var params uringParams
	fd, _, errno := unix.Syscall6(unix.SYS_IO_URING_SETUP,
		uintptr(uringEntries), uintptr(unsafe.Pointer(&params)), 0, 0, 0, 0)
	if errno != 0 {
		return nil, fmt.Errorf("io_uring_setup: %w", errno)
	}
	p := &uringPoller{fd: int(fd), tab: newTable()}

	sqSize := int(params.sqOff.array + params.sqEntries*4)
	cqSize := int(params.cqOff.cqes + params.cqEntries*uint32(unsafe.Sizeof(uringCQE{})))
	sqeSize := int(params.sqEntries) * int(unsafe.Sizeof(uringSQE{}))

	var err error
	p.sqMmap, err = unix.Mmap(p.fd, offSQRing, sqSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Close(p.fd)
		return nil, fmt.Errorf("mmap sq ring: %w", err)
	}
	p.cqMmap, err = unix.Mmap(p.fd, offCQRing, cqSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Munmap(p.sqMmap)
		unix.Close(p.fd)
		return nil, fmt.Errorf("mmap cq ring: %w", err)
	}
	p.sqeMmap, err = unix.Mmap(p.fd, offSQEs, sqeSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Munmap(p.cqMmap)
		unix.Munmap(p.sqMmap)
		unix.Close(p.fd)
		return nil, fmt.Errorf("mmap sqes: %w", err)
	}

	sq := unsafe.Pointer(&p.sqMmap[0])
	p.sqHead = (*uint32)(unsafe.Add(sq, params.sqOff.head))
	p.sqTail = (*uint32)(unsafe.Add(sq, params.sqOff.tail))
	p.sqMask = *(*uint32)(unsafe.Add(sq, params.sqOff.ringMask))
	p.sqEntries = params.sqEntries
	p.sqArray = unsafe.Slice((*uint32)(unsafe.Add(sq, params.sqOff.array)), params.sqEntries)
	p.sqes = unsafe.Slice((*uringSQE)(unsafe.Pointer(&p.sqeMmap[0])), params.sqEntries)

	cq := unsafe.Pointer(&p.cqMmap[0])
	p.cqHead = (*uint32)(unsafe.Add(cq, params.cqOff.head))
	p.cqTail = (*uint32)(unsafe.Add(cq, params.cqOff.tail))
	p.cqMask = *(*uint32)(unsafe.Add(cq, params.cqOff.ringMask))
	p.cqes = unsafe.Slice((*uringCQE)(unsafe.Add(cq, params.cqOff.cqes)), params.cqEntries)

	return p, nil
}

func (p *uringPoller) push(sqe uringSQE) error {
	head := atomic.LoadUint32(p.sqHead)
	tail := *p.sqTail
	if tail-head == p.sqEntries {
		return fmt.Errorf("submission ring full")
	}
	idx := tail & p.sqMask
	p.sqes[idx] = sqe
	p.sqArray[idx] = idx
	atomic.StoreUint32(p.sqTail, tail+1)
	p.pending++
	return nil
}

func (p *uringPoller) flush(minComplete, flags uint32) (int, error) {
	for {
		n, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER,
			uintptr(p.fd), uintptr(p.pending), uintptr(minComplete), uintptr(flags), 0, 0)
		if errno != 0 {
			if errno == unix.EINTR {
				continue
			}
			return 0, fmt.Errorf("io_uring_enter: %w", errno)
		}
		p.pending -= uint32(n)
		return int(n), nil
	}
}

func (p *uringPoller) armPoll(fd uintptr, tok api.Token, interest api.Interest) error {
	var mask uint32
	if interest&api.Readable != 0 {
		mask |= pollIn
	}
	if interest&api.Writable != 0 {
		mask |= pollOut
	}
	return p.push(uringSQE{
		opcode:   opPollAdd,
		fd:       int32(fd),
		opFlags:  mask,
		userData: uint64(tok),
	})
}

func (p *uringPoller) Register(pl api.Pollable, tok api.Token, interest api.Interest) error {
	fd := pl.PollFd()
	if err := p.tab.add(tok, entry{fd: fd, interest: interest}); err != nil {
		return err
	}
	if err := p.armPoll(fd, tok, interest); err != nil {
		p.tab.remove(tok)
		return err
	}
	_, err := p.flush(0, 0)
	return err
}

func (p *uringPoller) Deregister(tok api.Token) error {
	if _, err := p.tab.remove(tok); err != nil {
		return err
	}
	if err := p.push(uringSQE{
		opcode:   opPollRemove,
		fd:       -1,
		addr:     uint64(tok),
		userData: timeoutData,
	}); err != nil {
		return err
	}
	_, err := p.flush(0, 0)
	return err
}

func (p *uringPoller) Poll(timeout time.Duration, fn func(api.Event)) (int, error) {
	if timeout >= 0 {
		p.ts = unix.NsecToTimespec(timeout.Nanoseconds())
		if err := p.push(uringSQE{
			opcode:   opTimeout,
			fd:       -1,
			addr:     uint64(uintptr(unsafe.Pointer(&p.ts))),
			len:      1,
			userData: timeoutData,
		}); err != nil {
			return 0, err
		}
	}
	if _, err := p.flush(1, enterGetEvents); err != nil {
		return 0, err
	}

	dispatched := 0
	rearmed := false
	head := atomic.LoadUint32(p.cqHead)
	tail := atomic.LoadUint32(p.cqTail)
	for ; head != tail; head++ {
		cqe := p.cqes[head&p.cqMask]
		if cqe.userData == timeoutData {
			continue
		}
		tok := api.Token(cqe.userData)
		e, ok := p.tab.lookup(tok)
		if !ok || cqe.res < 0 {
			continue
		}
		fn(api.Event{Token: tok, Ready: uringReady(uint32(cqe.res))})
		dispatched++
		// Oneshot poll: completion consumed the interest, arm again.
		if err := p.armPoll(e.fd, tok, e.interest); err == nil {
			rearmed = true
		}
	}
	atomic.StoreUint32(p.cqHead, head)
	if rearmed {
		if _, err := p.flush(0, 0); err != nil {
			return dispatched, err
		}
	}
	if dispatched > 0 {
		control.PollWakeups.Inc()
	}
	return dispatched, nil
}

func (p *uringPoller) Close() error {
	if p.closed {
		return api.ErrClosed
	}
	p.closed = true
	unix.Munmap(p.sqeMmap)
	unix.Munmap(p.cqMmap)
	unix.Munmap(p.sqMmap)
	return unix.Close(p.fd)
}

func uringReady(revents uint32) api.Interest {
	var r api.Interest
	if revents&(pollIn|pollHup|pollErr) != 0 {
		r |= api.Readable
	}
	if revents&(pollOut|pollHup|pollErr) != 0 {
		r |= api.Writable
	}
	return r
}
