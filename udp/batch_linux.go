//go:build linux

// File: udp/batch_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// recvmmsg/sendmmsg fast paths. x/sys carries the syscall numbers but not a
// wrapper, so the msgvec is laid out here. Scratch vectors live on the socket
// and are reused across calls, keeping the hot path allocation free.

package udp

import (
	"net/netip"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/internal/sock"
	"github.com/momentics/hioload-net/pool"
)

// mmsghdr mirrors struct mmsghdr. Go rounds the struct size up to the
// alignment of Msghdr, which reproduces the kernel's trailing padding on
// 64-bit targets.
type mmsghdr struct {
	hdr unix.Msghdr
	cnt uint32
}

type batchState struct {
	hdrs  []mmsghdr
	iovs  []unix.Iovec
	names []unix.RawSockaddrInet6
}

func (st *batchState) grow(n int) {
	if cap(st.hdrs) < n {
		st.hdrs = make([]mmsghdr, n)
		st.iovs = make([]unix.Iovec, n)
		st.names = make([]unix.RawSockaddrInet6, n)
	}
	st.hdrs = st.hdrs[:n]
	st.iovs = st.iovs[:n]
	st.names = st.names[:n]
}

func (s *Socket) recvBatch(bufs []*pool.Buffer, addrs []netip.AddrPort) (int, error) {
	st := &s.bs
	st.grow(len(bufs))
	for i, b := range bufs {
		raw := b.Raw()
		st.iovs[i] = unix.Iovec{Base: &raw[0]}
		st.iovs[i].SetLen(len(raw))
		st.names[i] = unix.RawSockaddrInet6{}
		st.hdrs[i] = mmsghdr{}
		st.hdrs[i].hdr.Name = (*byte)(unsafe.Pointer(&st.names[i]))
		st.hdrs[i].hdr.Namelen = unix.SizeofSockaddrInet6
		st.hdrs[i].hdr.Iov = &st.iovs[i]
		st.hdrs[i].hdr.SetIovlen(1)
	}
	for {
		r1, _, errno := unix.Syscall6(unix.SYS_RECVMMSG,
			uintptr(s.h.Fd()),
			uintptr(unsafe.Pointer(&st.hdrs[0])),
			uintptr(len(bufs)),
			unix.MSG_DONTWAIT, 0, 0)
		if errno != 0 {
			if errno == unix.EINTR {
				continue
			}
			return 0, sock.TranslateErrno(errno)
		}
		n := int(r1)
		for i := 0; i < n; i++ {
			bufs[i].SetLen(int(st.hdrs[i].cnt))
			addrs[i] = rawToAddrPort(&st.names[i])
		}
		return n, nil
	}
}

func (s *Socket) sendBatch(bufs []*pool.Buffer, addrs []netip.AddrPort) (int, error) {
	st := &s.bs
	st.grow(len(bufs))
	for i, b := range bufs {
		p := b.Bytes()
		st.iovs[i] = unix.Iovec{}
		if len(p) > 0 {
			st.iovs[i].Base = &p[0]
		}
		st.iovs[i].SetLen(len(p))
		nlen := putRawAddr(&st.names[i], addrs[i])
		st.hdrs[i] = mmsghdr{}
		st.hdrs[i].hdr.Name = (*byte)(unsafe.Pointer(&st.names[i]))
		st.hdrs[i].hdr.Namelen = nlen
		st.hdrs[i].hdr.Iov = &st.iovs[i]
		st.hdrs[i].hdr.SetIovlen(1)
	}
	for {
		r1, _, errno := unix.Syscall6(unix.SYS_SENDMMSG,
			uintptr(s.h.Fd()),
			uintptr(unsafe.Pointer(&st.hdrs[0])),
			uintptr(len(bufs)),
			unix.MSG_DONTWAIT, 0, 0)
		if errno != 0 {
			if errno == unix.EINTR {
				continue
			}
			return 0, sock.TranslateErrno(errno)
		}
		n := int(r1)
		for i := 0; i < n; i++ {
			if int(st.hdrs[i].cnt) != bufs[i].Len() {
				return i, api.ErrShortWrite
			}
		}
		return n, nil
	}
}

// rawToAddrPort decodes the sockaddr the kernel wrote into a name slot. The
// port is big-endian in memory, so it is read byte-wise.
func rawToAddrPort(rsa *unix.RawSockaddrInet6) netip.AddrPort {
	switch rsa.Family {
	case unix.AF_INET:
		sa := (*unix.RawSockaddrInet4)(unsafe.Pointer(rsa))
		p := (*[2]byte)(unsafe.Pointer(&sa.Port))
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(p[0])<<8|uint16(p[1]))
	case unix.AF_INET6:
		p := (*[2]byte)(unsafe.Pointer(&rsa.Port))
		return netip.AddrPortFrom(netip.AddrFrom16(rsa.Addr).Unmap(), uint16(p[0])<<8|uint16(p[1]))
	}
	return netip.AddrPort{}
}

// putRawAddr encodes ap into a name slot and returns the sockaddr length.
func putRawAddr(dst *unix.RawSockaddrInet6, ap netip.AddrPort) uint32 {
	a := ap.Addr()
	if a.Is4() {
		sa := (*unix.RawSockaddrInet4)(unsafe.Pointer(dst))
		*sa = unix.RawSockaddrInet4{Family: unix.AF_INET, Addr: a.As4()}
		p := (*[2]byte)(unsafe.Pointer(&sa.Port))
		p[0], p[1] = byte(ap.Port()>>8), byte(ap.Port())
		return unix.SizeofSockaddrInet4
	}
	*dst = unix.RawSockaddrInet6{Family: unix.AF_INET6, Addr: a.As16()}
	p := (*[2]byte)(unsafe.Pointer(&dst.Port))
	p[0], p[1] = byte(ap.Port()>>8), byte(ap.Port())
	return unix.SizeofSockaddrInet6
}
