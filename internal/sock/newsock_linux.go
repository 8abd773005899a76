//go:build linux

// File: internal/sock/newsock_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux descriptor creation: nonblocking and close-on-exec atomically at
// socket() time, and accept4 so accepted streams never exist in a blocking
// state.

package sock

import "golang.org/x/sys/unix"

func newSocket(domain Domain, st SockType) (int, error) {
	return unix.Socket(af(domain), sotype(st)|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
}

func acceptNonblock(fd int) (int, unix.Sockaddr, error) {
	return unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
}
