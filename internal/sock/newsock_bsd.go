//go:build darwin || freebsd || netbsd || openbsd

// File: internal/sock/newsock_bsd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BSD/macOS descriptor creation. socket() cannot take SOCK_NONBLOCK here, so
// the nonblocking switch happens via fcntl immediately after creation and
// before anything else touches the descriptor.

package sock

import "golang.org/x/sys/unix"

func newSocket(domain Domain, st SockType) (int, error) {
	fd, err := unix.Socket(af(domain), sotype(st), 0)
	if err != nil {
		return -1, err
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func acceptNonblock(fd int) (int, unix.Sockaddr, error) {
	nfd, sa, err := unix.Accept(fd)
	if err != nil {
		return -1, nil, err
	}
	unix.CloseOnExec(nfd)
	if err := unix.SetNonblock(nfd, true); err != nil {
		unix.Close(nfd)
		return -1, nil, err
	}
	return nfd, sa, nil
}
