// File: poller/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package poller bridges kernel readiness notification to api.Poller. The
// backend is chosen at build time: edge-triggered epoll on Linux, kqueue on
// the BSDs, WSAPoll on Windows, and an experimental io_uring backend behind
// the io_uring build tag.
//
// A poller instance belongs to one goroutine. Tokens are opaque to the
// bridge; registering a token twice fails with api.ErrTokenInUse and
// deregistering an unknown one with api.ErrUnknownToken.
package poller
