// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error taxonomy shared by all layers. Platform errno values are translated
// into these exactly once, at the internal/sock boundary; code above it never
// inspects raw error codes.

package api

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers classify with errors.Is or the helpers below.
var (
	// ErrWouldBlock is not a failure: no data or connection is available
	// right now. Always retryable, never worth logging.
	ErrWouldBlock = fmt.Errorf("operation would block")

	// ErrInProgress marks a nonblocking connect that has not completed yet.
	// Completion is observed through the bridge's writable readiness.
	ErrInProgress = fmt.Errorf("connect in progress")

	// ErrMismatchedBatch is returned when the buffer and address slices
	// handed to a batched operation differ in length. No syscall is issued.
	ErrMismatchedBatch = fmt.Errorf("buffer and address slices differ in length")

	// ErrForeignBuffer is returned when a buffer released to a pool was not
	// produced by that pool.
	ErrForeignBuffer = fmt.Errorf("buffer does not belong to this pool")

	// ErrBufferNotLeased is returned on a double release: the buffer is
	// already resident in the pool.
	ErrBufferNotLeased = fmt.Errorf("buffer is not checked out")

	// ErrShortWrite marks a partial datagram send, which UDP treats as a
	// protocol-level failure rather than retrying.
	ErrShortWrite = fmt.Errorf("short datagram write")

	// ErrNotSupported is returned for operations the host platform cannot
	// perform at all (for example thread pinning on an unsupported OS).
	ErrNotSupported = fmt.Errorf("not supported on this platform")

	// ErrInvalidConfig marks a descriptor that contradicts the requested
	// operation, such as IPv6ModeOnly passed to a dual-stack bind.
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// ErrClosed is returned when an operation touches a closed handle.
	ErrClosed = fmt.Errorf("handle is closed")

	// ErrTokenInUse is returned when a bridge registration reuses a token
	// that is still live.
	ErrTokenInUse = fmt.Errorf("registration token already in use")

	// ErrUnknownToken is returned when deregistering a token that is not
	// currently registered.
	ErrUnknownToken = fmt.Errorf("unknown registration token")
)

// IsWouldBlock reports whether err is the WouldBlock-class signal.
func IsWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}

// IsInProgress reports whether err marks an in-flight nonblocking connect.
func IsInProgress(err error) bool {
	return errors.Is(err, ErrInProgress)
}

// ConfigError wraps the rejection of a supported tuning option. The whole
// open/bind operation fails and the half-configured descriptor is closed
// before the error reaches the caller.
type ConfigError struct {
	Option string // native option name, e.g. "SO_RCVBUF"
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration rejected: %s: %v", e.Option, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
