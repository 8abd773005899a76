// File: tcp/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package tcp provides tuned nonblocking stream endpoints: a Listener whose
// accepted streams inherit its tuning profile, and a Stream dialed with a
// nonblocking connect whose completion is observed through writable
// readiness. Neither type ever blocks; callers drive them off a poller.
package tcp
