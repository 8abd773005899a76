// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api holds the shared contract surface of hioload-net: the socket
// tuning descriptor with its presets, the error taxonomy every layer maps
// platform errors into, and the capability types of the runtime bridge.
//
// The package is intentionally free of syscalls. Applying a NetConfig to a
// native descriptor is the job of internal/sock; dispatching readiness is the
// job of the poller backends. Everything here is pure data and interfaces.
package api
