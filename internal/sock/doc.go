// File: internal/sock/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package sock is the raw socket layer: it opens native descriptors, switches
// them to nonblocking mode before any other use, and maps the platform-neutral
// api.NetConfig onto the heterogeneous option sets of Linux, the BSDs and
// Windows.
//
// Application policy: options the host platform does not have are skipped and
// recorded, never failed; options the platform supports but the kernel
// rejects fail the whole open operation, and the descriptor is closed before
// the error escapes. No half-configured handle ever reaches a caller.
//
// This package is also the single translation point from platform error codes
// into the api taxonomy. Nothing above it looks at errno values.
package sock
