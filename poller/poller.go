// File: poller/poller.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package poller

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/momentics/hioload-net/api"
)

// defaultEvents caps how many readiness events one Poll call drains.
const defaultEvents = 128

// New creates the platform readiness bridge.
func New() (api.Poller, error) {
	return newPlatformPoller()
}

type entry struct {
	fd       uintptr
	interest api.Interest
}

// table tracks live registrations in both directions: token to descriptor
// for deregistration, descriptor to token for backends whose wait call
// reports descriptors rather than user data.
type table struct {
	tokens *xsync.MapOf[api.Token, entry]
	fds    *xsync.MapOf[uintptr, api.Token]
}

func newTable() *table {
	return &table{
		tokens: xsync.NewMapOf[api.Token, entry](),
		fds:    xsync.NewMapOf[uintptr, api.Token](),
	}
}

func (t *table) add(tok api.Token, e entry) error {
	if _, loaded := t.tokens.LoadOrStore(tok, e); loaded {
		return api.ErrTokenInUse
	}
	t.fds.Store(e.fd, tok)
	return nil
}

func (t *table) remove(tok api.Token) (entry, error) {
	e, ok := t.tokens.LoadAndDelete(tok)
	if !ok {
		return entry{}, api.ErrUnknownToken
	}
	t.fds.Delete(e.fd)
	return e, nil
}

func (t *table) lookup(tok api.Token) (entry, bool) {
	return t.tokens.Load(tok)
}

func (t *table) byFd(fd uintptr) (api.Token, bool) {
	return t.fds.Load(fd)
}
