package client

import (
	"context"
	"sync/atomic"

	"github.com/pzhenzhou/respkit/pkg/respwire"
)

// Pending is the handle for one submitted command. It settles exactly once,
// either with the decoded reply or with the connection's terminal cause; the
// first resolve or fail wins and later settles are dropped.
type Pending struct {
	settled chan struct{}
	done    atomic.Bool
	val     *respwire.Value
	err     error
}

func newPending() *Pending {
	return &Pending{settled: make(chan struct{})}
}

func failedPending(err error) *Pending {
	p := newPending()
	p.fail(err)
	return p
}

func (p *Pending) resolve(v *respwire.Value) {
	if p.done.Swap(true) {
		return
	}
	p.val = v
	close(p.settled)
}

func (p *Pending) fail(err error) {
	if p.done.Swap(true) {
		return
	}
	p.err = err
	close(p.settled)
}

// Wait blocks until the reply arrives or ctx is done. A ctx timeout only
// abandons the wait: the command has already been written and its slot in
// the reply order still advances when the server answers, so Wait may be
// called again on the same handle.
func (p *Pending) Wait(ctx context.Context) (*respwire.Value, error) {
	select {
	case <-p.settled:
		return p.val, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Settled returns a channel closed once the handle has its outcome.
func (p *Pending) Settled() <-chan struct{} {
	return p.settled
}
