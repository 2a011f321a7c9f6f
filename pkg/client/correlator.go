package client

import (
	"sync"

	"github.com/pzhenzhou/respkit/pkg/respwire"
)

// correlator pairs decoded replies with submitted commands. RESP carries no
// request identifier: the server answers strictly in request order, so the
// only correct policy is FIFO. Pushes happen on the submit path, pops on the
// read path, both under one mutex.
type correlator struct {
	mu     sync.Mutex
	queue  []*Pending
	closed bool
	cause  error
}

func newCorrelator() *correlator {
	return &correlator{}
}

// enqueue registers p as the newest in-flight command. After failAll it
// returns the terminal cause instead of accepting new entries.
func (c *correlator) enqueue(p *Pending) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.cause
	}
	c.queue = append(c.queue, p)
	return nil
}

// resolveNext fulfills the oldest in-flight command with v. A reply with
// nothing in flight means the stream is out of step with the request order
// and is reported as ErrCorrelatorUnderflow.
func (c *correlator) resolveNext(v *respwire.Value) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.cause
	}
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return ErrCorrelatorUnderflow
	}
	p := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	c.mu.Unlock()

	p.resolve(v)
	return nil
}

// failAll fulfills every in-flight command with cause and rejects all later
// enqueues with it. Only the first call has any effect.
func (c *correlator) failAll(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cause = cause
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, p := range pending {
		p.fail(cause)
	}
}

func (c *correlator) pendingLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
