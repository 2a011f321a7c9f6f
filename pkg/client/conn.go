package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/pzhenzhou/respkit/pkg/common"
	"github.com/pzhenzhou/respkit/pkg/respwire"
)

const (
	DefaultReadBufSize = 8 * common.KB
)

var (
	logger = common.InitLogger().WithName("client")

	// ErrConnClosed performs any operation on the closed connection will return this error.
	ErrConnClosed = errors.New("respkit: connection closed")

	// ErrCorrelatorUnderflow is the terminal cause when the server sends a
	// reply with no command in flight. The stream can no longer be matched
	// back to requests, so the connection is failed rather than the reply
	// being dropped.
	ErrCorrelatorUnderflow = errors.New("respkit: reply received with no pending request")
)

type ConnState int32

const (
	StateOpen ConnState = iota
	StateClosing
	StateClosed
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s ConnState) terminal() bool {
	return s == StateClosed || s == StateFailed
}

type Options struct {
	// ReadBufSize is the size of the transport read buffer.
	ReadBufSize int
	// Metrics receives per-command and per-connection measurements when set.
	Metrics ClientMetricsCollector
}

func (o *Options) readBufSize() int {
	if o == nil || o.ReadBufSize <= 0 {
		return DefaultReadBufSize
	}
	return o.ReadBufSize
}

func (o *Options) metrics() ClientMetricsCollector {
	if o == nil {
		return nil
	}
	return o.Metrics
}

// Conn is one pipelined RESP connection. It exclusively owns the transport
// duplex: a single read loop drives bytes through the Decoder and resolves
// replies in FIFO order, while Submit serializes encode+enqueue+write under
// one mutex so that write order always equals enqueue order. That equality
// is the whole correctness argument for pipelining and must never be broken.
type Conn struct {
	Id  string
	rwc io.ReadWriteCloser

	writeMu sync.Mutex
	wbuf    []byte

	dec  *respwire.Decoder
	corr *correlator

	state    atomic.Int32
	failOnce sync.Once
	// cause is written once inside failOnce before the terminal state is
	// stored; readers must observe a terminal state before reading it.
	cause error
	done  chan struct{}

	submitted *xsync.Counter
	resolved  *xsync.Counter

	metrics     ClientMetricsCollector
	readBufSize int
	created     time.Time
	usedAt      int64
}

// NewConn wraps an established duplex byte stream. The transport collaborator
// has already performed any TLS handshake; rwc may equally be a net.Conn, a
// tls.Conn or a net.Pipe end in tests.
func NewConn(rwc io.ReadWriteCloser, opts *Options) *Conn {
	c := &Conn{
		Id:          shortuuid.New(),
		rwc:         rwc,
		dec:         respwire.NewDecoder(),
		corr:        newCorrelator(),
		done:        make(chan struct{}),
		submitted:   xsync.NewCounter(),
		resolved:    xsync.NewCounter(),
		metrics:     opts.metrics(),
		readBufSize: opts.readBufSize(),
		created:     time.Now(),
	}
	c.SetUsedAt(c.created)
	if c.metrics != nil {
		c.metrics.IncrementActiveConnections()
	}
	go c.readLoop()
	return c
}

// Submit writes one command and returns the handle its reply will settle.
// Many commands may be in flight at once; replies come back in submit order.
// On a connection that is no longer open the handle fails immediately with
// the terminal cause and the transport is not touched.
func (c *Conn) Submit(name string, args ...[]byte) *Pending {
	if cause := c.submitCause(); cause != nil {
		return failedPending(cause)
	}

	p := newPending()
	c.writeMu.Lock()
	if err := c.corr.enqueue(p); err != nil {
		c.writeMu.Unlock()
		p.fail(err)
		return p
	}
	c.wbuf = respwire.AppendCommand(c.wbuf[:0], name, args...)
	_, err := c.rwc.Write(c.wbuf)
	c.writeMu.Unlock()

	if err != nil {
		// failAll settles p with the write failure.
		c.fail(fmt.Errorf("respkit: transport write: %w", err))
		return p
	}
	c.submitted.Inc()
	c.SetUsedAt(time.Now())
	if c.metrics != nil {
		c.metrics.IncrementCommandCounter(name)
	}
	return p
}

// Do submits a command and waits for its reply.
func (c *Conn) Do(ctx context.Context, name string, args ...[]byte) (*respwire.Value, error) {
	start := time.Now()
	v, err := c.Submit(name, args...).Wait(ctx)
	if err == nil && c.metrics != nil {
		c.metrics.RecordCommandLatency(name, time.Since(start))
	}
	return v, err
}

func (c *Conn) readLoop() {
	buf := make([]byte, c.readBufSize)
	for {
		n, readErr := c.rwc.Read(buf)
		if n > 0 {
			values, decErr := c.dec.Feed(buf[:n])
			for _, v := range values {
				if err := c.corr.resolveNext(v); err != nil {
					c.fail(err)
					return
				}
				c.resolved.Inc()
			}
			if decErr != nil {
				c.fail(fmt.Errorf("respkit: protocol decode: %w", decErr))
				return
			}
		}
		if readErr != nil {
			c.fail(c.readCause(readErr))
			return
		}
	}
}

// readCause maps a read-loop error to the terminal cause. A read failure
// after Close is the expected shutdown path, not a transport fault.
func (c *Conn) readCause(err error) error {
	if ConnState(c.state.Load()) == StateClosing && common.IsConnUnavailable(err) {
		return ErrConnClosed
	}
	return fmt.Errorf("respkit: transport read: %w", err)
}

// fail drives the connection to its terminal state exactly once: records the
// cause, fails every in-flight command, closes the transport and signals Done.
func (c *Conn) fail(cause error) {
	c.failOnce.Do(func() {
		next := StateFailed
		if ConnState(c.state.Load()) == StateClosing {
			next = StateClosed
		}
		c.cause = cause
		c.state.Store(int32(next))

		c.corr.failAll(cause)
		_ = c.rwc.Close()
		if c.metrics != nil {
			c.metrics.DecrementActiveConnections()
			if next == StateFailed {
				c.metrics.IncrementErrorCounter("connection_failure")
			}
		}
		logger.V(1).Info("Conn terminated", "connId", c.Id, "state", next.String(), "cause", cause)
		close(c.done)
	})
}

// Close initiates shutdown and returns immediately. Completion is observable
// via Done; in-flight commands settle with ErrConnClosed. Calling Close on a
// connection that is not open is a no-op.
func (c *Conn) Close() {
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		return
	}
	// The read loop observes the closed transport and finishes the
	// Closing -> Closed transition.
	_ = c.rwc.Close()
}

// Done is closed once the connection reaches Closed or Failed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the terminal cause, or nil while the connection is live.
func (c *Conn) Err() error {
	if !ConnState(c.state.Load()).terminal() {
		return nil
	}
	return c.cause
}

func (c *Conn) State() ConnState {
	return ConnState(c.state.Load())
}

// submitCause returns the error a Submit must fail with, or nil when open.
func (c *Conn) submitCause() error {
	switch ConnState(c.state.Load()) {
	case StateOpen:
		return nil
	case StateClosing:
		return ErrConnClosed
	default:
		if c.cause != nil {
			return c.cause
		}
		return ErrConnClosed
	}
}

// InFlight returns the number of commands awaiting replies.
func (c *Conn) InFlight() int {
	return c.corr.pendingLen()
}

type ConnStats struct {
	Submitted int64
	Resolved  int64
	InFlight  int64
}

func (c *Conn) Stats() ConnStats {
	return ConnStats{
		Submitted: c.submitted.Value(),
		Resolved:  c.resolved.Value(),
		InFlight:  int64(c.corr.pendingLen()),
	}
}

func (c *Conn) UsedAt() time.Time {
	sec := atomic.LoadInt64(&c.usedAt)
	return time.Unix(sec, 0)
}

func (c *Conn) SetUsedAt(inTime time.Time) {
	atomic.StoreInt64(&c.usedAt, inTime.Unix())
}

func (c *Conn) CreatedAt() time.Time {
	return c.created
}
