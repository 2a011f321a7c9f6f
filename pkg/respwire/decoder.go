package respwire

import (
	"bytes"
	"errors"
	"strconv"
)

var (
	ErrInvalidSyntax = errors.New("invalid RESP syntax")
	ErrTooLarge      = errors.New("value too large")
	ErrBadCRLFEnd    = errors.New("bad CRLF end")
	ErrMaxDepth      = errors.New("RESP array nesting exceeds max depth")
)

// arrayFrame is an in-progress array whose header has been parsed and whose
// elements are still arriving.
type arrayFrame struct {
	remaining int
	items     []*Value
}

// Decoder is an incremental RESP parser. Feed it byte chunks in arrival
// order and it yields every complete Value the accumulated input contains.
// Partial frames carry over between calls: parsed headers are never
// re-parsed, in-progress arrays live on an explicit frame stack, and the
// newline scan resumes where the previous call stopped.
//
// Any decode error is sticky. Once the byte stream loses frame alignment it
// cannot be trusted again, so subsequent Feed calls keep returning the same
// error and the connection must be torn down.
type Decoder struct {
	buf   []byte
	scan  int
	stack []arrayFrame
	// bulkLen is the expected body length of a bulk string whose header has
	// been parsed, or -1 when no bulk body is outstanding.
	bulkLen int
	err     error
}

func NewDecoder() *Decoder {
	return &Decoder{bulkLen: -1}
}

// Buffered returns the number of unconsumed bytes held across Feed calls.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Feed appends p to the internal buffer and returns all Values that are now
// complete, in wire order. Values decoded before a fatal error are returned
// alongside the error.
func (d *Decoder) Feed(p []byte) ([]*Value, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.buf = append(d.buf, p...)
	var out []*Value
	for {
		v, progressed, err := d.step()
		if err != nil {
			d.err = err
			return out, err
		}
		if !progressed {
			return out, nil
		}
		if v != nil {
			out = append(out, v)
		}
	}
}

// step consumes at most one frame header or bulk body. It returns a non-nil
// Value only when a top-level frame completed; a completed array element is
// attached to its parent on the stack instead. progressed is false when the
// buffer holds too few bytes to advance.
func (d *Decoder) step() (v *Value, progressed bool, err error) {
	if d.bulkLen >= 0 {
		need := d.bulkLen + 2
		if len(d.buf) < need {
			return nil, false, nil
		}
		if d.buf[d.bulkLen] != '\r' || d.buf[d.bulkLen+1] != '\n' {
			return nil, false, ErrBadCRLFEnd
		}
		data := make([]byte, d.bulkLen)
		copy(data, d.buf[:d.bulkLen])
		d.consume(need)
		d.bulkLen = -1
		return d.complete(&Value{Type: RespString, Data: data}), true, nil
	}

	line, ok, err := d.line()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if len(line) == 0 {
		return nil, false, ErrInvalidSyntax
	}

	marker, rest := line[0], line[1:]
	switch marker {
	case RespStatus, RespError:
		data := make([]byte, len(rest))
		copy(data, rest)
		return d.complete(&Value{Type: marker, Data: data}), true, nil

	case RespInt:
		n, err := parseInt64(rest)
		if err != nil {
			return nil, false, err
		}
		return d.complete(&Value{Type: RespInt, Int: n}), true, nil

	case RespString:
		n, err := parseInt64(rest)
		if err != nil {
			return nil, false, err
		}
		if n == -1 {
			return d.complete(NullBulk()), true, nil
		}
		if n < 0 {
			return nil, false, ErrInvalidSyntax
		}
		if n > MaxBulkSize {
			return nil, false, ErrTooLarge
		}
		d.bulkLen = int(n)
		return nil, true, nil

	case RespArray:
		n, err := parseInt64(rest)
		if err != nil {
			return nil, false, err
		}
		if n == -1 {
			return d.complete(NullArray()), true, nil
		}
		if n < 0 {
			return nil, false, ErrInvalidSyntax
		}
		if n == 0 {
			return d.complete(&Value{Type: RespArray, Array: []*Value{}}), true, nil
		}
		if len(d.stack) >= MaxNestingDepth {
			return nil, false, ErrMaxDepth
		}
		d.stack = append(d.stack, arrayFrame{
			remaining: int(n),
			items:     make([]*Value, 0, min(int(n), 32)),
		})
		return nil, true, nil

	default:
		return nil, false, ErrInvalidSyntax
	}
}

// complete attaches a finished Value to the innermost pending array, popping
// every array it fills in turn. It returns the Value only when nothing on
// the stack is waiting for it, i.e. a top-level frame finished.
func (d *Decoder) complete(v *Value) *Value {
	for {
		if len(d.stack) == 0 {
			return v
		}
		top := &d.stack[len(d.stack)-1]
		top.items = append(top.items, v)
		top.remaining--
		if top.remaining > 0 {
			return nil
		}
		v = &Value{Type: RespArray, Array: top.items}
		d.stack = d.stack[:len(d.stack)-1]
	}
}

// line returns the next CRLF-terminated line without the terminator and
// consumes it. ok is false when no full line has arrived yet; the scan
// offset remembers how far the buffer has already been searched.
func (d *Decoder) line() (line []byte, ok bool, err error) {
	idx := bytes.IndexByte(d.buf[d.scan:], '\n')
	if idx < 0 {
		d.scan = len(d.buf)
		return nil, false, nil
	}
	end := d.scan + idx
	if end < 1 || d.buf[end-1] != '\r' {
		return nil, false, ErrBadCRLFEnd
	}
	line = d.buf[:end-1]
	d.consume(end + 1)
	return line, true, nil
}

func (d *Decoder) consume(n int) {
	d.buf = d.buf[n:]
	d.scan = 0
	if len(d.buf) == 0 {
		d.buf = nil
	}
}

// parseInt64 parses a RESP integer or length line.
func parseInt64(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, ErrInvalidSyntax
	}
	if len(b) < 10 { // Fast path for small numbers
		var neg, i = false, 0
		switch b[0] {
		case '-':
			neg = true
			fallthrough
		case '+':
			i++
		}
		if len(b) != i {
			var n int64
			for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
				n = int64(b[i]-'0') + n*10
			}
			if len(b) == i {
				if neg {
					n = -n
				}
				return n, nil
			}
		}
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrInvalidSyntax
	}
	return n, nil
}
