package respwire

import "strconv"

// AppendCommand appends the wire encoding of a command to dst and returns
// the extended slice. Commands are always the array-of-bulk-strings form:
// a *-count header followed by the command name and every argument as a
// length-prefixed bulk string. This is the only shape a client writes.
func AppendCommand(dst []byte, name string, args ...[]byte) []byte {
	dst = appendHeader(dst, RespArray, int64(1+len(args)))
	dst = appendBulk(dst, []byte(name))
	for _, arg := range args {
		dst = appendBulk(dst, arg)
	}
	return dst
}

// AppendValue appends the reply-side wire encoding of v to dst. The client
// never sends these shapes itself; this is the counterpart used by the
// round-trip tests and by anyone implementing a server on this codec.
func AppendValue(dst []byte, v *Value) ([]byte, error) {
	switch v.Type {
	case RespStatus, RespError:
		dst = append(dst, v.Type)
		dst = append(dst, v.Data...)
		return append(dst, CRLF...), nil

	case RespInt:
		dst = append(dst, RespInt)
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, CRLF...), nil

	case RespString:
		if v.Data == nil {
			return append(dst, Nil...), nil
		}
		return appendBulk(dst, v.Data), nil

	case RespArray:
		if v.Array == nil {
			return append(dst, NilArray...), nil
		}
		dst = appendHeader(dst, RespArray, int64(len(v.Array)))
		var err error
		for _, elem := range v.Array {
			if dst, err = AppendValue(dst, elem); err != nil {
				return nil, err
			}
		}
		return dst, nil

	default:
		return nil, ErrInvalidSyntax
	}
}

func appendHeader(dst []byte, marker byte, n int64) []byte {
	dst = append(dst, marker)
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, CRLF...)
}

func appendBulk(dst []byte, b []byte) []byte {
	dst = appendHeader(dst, RespString, int64(len(b)))
	dst = append(dst, b...)
	return append(dst, CRLF...)
}
