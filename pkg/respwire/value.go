package respwire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Value is one decoded RESP frame. Type is always one of the five RESP2
// markers. A nil Data on a RespString is the null bulk string ($-1); a nil
// Array on a RespArray is the null array (*-1). Non-nil empty slices are the
// empty bulk string and the empty array, which are distinct wire values.
type Value struct {
	Type  byte
	Data  []byte
	Int   int64
	Array []*Value
}

func NewStatus(s string) *Value {
	return &Value{Type: RespStatus, Data: []byte(s)}
}

// NewError builds a server-error value from the full error line,
// e.g. "ERR unknown command".
func NewError(line string) *Value {
	return &Value{Type: RespError, Data: []byte(line)}
}

func NewInt(n int64) *Value {
	return &Value{Type: RespInt, Int: n}
}

// NewBulk builds a bulk string value. A nil argument yields the null bulk
// string; use an empty non-nil slice for the empty bulk string.
func NewBulk(b []byte) *Value {
	return &Value{Type: RespString, Data: b}
}

func NullBulk() *Value {
	return &Value{Type: RespString}
}

func NewArray(items ...*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{Type: RespArray, Array: items}
}

func NullArray() *Value {
	return &Value{Type: RespArray}
}

// IsNull reports whether the value is the null bulk string or the null array.
func (v *Value) IsNull() bool {
	switch v.Type {
	case RespString:
		return v.Data == nil
	case RespArray:
		return v.Array == nil
	default:
		return false
	}
}

// ErrorCode returns the first whitespace-delimited token of an error line,
// conventionally an identifier such as "ERR" or "WRONGTYPE".
func (v *Value) ErrorCode() string {
	if v.Type != RespError {
		return ""
	}
	if idx := bytes.IndexByte(v.Data, ' '); idx != -1 {
		return string(v.Data[:idx])
	}
	return string(v.Data)
}

// ErrorMessage returns the error line with the leading identifier stripped.
func (v *Value) ErrorMessage() string {
	if v.Type != RespError {
		return ""
	}
	if idx := bytes.IndexByte(v.Data, ' '); idx != -1 {
		return string(v.Data[idx+1:])
	}
	return ""
}

// Equal reports deep structural equality, including the null vs empty
// distinction for bulk strings and arrays.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case RespStatus, RespError:
		return bytes.Equal(v.Data, o.Data)
	case RespInt:
		return v.Int == o.Int
	case RespString:
		if (v.Data == nil) != (o.Data == nil) {
			return false
		}
		return bytes.Equal(v.Data, o.Data)
	case RespArray:
		if (v.Array == nil) != (o.Array == nil) {
			return false
		}
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns a string representation of the Value.
// Only for debugging purposes
func (v *Value) String() string {
	switch v.Type {
	case RespStatus:
		return fmt.Sprintf("Status: \"%s\"", string(v.Data))

	case RespError:
		return fmt.Sprintf("Error: %s", string(v.Data))

	case RespInt:
		return fmt.Sprintf("Integer: %s", strconv.FormatInt(v.Int, 10))

	case RespString:
		if v.Data == nil {
			return "String: (nil)"
		}
		return fmt.Sprintf("String: \"%s\"", string(v.Data))

	case RespArray:
		if v.Array == nil {
			return "Array: (nil)"
		}
		if len(v.Array) == 0 {
			return "Array: (empty)"
		}

		var b strings.Builder
		b.WriteString("Array:\n")
		for i, elem := range v.Array {
			elemStr := elem.String()
			lines := strings.Split(elemStr, "\n")
			b.WriteString(fmt.Sprintf("  %d) %s\n", i+1, lines[0]))
			for _, line := range lines[1:] {
				b.WriteString(fmt.Sprintf("     %s\n", line))
			}
		}
		return strings.TrimRight(b.String(), "\n")

	default:
		return fmt.Sprintf("(unknown type: %c)", v.Type)
	}
}
