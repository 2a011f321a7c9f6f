package respwire

import "github.com/pzhenzhou/respkit/pkg/common"

const (
	CRLF     = "\r\n"
	Nil      = "$-1\r\n"
	NilArray = "*-1\r\n"
)

const (
	RespStatus = byte('+') // +<string>\r\n
	RespError  = byte('-') // -<string>\r\n
	RespInt    = byte(':') // :<number>\r\n
	RespString = byte('$') // $<length>\r\n<bytes>\r\n
	RespArray  = byte('*') // *<len>\r\n<frame-1>...<frame-n>
)

const (
	// MaxBulkSize bounds a single bulk string payload.
	MaxBulkSize = 512 * common.MB
	// MaxNestingDepth bounds array nesting. Deeper input is rejected as a
	// protocol error rather than growing the frame stack without limit.
	MaxNestingDepth = 64
)
