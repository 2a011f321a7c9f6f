package respwire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RespTestCase defines the structure for RESP protocol test cases
type RespTestCase struct {
	name     string
	input    []byte
	expected []*Value
}

func feedAll(t *testing.T, input []byte) []*Value {
	t.Helper()
	dec := NewDecoder()
	values, err := dec.Feed(input)
	require.NoError(t, err)
	return values
}

func TestDecoder_Feed(t *testing.T) {
	tests := []RespTestCase{
		{
			name:     "status",
			input:    []byte("+OK\r\n"),
			expected: []*Value{NewStatus("OK")},
		},
		{
			name:     "error",
			input:    []byte("-ERR unknown command\r\n"),
			expected: []*Value{NewError("ERR unknown command")},
		},
		{
			name:     "integer",
			input:    []byte(":1000\r\n"),
			expected: []*Value{NewInt(1000)},
		},
		{
			name:     "negative integer",
			input:    []byte(":-42\r\n"),
			expected: []*Value{NewInt(-42)},
		},
		{
			name:     "bulk string",
			input:    []byte("$5\r\nHello\r\n"),
			expected: []*Value{NewBulk([]byte("Hello"))},
		},
		{
			name:     "empty bulk string",
			input:    []byte("$0\r\n\r\n"),
			expected: []*Value{NewBulk([]byte{})},
		},
		{
			name:     "null bulk string",
			input:    []byte("$-1\r\n"),
			expected: []*Value{NullBulk()},
		},
		{
			name:     "empty array",
			input:    []byte("*0\r\n"),
			expected: []*Value{NewArray()},
		},
		{
			name:     "null array",
			input:    []byte("*-1\r\n"),
			expected: []*Value{NullArray()},
		},
		{
			name:  "command-shaped array",
			input: []byte("*4\r\n$4\r\nHSET\r\n$6\r\nmyhash\r\n$6\r\nfield1\r\n$5\r\nHello\r\n"),
			expected: []*Value{
				NewArray(
					NewBulk([]byte("HSET")),
					NewBulk([]byte("myhash")),
					NewBulk([]byte("field1")),
					NewBulk([]byte("Hello")),
				),
			},
		},
		{
			name:  "nested arrays",
			input: []byte("*2\r\n*1\r\n:5\r\n$3\r\nabc\r\n"),
			expected: []*Value{
				NewArray(
					NewArray(NewInt(5)),
					NewBulk([]byte("abc")),
				),
			},
		},
		{
			name:  "deeply nested array",
			input: []byte("*1\r\n*1\r\n*2\r\n+OK\r\n*0\r\n"),
			expected: []*Value{
				NewArray(NewArray(NewArray(NewStatus("OK"), NewArray()))),
			},
		},
		{
			name:  "array with nulls and mixed types",
			input: []byte("*5\r\n+PONG\r\n-ERR oops\r\n:-1\r\n$-1\r\n*-1\r\n"),
			expected: []*Value{
				NewArray(
					NewStatus("PONG"),
					NewError("ERR oops"),
					NewInt(-1),
					NullBulk(),
					NullArray(),
				),
			},
		},
		{
			name:     "binary-safe bulk with embedded CRLF",
			input:    []byte("$10\r\nab\r\ncd\r\nef\r\n"),
			expected: []*Value{NewBulk([]byte("ab\r\ncd\r\nef"))},
		},
		{
			name:     "multiple frames in one feed",
			input:    []byte("+OK\r\n:7\r\n$2\r\nhi\r\n"),
			expected: []*Value{NewStatus("OK"), NewInt(7), NewBulk([]byte("hi"))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := feedAll(t, tt.input)
			require.Equal(t, len(tt.expected), len(values))
			for i, expected := range tt.expected {
				assert.True(t, expected.Equal(values[i]),
					"frame %d: expected %s, got %s", i, expected, values[i])
			}
		})
	}
}

func TestDecoder_PartialFeedInvariance(t *testing.T) {
	input := []byte("+OK\r\n*2\r\n*1\r\n:5\r\n$3\r\nabc\r\n:-12\r\n$-1\r\n$0\r\n\r\n")
	expected := feedAll(t, input)
	require.Len(t, expected, 5)

	// Splitting the stream at any byte boundary must yield the same frames.
	for split := 0; split <= len(input); split++ {
		dec := NewDecoder()
		first, err := dec.Feed(input[:split])
		require.NoError(t, err, "split=%d", split)
		second, err := dec.Feed(input[split:])
		require.NoError(t, err, "split=%d", split)

		values := append(first, second...)
		require.Equal(t, len(expected), len(values), "split=%d", split)
		for i := range expected {
			assert.True(t, expected[i].Equal(values[i]), "split=%d frame=%d", split, i)
		}
		assert.Zero(t, dec.Buffered(), "split=%d", split)
	}
}

func TestDecoder_FeedByteAtATime(t *testing.T) {
	input := []byte("*2\r\n$4\r\nPING\r\n$4\r\nPONG\r\n:99\r\n")
	expected := feedAll(t, input)

	dec := NewDecoder()
	var values []*Value
	for i := range input {
		got, err := dec.Feed(input[i : i+1])
		require.NoError(t, err)
		values = append(values, got...)
	}
	require.Equal(t, len(expected), len(values))
	for i := range expected {
		assert.True(t, expected[i].Equal(values[i]), "frame %d", i)
	}
}

func TestDecoder_NullVsEmpty(t *testing.T) {
	values := feedAll(t, []byte("$-1\r\n$0\r\n\r\n*-1\r\n*0\r\n"))
	require.Len(t, values, 4)

	assert.True(t, values[0].IsNull())
	assert.Nil(t, values[0].Data)

	assert.False(t, values[1].IsNull())
	assert.NotNil(t, values[1].Data)
	assert.Empty(t, values[1].Data)

	assert.True(t, values[2].IsNull())
	assert.Nil(t, values[2].Array)

	assert.False(t, values[3].IsNull())
	assert.NotNil(t, values[3].Array)
	assert.Empty(t, values[3].Array)

	assert.False(t, values[0].Equal(values[1]))
	assert.False(t, values[2].Equal(values[3]))
}

func TestDecoder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{
			name:    "unknown type marker",
			input:   []byte("!bogus\r\n"),
			wantErr: ErrInvalidSyntax,
		},
		{
			name:    "non-numeric integer",
			input:   []byte(":12ab\r\n"),
			wantErr: ErrInvalidSyntax,
		},
		{
			name:    "line without carriage return",
			input:   []byte("+OK\n"),
			wantErr: ErrBadCRLFEnd,
		},
		{
			name:    "bulk body with broken terminator",
			input:   []byte("$3\r\nabcXY"),
			wantErr: ErrBadCRLFEnd,
		},
		{
			name:    "bulk length below -1",
			input:   []byte("$-2\r\n"),
			wantErr: ErrInvalidSyntax,
		},
		{
			name:    "array count below -1",
			input:   []byte("*-3\r\n"),
			wantErr: ErrInvalidSyntax,
		},
		{
			name:    "bulk length above limit",
			input:   []byte("$536870913\r\n"),
			wantErr: ErrTooLarge,
		},
		{
			name:    "nesting beyond max depth",
			input:   []byte(strings.Repeat("*1\r\n", MaxNestingDepth+1)),
			wantErr: ErrMaxDepth,
		},
		{
			name:    "empty line",
			input:   []byte("\r\n"),
			wantErr: ErrInvalidSyntax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder()
			_, err := dec.Feed(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecoder_ErrorIsSticky(t *testing.T) {
	dec := NewDecoder()
	_, err := dec.Feed([]byte("!oops\r\n"))
	require.ErrorIs(t, err, ErrInvalidSyntax)

	// Well-formed input after a fatal error must not be accepted: byte
	// alignment is untrustworthy once the stream is broken.
	values, err := dec.Feed([]byte("+OK\r\n"))
	assert.ErrorIs(t, err, ErrInvalidSyntax)
	assert.Empty(t, values)
}

func TestDecoder_ValuesBeforeFatalErrorAreReturned(t *testing.T) {
	dec := NewDecoder()
	values, err := dec.Feed([]byte("+OK\r\n!broken\r\n"))
	assert.ErrorIs(t, err, ErrInvalidSyntax)
	require.Len(t, values, 1)
	assert.True(t, NewStatus("OK").Equal(values[0]))
}

func TestDecoder_BufferedCarriesPartialFrame(t *testing.T) {
	dec := NewDecoder()
	values, err := dec.Feed([]byte("$10\r\nab"))
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Equal(t, 2, dec.Buffered())

	values, err = dec.Feed([]byte("cdefghij\r\n"))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, NewBulk([]byte("abcdefghij")).Equal(values[0]))
	assert.Zero(t, dec.Buffered())
}
