package respwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_ErrorAccessors(t *testing.T) {
	tests := []struct {
		name    string
		value   *Value
		code    string
		message string
	}{
		{"code and message", NewError("ERR bad thing"), "ERR", "bad thing"},
		{"multi-word message", NewError("WRONGTYPE wrong kind of value"), "WRONGTYPE", "wrong kind of value"},
		{"bare identifier", NewError("LOADING"), "LOADING", ""},
		{"not an error value", NewStatus("OK"), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.value.ErrorCode())
			assert.Equal(t, tt.message, tt.value.ErrorMessage())
		})
	}
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name  string
		a, b  *Value
		equal bool
	}{
		{"same status", NewStatus("OK"), NewStatus("OK"), true},
		{"different status", NewStatus("OK"), NewStatus("QUEUED"), false},
		{"status vs error same text", NewStatus("X"), NewError("X"), false},
		{"same integer", NewInt(5), NewInt(5), true},
		{"different integer", NewInt(5), NewInt(6), false},
		{"same bulk", NewBulk([]byte("a")), NewBulk([]byte("a")), true},
		{"null bulk vs empty bulk", NullBulk(), NewBulk([]byte{}), false},
		{"null bulk vs null bulk", NullBulk(), NullBulk(), true},
		{"null array vs empty array", NullArray(), NewArray(), false},
		{"null array vs null array", NullArray(), NullArray(), true},
		{
			"equal nested arrays",
			NewArray(NewInt(1), NewArray(NewBulk([]byte("x")))),
			NewArray(NewInt(1), NewArray(NewBulk([]byte("x")))),
			true,
		},
		{
			"nested arrays differing in leaf",
			NewArray(NewInt(1), NewArray(NewBulk([]byte("x")))),
			NewArray(NewInt(1), NewArray(NullBulk())),
			false,
		},
		{"different lengths", NewArray(NewInt(1)), NewArray(NewInt(1), NewInt(2)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
			assert.Equal(t, tt.equal, tt.b.Equal(tt.a))
		})
	}
}

func TestValue_IsNull(t *testing.T) {
	assert.True(t, NullBulk().IsNull())
	assert.True(t, NullArray().IsNull())
	assert.True(t, NewBulk(nil).IsNull())
	assert.False(t, NewBulk([]byte{}).IsNull())
	assert.False(t, NewArray().IsNull())
	assert.False(t, NewStatus("").IsNull())
	assert.False(t, NewInt(0).IsNull())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, `Status: "OK"`, NewStatus("OK").String())
	assert.Equal(t, "Error: ERR oops", NewError("ERR oops").String())
	assert.Equal(t, "Integer: -3", NewInt(-3).String())
	assert.Equal(t, "String: (nil)", NullBulk().String())
	assert.Equal(t, "Array: (nil)", NullArray().String())
	assert.Equal(t, "Array: (empty)", NewArray().String())
}
