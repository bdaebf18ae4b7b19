// Package resp decodes Redis protocol requests and encodes replies.
package resp

import (
	"strconv"

	"github.com/tidwall/redcon"
)

const (
	STRING  = '+'
	ERROR   = '-'
	INTEGER = ':'
	BULK    = '$'
	ARRAY   = '*'
	NULL    = 0xff
)

var (
	ValueOK = Value{typ: STRING, str: []byte("OK")}

	ValueNull = Value{typ: NULL}
)

// Value represents the different types of RESP values.
// A Value is immutable once constructed.
type Value struct {
	typ   byte    // one of STRING, ERROR, INTEGER, BULK, ARRAY, NULL
	str   []byte  // Used for string, error and bulk types
	num   int64   // Used for integer type
	array []Value // Used for arrays of nested values
}

func NewBulkValue(bulk []byte) Value {
	if bulk == nil {
		return ValueNull
	}
	return Value{typ: BULK, str: bulk}
}

func NewStringValue(s string) Value {
	return Value{typ: STRING, str: []byte(s)}
}

func NewErrValue(err error) Value {
	return Value{typ: ERROR, str: []byte(err.Error())}
}

func NewIntegerValue(n int64) Value {
	return Value{typ: INTEGER, num: n}
}

func NewArrayValue(values []Value) Value {
	return Value{typ: ARRAY, array: values}
}

// Type returns the RESP type tag of the value.
func (v Value) Type() byte { return v.typ }

func (v Value) IsNull() bool { return v.typ == NULL }

// ToBytes returns the payload of string, error and bulk values.
func (v Value) ToBytes() []byte { return v.str }

// ToString returns the payload as string. Integers are formatted in decimal.
func (v Value) ToString() string {
	if v.typ == INTEGER {
		return strconv.FormatInt(v.num, 10)
	}
	return string(v.str)
}

// ToInt returns integer values as is and parses string payloads.
func (v Value) ToInt() (int64, error) {
	if v.typ == INTEGER {
		return v.num, nil
	}
	return strconv.ParseInt(string(v.str), 10, 64)
}

// ToArray returns the items of an array value.
func (v Value) ToArray() []Value { return v.array }

// Append appends the RESP encoding of v to b.
func (v Value) Append(b []byte) []byte {
	switch v.typ {
	case STRING:
		return redcon.AppendString(b, string(v.str))
	case ERROR:
		return redcon.AppendError(b, string(v.str))
	case INTEGER:
		return redcon.AppendInt(b, v.num)
	case BULK:
		return redcon.AppendBulk(b, v.str)
	case ARRAY:
		b = redcon.AppendArray(b, len(v.array))
		for _, item := range v.array {
			b = item.Append(b)
		}
		return b
	default:
		return redcon.AppendNull(b)
	}
}
