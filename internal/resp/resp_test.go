package resp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2/proto"
	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	assert := assert.New(t)

	t.Run("str-value", func(t *testing.T) {
		data := ValueOK.Append(nil)
		assert.Equal(string(data), "+OK\r\n")
	})

	t.Run("err-value", func(t *testing.T) {
		value := NewErrValue(errors.New("err message"))
		data := value.Append(nil)
		assert.Equal(string(data), proto.Error("err message"))
	})

	t.Run("bulk-value", func(t *testing.T) {
		value := NewBulkValue([]byte("hello"))
		assert.Equal(string(value.Append(nil)), proto.String("hello"))

		// empty bulk string
		value = NewBulkValue([]byte(""))
		assert.Equal(string(value.Append(nil)), "$0\r\n\r\n")

		// nil bulk string
		value = NewBulkValue(nil)
		assert.True(value.IsNull())
		assert.Equal(string(value.Append(nil)), proto.Nil)
	})

	t.Run("integer-value", func(t *testing.T) {
		value := NewIntegerValue(1)
		assert.Equal(string(value.Append(nil)), proto.Int(1))
		assert.Equal("1", value.ToString())

		n, err := value.ToInt()
		assert.Nil(err)
		assert.Equal(int64(1), n)

		n, err = NewBulkValue([]byte("-42")).ToInt()
		assert.Nil(err)
		assert.Equal(int64(-42), n)

		_, err = NewBulkValue([]byte("abc")).ToInt()
		assert.NotNil(err)
	})

	t.Run("array-value", func(t *testing.T) {
		value := NewArrayValue([]Value{
			NewBulkValue([]byte("a")),
			NewIntegerValue(2),
			NewArrayValue(nil),
		})
		assert.Equal(string(value.Append(nil)), proto.Array(proto.String("a"), proto.Int(2), proto.Array()))
	})

	t.Run("zero-value", func(t *testing.T) {
		var value Value
		assert.Equal(string(value.Append(nil)), proto.Nil)
	})
}

func TestRequest(t *testing.T) {
	assert := assert.New(t)

	req := &Request{
		Command: []byte("SET"),
		Args: []Value{
			NewBulkValue([]byte("foo")),
			NewBulkValue([]byte("hello world")),
		},
	}

	t.Run("append", func(t *testing.T) {
		assert.Equal(proto.Strings("SET", "foo", "hello world"), string(req.Append(nil)))
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(`"SET" "foo" "hello world"`, req.String())

		nested := &Request{
			Command: []byte("ECHO"),
			Args: []Value{
				NewIntegerValue(3),
				NewArrayValue([]Value{NewBulkValue([]byte("a\r\n")), ValueNull}),
			},
		}
		assert.Equal(`"ECHO" 3 ["a\r\n" (nil)]`, nested.String())
	})

	t.Run("name", func(t *testing.T) {
		assert.Equal("set", req.Name())
	})
}

func TestWriter(t *testing.T) {
	assert := assert.New(t)
	var out bytes.Buffer
	writer := NewWriter(&out)

	t.Run("ok", func(t *testing.T) {
		writer.WriteOK()
		assert.Nil(writer.Flush())
		assert.Equal("+OK\r\n", out.String())
		out.Reset()
	})

	t.Run("error", func(t *testing.T) {
		writer.WriteError("ERR bad\r\nthing")
		assert.Nil(writer.Flush())
		assert.Equal("-ERR bad  thing\r\n", out.String())
		out.Reset()
	})

	t.Run("value", func(t *testing.T) {
		values := []Value{
			ValueOK,
			NewErrValue(errors.New("ERR x")),
			NewIntegerValue(-7),
			NewBulkValue([]byte("bulk")),
			ValueNull,
			NewArrayValue([]Value{NewIntegerValue(1), NewArrayValue([]Value{NewBulkValue([]byte("z"))})}),
		}
		for _, v := range values {
			writer.WriteValue(v)
			assert.Nil(writer.Flush())
			assert.Equal(string(v.Append(nil)), out.String())
			out.Reset()
		}
	})

	t.Run("buffered", func(t *testing.T) {
		writer.WriteOK()
		writer.WriteOK()
		assert.Equal(0, out.Len())
		assert.Nil(writer.Flush())
		assert.Equal("+OK\r\n+OK\r\n", out.String())
		out.Reset()
	})
}
