package resp

import (
	"strconv"
	"strings"

	"github.com/tidwall/redcon"
)

// Request is one decoded client command.
//
// A Request owns its buffers; the reader keeps no reference to it.
type Request struct {
	Command []byte
	Args    []Value
}

// Name returns the lower case command name.
func (r *Request) Name() string {
	return strings.ToLower(string(r.Command))
}

// Append appends the multi-bulk encoding of r to b.
func (r *Request) Append(b []byte) []byte {
	b = redcon.AppendArray(b, len(r.Args)+1)
	b = redcon.AppendBulk(b, r.Command)
	for _, arg := range r.Args {
		b = arg.Append(b)
	}
	return b
}

// String formats the request the way redis-cli MONITOR prints commands.
func (r *Request) String() string {
	b := strconv.AppendQuote(nil, string(r.Command))
	for _, arg := range r.Args {
		b = append(b, ' ')
		b = appendReadable(b, arg)
	}
	return string(b)
}

func appendReadable(b []byte, v Value) []byte {
	switch v.typ {
	case INTEGER:
		return strconv.AppendInt(b, v.num, 10)
	case ARRAY:
		b = append(b, '[')
		for i, item := range v.array {
			if i > 0 {
				b = append(b, ' ')
			}
			b = appendReadable(b, item)
		}
		return append(b, ']')
	case NULL:
		return append(b, "(nil)"...)
	default:
		return strconv.AppendQuote(b, string(v.str))
	}
}
