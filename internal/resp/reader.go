package resp

import (
	"io"
	"math"

	"github.com/xgzlucario/respd/internal/ringbuf"
	"github.com/zyedidia/generic/stack"
)

const (
	KB = 1024
	MB = 1024 * KB
)

const (
	// maxIntegerLen is the number of bytes read after the first one
	// before an integer line is rejected.
	maxIntegerLen = 20

	// maxPrealloc bounds the capacity reserved for a declared array length.
	maxPrealloc = 1024
)

// Options configures a Reader.
type Options struct {
	ReadBufferSize int // ring buffer capacity
	MaxBulkLen     int // largest accepted bulk string
	MaxInlineLen   int // longest accepted inline command line
}

var DefaultOptions = Options{
	ReadBufferSize: ringbuf.DefaultSize,
	MaxBulkLen:     512 * MB,
	MaxInlineLen:   64 * KB,
}

func (o Options) withDefaults() Options {
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = DefaultOptions.ReadBufferSize
	}
	if o.MaxBulkLen <= 0 {
		o.MaxBulkLen = DefaultOptions.MaxBulkLen
	}
	if o.MaxInlineLen <= 0 {
		o.MaxInlineLen = DefaultOptions.MaxInlineLen
	}
	return o
}

// Reader decodes client requests from a ring buffer.
//
// Nested arrays are decoded with an explicit work stack, so nesting depth is
// bounded by memory and not by the goroutine stack. A Reader keeps no state
// between calls besides the bytes cached in its ring buffer.
type Reader struct {
	rd      *ringbuf.Reader
	options Options
}

// partialArray is an array whose items are still being decoded.
type partialArray struct {
	length int
	items  []Value
}

func newPartialArray(length int) *partialArray {
	return &partialArray{
		length: length,
		items:  make([]Value, 0, min(length, maxPrealloc)),
	}
}

// NewReader creates a Reader with its own ring buffer over rd.
func NewReader(rd io.Reader, options Options) *Reader {
	options = options.withDefaults()
	return NewRingReader(ringbuf.New(rd, options.ReadBufferSize), options)
}

// NewRingReader creates a Reader on an existing ring buffer.
func NewRingReader(rb *ringbuf.Reader, options Options) *Reader {
	return &Reader{rd: rb, options: options.withDefaults()}
}

// Empty reports whether no received bytes are waiting to be decoded.
func (r *Reader) Empty() bool { return r.rd.Empty() }

// BytesRead returns the number of bytes received so far.
func (r *Reader) BytesRead() uint64 { return r.rd.BytesRead() }

// Offset returns the number of bytes consumed by decoding so far.
func (r *Reader) Offset() uint64 { return r.rd.BytesRead() - uint64(r.rd.Buffered()) }

// ReadCommand decodes the next request, either a multi-bulk array whose first
// element is the command name or an inline command line.
// It returns a complete request or an error, never a partial request.
func (r *Reader) ReadCommand() (*Request, error) {
	tag, err := r.rd.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag == ARRAY {
		return r.readBulkCommand()
	}
	return r.readInlineCommand(tag)
}

// ReadValue decodes a single bulk string, integer or array value.
func (r *Reader) ReadValue() (Value, error) {
	value, nested, err := r.readValue()
	if err != nil || nested == nil {
		return value, err
	}
	items, err := r.collect(nested)
	if err != nil {
		return Value{}, err
	}
	return NewArrayValue(items), nil
}

func (r *Reader) readBulkCommand() (*Request, error) {
	n, err := r.readSize()
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, errNoCommand
	}
	if err = r.readTag(BULK); err != nil {
		return nil, err
	}
	command, err := r.readBulk()
	if err != nil {
		return nil, err
	}
	args, err := r.collect(newPartialArray(n - 1))
	if err != nil {
		return nil, err
	}
	return &Request{Command: command, Args: args}, nil
}

// collect fills root and every array nested in it, returning root's items.
func (r *Reader) collect(root *partialArray) ([]Value, error) {
	frames := stack.New[*partialArray]()
	frames.Push(root)

	for {
		top := frames.Peek()
		if len(top.items) == top.length {
			frames.Pop()
			if frames.Size() == 0 {
				return top.items, nil
			}
			parent := frames.Peek()
			parent.items = append(parent.items, NewArrayValue(top.items))
			continue
		}

		value, nested, err := r.readValue()
		if err != nil {
			return nil, err
		}
		if nested != nil {
			frames.Push(nested)
			continue
		}
		top.items = append(top.items, value)
	}
}

// readValue reads one tagged value. An array header yields a partial array
// instead of a complete value.
func (r *Reader) readValue() (Value, *partialArray, error) {
	tag, err := r.rd.ReadByte()
	if err != nil {
		return Value{}, nil, err
	}

	switch tag {
	case BULK:
		bulk, err := r.readBulk()
		if err != nil {
			return Value{}, nil, err
		}
		return Value{typ: BULK, str: bulk}, nil, nil

	case INTEGER:
		n, err := r.readInteger()
		if err != nil {
			return Value{}, nil, err
		}
		return NewIntegerValue(n), nil, nil

	case ARRAY:
		n, err := r.readSize()
		if err != nil {
			return Value{}, nil, err
		}
		return Value{}, newPartialArray(n), nil

	default:
		return Value{}, nil, errInvalidArgument
	}
}

// readInteger reads a signed decimal terminated by CRLF.
func (r *Reader) readInteger() (int64, error) {
	var sign int64 = 1
	var value int64

	c, err := r.rd.ReadByte()
	if err != nil {
		return 0, err
	}
	if c == '-' {
		sign = -1
	} else if isDigit(c) {
		value = int64(c - '0')
	}

	for range maxIntegerLen {
		c, err := r.rd.ReadByte()
		if err != nil {
			return 0, err
		}
		if c == '\r' {
			c, err = r.rd.ReadByte()
			if err != nil {
				return 0, err
			}
			if c == '\n' {
				return value, nil
			}
			return 0, errLineEnding
		}
		if !isDigit(c) {
			return 0, errNonDigit
		}

		d := int64(c - '0')
		if value > math.MaxInt64/10 || value < math.MinInt64/10 {
			return 0, errIntegerOverflow
		}
		value *= 10
		if (sign > 0 && value > math.MaxInt64-d) || (sign < 0 && value < math.MinInt64+d) {
			return 0, errIntegerOverflow
		}
		value += sign * d
	}
	return 0, errInvalidInteger
}

func (r *Reader) readSize() (int, error) {
	n, err := r.readInteger()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errNegativeSize
	}
	if n > math.MaxInt {
		return 0, errIntegerOverflow
	}
	return int(n), nil
}

func (r *Reader) readTag(want byte) error {
	c, err := r.rd.ReadByte()
	if err != nil {
		return err
	}
	if c != want {
		return errUnexpectedByte(want, c)
	}
	return nil
}

func (r *Reader) readCRLF() error {
	if err := r.readTag('\r'); err != nil {
		return err
	}
	return r.readTag('\n')
}

// readBulk reads a bulk string body after its '$' tag.
func (r *Reader) readBulk() ([]byte, error) {
	n, err := r.readSize()
	if err != nil {
		return nil, err
	}
	if n > r.options.MaxBulkLen {
		return nil, errBulkLength
	}
	bulk, err := r.rd.ReadExact(make([]byte, 0, n), n)
	if err != nil {
		return nil, err
	}
	if err = r.readCRLF(); err != nil {
		return nil, err
	}
	return bulk, nil
}

// readInlineCommand reads a space separated command line. first is the
// already consumed first byte of the line.
func (r *Reader) readInlineCommand(first byte) (*Request, error) {
	if first == '\r' || first == '\n' {
		return nil, errEmptyCommand
	}

	lineLen := 1
	command, last, err := r.readInlineToken([]byte{first}, &lineLen)
	if err != nil {
		return nil, err
	}

	req := &Request{Command: command}
	for !last {
		var arg []byte
		arg, last, err = r.readInlineToken(nil, &lineLen)
		if err != nil {
			return nil, err
		}
		req.Args = append(req.Args, Value{typ: BULK, str: arg})
	}
	return req, nil
}

// readInlineToken appends bytes to buf until a space or CRLF. last reports
// whether the token ended the line.
func (r *Reader) readInlineToken(buf []byte, lineLen *int) (token []byte, last bool, err error) {
	for {
		c, err := r.rd.ReadByte()
		if err != nil {
			return nil, false, err
		}
		*lineLen++
		if *lineLen > r.options.MaxInlineLen {
			return nil, false, errInlineTooBig
		}

		switch c {
		case ' ':
			return buf, false, nil
		case '\n':
			return nil, false, errUnexpectedLinefeed
		case '\r':
			if err = r.readTag('\n'); err != nil {
				return nil, false, err
			}
			return buf, true, nil
		default:
			buf = append(buf, c)
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
