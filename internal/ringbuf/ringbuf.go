// Package ringbuf implements a fixed capacity circular read cache.
//
// Reader sits between a connection and the RESP decoder. Small reads are
// served from the cache, refilled with a single read per call into the
// contiguous free span. Large reads copy whatever is cached and then read the
// rest directly from the source into the caller's buffer, skipping the cache.
package ringbuf

import (
	"errors"
	"fmt"
	"io"
)

// DefaultSize is the default cache capacity in bytes.
const DefaultSize = 8196

// ErrConnectionClosed is returned when the source yields zero bytes.
var ErrConnectionClosed = fmt.Errorf("ringbuf: connection closed: %w", io.EOF)

// Reader is a circular byte cache over an io.Reader.
//
// The valid region is the n bytes starting at pos, modulo len(buf).
type Reader struct {
	rd    io.Reader
	buf   []byte
	pos   int
	n     int
	nread uint64
	err   error // returned by a source read that also yielded bytes
}

// New creates a Reader with a cache of the given size.
func New(rd io.Reader, size int) *Reader {
	if size <= 0 {
		size = DefaultSize
	}
	return NewWithBuffer(rd, make([]byte, size))
}

// NewWithBuffer creates a Reader using buf as cache storage.
// The Reader owns buf until the caller stops using the Reader.
func NewWithBuffer(rd io.Reader, buf []byte) *Reader {
	if len(buf) == 0 {
		buf = make([]byte, DefaultSize)
	}
	return &Reader{rd: rd, buf: buf}
}

// Empty reports whether no bytes are cached. It never reads from the source.
func (b *Reader) Empty() bool { return b.n == 0 }

// Buffered returns the number of cached unread bytes.
func (b *Reader) Buffered() int { return b.n }

// BytesRead returns the total number of bytes drawn from the source.
func (b *Reader) BytesRead() uint64 { return b.nread }

// fill issues exactly one read into the free span that starts right after the
// valid region and stops at the physical end of buf. Wrapped free space is
// picked up by the next call.
func (b *Reader) fill() error {
	if err := b.readErr(); err != nil {
		return err
	}
	size := len(b.buf)
	start := (b.pos + b.n) % size
	end := min(size, start+size-b.n)

	m, err := b.rd.Read(b.buf[start:end])
	if m > 0 {
		b.n += m
		b.nread += uint64(m)
		b.err = err
		return nil
	}
	if err != nil {
		return closedOr(err)
	}
	return ErrConnectionClosed
}

// ReadByte reads one byte, refilling the cache while it is empty.
func (b *Reader) ReadByte() (byte, error) {
	for b.n == 0 {
		if err := b.fill(); err != nil {
			return 0, err
		}
	}
	c := b.buf[b.pos]
	b.pos = (b.pos + 1) % len(b.buf)
	b.n--
	return c, nil
}

// ReadExact appends exactly n bytes to dst and returns the extended slice.
func (b *Reader) ReadExact(dst []byte, n int) ([]byte, error) {
	want := len(dst) + n

	// cached bytes first, at most two copies when the region wraps.
	for len(dst) < want && b.n > 0 {
		k := min(want-len(dst), b.n, len(b.buf)-b.pos)
		dst = append(dst, b.buf[b.pos:b.pos+k]...)
		b.pos = (b.pos + k) % len(b.buf)
		b.n -= k
	}
	if len(dst) == want {
		return dst, nil
	}

	// the tail goes straight from the source into dst.
	if err := b.readErr(); err != nil {
		return dst, err
	}
	start := len(dst)
	if cap(dst) < want {
		grown := make([]byte, start, want)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:want]

	for start < want {
		m, err := b.rd.Read(dst[start:])
		start += m
		b.nread += uint64(m)
		if start == want {
			b.err = err
			break
		}
		if err != nil {
			return dst[:start], closedOr(err)
		}
		if m == 0 {
			return dst[:start], ErrConnectionClosed
		}
	}
	return dst, nil
}

// readErr returns and clears the deferred source error.
func (b *Reader) readErr() error {
	err := b.err
	b.err = nil
	if err == nil {
		return nil
	}
	return closedOr(err)
}

func closedOr(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrConnectionClosed
	}
	return err
}
