package resp

import (
	"errors"
	"fmt"

	"github.com/xgzlucario/respd/internal/ringbuf"
)

// ErrProtocol is wrapped by every decoding error caused by malformed input.
// After one, the stream can no longer be trusted and must be closed.
var ErrProtocol = errors.New("protocol error")

// ErrConnectionClosed is returned when the peer closed the stream.
var ErrConnectionClosed = ringbuf.ErrConnectionClosed

var (
	errNoCommand          = protocolError("no command")
	errInvalidArgument    = protocolError("invalid argument")
	errIntegerOverflow    = protocolError("too large integer")
	errLineEnding         = protocolError("unexpected line ending")
	errNonDigit           = protocolError("non-digit character")
	errInvalidInteger     = protocolError("invalid integer")
	errNegativeSize       = protocolError("negative size")
	errBulkLength         = protocolError("invalid bulk length")
	errEmptyCommand       = protocolError("empty command")
	errUnexpectedLinefeed = protocolError("unexpected linefeed")
	errInlineTooBig       = protocolError("too big inline request")
)

func protocolError(msg string) error {
	return fmt.Errorf("%w: %s", ErrProtocol, msg)
}

func errUnexpectedByte(want, got byte) error {
	return fmt.Errorf("%w: expected %q, got %q", ErrProtocol, want, got)
}
