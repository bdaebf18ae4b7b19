package main

import (
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/xgzlucario/respd/internal/resp"
	"github.com/xgzlucario/respd/internal/ringbuf"
)

// Client is one connection driven by its own goroutine.
type Client struct {
	id     ulid.ULID
	server *Server
	conn   net.Conn
	buf    []byte // ring storage borrowed from the server pool

	reader *resp.Reader
	writer *resp.Writer

	closeOnce sync.Once
	log       zerolog.Logger
}

func newClient(s *Server, conn net.Conn) *Client {
	buf := s.pool.Get()
	c := &Client{
		id:     ulid.Make(),
		server: s,
		conn:   conn,
		buf:    buf,
		reader: resp.NewRingReader(ringbuf.NewWithBuffer(conn, buf), s.config.readerOptions()),
		writer: resp.NewWriter(conn),
	}
	c.log = logger.With().
		Str("client", c.id.String()).
		Str("addr", conn.RemoteAddr().String()).
		Logger()
	return c
}

// serve reads requests until the connection closes or sends bad input.
// Replies are flushed only when no pipelined bytes remain cached.
func (c *Client) serve() {
	s := c.server
	s.metrics.connsTotal.Inc()
	s.metrics.connsActive.Inc()
	c.log.Debug().Msg("accept client")
	defer c.free()

	if tcp, ok := c.conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	for {
		req, err := c.reader.ReadCommand()
		if err != nil {
			c.handleReadError(err)
			return
		}
		s.metrics.commands.Inc()
		c.log.Trace().Stringer("req", req).Msg("request")

		s.handler.ServeRESP(c.writer, req)

		if c.reader.Empty() {
			if err := c.writer.Flush(); err != nil {
				c.log.Error().Err(err).Msg("send reply error")
				return
			}
		}
	}
}

func (c *Client) handleReadError(err error) {
	decodeErrors := c.server.metrics.decodeErrors
	switch {
	case errors.Is(err, resp.ErrConnectionClosed):
		decodeErrors.WithLabelValues(errKindClosed).Inc()
		c.log.Debug().Msg("client closed connection")

	case errors.Is(err, resp.ErrProtocol):
		decodeErrors.WithLabelValues(errKindProtocol).Inc()
		c.log.Warn().Err(err).Msg("read request error")
		detail := strings.TrimPrefix(err.Error(), resp.ErrProtocol.Error()+": ")
		c.writer.WriteError("ERR Protocol error: " + detail)
		_ = c.writer.Flush()

	default:
		decodeErrors.WithLabelValues(errKindTransport).Inc()
		if c.server.closed.Load() {
			return
		}
		c.log.Error().Err(err).Msg("read request error")
	}
}

func (c *Client) free() {
	c.Close()
	s := c.server
	s.clients.Remove(c)
	s.pool.Put(c.buf)

	nread := c.reader.BytesRead()
	s.metrics.connsActive.Dec()
	s.metrics.bytesRead.Add(float64(nread))
	c.log.Debug().Str("read", humanize.Bytes(nread)).Msg("free client")
}

// Close closes the underlying connection. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}
