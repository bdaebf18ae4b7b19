package main

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sourcegraph/conc"
	rnet "github.com/xgzlucario/respd/internal/net"
	"github.com/xgzlucario/respd/internal/pkg"
	"github.com/xgzlucario/respd/internal/resp"
	"golang.org/x/time/rate"
)

const maxAcceptDelay = time.Second

type Server struct {
	config  *Config
	handler Handler
	pool    *pkg.BufferPool
	metrics *Metrics
	limiter *rate.Limiter // nil when accept rate is unlimited

	mu       sync.Mutex
	listener net.Listener
	clients  mapset.Set[*Client]
	wg       *conc.WaitGroup
	closed   atomic.Bool
}

// NewServer creates a server that dispatches every decoded request to handler.
// A nil handler acknowledges everything with +OK.
func NewServer(config *Config, handler Handler) *Server {
	if handler == nil {
		handler = AckHandler
	}
	s := &Server{
		config:  config,
		handler: handler,
		pool:    pkg.NewBufferPool(config.ReadBufferSize),
		clients: mapset.NewSet[*Client](),
		wg:      conc.NewWaitGroup(),
	}
	s.metrics = newMetrics(s.pool)
	if config.MaxAcceptRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.MaxAcceptRate), max(1, int(config.MaxAcceptRate)))
	}
	return s
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := rnet.Listen(ctx, s.config.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or Shutdown is called.
// It returns errServerClosed after every client goroutine has exited.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	if s.closed.Load() {
		_ = ln.Close()
		return errServerClosed
	}

	stop := context.AfterFunc(ctx, s.Shutdown)
	defer stop()

	var delay time.Duration
	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				break
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				break
			}
			delay = min(max(2*delay, 5*time.Millisecond), maxAcceptDelay)
			logger.Error().Err(err).Dur("retry", delay).Msg("accept error")
			time.Sleep(delay)
			continue
		}
		delay = 0
		s.accept(conn)
	}

	s.closeClients()
	if r := s.wg.WaitAndRecover(); r != nil {
		logger.Error().Str("panic", r.String()).Msg("client goroutine panicked")
	}
	return errServerClosed
}

func (s *Server) accept(conn net.Conn) {
	if s.config.MaxClients > 0 && s.clients.Cardinality() >= s.config.MaxClients {
		logger.Warn().Str("addr", conn.RemoteAddr().String()).Msg("reject client, max clients reached")
		w := resp.NewWriter(conn)
		w.WriteError(errMaxClients.Error())
		_ = w.Flush()
		_ = conn.Close()
		return
	}

	client := newClient(s, conn)
	s.clients.Add(client)
	s.wg.Go(client.serve)
}

// Shutdown stops accepting connections and closes every connected client.
// The pending Serve call returns once their goroutines have exited.
func (s *Server) Shutdown() {
	if s.closed.Swap(true) {
		return
	}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}
	s.closeClients()
}

func (s *Server) closeClients() {
	s.clients.Each(func(c *Client) bool {
		c.Close()
		return false
	})
}

// Addr returns the listener address, or nil before Serve is called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// NumClients returns the number of connected clients.
func (s *Server) NumClients() int {
	return s.clients.Cardinality()
}
