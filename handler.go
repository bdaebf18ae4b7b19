package main

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/swiss"
	"github.com/xgzlucario/respd/internal/resp"
)

// Handler replies to a decoded request. Replies are buffered in w and
// flushed by the connection once no more pipelined input is waiting.
type Handler interface {
	ServeRESP(w *resp.Writer, req *resp.Request)
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc func(w *resp.Writer, req *resp.Request)

func (f HandlerFunc) ServeRESP(w *resp.Writer, req *resp.Request) { f(w, req) }

// AckHandler acknowledges every request with +OK without interpreting it.
var AckHandler = HandlerFunc(func(w *resp.Writer, _ *resp.Request) {
	w.WriteOK()
})

// NotFoundHandler answers the way redis does for commands it does not know.
var NotFoundHandler = HandlerFunc(func(w *resp.Writer, req *resp.Request) {
	w.WriteError(fmt.Sprintf("%v '%s'", errUnknownCommand, req.Command))
})

// Mux routes requests by case-insensitive command name.
// Routes must be registered before the server starts.
type Mux struct {
	handlers *swiss.Map[string, Handler]
	fallback Handler
}

// NewMux creates a Mux that acknowledges every unrouted command.
func NewMux() *Mux {
	return &Mux{
		handlers: swiss.New[string, Handler](16),
		fallback: AckHandler,
	}
}

func (m *Mux) Handle(command string, handler Handler) {
	m.handlers.Put(strings.ToLower(command), handler)
}

func (m *Mux) HandleFunc(command string, handler func(w *resp.Writer, req *resp.Request)) {
	m.Handle(command, HandlerFunc(handler))
}

// Fallback sets the handler for commands without a route.
func (m *Mux) Fallback(handler Handler) {
	m.fallback = handler
}

func (m *Mux) ServeRESP(w *resp.Writer, req *resp.Request) {
	if handler, ok := m.handlers.Get(req.Name()); ok {
		handler.ServeRESP(w, req)
		return
	}
	m.fallback.ServeRESP(w, req)
}
