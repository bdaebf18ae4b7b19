package net

import (
	"context"
	"net"
)

// Listen announces on the local TCP address. On unix systems the socket has
// SO_REUSEPORT set, so several server processes can accept on one port.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: control}
	return lc.Listen(ctx, "tcp", addr)
}
