package main

import (
	"errors"
)

var (
	errUnknownCommand    = errors.New("ERR unknown command")
	errMaxClients        = errors.New("ERR max number of clients reached")
	errServerClosed      = errors.New("server closed")
	errInvalidBufferSize = errors.New("read-buffer-size must be positive")
)
