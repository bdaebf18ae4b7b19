package net

import (
	"context"
	"fmt"
	"io"
	"net"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestListen(t *testing.T) {
	ast := assert.New(t)
	testCount := 100

	t.Run("echo-server", func(t *testing.T) {
		ln, err := Listen(context.Background(), "127.0.0.1:0")
		ast.Nil(err)
		defer ln.Close()

		// start listener
		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				go func() {
					defer conn.Close()
					_, _ = io.Copy(conn, conn)
				}()
			}
		}()

		var wg sync.WaitGroup
		for i := 0; i < testCount; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				conn, err := net.Dial("tcp", ln.Addr().String())
				if !ast.Nil(err) {
					return
				}
				defer conn.Close()

				msg := fmt.Sprintf("%d-%d", i, time.Now().UnixNano())
				_, err = conn.Write([]byte(msg))
				ast.Nil(err)

				res := make([]byte, len(msg))
				_, err = io.ReadFull(conn, res)
				ast.Nil(err)
				ast.Equal(msg, string(res))
			}()
		}
		wg.Wait()
	})

	t.Run("reuse-port", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("SO_REUSEPORT is unix only")
		}
		ln1, err := Listen(context.Background(), "127.0.0.1:0")
		ast.Nil(err)
		defer ln1.Close()

		ln2, err := Listen(context.Background(), ln1.Addr().String())
		ast.Nil(err)
		ast.Nil(ln2.Close())
	})
}
