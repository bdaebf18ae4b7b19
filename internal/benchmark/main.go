package main

import (
	"bytes"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2/proto"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/xgzlucario/respd/internal/resp"
)

var previousPause time.Duration

func gcPause() time.Duration {
	runtime.GC()
	var stats debug.GCStats
	debug.ReadGCStats(&stats)
	pause := stats.PauseTotal - previousPause
	previousPause = stats.PauseTotal
	return pause
}

func genKey(id int) string {
	return fmt.Sprintf("key-%010d", id)
}

// genInput builds n pipelined requests of the given shape.
func genInput(shape string, n, valueSize int) (string, error) {
	var sb strings.Builder
	value := strings.Repeat("x", valueSize)

	for i := 0; i < n; i++ {
		switch shape {
		case "bulk":
			sb.WriteString(proto.Strings("SET", genKey(i), value))
		case "inline":
			sb.WriteString("SET " + genKey(i) + " " + value + "\r\n")
		case "nested":
			sb.WriteString(proto.Array(
				proto.String("HSET"),
				proto.String(genKey(i)),
				proto.Array(proto.String("field"), proto.String(value), proto.Array(proto.Int(i))),
			))
		default:
			return "", fmt.Errorf("unknown shape: %s", shape)
		}
	}
	return sb.String(), nil
}

func main() {
	shape := pflag.String("shape", "bulk", "request shape: bulk, inline or nested.")
	n := pflag.Int("n", 100000, "number of pipelined requests.")
	valueSize := pflag.Int("value", 64, "value size in bytes.")
	bufSize := pflag.Int("buffer", resp.DefaultOptions.ReadBufferSize, "ring buffer size.")
	pflag.Parse()

	input, err := genInput(*shape, *n, *valueSize)
	if err != nil {
		panic(err)
	}
	fmt.Println(*shape, *n, humanize.IBytes(uint64(len(input))))

	options := resp.DefaultOptions
	options.ReadBufferSize = *bufSize
	rd := resp.NewReader(bytes.NewReader([]byte(input)), options)

	gcPause()
	start := time.Now()
	reqs := make([]*resp.Request, 0, *n)
	for i := 0; i < *n; i++ {
		req, err := rd.ReadCommand()
		if err != nil {
			panic(err)
		}
		reqs = append(reqs, req)
	}
	cost := time.Since(start)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Printf("cost: %v | %.0f req/s | %s/s\n",
		cost, float64(*n)/cost.Seconds(), humanize.IBytes(uint64(float64(len(input))/cost.Seconds())))
	fmt.Printf("alloc: %s | gcpause: %v | requests: %d\n",
		humanize.IBytes(mem.Alloc), gcPause(), len(reqs))
}
