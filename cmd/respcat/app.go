package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/mmap"
	"github.com/urfave/cli/v2"
	"github.com/xgzlucario/respd/internal/resp"
	"github.com/xgzlucario/respd/internal/ringbuf"
)

// App returns the respcat command line application.
func App() *cli.App {
	return &cli.App{
		Name:      "respcat",
		Usage:     "Print RESP requests stored in files",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Print JSON lines instead of quoted text",
			},
			&cli.IntFlag{
				Name:  "buffer-size",
				Value: ringbuf.DefaultSize,
				Usage: "Ring buffer size used while decoding",
			},
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "Print a summary line per file",
			},
		},
		Action: catAction,
	}
}

func catAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowAppHelp(c)
	}
	options := resp.DefaultOptions
	options.ReadBufferSize = c.Int("buffer-size")
	if options.ReadBufferSize <= 0 {
		return fmt.Errorf("invalid buffer size: %d", options.ReadBufferSize)
	}

	p := &printer{
		out:     c.App.Writer,
		json:    c.Bool("json"),
		options: options,
	}
	for _, path := range c.Args().Slice() {
		st, err := p.catFile(path)
		if err != nil {
			return err
		}
		if c.Bool("stats") {
			fmt.Fprintf(c.App.ErrWriter, "%s: %d commands, %s\n", path, st.commands, humanize.Bytes(st.size))
		}
	}
	return nil
}

type stats struct {
	commands int
	size     uint64
}

type printer struct {
	out     io.Writer
	json    bool
	options resp.Options
}

// catFile maps path into memory and prints every request it holds.
func (p *printer) catFile(path string) (st stats, err error) {
	f, err := os.Open(path)
	if err != nil {
		return st, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.Size() == 0 {
		return st, err
	}

	data, err := mmap.MapFile(f, false)
	if err != nil {
		return st, err
	}
	defer mmap.Close(data)

	st.size = uint64(len(data))
	st.commands, err = p.cat(data)
	if err != nil {
		return st, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// cat prints the requests in data and returns how many were decoded.
func (p *printer) cat(data []byte) (int, error) {
	rd := resp.NewReader(bytes.NewReader(data), p.options)
	enc := json.NewEncoder(p.out)

	for count := 0; ; count++ {
		offset := rd.Offset()
		req, err := rd.ReadCommand()
		if err != nil {
			if errors.Is(err, resp.ErrConnectionClosed) {
				if offset == uint64(len(data)) {
					return count, nil
				}
				return count, fmt.Errorf("truncated command at offset %d", offset)
			}
			return count, fmt.Errorf("offset %d: %w", offset, err)
		}

		if p.json {
			err = enc.Encode(newRecord(offset, req))
		} else {
			_, err = fmt.Fprintln(p.out, req.String())
		}
		if err != nil {
			return count, err
		}
	}
}

type record struct {
	Offset  uint64 `json:"offset"`
	Command string `json:"command"`
	Args    []any  `json:"args"`
}

func newRecord(offset uint64, req *resp.Request) record {
	args := make([]any, len(req.Args))
	for i, arg := range req.Args {
		args[i] = jsonValue(arg)
	}
	return record{Offset: offset, Command: string(req.Command), Args: args}
}

func jsonValue(v resp.Value) any {
	switch v.Type() {
	case resp.INTEGER:
		n, _ := v.ToInt()
		return n
	case resp.ARRAY:
		items := make([]any, len(v.ToArray()))
		for i, item := range v.ToArray() {
			items[i] = jsonValue(item)
		}
		return items
	case resp.NULL:
		return nil
	default:
		return v.ToString()
	}
}
