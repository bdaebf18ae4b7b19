package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2/proto"
	"github.com/stretchr/testify/assert"
)

func writeCapture(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.resp")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"respcat"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestRespcat(t *testing.T) {
	assert := assert.New(t)

	capture := proto.Strings("SET", "foo", "bar") +
		"PING\r\n" +
		proto.Array(proto.String("ECHO"), proto.Array(proto.Int(1), proto.String("z")))

	t.Run("text", func(t *testing.T) {
		out, _, err := run("--buffer-size", "16", writeCapture(t, capture))
		assert.Nil(err)
		assert.Equal(`"SET" "foo" "bar"`+"\n"+`"PING"`+"\n"+`"ECHO" [1 "z"]`+"\n", out)
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := run("--json", writeCapture(t, capture))
		assert.Nil(err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		assert.Len(lines, 3)

		var rec record
		assert.Nil(json.Unmarshal([]byte(lines[0]), &rec))
		assert.Equal(uint64(0), rec.Offset)
		assert.Equal("SET", rec.Command)
		assert.Equal([]any{"foo", "bar"}, rec.Args)

		assert.Nil(json.Unmarshal([]byte(lines[1]), &rec))
		assert.Equal(uint64(len(proto.Strings("SET", "foo", "bar"))), rec.Offset)
		assert.Equal("PING", rec.Command)

		assert.JSONEq(`{"offset":`+
			jsonInt(len(proto.Strings("SET", "foo", "bar"))+len("PING\r\n"))+
			`,"command":"ECHO","args":[[1,"z"]]}`, lines[2])
	})

	t.Run("stats", func(t *testing.T) {
		_, stderr, err := run("--stats", writeCapture(t, capture))
		assert.Nil(err)
		assert.Contains(stderr, "3 commands")
	})

	t.Run("empty-file", func(t *testing.T) {
		out, _, err := run(writeCapture(t, ""))
		assert.Nil(err)
		assert.Equal("", out)
	})

	t.Run("truncated", func(t *testing.T) {
		data := proto.Strings("PING") + "*2\r\n$3\r\nGET\r\n$3\r\nfo"
		out, _, err := run(writeCapture(t, data))
		assert.ErrorContains(err, "truncated command at offset 14")
		assert.Equal(`"PING"`+"\n", out)
	})

	t.Run("protocol-error", func(t *testing.T) {
		data := proto.Strings("PING") + "*1\r\n$3x\r\n"
		_, _, err := run(writeCapture(t, data))
		assert.ErrorContains(err, "offset 14: protocol error")
	})

	t.Run("missing-file", func(t *testing.T) {
		_, _, err := run(filepath.Join(t.TempDir(), "none"))
		assert.NotNil(err)
	})

	t.Run("bad-buffer-size", func(t *testing.T) {
		_, _, err := run("--buffer-size", "0", writeCapture(t, capture))
		assert.ErrorContains(err, "invalid buffer size")
	})
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
