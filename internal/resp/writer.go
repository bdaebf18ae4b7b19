package resp

import (
	"io"

	"github.com/tidwall/redcon"
)

// Writer buffers replies in memory until Flush.
type Writer struct {
	*redcon.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{Writer: redcon.NewWriter(w)}
}

func (w *Writer) WriteOK() {
	w.WriteString("OK")
}

// WriteValue writes v with its own RESP type.
func (w *Writer) WriteValue(v Value) {
	switch v.typ {
	case STRING:
		w.WriteString(string(v.str))
	case ERROR:
		w.WriteError(string(v.str))
	case INTEGER:
		w.WriteInt64(v.num)
	case BULK:
		w.WriteBulk(v.str)
	case ARRAY:
		w.WriteArray(len(v.array))
		for _, item := range v.array {
			w.WriteValue(item)
		}
	default:
		w.WriteNull()
	}
}
