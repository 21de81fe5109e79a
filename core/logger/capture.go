package logger

import (
	"io"
	"log/slog"
)

// Redirect sends every record, at every level, to w as JSON lines until restore runs.
// restore flushes pending lines and puts the previous logger back. Not safe
// to use from parallel tests.
func Redirect(w io.Writer) (restore func()) {
	aw := newAsyncWriter([]io.Writer{w}, 4096)
	prev := L
	L = slog.New(newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: formatJSON,
	}))
	wireComponents()
	return func() {
		_ = aw.Close()
		L = prev
		wireComponents()
	}
}
