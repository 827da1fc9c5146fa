package completion_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeSSE writes each event as a server-sent event and flushes after each one.
func writeSSE(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	for _, ev := range events {
		if !strings.HasPrefix(ev, "event:") {
			ev = "data: " + ev
		}
		fmt.Fprintf(w, "%s\n\n", ev)
		if flusher != nil {
			flusher.Flush()
		}
	}
}
