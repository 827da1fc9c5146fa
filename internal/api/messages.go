package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ai9campus/smarttutor/internal/tutor"
)

type messageRequest struct {
	Text string `json:"text"`
}

// sseWriter streams a turn as Server-Sent Events. Headers are only sent once
// the first fragment arrives, so a turn refused up front can still get a
// plain JSON error response.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}

func (s *sseWriter) event(name string, v any) {
	s.start()
	data, _ := json.Marshal(v)
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data)
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

func (s *sseWriter) Progress(partial string) {
	s.event("partial", map[string]string{"text": partial})
}

// Notify is a no-op: the terminal notice is written from the turn outcome.
func (s *sseWriter) Notify(tutor.Notice) {}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	sse := &sseWriter{w: w, flusher: flusher}

	out := e.Controller.Submit(r.Context(), req.Text, sse)

	if !sse.started {
		switch out.Status {
		case tutor.StatusBusy:
			writeJSON(w, http.StatusConflict, map[string]any{"notice": out.Notice})
			return
		case tutor.StatusRejected:
			writeJSON(w, http.StatusBadRequest, map[string]any{"notice": out.Notice})
			return
		}
	}

	if out.Status == tutor.StatusCompleted {
		sse.event("done", map[string]any{
			"reply":           out.Reply,
			"welcome_pending": e.Controller.WelcomePending(),
		})
		return
	}
	sse.event("notice", out.Notice)
}
