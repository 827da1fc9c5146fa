package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ai9campus/smarttutor/internal/completion"
	"github.com/ai9campus/smarttutor/internal/completion/completiontest"
	"github.com/ai9campus/smarttutor/internal/curriculum"
	"github.com/ai9campus/smarttutor/internal/journal"
	"github.com/ai9campus/smarttutor/internal/session"
	"github.com/ai9campus/smarttutor/internal/store"
	"github.com/ai9campus/smarttutor/internal/tutor"
)

type fakeFeedback struct {
	mu  sync.Mutex
	got []journal.Feedback
}

func (f *fakeFeedback) RecordFeedback(_ context.Context, fb journal.Feedback) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, fb)
	return 1
}

type testEnv struct {
	srv      *Server
	sessions *session.Manager
	feedback *fakeFeedback
}

func newTestEnv(t *testing.T, token string, scripts ...completiontest.Script) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(tutor.Config{
		Instructions: "sys",
		Client:       completiontest.New(scripts...),
		Options:      completion.DefaultOptions("test-model"),
		Logger:       logger,
	}, time.Hour, logger)
	fb := &fakeFeedback{}
	srv := NewServer(Config{
		Port:     8780,
		APIToken: token,
		Sessions: sessions,
		Index:    curriculum.Default(),
		Feedback: fb,
		Info:     Info{Version: "test", Provider: "groq", Model: "test-model"},
		Logger:   logger,
	})
	return &testEnv{srv: srv, sessions: sessions, feedback: fb}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) createSession(t *testing.T) uuid.UUID {
	t.Helper()
	w := e.do("POST", "/api/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", w.Code, w.Body)
	}
	var v sessionView
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v.ID
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	return events
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, "secret")

	w := env.do("GET", "/health", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	env.createSession(t)

	w := env.do("GET", "/api/v1/tutor/status", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["provider"] != "groq" || body["model"] != "test-model" {
		t.Errorf("unexpected status body %v", body)
	}
	if body["sessions"] != float64(1) {
		t.Errorf("expected 1 session, got %v", body["sessions"])
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do("GET", "/nonexistent", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	env := newTestEnv(t, "secret")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/panels", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			env.srv.Handler().ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do("POST", "/api/v1/sessions", `{"grade": 10, "medium": "telugu"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	var v sessionView
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !v.WelcomePending {
		t.Error("new session should show the welcome panel")
	}
	if v.Settings.Grade != 10 || v.Settings.Medium != curriculum.Telugu {
		t.Errorf("unexpected settings %+v", v.Settings)
	}
	if v.State != "idle" {
		t.Errorf("expected idle, got %q", v.State)
	}

	w = env.do("POST", "/api/v1/sessions", `{"grade": 12}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for grade 12, got %d", w.Code)
	}
	w = env.do("POST", "/api/v1/sessions", `{"medium": "Hindi"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown medium, got %d", w.Code)
	}
}

func TestSessionNotFound(t *testing.T) {
	env := newTestEnv(t, "")

	if w := env.do("GET", "/api/v1/sessions/"+uuid.NewString(), ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := env.do("GET", "/api/v1/sessions/not-a-uuid", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPostMessage_Streams(t *testing.T) {
	env := newTestEnv(t, "", completiontest.Script{Fragments: []string{"Hel", "lo, ", "world"}})
	id := env.createSession(t)

	w := env.do("POST", "/api/v1/sessions/"+id.String()+"/messages", `{"text": "Say hello"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}

	events := parseSSE(t, w.Body.String())
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}
	wantPartials := []string{"Hel", "Hello, ", "Hello, world"}
	for i, want := range wantPartials {
		var p map[string]string
		json.Unmarshal([]byte(events[i].data), &p)
		if events[i].name != "partial" || p["text"] != want {
			t.Errorf("event %d = %+v, want partial %q", i, events[i], want)
		}
	}
	var done map[string]any
	json.Unmarshal([]byte(events[3].data), &done)
	if events[3].name != "done" || done["reply"] != "Hello, world" || done["welcome_pending"] != false {
		t.Errorf("unexpected terminal event %+v", events[3])
	}

	w = env.do("GET", "/api/v1/sessions/"+id.String(), "")
	var v sessionView
	json.NewDecoder(w.Body).Decode(&v)
	if len(v.Messages) != 2 || v.Messages[1].Content != "Hello, world" {
		t.Errorf("unexpected messages %+v", v.Messages)
	}
}

func TestPostMessage_FailureNotice(t *testing.T) {
	env := newTestEnv(t, "", completiontest.Script{
		Err: &completion.Error{Kind: completion.KindAuth, Status: 401, Err: io.ErrUnexpectedEOF},
	})
	id := env.createSession(t)

	w := env.do("POST", "/api/v1/sessions/"+id.String()+"/messages", `{"text": "hi"}`)

	events := parseSSE(t, w.Body.String())
	if len(events) != 1 || events[0].name != "notice" {
		t.Fatalf("expected a single notice event, got %+v", events)
	}
	var n tutor.Notice
	json.Unmarshal([]byte(events[0].data), &n)
	if n.Kind != "auth" || n.Level != tutor.LevelError {
		t.Errorf("unexpected notice %+v", n)
	}
}

func TestPostMessage_EmptyReply(t *testing.T) {
	env := newTestEnv(t, "", completiontest.Script{})
	id := env.createSession(t)

	w := env.do("POST", "/api/v1/sessions/"+id.String()+"/messages", `{"text": "hi"}`)

	events := parseSSE(t, w.Body.String())
	if len(events) != 1 || events[0].name != "notice" || !strings.Contains(events[0].data, "empty_response") {
		t.Fatalf("expected an empty_response notice, got %+v", events)
	}
}

func TestPostMessage_BlankText(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)

	w := env.do("POST", "/api/v1/sessions/"+id.String()+"/messages", `{"text": "   "}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"kind":"validation"`) {
		t.Errorf("expected validation notice, got %s", w.Body)
	}
}

func TestPostMessage_BusySession(t *testing.T) {
	gate := make(chan struct{})
	env := newTestEnv(t, "", completiontest.Script{Fragments: []string{"ok"}, Gate: gate})
	id := env.createSession(t)
	entry, _ := env.sessions.Get(id)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- env.do("POST", "/api/v1/sessions/"+id.String()+"/messages", `{"text": "one"}`)
	}()
	deadline := time.Now().Add(time.Second)
	for entry.Controller.State() != tutor.AwaitingCompletion {
		if time.Now().After(deadline) {
			t.Fatal("first turn never started")
		}
		time.Sleep(time.Millisecond)
	}

	w := env.do("POST", "/api/v1/sessions/"+id.String()+"/messages", `{"text": "two"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if w := env.do("POST", "/api/v1/sessions/"+id.String()+"/reset", ""); w.Code != http.StatusConflict {
		t.Errorf("expected 409 for reset while streaming, got %d", w.Code)
	}

	close(gate)
	if w := <-first; w.Code != http.StatusOK {
		t.Errorf("first turn: expected 200, got %d", w.Code)
	}
	if n := len(entry.Controller.Messages()); n != 2 {
		t.Errorf("expected 2 visible messages, got %d", n)
	}
}

func TestResetSession(t *testing.T) {
	env := newTestEnv(t, "", completiontest.Script{Fragments: []string{"answer"}})
	id := env.createSession(t)
	env.do("POST", "/api/v1/sessions/"+id.String()+"/messages", `{"text": "q"}`)

	w := env.do("POST", "/api/v1/sessions/"+id.String()+"/reset", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var v sessionView
	json.NewDecoder(w.Body).Decode(&v)
	if len(v.Messages) != 0 || !v.WelcomePending {
		t.Errorf("expected empty history and welcome pending, got %+v", v)
	}
}

func TestUpdateSettings(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)

	w := env.do("PUT", "/api/v1/sessions/"+id.String()+"/settings", `{"grade": 6, "medium": "Urdu"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var v sessionView
	json.NewDecoder(w.Body).Decode(&v)
	if v.Settings.Grade != 6 || v.Settings.Medium != curriculum.Urdu {
		t.Errorf("unexpected settings %+v", v.Settings)
	}

	if w := env.do("PUT", "/api/v1/sessions/"+id.String()+"/settings", `{"grade": 0, "medium": "x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPostFeedback(t *testing.T) {
	env := newTestEnv(t, "", completiontest.Script{Fragments: []string{"Chapter 1 is Climate"}})
	id := env.createSession(t)
	env.do("PUT", "/api/v1/sessions/"+id.String()+"/settings", `{"grade": 10}`)
	env.do("POST", "/api/v1/sessions/"+id.String()+"/messages", `{"text": "chapter 1?"}`)

	w := env.do("POST", "/api/v1/sessions/"+id.String()+"/feedback", `{"rating": "down", "comment": "wrong title"}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body)
	}
	if len(env.feedback.got) != 1 {
		t.Fatalf("expected feedback to be recorded")
	}
	fb := env.feedback.got[0]
	if fb.Excerpt != "Chapter 1 is Climate" || fb.Grade != 10 || fb.Medium != "English" || fb.SessionID != id {
		t.Errorf("unexpected feedback %+v", fb)
	}

	tests := []struct {
		name string
		body string
	}{
		{"bad rating", `{"rating": "meh"}`},
		{"index on a question", `{"rating": "down", "message_index": 0}`},
		{"index out of range", `{"rating": "down", "message_index": 9}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", "/api/v1/sessions/"+id.String()+"/feedback", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)

	if w := env.do("DELETE", "/api/v1/sessions/"+id.String(), ""); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w := env.do("DELETE", "/api/v1/sessions/"+id.String(), ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCurriculumLookup(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		query string
		found bool
		title string
	}{
		{"grade=10&subject=Social+Studies&medium=English&chapter=1", true, "India: Relief Features"},
		{"grade=10&subject=Social+Studies&medium=English&chapter=999", false, ""},
		{"grade=3&subject=Social+Studies&medium=English&chapter=1", false, ""},
		{"grade=ten&subject=Social+Studies&chapter=1", false, ""},
	}
	for _, tt := range tests {
		w := env.do("GET", "/api/v1/curriculum/lookup?"+tt.query, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", tt.query, w.Code)
			continue
		}
		var body struct {
			Found bool   `json:"found"`
			Title string `json:"title"`
		}
		json.NewDecoder(w.Body).Decode(&body)
		if body.Found != tt.found || body.Title != tt.title {
			t.Errorf("%s: got %+v", tt.query, body)
		}
	}
}

func TestPanels(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do("GET", "/api/v1/panels", "")

	var body struct {
		Panels []tutor.Panel `json:"panels"`
		Footer string        `json:"footer"`
	}
	json.NewDecoder(w.Body).Decode(&body)
	if len(body.Panels) != 6 {
		t.Errorf("expected 6 panels, got %d", len(body.Panels))
	}
	if body.Footer != tutor.Footer {
		t.Errorf("unexpected footer %q", body.Footer)
	}
}

func TestPostMessage_BodyTooLarge(t *testing.T) {
	client := completiontest.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(tutor.Config{
		Instructions: "sys",
		Client:       client,
		Options:      completion.DefaultOptions("test-model"),
		Logger:       logger,
	}, time.Hour, logger)
	srv := NewServer(Config{Sessions: sessions, Index: curriculum.Default(), Logger: logger})
	e, err := sessions.Create(session.Settings{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	body := `{"text": "` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest("POST", "/api/v1/sessions/"+e.ID.String()+"/messages", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", w.Code, w.Body)
	}
	if len(client.Calls()) != 0 {
		t.Error("oversized message should not reach the model")
	}
	if n := len(e.Controller.Messages()); n != 0 {
		t.Errorf("expected no messages, got %d", n)
	}
}

func TestCurriculumListing(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do("GET", "/api/v1/curriculum", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Mediums  []string           `json:"mediums"`
		Chapters []curriculum.Entry `json:"chapters"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(body.Mediums, ",") != "English,Telugu,Urdu" {
		t.Errorf("unexpected mediums %v", body.Mediums)
	}
	if len(body.Chapters) != curriculum.Default().Len() {
		t.Fatalf("expected %d chapters, got %d", curriculum.Default().Len(), len(body.Chapters))
	}
	first := body.Chapters[0]
	if title, ok := curriculum.Default().Lookup(first.Grade, first.Subject, first.Medium, first.Chapter); !ok || title != first.Title {
		t.Errorf("listed chapter %+v does not match lookup (%q, %v)", first, title, ok)
	}
}

type fakeTranscripts struct {
	records map[uuid.UUID][]store.TurnRecord
	err     error
}

func (f *fakeTranscripts) ListTurns(_ context.Context, id uuid.UUID) ([]store.TurnRecord, error) {
	return f.records[id], f.err
}

func TestTranscript(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	id := uuid.New()
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	archive := &fakeTranscripts{records: map[uuid.UUID][]store.TurnRecord{
		id: {
			{ID: uuid.New(), SessionID: id, Question: "What is GDP?", Reply: "Gross domestic product...", Status: "completed", Fragments: 3, StartedAt: started, Duration: 1500 * time.Millisecond},
			{ID: uuid.New(), SessionID: id, Question: "and GNP?", Status: "failed", ErrorKind: "transport", StartedAt: started.Add(time.Minute)},
		},
	}}
	srv := NewServer(Config{
		Sessions:    session.NewManager(tutor.Config{}, time.Hour, logger),
		Index:       curriculum.Default(),
		Transcripts: archive,
		Logger:      logger,
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		return w
	}

	w := get("/api/v1/sessions/" + id.String() + "/transcript")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var body struct {
		SessionID uuid.UUID        `json:"session_id"`
		Turns     []transcriptTurn `json:"turns"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SessionID != id || len(body.Turns) != 2 {
		t.Fatalf("unexpected transcript %+v", body)
	}
	if body.Turns[0].Reply != "Gross domestic product..." || body.Turns[0].DurationMS != 1500 {
		t.Errorf("unexpected first turn %+v", body.Turns[0])
	}
	if body.Turns[1].Status != "failed" || body.Turns[1].ErrorKind != "transport" {
		t.Errorf("unexpected second turn %+v", body.Turns[1])
	}

	w = get("/api/v1/sessions/" + uuid.New().String() + "/transcript")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"turns":[]`) {
		t.Errorf("unknown session should give an empty transcript, got %d: %s", w.Code, w.Body)
	}

	if w := get("/api/v1/sessions/not-a-uuid/transcript"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	archive.err = errors.New("connection reset")
	if w := get("/api/v1/sessions/" + id.String() + "/transcript"); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestTranscript_NoArchive(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do("GET", "/api/v1/sessions/"+uuid.New().String()+"/transcript", "")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
