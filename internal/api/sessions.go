package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ai9campus/smarttutor/internal/conversation"
	"github.com/ai9campus/smarttutor/internal/journal"
	"github.com/ai9campus/smarttutor/internal/session"
	"github.com/ai9campus/smarttutor/internal/tutor"
)

type sessionView struct {
	ID             uuid.UUID              `json:"id"`
	State          string                 `json:"state"`
	WelcomePending bool                   `json:"welcome_pending"`
	Settings       session.Settings       `json:"settings"`
	CreatedAt      time.Time              `json:"created_at"`
	Messages       []conversation.Message `json:"messages,omitempty"`
}

func viewOf(e *session.Entry, withMessages bool) sessionView {
	v := sessionView{
		ID:             e.ID,
		State:          e.Controller.State().String(),
		WelcomePending: e.Controller.WelcomePending(),
		Settings:       e.Settings(),
		CreatedAt:      e.CreatedAt,
	}
	if withMessages {
		v.Messages = e.Controller.Messages()
	}
	return v
}

// decodeOptional decodes a JSON body into v, treating an empty body as {}.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*session.Entry, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}
	e, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, session.ErrNotFound.Error())
		return nil, false
	}
	return e, true
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var settings session.Settings
	if err := decodeOptional(r, &settings); err != nil {
		writeDecodeError(w, err)
		return
	}
	e, err := s.sessions.Create(settings)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(e, false))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(e, true))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if !s.sessions.Delete(id) {
		writeError(w, http.StatusNotFound, session.ErrNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var settings session.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeDecodeError(w, err)
		return
	}
	if _, err := s.sessions.UpdateSettings(e.ID, settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewOf(e, false))
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	if err := e.Controller.Reset(r.Context()); err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"notice": tutor.BusyNotice()})
		return
	}
	writeJSON(w, http.StatusOK, viewOf(e, true))
}

type feedbackRequest struct {
	Rating  string `json:"rating"`
	Comment string `json:"comment"`
	// MessageIndex picks the rated answer among the visible messages.
	// Without it the latest answer is rated.
	MessageIndex *int `json:"message_index,omitempty"`
}

func (s *Server) postFeedback(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDecodeError(w, err)
		return
	}
	req.Rating = strings.ToLower(strings.TrimSpace(req.Rating))
	if req.Rating != "up" && req.Rating != "down" {
		writeError(w, http.StatusBadRequest, `rating must be "up" or "down"`)
		return
	}

	excerpt, err := answerExcerpt(e.Controller.Messages(), req.MessageIndex)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings := e.Settings()
	accepted := s.feedback.RecordFeedback(r.Context(), journal.Feedback{
		SessionID: e.ID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		Excerpt:   excerpt,
		Grade:     settings.Grade,
		Medium:    settings.Medium.String(),
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "sinks": accepted})
}

func answerExcerpt(msgs []conversation.Message, index *int) (string, error) {
	if index != nil {
		i := *index
		if i < 0 || i >= len(msgs) || msgs[i].Role != conversation.RoleAssistant {
			return "", errors.New("message_index does not point at an answer")
		}
		return msgs[i].Content, nil
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == conversation.RoleAssistant {
			return msgs[i].Content, nil
		}
	}
	return "", nil
}
