package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type transcriptTurn struct {
	ID         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	Reply      string    `json:"reply,omitempty"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Fragments  int       `json:"fragments"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// transcript returns the archived turns of a session. Archived sessions
// outlive the in-memory ones, so the session does not have to be live.
func (s *Server) transcript(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if s.transcripts == nil {
		writeError(w, http.StatusServiceUnavailable, "transcript archive is not configured")
		return
	}

	records, err := s.transcripts.ListTurns(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to list turns", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read transcript")
		return
	}

	turns := make([]transcriptTurn, 0, len(records))
	for _, rec := range records {
		turns = append(turns, transcriptTurn{
			ID:         rec.ID,
			Question:   rec.Question,
			Reply:      rec.Reply,
			Status:     rec.Status,
			ErrorKind:  rec.ErrorKind,
			Detail:     rec.Detail,
			Fragments:  rec.Fragments,
			StartedAt:  rec.StartedAt,
			DurationMS: rec.Duration.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"turns":      turns,
	})
}
