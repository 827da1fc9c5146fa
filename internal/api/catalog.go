package api

import (
	"net/http"

	"github.com/ai9campus/smarttutor/internal/curriculum"
	"github.com/ai9campus/smarttutor/internal/tutor"
)

// lookup answers whether a chapter title is known. A miss is not an error.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title, found := s.index.LookupText(q.Get("grade"), q.Get("subject"), q.Get("medium"), q.Get("chapter"))
	resp := map[string]any{"found": found}
	if found {
		resp["title"] = title
	}
	writeJSON(w, http.StatusOK, resp)
}

// curriculum lists the mediums and every chapter the index knows.
func (s *Server) curriculum(w http.ResponseWriter, r *http.Request) {
	chapters := s.index.Entries()
	if chapters == nil {
		chapters = []curriculum.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mediums":  curriculum.Mediums(),
		"chapters": chapters,
	})
}

func (s *Server) panels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"panels": tutor.Panels(),
		"footer": tutor.Footer,
	})
}
