package api

import (
	"net/http"
)

func (s *Server) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := q.Get("q")
	if search == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, err := parseIntParam(q, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contacts, err := s.queries.SearchContacts(search, limit)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"contacts": contacts})
}

func (s *Server) handleLastInteraction(w http.ResponseWriter, r *http.Request) {
	jid := r.PathValue("jid")
	if jid == "" {
		writeError(w, http.StatusBadRequest, "contact jid is required")
		return
	}

	msg, err := s.queries.LastInteraction(jid)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, msg)
}
