package api

import (
	"net/http"

	"github.com/shyndman/whatsapp-mcp/internal/store"
)

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.ChatListOptions{
		Query:      q.Get("query"),
		ContactJID: q.Get("contact_jid"),
		SortBy:     q.Get("sort_by"),
	}

	var err error
	if opts.Limit, err = parseIntParam(q, "limit", 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Page, err = parseIntParam(q, "page", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.IncludeLastMessage, err = parseBoolParam(q, "include_last_message", true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chats, err := s.queries.ListChats(opts)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"chats": chats})
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	jid := r.PathValue("jid")
	if jid == "" {
		writeError(w, http.StatusBadRequest, "chat jid is required")
		return
	}
	includeLast, err := parseBoolParam(r.URL.Query(), "include_last_message", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chat, err := s.queries.GetChat(jid, includeLast)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, chat)
}

func (s *Server) handleDirectChat(w http.ResponseWriter, r *http.Request) {
	phone := r.PathValue("phone")
	if phone == "" {
		writeError(w, http.StatusBadRequest, "phone number is required")
		return
	}

	chat, err := s.queries.GetDirectChatByContact(phone)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, chat)
}
