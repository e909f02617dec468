package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shyndman/whatsapp-mcp/internal/query"
)

// parseTimeParam reads an RFC3339 query parameter, nil when absent.
func parseTimeParam(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: expected RFC3339 timestamp, got %q", key, raw)
	}
	return &t, nil
}

func parseIntParam(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: expected integer, got %q", key, raw)
	}
	return n, nil
}

func parseBoolParam(q url.Values, key string, def bool) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: expected boolean, got %q", key, raw)
	}
	return b, nil
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := query.MessageListOptions{
		Sender:      q.Get("sender"),
		ChatJID:     q.Get("chat_jid"),
		Query:       q.Get("query"),
		CursorToken: q.Get("cursor"),
		MessageID:   q.Get("message_id"),
	}

	var err error
	if opts.After, err = parseTimeParam(q, "after"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Before, err = parseTimeParam(q, "before"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.SnapshotAt, err = parseTimeParam(q, "snapshot_at"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Limit, err = parseIntParam(q, "limit", 20); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.Page, err = parseIntParam(q, "page", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.IncludeContext, err = parseBoolParam(q, "include_context", false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.ContextBefore, err = parseIntParam(q, "context_before", 1); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if opts.ContextAfter, err = parseIntParam(q, "context_after", 1); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.queries.ListMessages(opts)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (s *Server) handleMessageContext(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "message id is required")
		return
	}
	q := r.URL.Query()

	before, err := parseIntParam(q, "before", 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	after, err := parseIntParam(q, "after", 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snapshotAt, err := parseTimeParam(q, "snapshot_at")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, err := s.queries.MessageContext(id, before, after, snapshotAt)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, ctx)
}
