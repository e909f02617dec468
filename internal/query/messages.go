package query

import (
	"fmt"
	"time"

	"github.com/shyndman/whatsapp-mcp/internal/cursor"
	"github.com/shyndman/whatsapp-mcp/internal/store"
)

const defaultMessageLimit = 20

// MessageListOptions are the parameters of ListMessages. CursorToken takes
// precedence over Page when both are set. MessageID short-circuits the whole
// listing to the context window around that one message.
type MessageListOptions struct {
	After       *time.Time
	Before      *time.Time
	Sender      string
	ChatJID     string
	Query       string
	Limit       int
	Page        int
	CursorToken string
	SnapshotAt  *time.Time

	MessageID      string
	IncludeContext bool
	ContextBefore  int
	ContextAfter   int
}

// MessageList is a page of messages. NextCursor is set when the page was full
// and resumes the listing after its last primary row; it is computed from the
// primary rows even when context expansion interleaves extra ones.
type MessageList struct {
	Messages   []store.Message `json:"messages"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// ListMessages runs a filtered, paginated listing in (timestamp DESC, id
// DESC) order, optionally expanding each row into its context window.
// Windows of nearby anchors may overlap; rows are not deduplicated.
func (s *Service) ListMessages(opts MessageListOptions) (*MessageList, error) {
	if opts.MessageID != "" {
		ctx, err := s.MessageContext(opts.MessageID, opts.ContextBefore, opts.ContextAfter, opts.SnapshotAt)
		if err != nil {
			return nil, err
		}
		msgs := make([]store.Message, 0, len(ctx.Before)+1+len(ctx.After))
		msgs = append(msgs, ctx.Before...)
		msgs = append(msgs, ctx.Message)
		msgs = append(msgs, ctx.After...)
		return &MessageList{Messages: msgs}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	filter := store.MessageFilter{
		After:      opts.After,
		Before:     opts.Before,
		Sender:     opts.Sender,
		ChatJID:    opts.ChatJID,
		Query:      opts.Query,
		SnapshotAt: opts.SnapshotAt,
	}
	if opts.CursorToken != "" {
		c, err := cursor.Decode(opts.CursorToken)
		if err != nil {
			return nil, err
		}
		filter.Cursor = &c
	}

	rows, err := s.db.ListMessages(filter, limit, opts.Page*limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var next string
	if len(rows) == limit {
		last := rows[len(rows)-1]
		next = cursor.Encode(last.Timestamp, last.ID)
	}

	msgs := rows
	if opts.IncludeContext {
		msgs, err = s.expandContext(rows, opts)
		if err != nil {
			return nil, err
		}
	}

	s.decorateMessages(msgs)
	return &MessageList{Messages: msgs, NextCursor: next}, nil
}

// expandContext replaces each primary row with its context window, bounded by
// the same snapshot the listing used.
func (s *Service) expandContext(rows []store.Message, opts MessageListOptions) ([]store.Message, error) {
	var out []store.Message
	for _, m := range rows {
		ctx, err := s.db.MessageContext(m.ID, opts.ContextBefore, opts.ContextAfter, opts.SnapshotAt)
		if err != nil {
			return nil, fmt.Errorf("context for %s: %w", m.ID, err)
		}
		out = append(out, ctx.Before...)
		out = append(out, ctx.Message)
		out = append(out, ctx.After...)
	}
	return out, nil
}

// MessageContext returns the decorated context window around one message.
func (s *Service) MessageContext(id string, before, after int, snapshotAt *time.Time) (*store.MessageContext, error) {
	ctx, err := s.db.MessageContext(id, before, after, snapshotAt)
	if err != nil {
		return nil, err
	}
	s.decorateMessages(ctx.Before)
	s.decorateMessages(ctx.After)
	anchor := []store.Message{ctx.Message}
	s.decorateMessages(anchor)
	ctx.Message = anchor[0]
	return ctx, nil
}

// LastInteraction returns the decorated most recent message exchanged with
// the given JID.
func (s *Service) LastInteraction(jid string) (*store.Message, error) {
	m, err := s.db.LastInteraction(jid)
	if err != nil {
		return nil, err
	}
	one := []store.Message{*m}
	s.decorateMessages(one)
	return &one[0], nil
}
