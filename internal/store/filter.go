package store

import (
	"strings"
	"time"

	"github.com/shyndman/whatsapp-mcp/internal/cursor"
)

// messageOrder is the total order every message listing uses. Timestamps are
// not unique per chat, so the id is the tie-break; both directions must be
// descending for cursors to be stable.
const messageOrder = "messages.timestamp DESC, messages.id DESC"

// MessageFilter is the conjunctive filter set for message reads. The zero
// value matches everything.
type MessageFilter struct {
	After      *time.Time     // timestamp strictly after
	Before     *time.Time     // timestamp strictly before
	Sender     string         // exact sender JID
	ChatJID    string         // exact chat JID
	Query      string         // case-insensitive content substring
	SnapshotAt *time.Time     // timestamp at or before (snapshot bound)
	Cursor     *cursor.Cursor // strictly after this position in messageOrder
}

// whereSQL renders the filter as a WHERE clause (with leading " WHERE ", or
// "" when empty) plus its bind arguments.
func (f MessageFilter) whereSQL() (string, []any) {
	var clauses []string
	var args []any

	if f.After != nil {
		clauses = append(clauses, "messages.timestamp > ?")
		args = append(args, f.After.UTC())
	}
	if f.Before != nil {
		clauses = append(clauses, "messages.timestamp < ?")
		args = append(args, f.Before.UTC())
	}
	if f.Sender != "" {
		clauses = append(clauses, "messages.sender = ?")
		args = append(args, f.Sender)
	}
	if f.ChatJID != "" {
		clauses = append(clauses, "messages.chat_jid = ?")
		args = append(args, f.ChatJID)
	}
	if f.Query != "" {
		clauses = append(clauses, "LOWER(messages.content) LIKE LOWER(?)")
		args = append(args, "%"+f.Query+"%")
	}
	if f.SnapshotAt != nil {
		clauses = append(clauses, "messages.timestamp <= ?")
		args = append(args, f.SnapshotAt.UTC())
	}
	if f.Cursor != nil {
		ts := f.Cursor.Timestamp.UTC()
		clauses = append(clauses, "(messages.timestamp < ? OR (messages.timestamp = ? AND messages.id < ?))")
		args = append(args, ts, ts, f.Cursor.ID)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
