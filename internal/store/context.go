package store

import (
	"fmt"
	"time"
)

// MessageContext returns the anchor message plus up to before preceding and
// after following messages in the same chat, assembled in chronological
// order. A snapshot bound, when given, excludes rows newer than it. Returns
// ErrNotFound when the anchor id does not exist. Store failures are returned
// as-is: a partial window is ambiguous with "not found", so nothing is
// swallowed here.
func (db *DB) MessageContext(id string, before, after int, snapshotAt *time.Time) (*MessageContext, error) {
	anchor, err := db.GetMessage(id)
	if err != nil {
		return nil, err
	}

	beforeMsgs, err := db.neighborMessages(anchor, before, snapshotAt, false)
	if err != nil {
		return nil, fmt.Errorf("context before %s: %w", id, err)
	}
	afterMsgs, err := db.neighborMessages(anchor, after, snapshotAt, true)
	if err != nil {
		return nil, fmt.Errorf("context after %s: %w", id, err)
	}

	return &MessageContext{Message: *anchor, Before: beforeMsgs, After: afterMsgs}, nil
}

// neighborMessages fetches the window on one side of the anchor. The before
// side queries nearest-first and is reversed so both sides come back
// oldest-to-newest.
func (db *DB) neighborMessages(anchor *Message, limit int, snapshotAt *time.Time, following bool) ([]Message, error) {
	cmp, order := "<", "DESC"
	if following {
		cmp, order = ">", "ASC"
	}

	q := `SELECT ` + messageColumns + `
		FROM messages
		JOIN chats ON messages.chat_jid = chats.jid
		WHERE messages.chat_jid = ? AND messages.timestamp ` + cmp + ` ?`
	args := []any{anchor.ChatJID, anchor.Timestamp.UTC()}
	if snapshotAt != nil {
		q += " AND messages.timestamp <= ?"
		args = append(args, snapshotAt.UTC())
	}
	q += " ORDER BY messages.timestamp " + order + " LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !following {
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
	}
	return msgs, nil
}
