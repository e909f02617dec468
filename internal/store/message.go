package store

import (
	"database/sql"
	"fmt"
	"time"
)

const messageColumns = `messages.id, messages.chat_jid, chats.name, messages.sender,
	messages.content, messages.timestamp, messages.is_from_me, messages.media_type`

// scanMessage reads one row of messageColumns. The chats.name column lands in
// ChatName as the raw stored value; decoration replaces it later.
func scanMessage(rows *sql.Rows) (Message, error) {
	var m Message
	var chatName, mediaType sql.NullString
	if err := rows.Scan(&m.ID, &m.ChatJID, &chatName, &m.Sender,
		&m.Content, &m.Timestamp, &m.IsFromMe, &mediaType); err != nil {
		return Message{}, err
	}
	m.ChatName = chatName.String
	m.MediaType = mediaType.String
	return m, nil
}

// ListMessages returns messages matching the filter in (timestamp DESC,
// id DESC) order. When the filter carries a cursor the offset is ignored;
// cursor- and offset-pagination are mutually exclusive per call.
func (db *DB) ListMessages(f MessageFilter, limit, offset int) ([]Message, error) {
	where, args := f.whereSQL()
	q := `SELECT ` + messageColumns + `
		FROM messages
		JOIN chats ON messages.chat_jid = chats.jid` +
		where + ` ORDER BY ` + messageOrder + ` LIMIT ?`
	args = append(args, limit)
	if f.Cursor == nil {
		q += " OFFSET ?"
		args = append(args, offset)
	}

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// GetMessage returns a single message by id, or ErrNotFound.
func (db *DB) GetMessage(id string) (*Message, error) {
	rows, err := db.Query(`SELECT `+messageColumns+`
		FROM messages
		JOIN chats ON messages.chat_jid = chats.jid
		WHERE messages.id = ?
		LIMIT 1`, id)
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get message %s: %w", id, err)
		}
		return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	m, err := scanMessage(rows)
	if err != nil {
		return nil, fmt.Errorf("scan message %s: %w", id, err)
	}
	return &m, nil
}

// MaxMessageTimestamp returns the newest timestamp among rows matching the
// filter, or nil when nothing matches. The partition planner uses this as
// its snapshot instant.
func (db *DB) MaxMessageTimestamp(f MessageFilter) (*time.Time, error) {
	where, args := f.whereSQL()
	q := `SELECT messages.timestamp FROM messages` + where +
		` ORDER BY messages.timestamp DESC LIMIT 1`
	var ts time.Time
	err := db.QueryRow(q, args...).Scan(&ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("max message timestamp: %w", err)
	}
	return &ts, nil
}

// CountMessages returns the number of rows matching the filter.
func (db *DB) CountMessages(f MessageFilter) (int, error) {
	where, args := f.whereSQL()
	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM messages`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// ListMessageKeys returns up to limit (timestamp, id) keys matching the
// filter in (timestamp DESC, id DESC) order. Partition planning fetches keys
// only; replaying a partition fetches full rows.
func (db *DB) ListMessageKeys(f MessageFilter, limit int) ([]MessageKey, error) {
	where, args := f.whereSQL()
	q := `SELECT messages.timestamp, messages.id FROM messages` + where +
		` ORDER BY ` + messageOrder + ` LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list message keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []MessageKey
	for rows.Next() {
		var k MessageKey
		if err := rows.Scan(&k.Timestamp, &k.ID); err != nil {
			return nil, fmt.Errorf("scan message key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message keys: %w", err)
	}
	return keys, nil
}
