package store

import (
	"database/sql"
	"fmt"
)

// ChatListOptions controls ListChats.
type ChatListOptions struct {
	Query              string // matches chat name or JID, case-insensitive
	ContactJID         string // chats with this JID or containing messages from it
	Limit              int
	Page               int
	IncludeLastMessage bool
	SortBy             string // "last_active" (default) or "name"
}

const chatSelect = `SELECT chats.jid, chats.name, chats.last_message_time,
	messages.content AS last_message, messages.sender AS last_sender, messages.is_from_me AS last_is_from_me
	FROM chats
	LEFT JOIN messages ON chats.jid = messages.chat_jid AND chats.last_message_time = messages.timestamp`

const chatSelectBare = `SELECT chats.jid, chats.name, chats.last_message_time,
	NULL AS last_message, NULL AS last_sender, NULL AS last_is_from_me
	FROM chats`

func scanChat(rows *sql.Rows) (Chat, error) {
	var c Chat
	var name, lastMessage, lastSender sql.NullString
	var lastTime sql.NullTime
	var lastFromMe sql.NullBool
	if err := rows.Scan(&c.JID, &name, &lastTime, &lastMessage, &lastSender, &lastFromMe); err != nil {
		return Chat{}, err
	}
	c.Name = name.String
	if lastTime.Valid {
		t := lastTime.Time
		c.LastMessageTime = &t
	}
	c.LastMessage = lastMessage.String
	c.LastSender = lastSender.String
	if lastFromMe.Valid {
		b := lastFromMe.Bool
		c.LastIsFromMe = &b
	}
	return c, nil
}

// ListChats returns chats matching the options. The last message summary is
// joined on the chat's recorded last_message_time.
func (db *DB) ListChats(opts ChatListOptions) ([]Chat, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	q := chatSelectBare
	if opts.IncludeLastMessage {
		q = chatSelect
	}

	var clauses []string
	var args []any
	if opts.Query != "" {
		clauses = append(clauses, "(LOWER(chats.name) LIKE LOWER(?) OR chats.jid LIKE ?)")
		args = append(args, "%"+opts.Query+"%", "%"+opts.Query+"%")
	}
	if opts.ContactJID != "" {
		clauses = append(clauses,
			`(chats.jid = ? OR EXISTS (
				SELECT 1 FROM messages contact_messages
				WHERE contact_messages.chat_jid = chats.jid
				AND contact_messages.sender = ?))`)
		args = append(args, opts.ContactJID, opts.ContactJID)
	}
	for i, clause := range clauses {
		if i == 0 {
			q += " WHERE " + clause
		} else {
			q += " AND " + clause
		}
	}

	if opts.SortBy == "name" {
		q += " ORDER BY chats.name"
	} else {
		q += " ORDER BY chats.last_message_time DESC"
	}
	q += " LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Page*opts.Limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

// GetChat returns a single chat by JID, or ErrNotFound.
func (db *DB) GetChat(jid string, includeLastMessage bool) (*Chat, error) {
	q := chatSelectBare
	if includeLastMessage {
		q = chatSelect
	}
	q += " WHERE chats.jid = ? LIMIT 1"

	rows, err := db.Query(q, jid)
	if err != nil {
		return nil, fmt.Errorf("get chat %s: %w", jid, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get chat %s: %w", jid, err)
		}
		return nil, fmt.Errorf("chat %s: %w", jid, ErrNotFound)
	}
	c, err := scanChat(rows)
	if err != nil {
		return nil, fmt.Errorf("scan chat %s: %w", jid, err)
	}
	return &c, nil
}

// GetDirectChatByContact returns the direct (non-group) chat whose JID
// contains the given phone number, or ErrNotFound.
func (db *DB) GetDirectChatByContact(phoneNumber string) (*Chat, error) {
	q := chatSelect + " WHERE chats.jid LIKE ? AND chats.jid NOT LIKE '%@g.us' LIMIT 1"

	rows, err := db.Query(q, "%"+phoneNumber+"%")
	if err != nil {
		return nil, fmt.Errorf("direct chat for %s: %w", phoneNumber, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("direct chat for %s: %w", phoneNumber, err)
		}
		return nil, fmt.Errorf("direct chat for %s: %w", phoneNumber, ErrNotFound)
	}
	c, err := scanChat(rows)
	if err != nil {
		return nil, fmt.Errorf("scan direct chat: %w", err)
	}
	return &c, nil
}

// LastInteraction returns the most recent message sent by or exchanged with
// the given JID, or ErrNotFound.
func (db *DB) LastInteraction(jid string) (*Message, error) {
	rows, err := db.Query(`SELECT `+messageColumns+`
		FROM messages
		JOIN chats ON messages.chat_jid = chats.jid
		WHERE messages.sender = ? OR chats.jid = ?
		ORDER BY `+messageOrder+`
		LIMIT 1`, jid, jid)
	if err != nil {
		return nil, fmt.Errorf("last interaction %s: %w", jid, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("last interaction %s: %w", jid, err)
		}
		return nil, fmt.Errorf("last interaction %s: %w", jid, ErrNotFound)
	}
	m, err := scanMessage(rows)
	if err != nil {
		return nil, fmt.Errorf("scan last interaction: %w", err)
	}
	return &m, nil
}

// ChatNameByJID returns the stored chat name for an exact JID match, or ""
// when the chat is unknown or unnamed.
func (db *DB) ChatNameByJID(jid string) (string, error) {
	var name sql.NullString
	err := db.QueryRow(`SELECT name FROM chats WHERE jid = ? LIMIT 1`, jid).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("chat name for %s: %w", jid, err)
	}
	return name.String, nil
}

// ChatNameByNumber returns the stored name of the first chat whose JID
// contains the given phone number, or "" when none matches. Used as the
// second tier of sender-name resolution: the sender JID of a group message
// has no chat row of its own, but its number usually appears in a direct
// chat's JID.
func (db *DB) ChatNameByNumber(number string) (string, error) {
	var name sql.NullString
	err := db.QueryRow(`SELECT name FROM chats WHERE jid LIKE ? LIMIT 1`, "%"+number+"%").Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("chat name for number %s: %w", number, err)
	}
	return name.String, nil
}
