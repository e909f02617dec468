package store

import (
	"database/sql"
	"fmt"
)

// ContactRow is a raw whatsmeow_contacts row. Several candidate name fields
// compete for a single display name; picking one is the names package's job.
type ContactRow struct {
	JID          string
	FirstName    string
	FullName     string
	PushName     string
	BusinessName string
	Phone        string
}

// Authenticated reports whether the bridge has paired a device. The contact
// cache is only loaded from an authenticated store.
func (db *IdentityDB) Authenticated() (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM whatsmeow_device LIMIT 1`).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check device auth: %w", err)
	}
	return true, nil
}

// Contacts returns every contact row.
func (db *IdentityDB) Contacts() ([]ContactRow, error) {
	rows, err := db.Query(`
		SELECT their_jid, first_name, full_name, push_name, business_name
		FROM whatsmeow_contacts`)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []ContactRow
	for rows.Next() {
		var c ContactRow
		var first, full, push, business sql.NullString
		if err := rows.Scan(&c.JID, &first, &full, &push, &business); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.FirstName = first.String
		c.FullName = full.String
		c.PushName = push.String
		c.BusinessName = business.String
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// SearchContacts returns up to limit non-group contacts whose name fields,
// phone, or JID contain the query, case-insensitively.
func (db *IdentityDB) SearchContacts(query string, limit int) ([]ContactRow, error) {
	pattern := "%" + query + "%"
	rows, err := db.Query(`
		SELECT DISTINCT their_jid, first_name, full_name, push_name, business_name, redacted_phone
		FROM whatsmeow_contacts
		WHERE
			(LOWER(first_name) LIKE LOWER(?)
			 OR LOWER(full_name) LIKE LOWER(?)
			 OR LOWER(push_name) LIKE LOWER(?)
			 OR LOWER(business_name) LIKE LOWER(?)
			 OR LOWER(redacted_phone) LIKE LOWER(?)
			 OR LOWER(their_jid) LIKE LOWER(?))
			AND their_jid NOT LIKE '%@g.us'
		ORDER BY full_name, first_name, push_name, their_jid
		LIMIT ?`,
		pattern, pattern, pattern, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var contacts []ContactRow
	for rows.Next() {
		var c ContactRow
		var first, full, push, business, phone sql.NullString
		if err := rows.Scan(&c.JID, &first, &full, &push, &business, &phone); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.FirstName = first.String
		c.FullName = full.String
		c.PushName = push.String
		c.BusinessName = business.String
		c.Phone = phone.String
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}
