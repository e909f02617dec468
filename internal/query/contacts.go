package query

import (
	"fmt"

	"github.com/shyndman/whatsapp-mcp/internal/names"
	"github.com/shyndman/whatsapp-mcp/internal/store"
)

const defaultContactLimit = 50

// SearchContacts searches the identity store and maps each hit to a display
// shape: the resolved name, and the number portion of the JID when the store
// has no phone on record.
func (s *Service) SearchContacts(q string, limit int) ([]store.Contact, error) {
	if limit <= 0 {
		limit = defaultContactLimit
	}
	rows, err := s.identity.SearchContacts(q, limit)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}

	contacts := make([]store.Contact, 0, len(rows))
	for _, r := range rows {
		phone := r.Phone
		if phone == "" {
			phone = phoneFromJID(r.JID)
		}
		contacts = append(contacts, store.Contact{
			JID:         r.JID,
			PhoneNumber: phone,
			Name: names.DisplayName(names.Candidates{
				FullName:     r.FullName,
				BusinessName: r.BusinessName,
				FirstName:    r.FirstName,
				PushName:     r.PushName,
			}),
		})
	}
	return contacts, nil
}
