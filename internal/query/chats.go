package query

import (
	"fmt"

	"github.com/shyndman/whatsapp-mcp/internal/store"
)

// ListChats returns decorated chats matching the options.
func (s *Service) ListChats(opts store.ChatListOptions) ([]store.Chat, error) {
	chats, err := s.db.ListChats(opts)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	for i := range chats {
		s.decorateChat(&chats[i])
	}
	return chats, nil
}

// GetChat returns one decorated chat by JID.
func (s *Service) GetChat(jid string, includeLastMessage bool) (*store.Chat, error) {
	c, err := s.db.GetChat(jid, includeLastMessage)
	if err != nil {
		return nil, err
	}
	s.decorateChat(c)
	return c, nil
}

// GetDirectChatByContact returns the decorated direct chat for a phone
// number.
func (s *Service) GetDirectChatByContact(phoneNumber string) (*store.Chat, error) {
	c, err := s.db.GetDirectChatByContact(phoneNumber)
	if err != nil {
		return nil, err
	}
	s.decorateChat(c)
	return c, nil
}
