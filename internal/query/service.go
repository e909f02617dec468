// Package query is the service layer over the archive and identity stores.
// It applies filters and pagination, expands context windows, and decorates
// rows with resolved chat and sender names before they leave the process.
package query

import (
	"strings"

	"go.uber.org/zap"

	"github.com/shyndman/whatsapp-mcp/internal/names"
	"github.com/shyndman/whatsapp-mcp/internal/store"
)

// Service exposes every public read operation.
type Service struct {
	db       *store.DB
	identity *store.IdentityDB
	resolver *names.Resolver
	logger   *zap.Logger
}

func NewService(db *store.DB, identity *store.IdentityDB, resolver *names.Resolver, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		identity: identity,
		resolver: resolver,
		logger:   logger,
	}
}

// decorateMessages resolves chat and sender names in place. Sender resolution
// falls back to the raw sender JID so callers always have something to show.
func (s *Service) decorateMessages(msgs []store.Message) {
	for i := range msgs {
		msgs[i].ChatName = s.resolver.ResolveChat(msgs[i].ChatJID, msgs[i].ChatName)
		msgs[i].SenderName = s.resolver.ResolveSender(msgs[i].Sender)
	}
}

func (s *Service) decorateChat(c *store.Chat) {
	c.Name = s.resolver.ResolveChat(c.JID, c.Name)
	if c.LastSender != "" {
		c.LastSenderName = s.resolver.ResolveSender(c.LastSender)
	}
}

// phoneFromJID extracts the number portion of a JID for display.
func phoneFromJID(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}
