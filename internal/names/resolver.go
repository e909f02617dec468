package names

import (
	"sync"

	"go.uber.org/zap"

	"github.com/shyndman/whatsapp-mcp/internal/store"
)

// ContactSource provides the identity-store reads the resolver needs. The
// concrete implementation is store.IdentityDB.
type ContactSource interface {
	Authenticated() (bool, error)
	Contacts() ([]store.ContactRow, error)
}

// ChatDirectory looks up names recorded in the archive's chats table. The
// concrete implementation is store.DB.
type ChatDirectory interface {
	ChatNameByJID(jid string) (string, error)
	ChatNameByNumber(number string) (string, error)
}

// Resolver maps JIDs to display names. The contact cache loads at most once,
// only after the identity store reports an authenticated device, and is
// swapped in whole so concurrent readers see either nothing or everything.
type Resolver struct {
	contacts ContactSource
	chats    ChatDirectory
	logger   *zap.Logger

	mu     sync.RWMutex
	loaded bool
	cache  map[string]string
}

func NewResolver(contacts ContactSource, chats ChatDirectory, logger *zap.Logger) *Resolver {
	return &Resolver{
		contacts: contacts,
		chats:    chats,
		logger:   logger,
	}
}

// ResolveContact returns the cached display name for a direct-chat JID.
// Group JIDs and unknown contacts resolve to "".
func (r *Resolver) ResolveContact(jid string) string {
	if jid == "" || store.IsGroupJID(jid) {
		return ""
	}
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[jid]
}

// ResolveChat picks the display name for a chat. A stored non-numeric name
// wins; otherwise the contact cache is consulted for direct chats; the stored
// value (possibly empty or numeric) is the fallback.
func (r *Resolver) ResolveChat(jid, stored string) string {
	if stored != "" && !IsNumericName(stored) {
		return stored
	}
	if name := r.ResolveContact(jid); name != "" {
		return name
	}
	return stored
}

// ResolveSender resolves a sender JID to a display name. The chats table is
// consulted first (exact JID, then a match on the numeric portion); when that
// yields nothing better than the raw jid or a bare number, the contact cache
// takes precedence. The raw jid is the final fallback.
func (r *Resolver) ResolveSender(jid string) string {
	if jid == "" {
		return ""
	}
	chatName, err := r.chats.ChatNameByJID(jid)
	if err != nil {
		r.logger.Warn("sender name lookup failed", zap.String("jid", jid), zap.Error(err))
		chatName = ""
	}
	if chatName == "" {
		chatName, err = r.chats.ChatNameByNumber(numericPortion(jid))
		if err != nil {
			r.logger.Warn("sender name lookup failed", zap.String("jid", jid), zap.Error(err))
			chatName = ""
		}
	}
	if chatName != "" && chatName != jid && !IsNumericName(chatName) {
		return chatName
	}
	if name := r.ResolveContact(jid); name != "" {
		return name
	}
	if chatName != "" {
		return chatName
	}
	return jid
}

// Invalidate drops the cache so the next resolution reloads it. Used after
// the bridge writer completes an auth or contact sync.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.cache = nil
}

func (r *Resolver) ensureLoaded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return
	}
	ok, err := r.contacts.Authenticated()
	if err != nil {
		r.logger.Warn("auth probe failed, contact cache not loaded", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	rows, err := r.contacts.Contacts()
	if err != nil {
		r.logger.Warn("contact load failed, cache not loaded", zap.Error(err))
		return
	}
	cache := make(map[string]string, len(rows))
	for _, c := range rows {
		if c.JID == "" {
			continue
		}
		name := DisplayName(Candidates{
			FullName:     c.FullName,
			BusinessName: c.BusinessName,
			FirstName:    c.FirstName,
			PushName:     c.PushName,
		})
		if name != "" {
			cache[c.JID] = name
		}
	}
	r.cache = cache
	r.loaded = true
	r.logger.Info("contact cache loaded", zap.Int("contacts", len(cache)))
}
