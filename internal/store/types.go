package store

import (
	"strings"
	"time"
)

// Message is one archived message. SenderName and ChatName are filled by the
// query layer's name resolution, not by raw store reads.
type Message struct {
	ID         string    `json:"id"`
	ChatJID    string    `json:"chat_jid"`
	ChatName   string    `json:"chat_name,omitempty"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"sender_name,omitempty"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	IsFromMe   bool      `json:"is_from_me"`
	MediaType  string    `json:"media_type,omitempty"`
}

// Chat is one archived chat, optionally carrying its latest message summary.
type Chat struct {
	JID             string     `json:"jid"`
	Name            string     `json:"name,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	LastMessage     string     `json:"last_message,omitempty"`
	LastSender      string     `json:"last_sender,omitempty"`
	LastSenderName  string     `json:"last_sender_name,omitempty"`
	LastIsFromMe    *bool      `json:"last_is_from_me,omitempty"`
}

// IsGroup reports whether the chat is a group, derived from the JID's
// reserved domain suffix.
func (c Chat) IsGroup() bool {
	return IsGroupJID(c.JID)
}

// IsGroupJID reports whether a JID names a group chat. Group JIDs never
// resolve through the contact cache.
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}

// Contact is a contact search result.
type Contact struct {
	JID         string `json:"jid"`
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name,omitempty"`
}

// MessageContext is an anchor message with its chronological neighbors in
// the same chat.
type MessageContext struct {
	Message Message   `json:"message"`
	Before  []Message `json:"before"`
	After   []Message `json:"after"`
}

// MessageKey is the (timestamp, id) pair that totally orders the archive.
type MessageKey struct {
	Timestamp time.Time
	ID        string
}
