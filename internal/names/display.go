// Package names resolves raw chat and sender identifiers to display names,
// backed by a lazily loaded, auth-gated contact cache.
package names

import (
	"strings"
	"unicode"
)

// Candidates are the competing source fields for a contact's display name.
// The whatsmeow store never fills LastName; it exists for callers that have
// an explicit one and is otherwise derived from FullName.
type Candidates struct {
	FullName     string
	BusinessName string
	FirstName    string
	LastName     string
	PushName     string
}

// DisplayName picks the highest-priority name from the candidate set:
// "First Last" when both parts are known, otherwise the first non-empty of
// full, business, first, push. Returns "" when nothing usable exists.
func DisplayName(c Candidates) string {
	first := normalize(c.FirstName)
	full := normalize(c.FullName)
	last := normalize(c.LastName)
	if last == "" {
		last = deriveLastName(first, full)
	}
	if first != "" && last != "" {
		return first + " " + last
	}
	for _, v := range []string{full, normalize(c.BusinessName), first, normalize(c.PushName)} {
		if v != "" {
			return v
		}
	}
	return ""
}

// normalize trims whitespace; an all-whitespace value is treated as absent.
func normalize(v string) string {
	return strings.TrimSpace(v)
}

// deriveLastName extracts a last name from a full name that starts with the
// first name (case-insensitive prefix check, remainder trimmed).
func deriveLastName(first, full string) string {
	if first == "" || full == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(full), strings.ToLower(first)) {
		return ""
	}
	return strings.TrimSpace(full[len(first):])
}

// IsNumericName reports whether a name is just digits (a bare phone number).
// Numeric names never overwrite a resolvable contact name.
func IsNumericName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// numericPortion returns the phone-number part of a JID (everything before
// the '@'), or the input unchanged when it has no domain.
func numericPortion(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}
