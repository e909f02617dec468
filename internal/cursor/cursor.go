// Package cursor implements the opaque pagination token used to resume
// message listings at an exact position in (timestamp DESC, id DESC) order.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed is returned when a token cannot be decoded. Any input that
// Encode did not produce fails with an error wrapping this sentinel.
var ErrMalformed = errors.New("invalid cursor: expected base64-url encoded JSON with 'ts' and 'id'")

// Cursor is a decoded resume position. Rows strictly after it in
// (timestamp DESC, id DESC) order are the ones a resumed query returns.
type Cursor struct {
	Timestamp time.Time
	ID        string
}

type payload struct {
	TS *string `json:"ts"`
	ID *string `json:"id"`
}

// Encode produces a URL-safe token for the given position.
func Encode(ts time.Time, id string) string {
	s := ts.Format(time.RFC3339Nano)
	raw, _ := json.Marshal(payload{TS: &s, ID: &id})
	return base64.URLEncoding.EncodeToString(raw)
}

// Decode is the exact inverse of Encode. It fails closed: empty input, bad
// base64, non-JSON content, missing or non-string fields, and unparsable
// timestamps all yield an error wrapping ErrMalformed.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("%w: empty token", ErrMalformed)
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.TS == nil || p.ID == nil {
		return Cursor{}, fmt.Errorf("%w: missing field", ErrMalformed)
	}
	ts, err := time.Parse(time.RFC3339Nano, *p.TS)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformed, *p.TS)
	}
	return Cursor{Timestamp: ts, ID: *p.ID}, nil
}
