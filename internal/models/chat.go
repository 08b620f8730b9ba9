package models

import "encoding/json"

// ChatSession is a user's saved assistant state. Conversations are opaque to
// the server; the client owns their structure.
type ChatSession struct {
	ActiveID      *string           `json:"activeId"`
	Conversations []json.RawMessage `json:"conversations"`
	UpdatedAt     int64             `json:"updatedAt,omitempty"`
}

// Clone copies the session so callers can hold it outside the store's
// locking without aliasing the stored conversation list.
func (s *ChatSession) Clone() *ChatSession {
	out := *s
	out.Conversations = append([]json.RawMessage{}, s.Conversations...)
	return &out
}

// UsageCounter tracks one user's metered chat calls for a single calendar
// day. The date is a local "2006-01-02" key; a stale date means the counter
// is due for a reset.
type UsageCounter struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
