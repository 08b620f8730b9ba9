package models

import (
	"strconv"
	"time"
)

// Document is the whole persisted state of the server. It is loaded and
// rewritten as a single JSON file; every collection lives inside it.
type Document struct {
	NextID        int64 `json:"nextId"`        // Next item ID.
	NextUserID    int64 `json:"nextUserId"`    // Next user ID.
	NextRequestID int64 `json:"nextRequestId"` // Next access request ID.
	NextBalanceID int64 `json:"nextBalanceId"` // Next balance upload ID.

	Items []Item `json:"items"` // Managed items.
	Users []User `json:"users"` // User accounts.

	ChatHistory map[string]*ChatSession  `json:"chatHistory"` // Per-user chat state, keyed by UserKey.
	ChatUsage   map[string]*UsageCounter `json:"chatUsage"`   // Per-user daily chat counters, keyed by UserKey.

	AIAccessRequests []AccessRequest `json:"aiAccessRequests"` // Elevation requests.
	BalanceUploads   []BalanceUpload `json:"balanceUploads"`   // Uploaded balance sheets.
}

// NewDocument returns an empty document with all counters at their start value.
func NewDocument() *Document {
	return &Document{
		NextID:           1,
		NextUserID:       1,
		NextRequestID:    1,
		NextBalanceID:    1,
		Items:            []Item{},
		Users:            []User{},
		ChatHistory:      map[string]*ChatSession{},
		ChatUsage:        map[string]*UsageCounter{},
		AIAccessRequests: []AccessRequest{},
		BalanceUploads:   []BalanceUpload{},
	}
}

// UserKey converts a user ID into the string key used by the document's maps.
func UserKey(id int64) string { return strconv.FormatInt(id, 10) }

// NowMillis returns the current time in Unix milliseconds, the timestamp
// format used throughout the document.
func NowMillis() int64 { return time.Now().UnixMilli() }
