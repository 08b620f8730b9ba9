package models

// Item is a generic managed record.
type Item struct {
	ID        int64  `json:"id"`   // Primary key, monotonic.
	Name      string `json:"name"` // Non-empty, trimmed.
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}
