package models

// Access request review states.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// AccessRequest is a user's application for elevated assistant usage,
// reviewed by an administrator.
type AccessRequest struct {
	ID         int64  `json:"id"` // Primary key, monotonic.
	UserID     int64  `json:"userId"`
	Username   string `json:"username"`
	Nickname   string `json:"nickname"`
	Reason     string `json:"reason"`
	Status     string `json:"status"` // pending, approved, or rejected.
	CreatedAt  int64  `json:"createdAt"`
	UpdatedAt  int64  `json:"updatedAt,omitempty"`
	ReviewedBy string `json:"reviewedBy,omitempty"` // Reviewer username.
	ReviewedAt int64  `json:"reviewedAt,omitempty"`
}
