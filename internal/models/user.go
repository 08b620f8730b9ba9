package models

// User is a stored account. Passwords are kept as bcrypt hashes and must be
// stripped from every response projection.
type User struct {
	ID          int64           `json:"id"`          // Primary key, monotonic.
	Username    string          `json:"username"`    // Unique login name, case-sensitive.
	Password    string          `json:"password"`    // Bcrypt hash.
	Nickname    string          `json:"nickname"`    // Display name.
	Account     string          `json:"account"`     // Billing account label; defaults to username.
	Phone       string          `json:"phone"`       // Contact phone.
	Email       string          `json:"email"`       // Contact email.
	IsAdmin     bool            `json:"isAdmin"`     // Administrator flag.
	Permissions map[string]bool `json:"permissions"` // Capability flags: users, ai, vip.
	CreatedAt   int64           `json:"createdAt"`   // Unix milliseconds.
	UpdatedAt   int64           `json:"updatedAt,omitempty"`
}

// Sanitized returns the user as a response payload with the stored
// credential removed.
func (u *User) Sanitized() map[string]any {
	return map[string]any{
		"id":          u.ID,
		"username":    u.Username,
		"nickname":    u.Nickname,
		"account":     u.Account,
		"phone":       u.Phone,
		"email":       u.Email,
		"isAdmin":     u.IsAdmin,
		"permissions": u.Permissions,
		"createdAt":   u.CreatedAt,
		"updatedAt":   u.UpdatedAt,
	}
}
