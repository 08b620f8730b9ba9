// Package permissions defines the capability flags attached to user
// accounts and the normalization rules that keep them coherent.
package permissions

import "github.com/finboard/finboard/internal/models"

// Capability names.
const (
	CapUsers = "users" // User management routes.
	CapAI    = "ai"    // Assistant routes.
	CapVIP   = "vip"   // Unlimited, unmetered assistant usage.
)

// All lists every capability in a stable order.
var All = []string{CapUsers, CapAI, CapVIP}

// Defaults returns the capability flags granted to a fresh non-admin user.
func Defaults() map[string]bool {
	return map[string]bool{CapUsers: false, CapAI: false, CapVIP: false}
}

// Normalize repairs a user's permission fields in place and reports whether
// anything changed. The rules, applied in order: a user carrying the
// reserved administrator username is an admin; an admin holds every
// capability; missing capability keys are filled from defaults without
// touching explicitly-set values. Normalize is idempotent.
func Normalize(u *models.User, reservedAdmin string) bool {
	changed := false

	if reservedAdmin != "" && u.Username == reservedAdmin && !u.IsAdmin {
		u.IsAdmin = true
		changed = true
	}

	if u.Permissions == nil {
		u.Permissions = map[string]bool{}
		changed = true
	}

	if u.IsAdmin {
		for _, cap := range All {
			if !u.Permissions[cap] {
				u.Permissions[cap] = true
				changed = true
			}
		}
		return changed
	}

	for cap, def := range Defaults() {
		if _, ok := u.Permissions[cap]; !ok {
			u.Permissions[cap] = def
			changed = true
		}
	}
	return changed
}

// Has reports whether the user may exercise the named capability. Admins
// hold every capability.
func Has(u *models.User, capability string) bool {
	if u.IsAdmin {
		return true
	}
	return u.Permissions[capability]
}
