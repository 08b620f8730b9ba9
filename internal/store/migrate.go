package store

import (
	"fmt"

	"github.com/finboard/finboard/internal/models"
	"github.com/finboard/finboard/internal/permissions"
	"github.com/finboard/finboard/internal/security"

	log "github.com/sirupsen/logrus"
)

// Migrate runs the one-time repair pass over the document so the runtime
// read path can trust the stored flags afterwards: the reserved
// administrator username is promoted, every user's permissions are
// normalized, legacy plaintext passwords are hashed, and a default
// administrator is seeded when no users exist at all.
func (s *Store) Migrate(adminUsername, adminPassword string) error {
	return s.Update(func(doc *models.Document) error {
		for i := range doc.Users {
			u := &doc.Users[i]
			permissions.Normalize(u, adminUsername)
			if u.Password != "" && !security.IsHashed(u.Password) {
				hash, errHash := security.HashPassword(u.Password)
				if errHash != nil {
					return fmt.Errorf("hash legacy password for %s: %w", u.Username, errHash)
				}
				u.Password = hash
				log.Warnf("migrated plaintext password for user %s", u.Username)
			}
		}

		if len(doc.Users) == 0 && adminUsername != "" {
			hash, errHash := security.HashPassword(adminPassword)
			if errHash != nil {
				return fmt.Errorf("hash seed admin password: %w", errHash)
			}
			admin := models.User{
				ID:          doc.NextUserID,
				Username:    adminUsername,
				Password:    hash,
				Nickname:    adminUsername,
				Account:     adminUsername,
				IsAdmin:     true,
				Permissions: map[string]bool{},
				CreatedAt:   models.NowMillis(),
			}
			doc.NextUserID++
			permissions.Normalize(&admin, adminUsername)
			doc.Users = append(doc.Users, admin)
			log.Warnf("seeded default administrator %q; change its password", adminUsername)
		}
		return nil
	})
}
