package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/finboard/finboard/internal/models"
	"github.com/finboard/finboard/internal/permissions"
	"github.com/finboard/finboard/internal/security"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "finboard.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s, path
}

func TestOpen_InitializesMissingFile(t *testing.T) {
	s, path := openTestStore(t)

	s.View(func(doc *models.Document) {
		if doc.NextID != 1 || doc.NextUserID != 1 || doc.NextRequestID != 1 || doc.NextBalanceID != 1 {
			t.Fatalf("expected all counters at 1: %+v", doc)
		}
		if len(doc.Items) != 0 || len(doc.Users) != 0 {
			t.Fatalf("expected empty collections")
		}
	})

	if _, errStat := os.Stat(path); errStat != nil {
		t.Fatalf("expected initial document on disk: %v", errStat)
	}
}

func TestOpen_CoercesPartialDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finboard.json")
	partial := `{"users":[{"id":3,"username":"dora","password":"x"}],"nextUserId":4}`
	if err := os.WriteFile(path, []byte(partial), 0600); err != nil {
		t.Fatalf("write document: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s.View(func(doc *models.Document) {
		if doc.NextUserID != 4 {
			t.Fatalf("expected nextUserId preserved, got %d", doc.NextUserID)
		}
		if doc.NextID != 1 || doc.NextRequestID != 1 {
			t.Fatalf("expected missing counters coerced to 1")
		}
		if doc.Items == nil || doc.ChatHistory == nil || doc.BalanceUploads == nil {
			t.Fatalf("expected missing collections coerced to empty")
		}
		if len(doc.Users) != 1 || doc.Users[0].Username != "dora" {
			t.Fatalf("expected existing users preserved")
		}
	})
}

func TestOpen_ReplacesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finboard.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write document: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s.View(func(doc *models.Document) {
		if doc.NextUserID != 1 || len(doc.Users) != 0 {
			t.Fatalf("expected a fresh document")
		}
	})
}

func TestUpdate_PersistsAcrossReopen(t *testing.T) {
	s, path := openTestStore(t)

	errUpdate := s.Update(func(doc *models.Document) error {
		doc.Items = append(doc.Items, models.Item{ID: doc.NextID, Name: "ledger", CreatedAt: models.NowMillis()})
		doc.NextID++
		return nil
	})
	if errUpdate != nil {
		t.Fatalf("update: %v", errUpdate)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.View(func(doc *models.Document) {
		if len(doc.Items) != 1 || doc.Items[0].Name != "ledger" {
			t.Fatalf("expected persisted item, got %+v", doc.Items)
		}
		if doc.NextID != 2 {
			t.Fatalf("expected counter advanced to 2, got %d", doc.NextID)
		}
	})
}

func TestUpdate_ErrorDoesNotPersist(t *testing.T) {
	s, path := openTestStore(t)

	if errUpdate := s.Update(func(doc *models.Document) error {
		return ErrNotFound
	}); errUpdate != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", errUpdate)
	}

	data, errRead := os.ReadFile(path)
	if errRead != nil {
		t.Fatalf("read document: %v", errRead)
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	if len(doc.Items) != 0 {
		t.Fatalf("failed update must not persist")
	}
}

func TestMigrate_SeedsAdminAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finboard.json")
	legacy := `{"users":[{"id":1,"username":"admin","password":"oldpass"},{"id":2,"username":"eve","password":"evepass","permissions":{"ai":true}}],"nextUserId":3}`
	if err := os.WriteFile(path, []byte(legacy), 0600); err != nil {
		t.Fatalf("write document: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if errMigrate := s.Migrate("admin", "admin123"); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	admin, ok := s.FindUserByUsername("admin")
	if !ok {
		t.Fatalf("expected admin user")
	}
	if !admin.IsAdmin {
		t.Fatalf("reserved username must be promoted")
	}
	for _, cap := range permissions.All {
		if !admin.Permissions[cap] {
			t.Fatalf("admin must hold %s", cap)
		}
	}
	if !security.IsHashed(admin.Password) || !security.CheckPassword(admin.Password, "oldpass") {
		t.Fatalf("legacy plaintext password must be hashed in place")
	}

	eve, ok := s.FindUserByUsername("eve")
	if !ok {
		t.Fatalf("expected user eve")
	}
	if eve.IsAdmin {
		t.Fatalf("eve must not be promoted")
	}
	if !eve.Permissions["ai"] || eve.Permissions["users"] || eve.Permissions["vip"] {
		t.Fatalf("unexpected permissions after normalization: %v", eve.Permissions)
	}
}

func TestMigrate_SeedsDefaultAdminOnEmptyStore(t *testing.T) {
	s, _ := openTestStore(t)
	if errMigrate := s.Migrate("admin", "admin123"); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	admin, ok := s.FindUserByUsername("admin")
	if !ok {
		t.Fatalf("expected seeded admin")
	}
	if !admin.IsAdmin || !security.CheckPassword(admin.Password, "admin123") {
		t.Fatalf("unexpected seeded admin: %+v", admin)
	}

	s.View(func(doc *models.Document) {
		if doc.NextUserID != 2 {
			t.Fatalf("expected nextUserId=2 after seeding, got %d", doc.NextUserID)
		}
	})
}
