// Package store owns the single persisted document. All reads and writes
// are serialized through one lock, and every successful update rewrites the
// whole JSON file, so concurrent handlers cannot lose each other's changes.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/finboard/finboard/internal/models"
)

// ErrNotFound marks lookups of absent entities inside update closures.
var ErrNotFound = errors.New("not found")

// Store is the document store. The in-memory document is the single source
// of truth; the file on disk mirrors it after every update.
type Store struct {
	mu   sync.RWMutex
	path string
	doc  *models.Document
}

// Open reads the document at path, lazily initializing it when the file is
// missing or structurally invalid, and persists the initial state.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if errLoad := s.load(); errLoad != nil {
		return nil, errLoad
	}
	return s, nil
}

// load reads and coerces the document, synthesizing a fresh one when the
// file is absent or unreadable as JSON.
func (s *Store) load() error {
	data, errRead := os.ReadFile(s.path)
	if errRead != nil {
		if !os.IsNotExist(errRead) {
			return fmt.Errorf("read document: %w", errRead)
		}
		s.doc = models.NewDocument()
		return s.flushLocked()
	}

	doc := &models.Document{}
	if errUnmarshal := json.Unmarshal(data, doc); errUnmarshal != nil {
		s.doc = models.NewDocument()
		return s.flushLocked()
	}

	s.doc = doc
	if coerceDefaults(doc) {
		return s.flushLocked()
	}
	return nil
}

// coerceDefaults fills structurally missing collections and counters instead
// of failing, and reports whether anything had to be repaired.
func coerceDefaults(doc *models.Document) bool {
	changed := false
	if doc.Items == nil {
		doc.Items = []models.Item{}
		changed = true
	}
	if doc.Users == nil {
		doc.Users = []models.User{}
		changed = true
	}
	if doc.ChatHistory == nil {
		doc.ChatHistory = map[string]*models.ChatSession{}
		changed = true
	}
	if doc.ChatUsage == nil {
		doc.ChatUsage = map[string]*models.UsageCounter{}
		changed = true
	}
	if doc.AIAccessRequests == nil {
		doc.AIAccessRequests = []models.AccessRequest{}
		changed = true
	}
	if doc.BalanceUploads == nil {
		doc.BalanceUploads = []models.BalanceUpload{}
		changed = true
	}
	for _, counter := range []*int64{&doc.NextID, &doc.NextUserID, &doc.NextRequestID, &doc.NextBalanceID} {
		if *counter < 1 {
			*counter = 1
			changed = true
		}
	}
	return changed
}

// View runs fn with read access to the document. fn must not retain the
// pointer or mutate anything through it.
func (s *Store) View(fn func(doc *models.Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.doc)
}

// Update runs fn with exclusive access to the document and rewrites the
// file when fn succeeds. fn must validate before mutating: when it returns
// an error nothing is persisted, so partial mutations would leave memory and
// disk out of sync.
func (s *Store) Update(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errFn := fn(s.doc); errFn != nil {
		return errFn
	}
	return s.flushLocked()
}

// flushLocked writes the document to a sibling temp file and renames it into
// place. Callers hold the write lock.
func (s *Store) flushLocked() error {
	data, errMarshal := json.MarshalIndent(s.doc, "", "  ")
	if errMarshal != nil {
		return fmt.Errorf("marshal document: %w", errMarshal)
	}
	if errMkdir := os.MkdirAll(filepath.Dir(s.path), 0o755); errMkdir != nil {
		return fmt.Errorf("create data dir: %w", errMkdir)
	}
	tmp := s.path + ".tmp"
	if errWrite := os.WriteFile(tmp, data, 0o600); errWrite != nil {
		return fmt.Errorf("write document: %w", errWrite)
	}
	if errRename := os.Rename(tmp, s.path); errRename != nil {
		return fmt.Errorf("replace document: %w", errRename)
	}
	return nil
}

// FindUser returns a copy of the user with the given ID.
func (s *Store) FindUser(id int64) (models.User, bool) {
	var (
		out models.User
		ok  bool
	)
	s.View(func(doc *models.Document) {
		for i := range doc.Users {
			if doc.Users[i].ID == id {
				out = doc.Users[i]
				ok = true
				return
			}
		}
	})
	return out, ok
}

// FindUserByUsername returns a copy of the user with the given username.
// Matching is exact and case-sensitive.
func (s *Store) FindUserByUsername(username string) (models.User, bool) {
	var (
		out models.User
		ok  bool
	)
	s.View(func(doc *models.Document) {
		for i := range doc.Users {
			if doc.Users[i].Username == username {
				out = doc.Users[i]
				ok = true
				return
			}
		}
	})
	return out, ok
}
