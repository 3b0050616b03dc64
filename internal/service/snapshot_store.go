package service

import (
	"sync"
	"time"

	"github.com/tramita/inbox-api/internal/models"
)

// SnapshotStore keeps the last known good document set per queue context.
// The inbox service writes into it after every successful listing; the
// degraded read path and the local statistics fallback read from it. Entries
// never expire on their own: stale data beats an empty inbox when storage is
// down, and the Stale flag tells the caller what it got.
type SnapshotStore struct {
	mu      sync.RWMutex
	entries map[string]snapshotEntry
}

type snapshotEntry struct {
	docs []models.Document
	at   time.Time
}

// NewSnapshotStore constructs an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{entries: make(map[string]snapshotEntry)}
}

// Put replaces the snapshot for a context key.
func (s *SnapshotStore) Put(key string, docs []models.Document, at time.Time) {
	copied := make([]models.Document, len(docs))
	copy(copied, docs)
	s.mu.Lock()
	s.entries[key] = snapshotEntry{docs: copied, at: at}
	s.mu.Unlock()
}

// Get returns the snapshot for a context key, if one exists.
func (s *SnapshotStore) Get(key string) ([]models.Document, time.Time, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false
	}
	copied := make([]models.Document, len(entry.docs))
	copy(copied, entry.docs)
	return copied, entry.at, true
}

// AllDocuments returns the documents of every stored snapshot concatenated.
// Entries overlap between context keys; callers deduplicate as needed.
func (s *SnapshotStore) AllDocuments() []models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []models.Document
	for _, entry := range s.entries {
		docs = append(docs, entry.docs...)
	}
	return docs
}

// Drop removes the snapshot for a context key.
func (s *SnapshotStore) Drop(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}
