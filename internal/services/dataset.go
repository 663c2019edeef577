package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"matt-dashboard/internal/models"
)

// Dataset is one session's enriched MATT table. It is immutable once
// stored; a re-upload replaces it wholesale.
type Dataset struct {
	ID         string
	Records    []models.EnrichedRecord
	UploadedAt time.Time
}

// Store holds each session's current dataset in memory. Sessions are
// fully isolated; nothing is shared across them and nothing survives a
// restart. Replacement is last-write-wins, never a merge.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Dataset
	logger   *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Dataset),
		logger:   logger,
	}
}

// Put replaces the session's dataset and returns the new one.
func (s *Store) Put(session string, records []models.EnrichedRecord) *Dataset {
	ds := &Dataset{
		ID:         uuid.NewString(),
		Records:    records,
		UploadedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session] = ds
	s.mu.Unlock()

	s.logger.Info("dataset stored",
		"session", session,
		"dataset_id", ds.ID,
		"records", len(records),
	)
	return ds
}

// Get returns the session's current dataset, if any.
func (s *Store) Get(session string) (*Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.sessions[session]
	return ds, ok
}

// Clear drops every session. Used on shutdown; the data is transient by
// contract.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*Dataset)
}

// Stats reports store occupancy for the admin endpoint.
func (s *Store) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := 0
	var latest time.Time
	for _, ds := range s.sessions {
		records += len(ds.Records)
		if ds.UploadedAt.After(latest) {
			latest = ds.UploadedAt
		}
	}

	stats := map[string]any{
		"sessions": len(s.sessions),
		"records":  records,
	}
	if !latest.IsZero() {
		stats["last_upload"] = latest
	}
	return stats
}
