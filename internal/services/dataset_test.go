package services

import (
	"testing"

	"matt-dashboard/internal/models"
)

func TestStore_PutReplaces(t *testing.T) {
	store := NewStore(nil)

	first := store.Put("s1", []models.EnrichedRecord{{Division: "Dallas"}})
	second := store.Put("s1", []models.EnrichedRecord{{Division: "Houston"}, {Division: "Houston"}})

	if first.ID == second.ID {
		t.Error("each upload should get a fresh dataset ID")
	}

	ds, ok := store.Get("s1")
	if !ok {
		t.Fatal("expected dataset for session s1")
	}
	if len(ds.Records) != 2 {
		t.Errorf("expected replacement, got %d records", len(ds.Records))
	}
	if ds.Records[0].Division != "Houston" {
		t.Error("old records should be gone after replacement")
	}
}

func TestStore_SessionIsolation(t *testing.T) {
	store := NewStore(nil)

	store.Put("alice", []models.EnrichedRecord{{Division: "Dallas"}})

	if _, ok := store.Get("bob"); ok {
		t.Error("sessions must not see each other's datasets")
	}

	store.Put("bob", []models.EnrichedRecord{{Division: "Houston"}})

	alice, _ := store.Get("alice")
	if alice.Records[0].Division != "Dallas" {
		t.Error("another session's upload must not affect this one")
	}
}

func TestStore_Clear(t *testing.T) {
	store := NewStore(nil)
	store.Put("s1", []models.EnrichedRecord{{}})

	store.Clear()

	if _, ok := store.Get("s1"); ok {
		t.Error("Clear() should drop every session")
	}
}

func TestStore_Stats(t *testing.T) {
	store := NewStore(nil)

	stats := store.Stats()
	if stats["sessions"] != 0 {
		t.Errorf("empty store sessions = %v, want 0", stats["sessions"])
	}

	store.Put("s1", []models.EnrichedRecord{{}, {}})
	store.Put("s2", []models.EnrichedRecord{{}})

	stats = store.Stats()
	if stats["sessions"] != 2 {
		t.Errorf("sessions = %v, want 2", stats["sessions"])
	}
	if stats["records"] != 3 {
		t.Errorf("records = %v, want 3", stats["records"])
	}
	if _, ok := stats["last_upload"]; !ok {
		t.Error("expected last_upload after a put")
	}
}
