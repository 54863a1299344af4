package storage

import (
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openAll(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	boltStore, err := NewStore(TypeBolt, filepath.Join(dir, "bolt", "state.db"))
	if err != nil {
		t.Fatalf("NewStore bbolt: %v", err)
	}
	sqliteStore, err := NewStore(TypeSQLite, filepath.Join(dir, "sqlite", "state.db"))
	if err != nil {
		t.Fatalf("NewStore sqlite: %v", err)
	}
	memStore, err := NewStore(TypeMemory, "")
	if err != nil {
		t.Fatalf("NewStore memory: %v", err)
	}

	stores := map[string]Store{
		TypeBolt:   boltStore,
		TypeSQLite: sqliteStore,
		TypeMemory: memStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoresTrackProcessedIDs(t *testing.T) {
	for name, store := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			first, err := store.IsFirstRun()
			if err != nil || !first {
				t.Fatalf("expected first run on empty store, got %v err=%v", first, err)
			}

			seen, err := store.Contains("101")
			if err != nil || seen {
				t.Fatalf("expected unseen id, seen=%v err=%v", seen, err)
			}

			if err := store.Add("101"); err != nil {
				t.Fatalf("Add: %v", err)
			}
			if err := store.Add("101"); err != nil {
				t.Fatalf("Add twice: %v", err)
			}
			if err := store.Add("102"); err != nil {
				t.Fatalf("Add: %v", err)
			}

			seen, err = store.Contains("101")
			if err != nil || !seen {
				t.Fatalf("expected id to be present, seen=%v err=%v", seen, err)
			}
			first, err = store.IsFirstRun()
			if err != nil || first {
				t.Fatalf("expected non-first run after Add, got %v err=%v", first, err)
			}

			set, err := store.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(set) != 2 || !set.Has("101") || !set.Has("102") {
				t.Fatalf("unexpected loaded set %v", set)
			}
		})
	}
}

func TestStoresRejectEmptyID(t *testing.T) {
	for name, store := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Add("  "); err == nil {
				t.Fatalf("expected error for empty id")
			}
			first, _ := store.IsFirstRun()
			if !first {
				t.Fatalf("rejected id must not be persisted")
			}
		})
	}
}

func TestPersistentStoresSurviveReopen(t *testing.T) {
	for _, typ := range []string{TypeBolt, TypeSQLite} {
		t.Run(typ, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.db")

			store, err := NewStore(typ, path)
			if err != nil {
				t.Fatalf("NewStore: %v", err)
			}
			if err := store.Add("abc"); err != nil {
				t.Fatalf("Add: %v", err)
			}
			if err := store.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			reopened, err := NewStore(typ, path)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer reopened.Close()

			seen, err := reopened.Contains("abc")
			if err != nil || !seen {
				t.Fatalf("expected persisted id after reopen, seen=%v err=%v", seen, err)
			}
			first, err := reopened.IsFirstRun()
			if err != nil || first {
				t.Fatalf("expected non-first run after reopen, got %v err=%v", first, err)
			}
		})
	}
}

func TestBoltStoreRecordsCommitTime(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	fixed := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	if err := store.Add("r1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	var value []byte
	if err := store.db.View(func(tx *bolt.Tx) error {
		value = append(value, tx.Bucket([]byte(processedBucket)).Get([]byte("r1"))...)
		return nil
	}); err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(value) != committedValueBytes {
		t.Fatalf("expected %d-byte commit time, got %d bytes", committedValueBytes, len(value))
	}
	if ts := time.Unix(int64(binary.BigEndian.Uint64(value)), 0); !ts.Equal(fixed) {
		t.Fatalf("expected commit time %v, got %v", fixed, ts)
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore(TypeBolt, ""); err == nil {
		t.Fatalf("expected error for bbolt without path")
	}
	if _, err := NewStore(TypeSQLite, " "); err == nil {
		t.Fatalf("expected error for sqlite without path")
	}
	if _, err := NewStore("redis", "x"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestMemoryStoreSeedAndCopy(t *testing.T) {
	store := NewMemoryStore("a", "b")
	set, _ := store.Load()
	set.Insert("c")

	if seen, _ := store.Contains("c"); seen {
		t.Fatalf("Load must return a copy")
	}
	if first, _ := store.IsFirstRun(); first {
		t.Fatalf("seeded store is not a first run")
	}
}
