package storage

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// Package storage persists the ids of records whose artifacts were fully ingested.

// Store tracks processed record ids. Add persists before returning.
type Store interface {
	Load() (domain.ProcessedIDSet, error)
	Contains(id string) (bool, error)
	Add(id string) error
	IsFirstRun() (bool, error)
	Close() error
}

const (
	TypeBolt   = "bbolt"
	TypeSQLite = "sqlite"
	TypeMemory = "memory"
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case TypeMemory:
		return NewMemoryStore(), nil
	case "", TypeBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path)
	case TypeSQLite:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		return openSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("record id is empty")
	}
	return nil
}
