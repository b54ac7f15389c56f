// Package snapshot writes the calendar state to a file and restores it.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/bcnelson/household-calendar/internal/storage"
	"gopkg.in/yaml.v3"
)

// ErrStoreNotEmpty is returned by Restore when the store already holds data.
var ErrStoreNotEmpty = errors.New("store is not empty")

// Format is a snapshot file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the encoding from the file extension: .yaml and .yml use
// YAML, everything else JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode serializes state in the given format.
func Encode(state *domain.State, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(state)
	}
	return json.MarshalIndent(state, "", "  ")
}

// Decode parses a snapshot in the given format.
func Decode(data []byte, format Format) (*domain.State, error) {
	state := &domain.State{}
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, state)
	} else {
		err = json.Unmarshal(data, state)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return state, nil
}

// Write atomically replaces path with the encoded state. The file is written
// to a temporary sibling first and renamed into place.
func Write(path string, state *domain.State) error {
	data, err := Encode(state, FormatFor(path))
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot file.
func Load(path string) (*domain.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, FormatFor(path))
}

// Restore loads state into an empty store in one transaction.
func Restore(ctx context.Context, store storage.Storage, state *domain.State) error {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	members, err := tx.CountMembers(ctx)
	if err != nil {
		return fmt.Errorf("counting members: %w", err)
	}
	events, err := tx.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("listing events: %w", err)
	}
	if members > 0 || len(events) > 0 {
		return ErrStoreNotEmpty
	}

	for _, m := range state.Members {
		if err := tx.CreateMember(ctx, m); err != nil {
			return fmt.Errorf("restoring member %s: %w", m.ID, err)
		}
	}
	if len(state.Events) > 0 {
		if err := tx.InsertEvents(ctx, state.Events); err != nil {
			return fmt.Errorf("restoring events: %w", err)
		}
	}

	return tx.Commit()
}
