// Package yamlfile stores saved state as YAML files, one directory per slot.
package yamlfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
)

const stateFile = "state.yaml"

// Store reads and writes <dir>/<slot>/state.yaml.
type Store struct {
	dir  string
	slot string
}

// New returns a store for slot under dir. Nothing is created until Save.
func New(dir, slot string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	slot = strings.TrimSpace(slot)
	if dir == "" {
		return nil, fmt.Errorf("save dir is required")
	}
	if slot == "" || strings.ContainsAny(slot, `/\`) || slot == "." || slot == ".." {
		return nil, fmt.Errorf("invalid save slot %q", slot)
	}
	return &Store{dir: filepath.Clean(dir), slot: slot}, nil
}

// Path is the file the store reads and writes.
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.slot, stateFile)
}

// Load returns the saved state, or nil when the slot is empty. A file that
// cannot be decoded is reported as a corrupt save.
func (s *Store) Load(ctx context.Context) (*models.SavedState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path(), err)
	}
	var state models.SavedState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, gameerr.Wrap(gameerr.CodeCorruptSave, "decode "+s.Path(), err)
	}
	return &state, nil
}

// Save writes state atomically by renaming a temp file over the old one.
func (s *Store) Save(ctx context.Context, state *models.SavedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("state is required")
	}
	dir := filepath.Join(s.dir, s.slot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp, err := os.CreateTemp(dir, stateFile+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Clear removes the slot's state file.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListSlots returns the slots under dir that hold a state file.
func ListSlots(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var slots []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, entry.Name(), stateFile)); err == nil {
			slots = append(slots, entry.Name())
		}
	}
	return slots, nil
}
