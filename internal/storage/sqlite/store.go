// Package sqlite stores saved state in a SQLite database, one row per slot.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
	"github.com/tatianab/idle-arena/internal/storage/sqlite/migrations"
)

// Store persists one save slot. The YAML payload is the same document the
// file store writes; a few columns are lifted out for listing.
type Store struct {
	sqlDB *sql.DB
	slot  string
}

// Open opens and migrates the database at path.
func Open(path, slot string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return nil, fmt.Errorf("save slot is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	store := &Store{sqlDB: sqlDB, slot: slot}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the slot's state, or nil if it has none.
func (s *Store) Load(ctx context.Context) (*models.SavedState, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	var payload []byte
	row := s.sqlDB.QueryRowContext(ctx, `SELECT payload_yaml FROM saves WHERE slot = ?`, s.slot)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get save: %w", err)
	}
	var state models.SavedState
	if err := yaml.Unmarshal(payload, &state); err != nil {
		return nil, gameerr.Wrap(gameerr.CodeCorruptSave, "decode save "+s.slot, err)
	}
	return &state, nil
}

// Save upserts the slot's row.
func (s *Store) Save(ctx context.Context, state *models.SavedState) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if state == nil {
		return fmt.Errorf("state is required")
	}
	payload, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	savedAt := state.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO saves (slot, version, hero_id, total_waves, payload_yaml, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		    version = excluded.version,
		    hero_id = excluded.hero_id,
		    total_waves = excluded.total_waves,
		    payload_yaml = excluded.payload_yaml,
		    saved_at = excluded.saved_at`,
		s.slot, state.Version, state.HeroID, state.TotalWavesCompleted, payload, savedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put save: %w", err)
	}
	return nil
}

// Clear deletes the slot's row.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, s.slot); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

// SlotInfo summarizes a stored slot.
type SlotInfo struct {
	Slot       string
	Version    int
	HeroID     string
	TotalWaves int
	SavedAt    time.Time
}

// ListSlots returns every stored slot, most recent first.
func (s *Store) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT slot, version, hero_id, total_waves, saved_at FROM saves ORDER BY saved_at DESC, slot`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var info SlotInfo
		var savedAt int64
		if err := rows.Scan(&info.Slot, &info.Version, &info.HeroID, &info.TotalWaves, &savedAt); err != nil {
			return nil, fmt.Errorf("scan save: %w", err)
		}
		info.SavedAt = time.UnixMilli(savedAt).UTC()
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saves: %w", err)
	}
	return out, nil
}

// runMigrations applies embedded SQL files in name order, once each.
func (s *Store) runMigrations() error {
	if _, err := s.sqlDB.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		var n int
		if err := s.sqlDB.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, file).Scan(&n); err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if n > 0 {
			continue
		}
		content, err := fs.ReadFile(migrations.FS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		up := extractUpMigration(string(content))
		if strings.TrimSpace(up) == "" {
			continue
		}
		tx, err := s.sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
			file, time.Now().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// extractUpMigration isolates the `-- +migrate Up` segment.
func extractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	rest := content[upIdx+len("-- +migrate Up"):]
	if downIdx := strings.Index(rest, "-- +migrate Down"); downIdx != -1 {
		return rest[:downIdx]
	}
	return rest
}
