package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
)

func openTestStore(t *testing.T, path, slot string) *Store {
	t.Helper()
	store, err := Open(path, slot)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPathAndSlot(t *testing.T) {
	if _, err := Open("", "current"); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "x.db"), " "); err == nil {
		t.Fatal("expected error for empty slot")
	}
}

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, filepath.Join(t.TempDir(), "nested", "saves.db"), "current")

	got, err := store.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("expected empty slot, got %+v, %v", got, err)
	}

	state := &models.SavedState{
		Version:             models.SchemaVersion,
		HeroID:              "rogue",
		TotalWavesCompleted: 4,
		Gold:                10,
		Progress:            models.HeroProgress{Level: 2},
		Inventory:           []models.OwnedEquipment{{InstanceID: "x", ItemID: "leather_cap", Rarity: models.RarityEpic}},
		SavedAt:             time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}
	state.Gold = 25
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Gold != 25 || got.HeroID != "rogue" || len(got.Inventory) != 1 || got.Inventory[0].Rarity != models.RarityEpic {
		t.Fatalf("unexpected state %+v", got)
	}

	infos, err := store.ListSlots(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 || infos[0].HeroID != "rogue" || infos[0].TotalWaves != 4 || !infos[0].SavedAt.Equal(state.SavedAt) {
		t.Fatalf("unexpected slots %+v", infos)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, err := store.Load(ctx); err != nil || got != nil {
		t.Fatalf("expected empty slot after clear, got %+v, %v", got, err)
	}
}

func TestSlotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saves.db")
	a := openTestStore(t, path, "a")
	b := openTestStore(t, path, "b")

	if err := a.Save(ctx, &models.SavedState{Version: models.SchemaVersion, HeroID: "warrior", Progress: models.HeroProgress{Level: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, err := b.Load(ctx); err != nil || got != nil {
		t.Fatalf("slot b saw slot a: %+v, %v", got, err)
	}
}

func TestLoadCorruptPayload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saves.db")
	store := openTestStore(t, path, "current")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Exec(`INSERT INTO saves (slot, version, hero_id, total_waves, payload_yaml, saved_at)
		VALUES ('current', 2, 'warrior', 0, ?, 0)`, []byte("version: [broken")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	_, err = store.Load(ctx)
	if !errors.Is(err, gameerr.ErrCorruptSave) {
		t.Fatalf("expected corrupt save, got %v", err)
	}
}

func TestMigrationsRunOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.db")
	openTestStore(t, path, "current")
	second := openTestStore(t, path, "current")

	var n int
	if err := second.sqlDB.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one recorded migration, got %d", n)
	}
}

func TestExtractUpMigration(t *testing.T) {
	got := extractUpMigration("-- +migrate Up\nCREATE TABLE t (id INT);\n-- +migrate Down\nDROP TABLE t;\n")
	if got != "\nCREATE TABLE t (id INT);\n" {
		t.Fatalf("unexpected up section %q", got)
	}
	if extractUpMigration("SELECT 1;") != "SELECT 1;" {
		t.Fatal("expected whole content without markers")
	}
}
