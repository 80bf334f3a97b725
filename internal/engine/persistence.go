package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tatianab/idle-arena/internal/events"
	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
)

const saveTimeout = 5 * time.Second

// Snapshot captures everything needed to resume the run.
func (e *Engine) Snapshot() models.SavedState {
	s := models.SavedState{
		Version:             models.SchemaVersion,
		HeroID:              e.heroID,
		StageIndex:          e.stageIndex,
		WavesCompleted:      e.wavesCompleted,
		TotalWavesCompleted: e.totalWavesCompleted,
		TickInterval:        e.interval,
		LootTableID:         e.lootID,
		Gold:                e.gold,
		LifetimeRewards:     e.lifetime.Clone(),
		LastRewards:         e.last.Clone(),
		Progress:            e.hero.Progress(),
		History:             e.History(),
		Inventory:           e.Inventory(),
		Materials:           e.Materials(),
		Consumables:         e.Consumables(),
		SavedAt:             e.now().UTC(),
	}
	if len(e.equipped) > 0 {
		s.Equipped = e.Equipped()
	}
	return s
}

// Save writes a snapshot to the store. Without a store it does nothing.
func (e *Engine) Save(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	s := e.Snapshot()
	if err := e.store.Save(ctx, &s); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// autosave persists after a state change. Failures are logged only.
func (e *Engine) autosave() {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := e.Save(ctx); err != nil {
		e.log.Printf("autosave: %v", err)
	}
}

// Restore loads the saved state, if any, and rebuilds the run from it. It
// reports whether a save was applied. A corrupt or incompatible save is
// discarded and the store cleared; play continues from a fresh start.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, nil
	}
	saved, err := e.store.Load(ctx)
	if err != nil {
		if errors.Is(err, gameerr.ErrCorruptSave) {
			e.discard(ctx, err)
			return false, nil
		}
		return false, fmt.Errorf("load state: %w", err)
	}
	if saved == nil {
		return false, nil
	}
	if err := e.checkSaved(saved); err != nil {
		e.discard(ctx, err)
		return false, nil
	}
	e.apply(saved)
	return true, nil
}

func (e *Engine) discard(ctx context.Context, cause error) {
	e.notify(events.SeverityWarn, gameerr.CodeCorruptSave, fmt.Sprintf("discarding saved state: %v", cause))
	if err := e.store.Clear(ctx); err != nil {
		e.log.Printf("clear saved state: %v", err)
	}
	e.ResetEncounter(true, false)
}

// checkSaved validates a payload against this build and the catalog.
func (e *Engine) checkSaved(s *models.SavedState) error {
	if err := s.Validate(); err != nil {
		return gameerr.Wrap(gameerr.CodeCorruptSave, err.Error(), err)
	}
	if _, ok := e.cat.Hero(s.HeroID); !ok {
		return gameerr.Newf(gameerr.CodeCorruptSave, "saved hero %q no longer exists", s.HeroID)
	}
	if _, ok := e.cat.Stage(s.StageIndex); !ok {
		return gameerr.Newf(gameerr.CodeCorruptSave, "saved stage %d no longer exists", s.StageIndex)
	}
	if s.LootTableID != "" {
		if _, ok := e.cat.LootTable(s.LootTableID); !ok {
			return gameerr.Newf(gameerr.CodeCorruptSave, "saved loot table %q no longer exists", s.LootTableID)
		}
	}
	for slot, it := range s.Equipped {
		def, ok := e.cat.Item(it.ItemID)
		if !ok || def.Slot != slot {
			return gameerr.Newf(gameerr.CodeCorruptSave, "saved item %q does not fit %s", it.ItemID, slot)
		}
	}
	for _, it := range s.Inventory {
		if _, ok := e.cat.Item(it.ItemID); !ok {
			return gameerr.Newf(gameerr.CodeCorruptSave, "saved item %q no longer exists", it.ItemID)
		}
	}
	return nil
}

func (e *Engine) apply(s *models.SavedState) {
	e.heroID = s.HeroID
	e.hero = nil
	progress := s.Progress
	e.progress = &progress
	e.stageIndex = s.StageIndex
	e.wavesCompleted = s.WavesCompleted
	e.totalWavesCompleted = s.TotalWavesCompleted
	if s.TickInterval > 0 {
		e.interval = s.TickInterval
	}
	e.lootID = s.LootTableID
	e.gold = s.Gold
	e.lifetime = s.LifetimeRewards.Clone()
	e.last = s.LastRewards.Clone()
	e.history = append([]models.HistoryEntry(nil), s.History...)
	if over := len(e.history) - models.MaxHistory; over > 0 {
		e.history = e.history[over:]
	}
	e.equipped = make(map[models.Slot]models.OwnedEquipment, len(s.Equipped))
	for slot, it := range s.Equipped {
		e.equipped[slot] = it.Clone()
	}
	e.inventory = make([]models.OwnedEquipment, 0, len(s.Inventory))
	for _, it := range s.Inventory {
		e.inventory = append(e.inventory, it.Clone())
	}
	e.materials = copyStock(s.Materials)
	e.consumables = copyStock(s.Consumables)

	if err := e.ResetEncounter(false, false); err != nil {
		e.log.Printf("restore: %v", err)
	}
	// The rebuild refills vitals; put the saved ones back.
	e.hero.ApplyProgress(progress)
	e.emit(events.InventoryChanged{Action: "restore"})
}
