package models

import (
	"fmt"
	"time"
)

// SchemaVersion is the saved-state layout this build reads and writes.
const SchemaVersion = 2

// MaxHistory bounds the encounter history kept in memory and on disk.
const MaxHistory = 50

// HeroProgress is the part of a Combatant that survives a rebuild.
type HeroProgress struct {
	Level      int     `yaml:"level"`
	Experience int     `yaml:"experience"`
	Health     float64 `yaml:"health"`
	Mana       float64 `yaml:"mana"`
}

// Outcome values recorded in history.
const (
	OutcomeVictory = "victory"
	OutcomeDefeat  = "defeat"
)

// HistoryEntry records one finished encounter.
type HistoryEntry struct {
	EnemyID     string  `yaml:"enemy_id"`
	EnemyName   string  `yaml:"enemy_name"`
	Outcome     string  `yaml:"outcome"`
	Stage       int     `yaml:"stage"`
	Wave        int     `yaml:"wave"`
	Boss        bool    `yaml:"boss,omitempty"`
	Elapsed     float64 `yaml:"elapsed"`
	Swings      int     `yaml:"swings"`
	DamageDealt float64 `yaml:"damage_dealt"`
	DamageTaken float64 `yaml:"damage_taken"`
	XP          int     `yaml:"xp,omitempty"`
	Gold        int     `yaml:"gold,omitempty"`
}

// SavedState is the logical persisted shape of a run.
type SavedState struct {
	Version             int                     `yaml:"version"`
	HeroID              string                  `yaml:"hero_id"`
	StageIndex          int                     `yaml:"stage_index"`
	WavesCompleted      int                     `yaml:"waves_completed"`
	TotalWavesCompleted int                     `yaml:"total_waves_completed"`
	TickInterval        float64                 `yaml:"tick_interval"`
	LootTableID         string                  `yaml:"loot_table_id,omitempty"`
	Gold                int                     `yaml:"gold"`
	LifetimeRewards     Rewards                 `yaml:"lifetime_rewards"`
	LastRewards         Rewards                 `yaml:"last_rewards"`
	Progress            HeroProgress            `yaml:"progress"`
	History             []HistoryEntry          `yaml:"history,omitempty"`
	Equipped            map[Slot]OwnedEquipment `yaml:"equipped,omitempty"`
	Inventory           []OwnedEquipment        `yaml:"inventory,omitempty"`
	Materials           map[string]int          `yaml:"materials,omitempty"`
	Consumables         map[string]int          `yaml:"consumables,omitempty"`
	SavedAt             time.Time               `yaml:"saved_at"`
}

// Validate rejects payloads this build must not restore.
func (s *SavedState) Validate() error {
	if s == nil {
		return fmt.Errorf("saved state is nil")
	}
	if s.Version != SchemaVersion {
		return fmt.Errorf("saved state version %d, want %d", s.Version, SchemaVersion)
	}
	if s.HeroID == "" {
		return fmt.Errorf("saved state has no hero")
	}
	if s.StageIndex < 0 || s.WavesCompleted < 0 || s.TotalWavesCompleted < 0 {
		return fmt.Errorf("saved state has negative progress")
	}
	if s.Progress.Level < 1 {
		return fmt.Errorf("saved state hero level %d", s.Progress.Level)
	}
	seen := make(map[string]bool)
	for slot, item := range s.Equipped {
		if !slot.Valid() {
			return fmt.Errorf("saved state has unknown slot %q", slot)
		}
		if err := validateOwned(item, seen); err != nil {
			return err
		}
	}
	for _, item := range s.Inventory {
		if err := validateOwned(item, seen); err != nil {
			return err
		}
	}
	for id, qty := range s.Materials {
		if qty < 0 {
			return fmt.Errorf("saved state has negative material %q", id)
		}
	}
	for id, qty := range s.Consumables {
		if qty < 0 {
			return fmt.Errorf("saved state has negative consumable %q", id)
		}
	}
	return nil
}

func validateOwned(item OwnedEquipment, seen map[string]bool) error {
	if item.InstanceID == "" || item.ItemID == "" {
		return fmt.Errorf("saved item missing identifiers")
	}
	if seen[item.InstanceID] {
		return fmt.Errorf("saved item %q appears twice", item.InstanceID)
	}
	seen[item.InstanceID] = true
	if len(item.Augments) > item.Sockets {
		return fmt.Errorf("saved item %q has more augments than sockets", item.InstanceID)
	}
	if item.UpgradeLevel < 0 {
		return fmt.Errorf("saved item %q has negative upgrade level", item.InstanceID)
	}
	return nil
}
