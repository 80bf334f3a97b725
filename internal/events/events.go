// Package events carries the typed notifications the simulation emits for
// hosts, loggers and tests.
package events

import (
	"github.com/tatianab/idle-arena/internal/models"
)

// Type names an event kind.
type Type string

const (
	TypeSwing            Type = "combat.swing"
	TypeEncounterStarted Type = "combat.encounter_started"
	TypeEncounterSummary Type = "combat.encounter_summary"
	TypeRewardsClaimed   Type = "economy.rewards_claimed"
	TypeInventoryChanged Type = "economy.inventory_changed"
	TypeMaterialsChanged Type = "economy.materials_changed"
	TypeCraftCompleted   Type = "economy.craft_completed"
	TypeControlChanged   Type = "control.changed"
	TypeProgressChanged  Type = "progress.changed"
	TypeNotice           Type = "notice"
)

// Event is implemented by every payload in this package.
type Event interface {
	EventType() Type
}

// Swing is one resolved attack.
type Swing struct {
	Attacker string
	Defender string
	Result   string
	Damage   float64
	Critical bool
	Hand     string
	Elapsed  float64
}

// EncounterStarted is emitted when a fresh encounter is bound.
type EncounterStarted struct {
	Hero      string
	Enemy     string
	EnemyName string
	Stage     int
	Wave      int
	Boss      bool
	Remaining int
}

// Victor values carried by EncounterSummary.
const (
	VictorNone   = "none"
	VictorSource = "source"
	VictorTarget = "target"
)

// EncounterSummary reports a finished encounter.
type EncounterSummary struct {
	Source       string
	Target       string
	Elapsed      float64
	Swings       int
	SourceDamage float64
	TargetDamage float64
	Victor       string
	Rewards      models.Rewards
}

// RewardsClaimed is emitted once per claimed victory.
type RewardsClaimed struct {
	Rewards  models.Rewards
	Lifetime models.Rewards
	LevelUps int
}

// InventoryChanged is emitted after equip, unequip, upgrade, socket, salvage,
// craft or reward grants touch equipment.
type InventoryChanged struct {
	Action     string
	InstanceID string
	ItemID     string
}

// MaterialsChanged carries a material or consumable stock delta.
type MaterialsChanged struct {
	Delta       map[string]int
	Consumables bool
}

// CraftCompleted is emitted after a successful craft.
type CraftCompleted struct {
	RecipeID string
	Result   string
	Quantity int
}

// ControlChanged reports playback state.
type ControlChanged struct {
	Running bool
	Reason  string
}

// ProgressChanged reports stage and wave pointers.
type ProgressChanged struct {
	Stage               int
	StageName           string
	WavesCompleted      int
	Waves               int
	TotalWavesCompleted int
}

// Severity of a Notice.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
)

// Notice is a user-visible message, typically a rejected operation.
type Notice struct {
	Severity Severity
	Code     string
	Message  string
}

func (Swing) EventType() Type            { return TypeSwing }
func (EncounterStarted) EventType() Type { return TypeEncounterStarted }
func (EncounterSummary) EventType() Type { return TypeEncounterSummary }
func (RewardsClaimed) EventType() Type   { return TypeRewardsClaimed }
func (InventoryChanged) EventType() Type { return TypeInventoryChanged }
func (MaterialsChanged) EventType() Type { return TypeMaterialsChanged }
func (CraftCompleted) EventType() Type   { return TypeCraftCompleted }
func (ControlChanged) EventType() Type   { return TypeControlChanged }
func (ProgressChanged) EventType() Type  { return TypeProgressChanged }
func (Notice) EventType() Type           { return TypeNotice }
