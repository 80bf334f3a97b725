package models

import (
	"github.com/tatianab/idle-arena/internal/stats"
)

// Rarity is an ordered equipment quality tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Rarities lists every tier from lowest to highest.
var Rarities = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}

var rarityMultipliers = map[Rarity]float64{
	RarityCommon:    1.0,
	RarityUncommon:  1.15,
	RarityRare:      1.35,
	RarityEpic:      1.6,
	RarityLegendary: 2.0,
}

// Rank orders rarities; unknown values rank below common.
func (r Rarity) Rank() int {
	for i, v := range Rarities {
		if v == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r is a known tier.
func (r Rarity) Valid() bool {
	return r.Rank() >= 0
}

// Multiplier is the stat multiplier the tier applies. Unknown tiers count as common.
func (r Rarity) Multiplier() float64 {
	if m, ok := rarityMultipliers[r]; ok {
		return m
	}
	return 1
}

// Slot is an equipment slot on a combatant.
type Slot string

const (
	SlotMainHand Slot = "main_hand"
	SlotOffHand  Slot = "off_hand"
	SlotHead     Slot = "head"
	SlotChest    Slot = "chest"
	SlotHands    Slot = "hands"
	SlotLegs     Slot = "legs"
	SlotFeet     Slot = "feet"
)

// Slots lists the slots in paperdoll order.
var Slots = []Slot{SlotMainHand, SlotOffHand, SlotHead, SlotChest, SlotHands, SlotLegs, SlotFeet}

// Valid reports whether s names a known slot.
func (s Slot) Valid() bool {
	for _, v := range Slots {
		if v == s {
			return true
		}
	}
	return false
}

// ItemType classifies item definitions.
type ItemType string

const (
	ItemTypeWeapon     ItemType = "weapon"
	ItemTypeArmor      ItemType = "armor"
	ItemTypeConsumable ItemType = "consumable"
	ItemTypeAugment    ItemType = "augment"
	ItemTypeMaterial   ItemType = "material"
)

// Tier groups enemies for wave composition.
type Tier string

const (
	TierSmall  Tier = "small"
	TierMedium Tier = "medium"
	TierBoss   Tier = "boss"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierSmall || t == TierMedium || t == TierBoss
}

// CharacterDef is the shared definition a Combatant is built from.
type CharacterDef struct {
	ID       string             `yaml:"id"`
	Name     string             `yaml:"name"`
	Tier     Tier               `yaml:"tier,omitempty"`
	Level    int                `yaml:"level,omitempty"`
	Base     stats.StatBlock    `yaml:"base"`
	Growth   stats.StatBlock    `yaml:"growth,omitempty"`
	Formulas stats.FormulaBlock `yaml:"formulas,omitempty"`
	// MainHand and OffHand are natural weapons used while the slot is empty.
	MainHand *WeaponPayload `yaml:"main_hand,omitempty"`
	OffHand  *WeaponPayload `yaml:"off_hand,omitempty"`
	Armor    float64        `yaml:"armor,omitempty"`
}

// Clone returns a deep copy so encounter mutations never reach the catalog.
func (d CharacterDef) Clone() CharacterDef {
	out := d
	if d.MainHand != nil {
		w := *d.MainHand
		out.MainHand = &w
	}
	if d.OffHand != nil {
		w := *d.OffHand
		out.OffHand = &w
	}
	return out
}

// WeaponPayload carries weapon numbers plus the stat delta the weapon grants.
type WeaponPayload struct {
	Stats     stats.StatBlock `yaml:"stats,omitempty"`
	MinDamage float64         `yaml:"min_damage"`
	MaxDamage float64         `yaml:"max_damage"`
	Delay     float64         `yaml:"delay"`
}

// AverageDamage is the midpoint of the damage range.
func (w WeaponPayload) AverageDamage() float64 {
	return (w.MinDamage + w.MaxDamage) / 2
}

// ArmorPayload carries an armor value plus the stat delta the piece grants.
type ArmorPayload struct {
	Stats stats.StatBlock `yaml:"stats,omitempty"`
	Armor float64         `yaml:"armor"`
}

// AugmentPayload is the bonus a socketed augment grants.
type AugmentPayload struct {
	Stats stats.StatBlock `yaml:"stats"`
}

// ConsumableEffect describes what using a consumable does.
type ConsumableEffect struct {
	Type        string  `yaml:"type"` // "heal"
	HealPercent float64 `yaml:"heal_percent"`
}

// EffectHeal is the only consumable effect the engine resolves.
const EffectHeal = "heal"

// ItemDef is the stateless definition shared by every owned instance.
type ItemDef struct {
	ID              string            `yaml:"id"`
	Name            string            `yaml:"name"`
	Type            ItemType          `yaml:"type"`
	Slot            Slot              `yaml:"slot,omitempty"`
	Weapon          *WeaponPayload    `yaml:"weapon,omitempty"`
	Armor           *ArmorPayload     `yaml:"armor,omitempty"`
	Augment         *AugmentPayload   `yaml:"augment,omitempty"`
	Consumable      *ConsumableEffect `yaml:"consumable,omitempty"`
	Sockets         int               `yaml:"sockets,omitempty"`
	MaxUpgradeLevel int               `yaml:"max_upgrade_level,omitempty"`
	UpgradeCosts    []map[string]int  `yaml:"upgrade_costs,omitempty"`
}

// MaterialDrop is a loot-table entry for a raw material.
type MaterialDrop struct {
	ID     string  `yaml:"id"`
	Chance float64 `yaml:"chance"`
	Min    int     `yaml:"min"`
	Max    int     `yaml:"max"`
}

// EquipmentDrop is a loot-table entry for an equipment item.
type EquipmentDrop struct {
	ItemID        string             `yaml:"item"`
	Chance        float64            `yaml:"chance"`
	Min           int                `yaml:"min,omitempty"`
	Max           int                `yaml:"max,omitempty"`
	RarityWeights map[Rarity]float64 `yaml:"rarity_weights,omitempty"`
}

// AugmentDrop is a loot-table entry for an augment.
type AugmentDrop struct {
	ID     string  `yaml:"id"`
	Chance float64 `yaml:"chance"`
	Min    int     `yaml:"min,omitempty"`
	Max    int     `yaml:"max,omitempty"`
}

// LootTable configures the rewards rolled for a victory.
type LootTable struct {
	ID        string          `yaml:"id"`
	XP        int             `yaml:"xp"`
	GoldMin   int             `yaml:"gold_min"`
	GoldMax   int             `yaml:"gold_max"`
	Materials []MaterialDrop  `yaml:"materials,omitempty"`
	Equipment []EquipmentDrop `yaml:"equipment,omitempty"`
	Augments  []AugmentDrop   `yaml:"augments,omitempty"`
}

// TierCount asks for Count enemies drawn from Tier.
type TierCount struct {
	Tier  Tier `yaml:"tier"`
	Count int  `yaml:"count"`
}

// Composition is the enemy makeup of one wave.
type Composition []TierCount

// Size is the total number of enemies the composition asks for.
func (c Composition) Size() int {
	n := 0
	for _, tc := range c {
		n += tc.Count
	}
	return n
}

// Stage is an ordered run of waves sharing a loot table.
type Stage struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Waves        int               `yaml:"waves"`
	Compositions []Composition     `yaml:"compositions"`
	Boss         Composition       `yaml:"boss,omitempty"`
	LootTable    string            `yaml:"loot_table"`
	Enemies      map[Tier][]string `yaml:"enemies"`
}

// HasBoss reports whether the final wave uses a distinguished composition.
func (s Stage) HasBoss() bool {
	return len(s.Boss) > 0
}

// IsBossWave reports whether the wave at the 0-based index is the boss wave.
func (s Stage) IsBossWave(waveIndex int) bool {
	return s.HasBoss() && waveIndex == s.Waves-1
}

// CompositionFor resolves the composition served at the 0-based wave index.
func (s Stage) CompositionFor(waveIndex int) Composition {
	if s.IsBossWave(waveIndex) {
		return s.Boss
	}
	if len(s.Compositions) == 0 {
		return nil
	}
	i := waveIndex % len(s.Compositions)
	if i < 0 {
		i += len(s.Compositions)
	}
	return s.Compositions[i]
}

// RecipeType selects what a recipe produces.
type RecipeType string

const (
	RecipeEquipment  RecipeType = "equipment"
	RecipeConsumable RecipeType = "consumable"
	RecipeMaterial   RecipeType = "material"
)

// Recipe turns materials into equipment, consumables or refined materials.
type Recipe struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Type     RecipeType     `yaml:"type"`
	Result   string         `yaml:"result"`
	Quantity int            `yaml:"quantity,omitempty"`
	Rarity   Rarity         `yaml:"rarity,omitempty"`
	Cost     map[string]int `yaml:"cost"`
}

// ResultQuantity is the number of units one craft produces (at least one).
func (r Recipe) ResultQuantity() int {
	if r.Quantity < 1 {
		return 1
	}
	return r.Quantity
}
