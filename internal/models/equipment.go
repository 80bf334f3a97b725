package models

import (
	"fmt"

	"github.com/tatianab/idle-arena/internal/stats"
)

const (
	// UpgradeScalePerLevel is the stat bonus each upgrade level adds.
	UpgradeScalePerLevel = 0.10
	// DefaultMaxUpgradeLevel applies when a definition sets no cap.
	DefaultMaxUpgradeLevel = 5
	// EssenceMaterial is the generic upgrade and salvage material.
	EssenceMaterial     = "essence"
	essenceCostPerLevel = 5
)

var salvageBase = map[Rarity]int{
	RarityCommon:    1,
	RarityUncommon:  2,
	RarityRare:      4,
	RarityEpic:      8,
	RarityLegendary: 16,
}

// OwnedEquipment is one concrete item instance in the player's possession.
type OwnedEquipment struct {
	InstanceID   string   `yaml:"instance_id"`
	ItemID       string   `yaml:"item_id"`
	Rarity       Rarity   `yaml:"rarity"`
	UpgradeLevel int      `yaml:"upgrade_level"`
	Sockets      int      `yaml:"sockets"`
	Augments     []string `yaml:"augments,omitempty"`
}

// Clone copies the augment list so the copy can be mutated independently.
func (o OwnedEquipment) Clone() OwnedEquipment {
	out := o
	if o.Augments != nil {
		out.Augments = append([]string(nil), o.Augments...)
	}
	return out
}

// OpenSockets is the number of unused socket slots.
func (o OwnedEquipment) OpenSockets() int {
	n := o.Sockets - len(o.Augments)
	if n < 0 {
		return 0
	}
	return n
}

// MaxUpgrade returns the upgrade cap for d.
func (d ItemDef) MaxUpgrade() int {
	if d.MaxUpgradeLevel > 0 {
		return d.MaxUpgradeLevel
	}
	return DefaultMaxUpgradeLevel
}

// Equippable reports whether the definition declares a slot.
func (d ItemDef) Equippable() bool {
	return d.Slot != "" && (d.Type == ItemTypeWeapon || d.Type == ItemTypeArmor)
}

// UpgradeCost returns the materials needed to go from level to level+1. A
// missing row falls back to the generic essence cost.
func (d ItemDef) UpgradeCost(level int) map[string]int {
	if level >= 0 && level < len(d.UpgradeCosts) && len(d.UpgradeCosts[level]) > 0 {
		out := make(map[string]int, len(d.UpgradeCosts[level]))
		for k, v := range d.UpgradeCosts[level] {
			out[k] = v
		}
		return out
	}
	return map[string]int{EssenceMaterial: essenceCostPerLevel * (level + 1)}
}

// SalvageYield returns the material and quantity granted for salvaging o.
func SalvageYield(o OwnedEquipment) (string, int) {
	base, ok := salvageBase[o.Rarity]
	if !ok {
		base = salvageBase[RarityCommon]
	}
	return EssenceMaterial, base + o.UpgradeLevel
}

// EquipmentMultiplier combines the rarity multiplier with the upgrade bonus.
func EquipmentMultiplier(r Rarity, upgradeLevel int) float64 {
	return r.Multiplier() * (1 + float64(upgradeLevel)*UpgradeScalePerLevel)
}

// EquipmentStats is the combat payload an equipped instance contributes.
type EquipmentStats struct {
	InstanceID string
	ItemID     string
	Slot       Slot
	Stats      stats.StatBlock
	Weapon     *WeaponPayload
	Armor      float64
}

// AugmentLookup resolves augment definitions by id.
type AugmentLookup func(id string) (ItemDef, bool)

// BuildEquipmentStats scales the definition's payload for the instance's rarity
// and upgrade level, then adds socketed augment bonuses unscaled.
func BuildEquipmentStats(def ItemDef, item OwnedEquipment, augments AugmentLookup) (EquipmentStats, error) {
	if !def.Equippable() {
		return EquipmentStats{}, fmt.Errorf("item %q has no equipment slot", def.ID)
	}
	mult := EquipmentMultiplier(item.Rarity, item.UpgradeLevel)
	out := EquipmentStats{
		InstanceID: item.InstanceID,
		ItemID:     def.ID,
		Slot:       def.Slot,
	}
	if def.Weapon != nil {
		out.Stats.Merge(def.Weapon.Stats.Scaled(mult))
		out.Weapon = &WeaponPayload{
			MinDamage: def.Weapon.MinDamage * mult,
			MaxDamage: def.Weapon.MaxDamage * mult,
			Delay:     def.Weapon.Delay,
		}
	}
	if def.Armor != nil {
		out.Stats.Merge(def.Armor.Stats.Scaled(mult))
		out.Armor = def.Armor.Armor * mult
	}
	for _, id := range item.Augments {
		if augments == nil {
			break
		}
		aug, ok := augments(id)
		if !ok || aug.Augment == nil {
			return EquipmentStats{}, fmt.Errorf("augment %q not found", id)
		}
		out.Stats.Merge(aug.Augment.Stats)
	}
	return out, nil
}
