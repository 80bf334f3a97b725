// Package character implements combatants: stat aggregation, vitals,
// equipment slots and leveling.
package character

import (
	"fmt"
	"sort"

	"github.com/tatianab/idle-arena/internal/combat"
	"github.com/tatianab/idle-arena/internal/models"
	"github.com/tatianab/idle-arena/internal/stats"
)

// ExperienceForLevel is the experience needed to leave the given level.
func ExperienceForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return 100 * level
}

// Character is a hero or enemy participating in encounters.
type Character struct {
	def      models.CharacterDef
	formulas stats.FormulaBlock

	base       stats.StatBlock
	equipBonus stats.StatBlock
	buffBonus  stats.StatBlock
	buffs      map[string]stats.StatBlock
	equipment  map[models.Slot]models.EquipmentStats

	health     float64
	mana       float64
	level      int
	experience int
}

// New builds a combatant from a copy of def with full vitals.
func New(def models.CharacterDef) *Character {
	def = def.Clone()
	formulas := def.Formulas
	if formulas.IsZero() {
		formulas = stats.DefaultFormulas()
	}
	level := def.Level
	if level < 1 {
		level = 1
	}
	c := &Character{
		def:       def,
		formulas:  formulas,
		buffs:     make(map[string]stats.StatBlock),
		equipment: make(map[models.Slot]models.EquipmentStats),
	}
	c.setLevel(level)
	c.RestoreVitals()
	return c
}

func (c *Character) setLevel(level int) {
	c.level = level
	c.base = c.def.Base
	for i := 1; i < level; i++ {
		c.base.Merge(c.def.Growth)
	}
}

// Name implements combat.Fighter.
func (c *Character) Name() string { return c.def.Name }

// ID is the definition id.
func (c *Character) ID() string { return c.def.ID }

// Definition returns a copy of the definition the character was built from.
func (c *Character) Definition() models.CharacterDef { return c.def.Clone() }

// Level is the current level.
func (c *Character) Level() int { return c.level }

// Experience is the experience accumulated toward the next level.
func (c *Character) Experience() int { return c.experience }

// Health is the current hit points.
func (c *Character) Health() float64 { return c.health }

// Mana is the current mana.
func (c *Character) Mana() float64 { return c.mana }

// Alive reports whether health is above zero.
func (c *Character) Alive() bool { return c.health > 0 }

// Totals sums base, equipment and buff attributes.
func (c *Character) Totals() stats.StatBlock {
	return c.base.Plus(c.equipBonus, c.buffBonus)
}

// Base returns the level-adjusted base attributes.
func (c *Character) Base() stats.StatBlock { return c.base }

// EquipmentBonus returns the attributes granted by equipped items.
func (c *Character) EquipmentBonus() stats.StatBlock { return c.equipBonus }

// BuffBonus returns the attributes granted by active buffs.
func (c *Character) BuffBonus() stats.StatBlock { return c.buffBonus }

func (c *Character) mainWeapon() *models.WeaponPayload {
	if eq, ok := c.equipment[models.SlotMainHand]; ok && eq.Weapon != nil {
		return eq.Weapon
	}
	return c.def.MainHand
}

func (c *Character) offWeapon() *models.WeaponPayload {
	if eq, ok := c.equipment[models.SlotOffHand]; ok && eq.Weapon != nil {
		return eq.Weapon
	}
	if _, occupied := c.equipment[models.SlotOffHand]; occupied {
		return nil
	}
	return c.def.OffHand
}

// Derived computes every combat number on demand.
func (c *Character) Derived() stats.Derived {
	in := stats.Inputs{
		Total:      c.Totals(),
		BonusArmor: c.def.Armor,
	}
	for _, slot := range models.Slots {
		if eq, ok := c.equipment[slot]; ok {
			in.BonusArmor += eq.Armor
		}
	}
	if w := c.mainWeapon(); w != nil {
		in.MainHand = stats.WeaponInput{AverageDamage: w.AverageDamage(), Delay: w.Delay}
	}
	if w := c.offWeapon(); w != nil {
		in.OffHand = &stats.WeaponInput{AverageDamage: w.AverageDamage(), Delay: w.Delay}
	}
	return stats.Compute(c.formulas, in)
}

// AttackPower implements combat.Fighter.
func (c *Character) AttackPower(h combat.Hand) float64 {
	d := c.Derived()
	if h == combat.HandOff {
		return d.OffHandAttackPower
	}
	return d.AttackPower
}

// Accuracy implements combat.Fighter.
func (c *Character) Accuracy() float64 { return c.Derived().Accuracy }

// Evasion implements combat.Fighter.
func (c *Character) Evasion() float64 { return c.Derived().Evasion }

// Armor implements combat.Fighter.
func (c *Character) Armor() float64 { return c.Derived().Armor }

// CritChance implements combat.Fighter.
func (c *Character) CritChance() float64 { return c.Derived().CritChance }

// DodgeChance implements combat.Fighter.
func (c *Character) DodgeChance() float64 { return c.Derived().DodgeChance }

// ParryChance implements combat.Fighter.
func (c *Character) ParryChance() float64 { return c.Derived().ParryChance }

// MaxHealth is the derived hit point cap.
func (c *Character) MaxHealth() float64 { return c.Derived().MaxHealth }

// MaxMana is the derived mana cap.
func (c *Character) MaxMana() float64 { return c.Derived().MaxMana }

// HealthRatio is current over maximum health in [0,1].
func (c *Character) HealthRatio() float64 {
	max := c.MaxHealth()
	if max <= 0 {
		return 0
	}
	return c.health / max
}

// Hands lists the attack channels: main always, off only with an off-hand weapon.
func (c *Character) Hands() []combat.Hand {
	if c.offWeapon() != nil {
		return []combat.Hand{combat.HandMain, combat.HandOff}
	}
	return []combat.Hand{combat.HandMain}
}

// AttackDelay returns seconds between swings for the hand.
func (c *Character) AttackDelay(h combat.Hand) float64 {
	d := c.Derived()
	if h == combat.HandOff && d.OffHandDelay > 0 {
		return d.OffHandDelay
	}
	return d.MainHandDelay
}

// ApplyDamage subtracts damage and returns the remaining health, floored at zero.
func (c *Character) ApplyDamage(amount float64) float64 {
	if amount > 0 {
		c.health -= amount
	}
	if c.health < 0 {
		c.health = 0
	}
	return c.health
}

// Heal restores up to amount health and returns how much was restored.
func (c *Character) Heal(amount float64) float64 {
	if amount <= 0 || !c.Alive() {
		return 0
	}
	max := c.MaxHealth()
	before := c.health
	c.health += amount
	if c.health > max {
		c.health = max
	}
	return c.health - before
}

// RestoreVitals refills health and mana.
func (c *Character) RestoreVitals() {
	d := c.Derived()
	c.health = d.MaxHealth
	c.mana = d.MaxMana
}

func (c *Character) clampVitals() {
	d := c.Derived()
	if c.health > d.MaxHealth {
		c.health = d.MaxHealth
	}
	if c.mana > d.MaxMana {
		c.mana = d.MaxMana
	}
}

// Equip places item into its slot and returns the displaced occupant, if any.
func (c *Character) Equip(item models.EquipmentStats) (*models.EquipmentStats, error) {
	if !item.Slot.Valid() {
		return nil, fmt.Errorf("unknown slot %q", item.Slot)
	}
	var displaced *models.EquipmentStats
	if prev, ok := c.equipment[item.Slot]; ok {
		displaced = &prev
	}
	c.equipment[item.Slot] = item
	c.recomputeEquipment()
	return displaced, nil
}

// Unequip empties the slot and returns its occupant, or nil if it was empty.
func (c *Character) Unequip(slot models.Slot) *models.EquipmentStats {
	prev, ok := c.equipment[slot]
	if !ok {
		return nil
	}
	delete(c.equipment, slot)
	c.recomputeEquipment()
	return &prev
}

// Equipped returns the occupant of slot.
func (c *Character) Equipped(slot models.Slot) (models.EquipmentStats, bool) {
	eq, ok := c.equipment[slot]
	return eq, ok
}

// EquippedSlots lists occupied slots in paperdoll order.
func (c *Character) EquippedSlots() []models.Slot {
	var out []models.Slot
	for _, s := range models.Slots {
		if _, ok := c.equipment[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (c *Character) recomputeEquipment() {
	c.equipBonus.Reset()
	for _, slot := range models.Slots {
		if eq, ok := c.equipment[slot]; ok {
			c.equipBonus.Merge(eq.Stats)
		}
	}
	c.clampVitals()
}

// ApplyBuff adds or replaces a named buff.
func (c *Character) ApplyBuff(id string, delta stats.StatBlock) {
	c.buffs[id] = delta
	c.recomputeBuffs()
}

// RemoveBuff drops a named buff.
func (c *Character) RemoveBuff(id string) {
	if _, ok := c.buffs[id]; !ok {
		return
	}
	delete(c.buffs, id)
	c.recomputeBuffs()
}

// ClearBuffs drops every buff.
func (c *Character) ClearBuffs() {
	c.buffs = make(map[string]stats.StatBlock)
	c.recomputeBuffs()
}

// PreviewBuff returns the derived stats with delta applied as a temporary
// buff. The buff is removed before returning and vitals are left untouched.
func (c *Character) PreviewBuff(id string, delta stats.StatBlock) stats.Derived {
	health, mana := c.health, c.mana
	prev, had := c.buffs[id]
	c.ApplyBuff(id, delta)
	out := c.Derived()
	if had {
		c.ApplyBuff(id, prev)
	} else {
		c.RemoveBuff(id)
	}
	c.health, c.mana = health, mana
	return out
}

// Buffs lists active buff ids in sorted order.
func (c *Character) Buffs() []string {
	ids := make([]string, 0, len(c.buffs))
	for id := range c.buffs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Character) recomputeBuffs() {
	c.buffBonus.Reset()
	for _, b := range c.buffs {
		c.buffBonus.Merge(b)
	}
	c.clampVitals()
}

// GainExperience adds xp and applies level-ups, returning how many occurred.
// Each level-up adds the growth block and refills vitals.
func (c *Character) GainExperience(xp int) int {
	if xp <= 0 {
		return 0
	}
	c.experience += xp
	ups := 0
	for c.experience >= ExperienceForLevel(c.level) {
		c.experience -= ExperienceForLevel(c.level)
		c.level++
		c.base.Merge(c.def.Growth)
		ups++
	}
	if ups > 0 {
		c.RestoreVitals()
	}
	return ups
}

// Progress snapshots the state that survives a rebuild.
func (c *Character) Progress() models.HeroProgress {
	return models.HeroProgress{
		Level:      c.level,
		Experience: c.experience,
		Health:     c.health,
		Mana:       c.mana,
	}
}

// ApplyProgress restores a snapshot. Vitals are clamped to the current caps;
// a non-positive saved health restores full vitals.
func (c *Character) ApplyProgress(p models.HeroProgress) {
	level := p.Level
	if level < 1 {
		level = 1
	}
	c.setLevel(level)
	c.experience = p.Experience
	if c.experience < 0 {
		c.experience = 0
	}
	if p.Health <= 0 {
		c.RestoreVitals()
		return
	}
	c.health = p.Health
	c.mana = p.Mana
	c.clampVitals()
}
