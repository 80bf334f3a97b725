package character

import (
	"testing"

	"github.com/tatianab/idle-arena/internal/combat"
	"github.com/tatianab/idle-arena/internal/models"
	"github.com/tatianab/idle-arena/internal/stats"
)

func warriorDef() models.CharacterDef {
	return models.CharacterDef{
		ID:     "warrior",
		Name:   "Warrior",
		Base:   stats.StatBlock{Strength: 12, Agility: 8, Dexterity: 8, Stamina: 12, Defense: 4},
		Growth: stats.StatBlock{Strength: 2, Stamina: 2},
	}
}

func sword(id string) models.EquipmentStats {
	return models.EquipmentStats{
		InstanceID: id,
		ItemID:     "iron_sword",
		Slot:       models.SlotMainHand,
		Stats:      stats.StatBlock{Strength: 3, Dexterity: 1},
		Weapon:     &models.WeaponPayload{MinDamage: 4, MaxDamage: 8, Delay: 2.4},
	}
}

func dagger() models.EquipmentStats {
	return models.EquipmentStats{
		InstanceID: "dagger-1",
		ItemID:     "dagger",
		Slot:       models.SlotOffHand,
		Weapon:     &models.WeaponPayload{MinDamage: 2, MaxDamage: 4, Delay: 1.6},
	}
}

func TestNewFillsVitalsAndUsesDefaultFormulas(t *testing.T) {
	c := New(warriorDef())
	if c.Level() != 1 {
		t.Fatalf("expected level 1, got %d", c.Level())
	}
	if c.Health() != c.MaxHealth() || c.MaxHealth() != 170 {
		t.Fatalf("expected full 170 health, got %.1f/%.1f", c.Health(), c.MaxHealth())
	}
	if !c.Alive() {
		t.Fatal("expected living character")
	}
}

func TestEquipUnequipRestoresDerivedExactly(t *testing.T) {
	c := New(warriorDef())
	before := c.Derived()

	displaced, err := c.Equip(sword("sword-1"))
	if err != nil || displaced != nil {
		t.Fatalf("unexpected equip result %v %v", displaced, err)
	}
	during := c.Derived()
	if during.AttackPower <= before.AttackPower {
		t.Fatalf("expected attack power to rise, %.2f -> %.2f", before.AttackPower, during.AttackPower)
	}

	removed := c.Unequip(models.SlotMainHand)
	if removed == nil || removed.InstanceID != "sword-1" {
		t.Fatalf("expected sword back, got %+v", removed)
	}
	if after := c.Derived(); after != before {
		t.Fatalf("derived stats not restored:\nbefore %+v\nafter  %+v", before, after)
	}
	if c.Unequip(models.SlotMainHand) != nil {
		t.Fatal("expected empty slot on second unequip")
	}
}

func TestEquipReplacesOccupant(t *testing.T) {
	c := New(warriorDef())
	if _, err := c.Equip(sword("sword-1")); err != nil {
		t.Fatalf("equip: %v", err)
	}
	displaced, err := c.Equip(sword("sword-2"))
	if err != nil {
		t.Fatalf("equip: %v", err)
	}
	if displaced == nil || displaced.InstanceID != "sword-1" {
		t.Fatalf("expected sword-1 displaced, got %+v", displaced)
	}
	if got := c.EquipmentBonus().Strength; got != 3 {
		t.Fatalf("expected single sword bonus, got strength %d", got)
	}
	if slots := c.EquippedSlots(); len(slots) != 1 || slots[0] != models.SlotMainHand {
		t.Fatalf("unexpected slots %v", slots)
	}
	if _, err := c.Equip(models.EquipmentStats{Slot: "tail"}); err == nil {
		t.Fatal("expected unknown slot error")
	}
}

func TestHandsFollowOffHandWeapon(t *testing.T) {
	c := New(warriorDef())
	if hands := c.Hands(); len(hands) != 1 || hands[0] != combat.HandMain {
		t.Fatalf("expected main hand only, got %v", hands)
	}
	if _, err := c.Equip(dagger()); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if hands := c.Hands(); len(hands) != 2 || hands[1] != combat.HandOff {
		t.Fatalf("expected both hands, got %v", hands)
	}
	// 1.6 - 8*0.01
	if got := c.AttackDelay(combat.HandOff); mathAbsDiff(got, 1.52) > 1e-9 {
		t.Fatalf("expected off-hand delay 1.52, got %.4f", got)
	}
	shield := models.EquipmentStats{InstanceID: "shield", Slot: models.SlotOffHand, Armor: 10}
	if _, err := c.Equip(shield); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if len(c.Hands()) != 1 {
		t.Fatal("expected shield to remove off-hand attacks")
	}
}

func TestNaturalOffHandForEnemies(t *testing.T) {
	def := models.CharacterDef{
		ID:       "twin_blade",
		Name:     "Twin Blade",
		Base:     stats.StatBlock{Strength: 6},
		MainHand: &models.WeaponPayload{MinDamage: 2, MaxDamage: 2, Delay: 2},
		OffHand:  &models.WeaponPayload{MinDamage: 1, MaxDamage: 1, Delay: 2},
	}
	c := New(def)
	if len(c.Hands()) != 2 {
		t.Fatalf("expected natural dual wield, got %v", c.Hands())
	}
	if got := c.AttackPower(combat.HandOff); got != 7 {
		t.Fatalf("expected off-hand attack power 7, got %.2f", got)
	}
	def.MainHand.MinDamage = 100
	if c.AttackPower(combat.HandMain) != 8 {
		t.Fatal("character shares definition weapon pointer")
	}
}

func TestDamageAndHeal(t *testing.T) {
	c := New(warriorDef())
	if got := c.ApplyDamage(70); got != 100 {
		t.Fatalf("expected 100 health, got %.1f", got)
	}
	if got := c.Heal(500); got != 70 {
		t.Fatalf("expected to heal 70, got %.1f", got)
	}
	if got := c.ApplyDamage(1000); got != 0 || c.Alive() {
		t.Fatalf("expected dead at zero, got %.1f", got)
	}
	if c.Heal(10) != 0 {
		t.Fatal("expected no healing while dead")
	}
	c.RestoreVitals()
	if !c.Alive() {
		t.Fatal("expected restore to revive")
	}
}

func TestGainExperienceLevelsUp(t *testing.T) {
	c := New(warriorDef())
	c.ApplyDamage(50)
	if ups := c.GainExperience(99); ups != 0 {
		t.Fatalf("expected no level-up, got %d", ups)
	}
	if ups := c.GainExperience(250); ups != 2 {
		t.Fatalf("expected two level-ups, got %d", ups)
	}
	if c.Level() != 3 || c.Experience() != 49 {
		t.Fatalf("expected level 3 with 49 xp, got %d/%d", c.Level(), c.Experience())
	}
	if c.Base().Strength != 16 {
		t.Fatalf("expected growth applied twice, strength %d", c.Base().Strength)
	}
	if c.Health() != c.MaxHealth() {
		t.Fatal("expected level-up to refill health")
	}
}

func TestProgressRoundTrip(t *testing.T) {
	c := New(warriorDef())
	c.GainExperience(130)
	c.ApplyDamage(40)
	snap := c.Progress()

	rebuilt := New(warriorDef())
	rebuilt.ApplyProgress(snap)
	if rebuilt.Level() != 2 || rebuilt.Experience() != 30 || rebuilt.Health() != snap.Health {
		t.Fatalf("unexpected restored progress %+v", rebuilt.Progress())
	}

	rebuilt.ApplyProgress(models.HeroProgress{Level: 2})
	if rebuilt.Health() != rebuilt.MaxHealth() {
		t.Fatal("expected zero saved health to restore full vitals")
	}
}

func TestBuffsStackAndClear(t *testing.T) {
	c := New(warriorDef())
	before := c.Totals()
	c.ApplyBuff("rage", stats.StatBlock{Strength: 5})
	c.ApplyBuff("haste", stats.StatBlock{Agility: 4})
	c.ApplyBuff("rage", stats.StatBlock{Strength: 6})
	if got := c.Totals().Strength; got != before.Strength+6 {
		t.Fatalf("expected replaced rage buff, strength %d", got)
	}
	if ids := c.Buffs(); len(ids) != 2 || ids[0] != "haste" {
		t.Fatalf("unexpected buffs %v", ids)
	}
	c.RemoveBuff("haste")
	c.ClearBuffs()
	if c.Totals() != before {
		t.Fatalf("expected buffs cleared, got %+v", c.Totals())
	}
}

func TestPreviewBuffLeavesCharacterUnchanged(t *testing.T) {
	c := New(warriorDef())
	c.ApplyBuff("rage", stats.StatBlock{Strength: 2})
	before := c.Derived()
	totals := c.Totals()
	health := c.Health()

	got := c.PreviewBuff("rage", stats.StatBlock{Stamina: -5})
	if got.MaxHealth >= before.MaxHealth {
		t.Fatalf("preview should lower max health: %v vs %v", got.MaxHealth, before.MaxHealth)
	}
	if c.Derived() != before || c.Totals() != totals || c.Health() != health {
		t.Fatalf("preview mutated the character: %+v health %v", c.Derived(), c.Health())
	}
	if ids := c.Buffs(); len(ids) != 1 || ids[0] != "rage" {
		t.Fatalf("existing buff not restored: %v", ids)
	}
}

func mathAbsDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
