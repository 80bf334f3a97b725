package models

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const stageYAML = `
id: crypt
name: The Crypt
waves: 3
loot_table: crypt_loot
compositions:
  - [{tier: small, count: 2}]
  - [{tier: small, count: 1}, {tier: medium, count: 1}]
boss:
  - {tier: boss, count: 1}
enemies:
  small: [rat]
  medium: [ghoul]
  boss: [lich]
`

func TestStageBossOnlyOnFinalWave(t *testing.T) {
	var stage Stage
	if err := yaml.Unmarshal([]byte(stageYAML), &stage); err != nil {
		t.Fatalf("Failed to unmarshal stage: %v", err)
	}

	for wave := 0; wave < stage.Waves; wave++ {
		comp := stage.CompositionFor(wave)
		isBoss := len(comp) == 1 && comp[0].Tier == TierBoss
		if wave == 2 && !isBoss {
			t.Errorf("Expected boss composition on wave 2, got %+v", comp)
		}
		if wave != 2 && isBoss {
			t.Errorf("Unexpected boss composition on wave %d", wave)
		}
	}
	if got := stage.CompositionFor(1).Size(); got != 2 {
		t.Errorf("Expected wave 1 to hold 2 enemies, got %d", got)
	}
	if got := stage.CompositionFor(0); got[0].Tier != TierSmall || got[0].Count != 2 {
		t.Errorf("Expected wave 0 to be two small enemies, got %+v", got)
	}
}

func TestStageCompositionCyclesWithoutBoss(t *testing.T) {
	stage := Stage{
		Waves:        5,
		Compositions: []Composition{{{Tier: TierSmall, Count: 1}}, {{Tier: TierMedium, Count: 1}}},
	}
	want := []Tier{TierSmall, TierMedium, TierSmall, TierMedium, TierSmall}
	for wave, tier := range want {
		if got := stage.CompositionFor(wave)[0].Tier; got != tier {
			t.Errorf("wave %d: expected %s, got %s", wave, tier, got)
		}
	}
}

func TestRarityOrdering(t *testing.T) {
	for i := 1; i < len(Rarities); i++ {
		if Rarities[i].Rank() <= Rarities[i-1].Rank() {
			t.Fatalf("rarity %s should rank above %s", Rarities[i], Rarities[i-1])
		}
		if Rarities[i].Multiplier() <= Rarities[i-1].Multiplier() {
			t.Fatalf("rarity %s should multiply more than %s", Rarities[i], Rarities[i-1])
		}
	}
	if Rarity("mythic").Valid() {
		t.Fatal("unexpected valid rarity")
	}
}

func TestBuildEquipmentStatsScalesAndAddsAugments(t *testing.T) {
	def := ItemDef{
		ID:   "iron_sword",
		Type: ItemTypeWeapon,
		Slot: SlotMainHand,
		Weapon: &WeaponPayload{
			MinDamage: 4,
			MaxDamage: 8,
			Delay:     2,
		},
		Sockets: 1,
	}
	def.Weapon.Stats.Strength = 10
	ruby := ItemDef{ID: "ruby", Type: ItemTypeAugment, Augment: &AugmentPayload{}}
	ruby.Augment.Stats.Strength = 3
	lookup := func(id string) (ItemDef, bool) {
		if id == ruby.ID {
			return ruby, true
		}
		return ItemDef{}, false
	}

	item := OwnedEquipment{InstanceID: "a", ItemID: def.ID, Rarity: RarityLegendary, UpgradeLevel: 5, Sockets: 1, Augments: []string{"ruby"}}
	got, err := BuildEquipmentStats(def, item, lookup)
	if err != nil {
		t.Fatalf("BuildEquipmentStats: %v", err)
	}
	// 2.0 * 1.5 = 3.0
	if got.Stats.Strength != 33 {
		t.Errorf("Expected strength 33, got %d", got.Stats.Strength)
	}
	if got.Weapon == nil || got.Weapon.MinDamage != 12 || got.Weapon.MaxDamage != 24 || got.Weapon.Delay != 2 {
		t.Errorf("Unexpected weapon payload %+v", got.Weapon)
	}
	if def.Weapon.MinDamage != 4 {
		t.Errorf("Definition was mutated: %+v", def.Weapon)
	}

	item.Augments = []string{"missing"}
	if _, err := BuildEquipmentStats(def, item, lookup); err == nil {
		t.Error("Expected error for unknown augment")
	}
	if _, err := BuildEquipmentStats(ruby, OwnedEquipment{}, lookup); err == nil {
		t.Error("Expected error for slotless item")
	}
}

func TestUpgradeCostFallsBackToEssence(t *testing.T) {
	def := ItemDef{UpgradeCosts: []map[string]int{{"iron_ore": 2}}}
	if got := def.UpgradeCost(0); got["iron_ore"] != 2 || len(got) != 1 {
		t.Errorf("Expected table cost, got %v", got)
	}
	if got := def.UpgradeCost(2); got[EssenceMaterial] != 15 || len(got) != 1 {
		t.Errorf("Expected essence cost 15, got %v", got)
	}
	if def.MaxUpgrade() != DefaultMaxUpgradeLevel {
		t.Errorf("Expected default max upgrade, got %d", def.MaxUpgrade())
	}
}

func TestSalvageYield(t *testing.T) {
	id, qty := SalvageYield(OwnedEquipment{Rarity: RarityRare, UpgradeLevel: 2})
	if id != EssenceMaterial || qty != 6 {
		t.Errorf("Expected 6 essence, got %d %s", qty, id)
	}
}

func TestRewardsMerge(t *testing.T) {
	total := Rewards{}
	total.Merge(Rewards{XP: 10, Gold: 5, Materials: map[string]int{"bone": 1}, Equipment: []EquipmentGrant{{ItemID: "cap", Rarity: RarityCommon, Quantity: 1}}})
	total.Merge(Rewards{XP: 5, Materials: map[string]int{"bone": 2}, Equipment: []EquipmentGrant{{ItemID: "cap", Rarity: RarityCommon, Quantity: 1}, {ItemID: "cap", Rarity: RarityRare, Quantity: 1}}, Augments: []AugmentGrant{{ID: "ruby", Quantity: 1}}})

	if total.XP != 15 || total.Gold != 5 || total.Materials["bone"] != 3 {
		t.Fatalf("Unexpected totals %+v", total)
	}
	if len(total.Equipment) != 2 || total.Equipment[0].Quantity != 2 {
		t.Fatalf("Unexpected equipment grants %+v", total.Equipment)
	}
	if got := total.EquipmentUnits(); got != 3 {
		t.Fatalf("EquipmentUnits = %d, want 3", got)
	}
	clone := total.Clone()
	clone.Materials["bone"] = 99
	if total.Materials["bone"] != 3 {
		t.Fatal("Clone shares material map")
	}
}

func TestSavedStateValidate(t *testing.T) {
	valid := func() *SavedState {
		return &SavedState{
			Version:  SchemaVersion,
			HeroID:   "warrior",
			Progress: HeroProgress{Level: 1},
			Equipped: map[Slot]OwnedEquipment{SlotMainHand: {InstanceID: "a", ItemID: "sword"}},
			Inventory: []OwnedEquipment{
				{InstanceID: "b", ItemID: "cap", Sockets: 1, Augments: []string{"ruby"}},
			},
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("Expected valid state, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*SavedState)
		want   string
	}{
		{"old version", func(s *SavedState) { s.Version = 1 }, "version"},
		{"no hero", func(s *SavedState) { s.HeroID = "" }, "no hero"},
		{"duplicate instance", func(s *SavedState) { s.Inventory[0].InstanceID = "a" }, "twice"},
		{"overfull sockets", func(s *SavedState) { s.Inventory[0].Sockets = 0 }, "sockets"},
		{"bad slot", func(s *SavedState) { s.Equipped["tail"] = OwnedEquipment{InstanceID: "c", ItemID: "x"} }, "slot"},
		{"negative material", func(s *SavedState) { s.Materials = map[string]int{"bone": -1} }, "material"},
	}
	for _, tc := range tests {
		s := valid()
		tc.mutate(s)
		err := s.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}
