package catalog

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if ids := c.HeroIDs(); len(ids) == 0 || ids[0] != "warrior" {
		t.Fatalf("expected warrior first, got %v", ids)
	}
	for _, id := range []string{"healing_potion", "greater_healing_potion"} {
		it, ok := c.Item(id)
		if !ok || it.Consumable == nil || it.Consumable.Type != models.EffectHeal {
			t.Errorf("expected heal consumable %s, got %+v", id, it)
		}
	}
	if _, ok := c.Item(models.EssenceMaterial); !ok {
		t.Error("expected essence material")
	}
	if c.StageCount() < 2 {
		t.Fatalf("expected several stages, got %d", c.StageCount())
	}
	st, _ := c.Stage(0)
	if !st.HasBoss() || st.IsBossWave(0) || !st.IsBossWave(st.Waves-1) {
		t.Errorf("expected first stage to end on a boss wave: %+v", st)
	}
	if _, ok := c.Stage(c.StageCount()); ok {
		t.Error("expected out-of-range stage lookup to fail")
	}
	if _, ok := c.Augment("iron_ore"); ok {
		t.Error("materials must not resolve as augments")
	}
	if got := c.ItemName("unknown_thing"); got != "unknown_thing" {
		t.Errorf("expected id fallback, got %q", got)
	}
}

func TestLookupsReturnCopies(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	h, _ := c.Hero("warrior")
	h.Base.Strength = 999
	h.MainHand.MaxDamage = 999
	again, _ := c.Hero("warrior")
	if again.Base.Strength == 999 || again.MainHand.MaxDamage == 999 {
		t.Fatal("mutating a looked-up hero changed the catalog")
	}

	st, _ := c.Stage(0)
	st.Enemies[models.TierSmall][0] = "dragon"
	st.Compositions[0][0].Count = 99
	c.Stages()[0].Boss[0].Count = 42
	if st2, _ := c.Stage(0); st2.Enemies[models.TierSmall][0] == "dragon" || st2.Compositions[0][0].Count == 99 || st2.Boss[0].Count == 42 {
		t.Fatal("mutating a looked-up stage changed the catalog")
	}

	sword, _ := c.Item("iron_sword")
	sword.UpgradeCosts[0]["iron_ore"] = 999
	sword.Weapon.Delay = 99
	if again, _ := c.Item("iron_sword"); again.UpgradeCosts[0]["iron_ore"] == 999 || again.Weapon.Delay == 99 {
		t.Fatal("mutating a looked-up item changed the catalog")
	}

	lt, _ := c.LootTable("sewers")
	lt.Materials[0].Chance = 0
	lt.Equipment[0].RarityWeights[models.RarityLegendary] = 1000
	if again, _ := c.LootTable("sewers"); again.Materials[0].Chance == 0 || again.Equipment[0].RarityWeights[models.RarityLegendary] != 0 {
		t.Fatal("mutating a looked-up loot table changed the catalog")
	}

	r, _ := c.Recipe("smelt_iron")
	for k := range r.Cost {
		r.Cost[k] = 999
	}
	if again, _ := c.Recipe("smelt_iron"); again.Cost[firstKey(again.Cost)] == 999 {
		t.Fatal("mutating a looked-up recipe changed the catalog")
	}
}

func firstKey(m map[string]int) string {
	for k := range m {
		return k
	}
	return ""
}

const minimal = `
heroes:
  - id: hero
    name: Hero
    base: {strength: 5}
enemies:
  - id: rat
    name: Rat
    tier: small
items:
  - id: iron_ore
    name: Iron Ore
    type: material
loot_tables:
  - id: basic
    xp: 5
stages:
  - id: one
    name: One
    waves: 1
    loot_table: basic
    compositions:
      - [{tier: small, count: 1}]
    enemies:
      small: [rat]
`

func TestLoadRejectsBrokenReferences(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		wantErr string
		missing bool
	}{
		{
			name:    "recipe material",
			extra:   "recipes:\n  - {id: r, name: R, type: material, result: iron_ore, cost: {gold_dust: 1}}\n",
			wantErr: "gold_dust",
			missing: true,
		},
		{
			name:    "recipe result type",
			extra:   "recipes:\n  - {id: r, name: R, type: equipment, result: iron_ore, cost: {iron_ore: 1}}\n",
			wantErr: "cannot be equipped",
		},
		{
			name:    "boss-only stage with regular waves",
			extra:   "stages:\n  - {id: two, name: Two, waves: 3, loot_table: basic, boss: [{tier: small, count: 1}], enemies: {small: [rat]}}\n",
			wantErr: "no compositions for its regular waves",
		},
		{
			name:    "empty composition",
			extra:   "stages:\n  - {id: two, name: Two, waves: 2, loot_table: basic, compositions: [[{tier: small, count: 0}]], enemies: {small: [rat]}}\n",
			wantErr: "composition 0 has no enemies",
		},
		{
			name:    "stage without enemies",
			extra:   "stages:\n  - {id: two, name: Two, waves: 2, loot_table: basic, compositions: [[{tier: small, count: 1}]]}\n",
			wantErr: "no enemies listed",
		},
		{
			name:    "unknown tier",
			extra:   "stages:\n  - {id: two, name: Two, waves: 2, loot_table: basic, compositions: [[{tier: small, count: 1}]], enemies: {elite: [rat]}}\n",
			wantErr: "unknown tier",
		},
		{
			name:    "unknown field",
			extra:   "recipes:\n  - {id: r, name: R, type: material, result: iron_ore, colour: red}\n",
			wantErr: "colour",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				"base.yaml":  {Data: []byte(minimal)},
				"extra.yaml": {Data: []byte(tc.extra)},
			}
			_, err := Load(fsys)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
			if tc.missing && !errors.Is(err, gameerr.ErrConfigMissing) {
				t.Fatalf("expected config-missing code, got %v", err)
			}
		})
	}
}

func TestLoadAcceptsSingleWaveBossStage(t *testing.T) {
	fsys := fstest.MapFS{
		"base.yaml":  {Data: []byte(minimal)},
		"extra.yaml": {Data: []byte("stages:\n  - {id: two, name: Two, waves: 1, loot_table: basic, boss: [{tier: small, count: 1}], enemies: {small: [rat]}}\n")},
	}
	c, err := Load(fsys)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	st, ok := c.Stage(1)
	if !ok || !st.IsBossWave(0) || st.CompositionFor(0).Size() != 1 {
		t.Fatalf("unexpected stage %+v", st)
	}
}

func TestLoadMergesFilesAndRejectsDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte(minimal)},
		"b.yaml": {Data: []byte("recipes:\n  - {id: smelt, name: Smelt, type: material, result: iron_ore, quantity: 2, cost: {iron_ore: 1}}\n")},
	}
	c, err := Load(fsys)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r, ok := c.Recipe("smelt")
	if !ok || r.ResultQuantity() != 2 {
		t.Fatalf("expected merged recipe, got %+v", r)
	}
	if ids := c.RecipeIDs(); len(ids) != 1 || ids[0] != "smelt" {
		t.Fatalf("unexpected recipe ids %v", ids)
	}

	fsys["c.yaml"] = &fstest.MapFile{Data: []byte("heroes:\n  - {id: hero, name: Again}\n")}
	if _, err := Load(fsys); err == nil || !strings.Contains(err.Error(), "duplicate hero") {
		t.Fatalf("expected duplicate hero error, got %v", err)
	}
}

func TestLoadEmptyFS(t *testing.T) {
	_, err := Load(fstest.MapFS{})
	if gameerr.CodeOf(err) != gameerr.CodeConfigMissing {
		t.Fatalf("expected config-missing, got %v", err)
	}
}
