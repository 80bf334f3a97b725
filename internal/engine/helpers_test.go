package engine

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/tatianab/idle-arena/internal/catalog"
	"github.com/tatianab/idle-arena/internal/combat"
	"github.com/tatianab/idle-arena/internal/encounter"
	"github.com/tatianab/idle-arena/internal/events"
	"github.com/tatianab/idle-arena/internal/models"
)

const testData = `
heroes:
  - id: hero
    name: Hero
    base: {strength: 10, stamina: 5}
    growth: {strength: 1}
    main_hand: {min_damage: 2, max_damage: 4, delay: 1.0}
  - id: backup
    name: Backup
    base: {strength: 4, stamina: 5}
    main_hand: {min_damage: 1, max_damage: 1, delay: 1.0}
enemies:
  - id: rat
    name: Rat
    tier: small
    base: {stamina: 1}
    main_hand: {min_damage: 1, max_damage: 1, delay: 1.5}
  - id: king
    name: King
    tier: boss
    base: {stamina: 3}
    main_hand: {min_damage: 1, max_damage: 1, delay: 1.5}
items:
  - id: sword
    name: Sword
    type: weapon
    slot: main_hand
    sockets: 1
    weapon: {min_damage: 10, max_damage: 20, delay: 1.0, stats: {strength: 5}}
    upgrade_costs:
      - {iron_ore: 2}
  - id: dagger
    name: Dagger
    type: weapon
    slot: off_hand
    weapon: {min_damage: 1, max_damage: 2, delay: 0.8}
  - id: cap
    name: Cap
    type: armor
    slot: head
    max_upgrade_level: 1
    armor: {armor: 4, stats: {agility: 2}}
  - id: healing_potion
    name: Healing Potion
    type: consumable
    consumable: {type: heal, heal_percent: 0.5}
  - id: greater_healing_potion
    name: Greater Healing Potion
    type: consumable
    consumable: {type: heal, heal_percent: 1}
  - id: ruby
    name: Ruby
    type: augment
    augment: {stats: {strength: 3}}
  - {id: iron_ore, name: Iron Ore, type: material}
  - {id: herb, name: Herb, type: material}
  - {id: essence, name: Essence, type: material}
loot_tables:
  - id: basic
    xp: 50
    gold_min: 2
    gold_max: 2
    materials:
      - {id: iron_ore, chance: 1, min: 1, max: 1}
  - id: rich
    xp: 0
    gold_min: 100
    gold_max: 100
stages:
  - id: first
    name: First
    waves: 3
    loot_table: basic
    compositions:
      - [{tier: small, count: 1}]
    boss: [{tier: boss, count: 1}]
    enemies:
      small: [rat]
      boss: [king]
  - id: last
    name: Last
    waves: 2
    loot_table: basic
    compositions:
      - [{tier: small, count: 2}]
    enemies:
      small: [rat]
recipes:
  - {id: forge_sword, name: Forge Sword, type: equipment, result: sword, cost: {iron_ore: 3}}
  - {id: brew, name: Brew, type: consumable, result: healing_potion, quantity: 2, cost: {herb: 1}}
  - {id: refine, name: Refine, type: material, result: essence, quantity: 3, cost: {iron_ore: 1}}
`

// fight decides every swing: the hero's side lands a lethal blow when
// heroWins is set, the enemy's otherwise. The losing side always misses, and
// with stall set nobody lands anything.
type fight struct {
	heroWins bool
	stall    bool
}

func (f *fight) resolve(_ combat.Rand, attacker, defender combat.Fighter, hand combat.Hand) combat.Outcome {
	out := combat.Outcome{Hand: hand, Attacker: attacker.Name(), Defender: defender.Name(), Result: combat.ResultMiss}
	if (attacker.Name() == "Hero") == f.heroWins && !f.stall {
		out.Result = combat.ResultHit
		out.Damage = 1e6
	}
	return out
}

type memStore struct {
	state   *models.SavedState
	saves   int
	cleared bool
	loadErr error
}

func (m *memStore) Load(context.Context) (*models.SavedState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.state == nil {
		return nil, nil
	}
	s := *m.state
	return &s, nil
}

func (m *memStore) Save(_ context.Context, s *models.SavedState) error {
	c := *s
	m.state = &c
	m.saves++
	return nil
}

func (m *memStore) Clear(context.Context) error {
	m.state = nil
	m.cleared = true
	return nil
}

type harness struct {
	e     *Engine
	fight *fight
	rec   *events.Recorder
	store *memStore
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(fstest.MapFS{"data.yaml": {Data: []byte(testData)}})
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{fight: &fight{heroWins: true}, rec: &events.Recorder{}, store: &memStore{}}
	base := []Option{
		WithRand(combat.NewRand(7)),
		WithResolver(h.fight.resolve),
		WithPublisher(h.rec),
		WithStore(h.store),
	}
	e, err := New(testCatalog(t), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.e = e
	return h
}

// finish advances until the current encounter ends and returns the summary.
func (h *harness) finish(t *testing.T) events.EncounterSummary {
	t.Helper()
	if !h.e.Running() {
		if err := h.e.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}
	for i := 0; i < 100; i++ {
		for _, ev := range h.e.Advance(0.25) {
			if sum, ok := ev.(events.EncounterSummary); ok {
				return sum
			}
		}
	}
	t.Fatal("encounter did not finish")
	return events.EncounterSummary{}
}

func (h *harness) give(itemID string, rarity models.Rarity, level int) string {
	def, _ := h.e.cat.Item(itemID)
	item := models.OwnedEquipment{
		InstanceID:   newInstanceID(),
		ItemID:       itemID,
		Rarity:       rarity,
		UpgradeLevel: level,
		Sockets:      def.Sockets,
	}
	h.e.inventory = append(h.e.inventory, item)
	return item.InstanceID
}

var _ encounter.ResolveFunc = (&fight{}).resolve
