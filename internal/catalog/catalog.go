// Package catalog loads the static game data: heroes, enemies, items, loot
// tables, stages and recipes.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
)

//go:embed data/*.yaml
var embedded embed.FS

// document is the shape of one data file. Any section may be absent.
type document struct {
	Heroes     []models.CharacterDef `yaml:"heroes"`
	Enemies    []models.CharacterDef `yaml:"enemies"`
	Items      []models.ItemDef      `yaml:"items"`
	LootTables []models.LootTable    `yaml:"loot_tables"`
	Stages     []models.Stage        `yaml:"stages"`
	Recipes    []models.Recipe       `yaml:"recipes"`
}

// Catalog is an immutable, validated set of definitions. Lookups return deep
// copies so callers can't mutate shared data.
type Catalog struct {
	heroes     map[string]models.CharacterDef
	heroOrder  []string
	enemies    map[string]models.CharacterDef
	items      map[string]models.ItemDef
	lootTables map[string]models.LootTable
	stages     []models.Stage
	recipes    map[string]models.Recipe
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir loads every .yaml file in dir.
func LoadDir(dir string) (*Catalog, error) {
	return Load(os.DirFS(dir))
}

// Load reads every .yaml file at the root of fsys, in name order, and
// validates cross references.
func Load(fsys fs.FS) (*Catalog, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, gameerr.New(gameerr.CodeConfigMissing, "no data files found")
	}
	sort.Strings(names)

	c := &Catalog{
		heroes:     make(map[string]models.CharacterDef),
		enemies:    make(map[string]models.CharacterDef),
		items:      make(map[string]models.ItemDef),
		lootTables: make(map[string]models.LootTable),
		recipes:    make(map[string]models.Recipe),
	}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var doc document
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path.Base(name), err)
		}
		if err := c.add(doc); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) add(doc document) error {
	for _, h := range doc.Heroes {
		if h.ID == "" {
			return errors.New("hero without id")
		}
		if _, ok := c.heroes[h.ID]; ok {
			return fmt.Errorf("duplicate hero %q", h.ID)
		}
		c.heroes[h.ID] = h
		c.heroOrder = append(c.heroOrder, h.ID)
	}
	for _, e := range doc.Enemies {
		if e.ID == "" {
			return errors.New("enemy without id")
		}
		if _, ok := c.enemies[e.ID]; ok {
			return fmt.Errorf("duplicate enemy %q", e.ID)
		}
		c.enemies[e.ID] = e
	}
	for _, it := range doc.Items {
		if it.ID == "" {
			return errors.New("item without id")
		}
		if _, ok := c.items[it.ID]; ok {
			return fmt.Errorf("duplicate item %q", it.ID)
		}
		c.items[it.ID] = it
	}
	for _, lt := range doc.LootTables {
		if lt.ID == "" {
			return errors.New("loot table without id")
		}
		if _, ok := c.lootTables[lt.ID]; ok {
			return fmt.Errorf("duplicate loot table %q", lt.ID)
		}
		c.lootTables[lt.ID] = lt
	}
	c.stages = append(c.stages, doc.Stages...)
	for _, r := range doc.Recipes {
		if r.ID == "" {
			return errors.New("recipe without id")
		}
		if _, ok := c.recipes[r.ID]; ok {
			return fmt.Errorf("duplicate recipe %q", r.ID)
		}
		c.recipes[r.ID] = r
	}
	return nil
}

func missing(kind, id, from string) error {
	return gameerr.WithMetadata(gameerr.CodeConfigMissing,
		fmt.Sprintf("%s %q referenced by %s not found", kind, id, from),
		map[string]string{"kind": kind, "id": id})
}

func (c *Catalog) validate() error {
	if len(c.heroes) == 0 {
		return gameerr.New(gameerr.CodeConfigMissing, "catalog defines no heroes")
	}
	if len(c.stages) == 0 {
		return gameerr.New(gameerr.CodeConfigMissing, "catalog defines no stages")
	}
	for _, it := range c.items {
		switch it.Type {
		case models.ItemTypeWeapon:
			if it.Weapon == nil || !it.Slot.Valid() {
				return fmt.Errorf("weapon %q needs a weapon block and a valid slot", it.ID)
			}
		case models.ItemTypeArmor:
			if it.Armor == nil || !it.Slot.Valid() {
				return fmt.Errorf("armor %q needs an armor block and a valid slot", it.ID)
			}
		case models.ItemTypeAugment:
			if it.Augment == nil {
				return fmt.Errorf("augment %q needs an augment block", it.ID)
			}
		case models.ItemTypeConsumable:
			if it.Consumable == nil {
				return fmt.Errorf("consumable %q needs an effect", it.ID)
			}
		case models.ItemTypeMaterial:
		default:
			return fmt.Errorf("item %q has unknown type %q", it.ID, it.Type)
		}
		for level, row := range it.UpgradeCosts {
			for mat := range row {
				if _, ok := c.items[mat]; !ok {
					return missing("material", mat, fmt.Sprintf("item %s upgrade %d", it.ID, level))
				}
			}
		}
	}
	for _, lt := range c.lootTables {
		for _, d := range lt.Materials {
			if _, ok := c.items[d.ID]; !ok {
				return missing("material", d.ID, "loot table "+lt.ID)
			}
		}
		for _, d := range lt.Equipment {
			def, ok := c.items[d.ItemID]
			if !ok {
				return missing("item", d.ItemID, "loot table "+lt.ID)
			}
			if !def.Equippable() {
				return fmt.Errorf("loot table %s drops %q which cannot be equipped", lt.ID, d.ItemID)
			}
			for r := range d.RarityWeights {
				if !r.Valid() {
					return fmt.Errorf("loot table %s: unknown rarity %q", lt.ID, r)
				}
			}
		}
		for _, d := range lt.Augments {
			def, ok := c.items[d.ID]
			if !ok || def.Type != models.ItemTypeAugment {
				return missing("augment", d.ID, "loot table "+lt.ID)
			}
		}
	}
	seen := make(map[string]bool, len(c.stages))
	for i, st := range c.stages {
		from := fmt.Sprintf("stage %d (%s)", i, st.ID)
		if st.ID == "" || seen[st.ID] {
			return fmt.Errorf("%s: missing or duplicate id", from)
		}
		seen[st.ID] = true
		if st.Waves < 1 {
			return fmt.Errorf("%s: waves must be positive", from)
		}
		if len(st.Compositions) == 0 && (!st.HasBoss() || st.Waves > 1) {
			return fmt.Errorf("%s: no compositions for its regular waves", from)
		}
		for w, comp := range st.Compositions {
			if comp.Size() < 1 {
				return fmt.Errorf("%s: composition %d has no enemies", from, w)
			}
		}
		if st.HasBoss() && st.Boss.Size() < 1 {
			return fmt.Errorf("%s: boss composition has no enemies", from)
		}
		pooled := 0
		for _, ids := range st.Enemies {
			pooled += len(ids)
		}
		if pooled == 0 {
			return fmt.Errorf("%s: no enemies listed", from)
		}
		if _, ok := c.lootTables[st.LootTable]; !ok {
			return missing("loot table", st.LootTable, from)
		}
		for tier, ids := range st.Enemies {
			if !tier.Valid() {
				return fmt.Errorf("%s: unknown tier %q", from, tier)
			}
			for _, id := range ids {
				e, ok := c.enemies[id]
				if !ok {
					return missing("enemy", id, from)
				}
				if e.Tier != "" && e.Tier != tier {
					return fmt.Errorf("%s: enemy %q is %s, listed under %s", from, id, e.Tier, tier)
				}
			}
		}
	}
	for _, r := range c.recipes {
		from := "recipe " + r.ID
		for mat, qty := range r.Cost {
			if _, ok := c.items[mat]; !ok {
				return missing("material", mat, from)
			}
			if qty < 0 {
				return fmt.Errorf("%s: negative cost for %s", from, mat)
			}
		}
		def, ok := c.items[r.Result]
		if !ok {
			return missing("item", r.Result, from)
		}
		switch r.Type {
		case models.RecipeEquipment:
			if !def.Equippable() {
				return fmt.Errorf("%s: result %q cannot be equipped", from, r.Result)
			}
			if r.Rarity != "" && !r.Rarity.Valid() {
				return fmt.Errorf("%s: unknown rarity %q", from, r.Rarity)
			}
		case models.RecipeConsumable:
			if def.Type != models.ItemTypeConsumable && def.Type != models.ItemTypeAugment {
				return fmt.Errorf("%s: result %q is not a consumable", from, r.Result)
			}
		case models.RecipeMaterial:
			if def.Type != models.ItemTypeMaterial {
				return fmt.Errorf("%s: result %q is not a material", from, r.Result)
			}
		default:
			return fmt.Errorf("%s: unknown type %q", from, r.Type)
		}
	}
	return nil
}

// Hero returns the hero definition with the given id.
func (c *Catalog) Hero(id string) (models.CharacterDef, bool) {
	h, ok := c.heroes[id]
	return h.Clone(), ok
}

// HeroIDs lists heroes in file order.
func (c *Catalog) HeroIDs() []string {
	return append([]string(nil), c.heroOrder...)
}

// Enemy returns the enemy definition with the given id.
func (c *Catalog) Enemy(id string) (models.CharacterDef, bool) {
	e, ok := c.enemies[id]
	return e.Clone(), ok
}

// Item returns the item definition with the given id.
func (c *Catalog) Item(id string) (models.ItemDef, bool) {
	it, ok := c.items[id]
	return it.Clone(), ok
}

// ItemName returns the display name for id, or id itself if unknown.
func (c *Catalog) ItemName(id string) string {
	if it, ok := c.items[id]; ok && it.Name != "" {
		return it.Name
	}
	return id
}

// LootTable returns the loot table with the given id.
func (c *Catalog) LootTable(id string) (models.LootTable, bool) {
	lt, ok := c.lootTables[id]
	return lt.Clone(), ok
}

// LootTableIDs lists loot table ids sorted.
func (c *Catalog) LootTableIDs() []string {
	return sortedKeys(c.lootTables)
}

// StageCount is the number of stages.
func (c *Catalog) StageCount() int { return len(c.stages) }

// Stage returns the stage at index.
func (c *Catalog) Stage(index int) (models.Stage, bool) {
	if index < 0 || index >= len(c.stages) {
		return models.Stage{}, false
	}
	return c.stages[index].Clone(), true
}

// Stages returns every stage in progression order.
func (c *Catalog) Stages() []models.Stage {
	out := make([]models.Stage, len(c.stages))
	for i, st := range c.stages {
		out[i] = st.Clone()
	}
	return out
}

// Recipe returns the recipe with the given id.
func (c *Catalog) Recipe(id string) (models.Recipe, bool) {
	r, ok := c.recipes[id]
	return r.Clone(), ok
}

// RecipeIDs lists recipe ids sorted.
func (c *Catalog) RecipeIDs() []string {
	return sortedKeys(c.recipes)
}

// Augment resolves an augment definition; it satisfies models.AugmentLookup.
func (c *Catalog) Augment(id string) (models.ItemDef, bool) {
	it, ok := c.items[id]
	if !ok || it.Type != models.ItemTypeAugment {
		return models.ItemDef{}, false
	}
	return it.Clone(), true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
