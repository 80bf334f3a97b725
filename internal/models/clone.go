package models

import "maps"

// Clone returns a deep copy of the item definition.
func (d ItemDef) Clone() ItemDef {
	out := d
	if d.Weapon != nil {
		w := *d.Weapon
		out.Weapon = &w
	}
	if d.Armor != nil {
		a := *d.Armor
		out.Armor = &a
	}
	if d.Augment != nil {
		a := *d.Augment
		out.Augment = &a
	}
	if d.Consumable != nil {
		c := *d.Consumable
		out.Consumable = &c
	}
	if d.UpgradeCosts != nil {
		out.UpgradeCosts = make([]map[string]int, len(d.UpgradeCosts))
		for i, cost := range d.UpgradeCosts {
			out.UpgradeCosts[i] = maps.Clone(cost)
		}
	}
	return out
}

// Clone returns a deep copy of the loot table.
func (t LootTable) Clone() LootTable {
	out := t
	if t.Materials != nil {
		out.Materials = append([]MaterialDrop(nil), t.Materials...)
	}
	if t.Equipment != nil {
		out.Equipment = make([]EquipmentDrop, len(t.Equipment))
		for i, d := range t.Equipment {
			d.RarityWeights = maps.Clone(d.RarityWeights)
			out.Equipment[i] = d
		}
	}
	if t.Augments != nil {
		out.Augments = append([]AugmentDrop(nil), t.Augments...)
	}
	return out
}

// Clone returns a deep copy of the stage.
func (s Stage) Clone() Stage {
	out := s
	if s.Compositions != nil {
		out.Compositions = make([]Composition, len(s.Compositions))
		for i, c := range s.Compositions {
			out.Compositions[i] = append(Composition(nil), c...)
		}
	}
	if s.Boss != nil {
		out.Boss = append(Composition(nil), s.Boss...)
	}
	if s.Enemies != nil {
		out.Enemies = make(map[Tier][]string, len(s.Enemies))
		for tier, ids := range s.Enemies {
			out.Enemies[tier] = append([]string(nil), ids...)
		}
	}
	return out
}

// Clone returns a deep copy of the recipe.
func (r Recipe) Clone() Recipe {
	out := r
	out.Cost = maps.Clone(r.Cost)
	return out
}
