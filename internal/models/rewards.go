package models

import "sort"

// EquipmentGrant is an equipment reward before instances are minted.
type EquipmentGrant struct {
	ItemID   string `yaml:"item_id"`
	Rarity   Rarity `yaml:"rarity"`
	Quantity int    `yaml:"quantity"`
}

// AugmentGrant is an augment reward.
type AugmentGrant struct {
	ID       string `yaml:"id"`
	Quantity int    `yaml:"quantity"`
}

// Rewards is the payload of one victory, or a running total of many.
type Rewards struct {
	XP        int              `yaml:"xp"`
	Gold      int              `yaml:"gold"`
	Materials map[string]int   `yaml:"materials,omitempty"`
	Equipment []EquipmentGrant `yaml:"equipment,omitempty"`
	Augments  []AugmentGrant   `yaml:"augments,omitempty"`
}

// IsEmpty reports whether the rewards grant nothing.
func (r Rewards) IsEmpty() bool {
	return r.XP == 0 && r.Gold == 0 && len(r.Materials) == 0 && len(r.Equipment) == 0 && len(r.Augments) == 0
}

// Clone deep-copies the rewards.
func (r Rewards) Clone() Rewards {
	out := Rewards{XP: r.XP, Gold: r.Gold}
	if len(r.Materials) > 0 {
		out.Materials = make(map[string]int, len(r.Materials))
		for k, v := range r.Materials {
			out.Materials[k] = v
		}
	}
	if len(r.Equipment) > 0 {
		out.Equipment = append([]EquipmentGrant(nil), r.Equipment...)
	}
	if len(r.Augments) > 0 {
		out.Augments = append([]AugmentGrant(nil), r.Augments...)
	}
	return out
}

// Merge folds other into r, combining grants of the same item and rarity.
func (r *Rewards) Merge(other Rewards) {
	r.XP += other.XP
	r.Gold += other.Gold
	for k, v := range other.Materials {
		if r.Materials == nil {
			r.Materials = make(map[string]int)
		}
		r.Materials[k] += v
	}
	for _, g := range other.Equipment {
		merged := false
		for i := range r.Equipment {
			if r.Equipment[i].ItemID == g.ItemID && r.Equipment[i].Rarity == g.Rarity {
				r.Equipment[i].Quantity += g.Quantity
				merged = true
				break
			}
		}
		if !merged {
			r.Equipment = append(r.Equipment, g)
		}
	}
	for _, g := range other.Augments {
		merged := false
		for i := range r.Augments {
			if r.Augments[i].ID == g.ID {
				r.Augments[i].Quantity += g.Quantity
				merged = true
				break
			}
		}
		if !merged {
			r.Augments = append(r.Augments, g)
		}
	}
}

// MaterialIDs returns the material keys in sorted order.
func (r Rewards) MaterialIDs() []string {
	ids := make([]string, 0, len(r.Materials))
	for k := range r.Materials {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}

// EquipmentUnits is the number of equipment pieces granted, across every
// item and rarity.
func (r Rewards) EquipmentUnits() int {
	n := 0
	for _, g := range r.Equipment {
		n += g.Quantity
	}
	return n
}
