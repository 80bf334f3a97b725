package encounter

import (
	"github.com/tatianab/idle-arena/internal/combat"
	"github.com/tatianab/idle-arena/internal/models"
)

// RollRewards rolls gold and every drop entry independently.
func RollRewards(r combat.Rand, t models.LootTable) models.Rewards {
	out := models.Rewards{
		XP:   t.XP,
		Gold: combat.UniformInt(r, t.GoldMin, t.GoldMax),
	}
	if out.Gold < 0 {
		out.Gold = 0
	}
	for _, d := range t.Materials {
		if !combat.Chance(r, d.Chance) {
			continue
		}
		qty := combat.UniformInt(r, d.Min, d.Max)
		if qty <= 0 {
			continue
		}
		if out.Materials == nil {
			out.Materials = make(map[string]int)
		}
		out.Materials[d.ID] += qty
	}
	for _, d := range t.Equipment {
		if !combat.Chance(r, d.Chance) {
			continue
		}
		qty := rollQuantity(r, d.Min, d.Max)
		rarity := RollRarity(r, d.RarityWeights)
		out.Merge(models.Rewards{Equipment: []models.EquipmentGrant{{ItemID: d.ItemID, Rarity: rarity, Quantity: qty}}})
	}
	for _, d := range t.Augments {
		if !combat.Chance(r, d.Chance) {
			continue
		}
		qty := rollQuantity(r, d.Min, d.Max)
		out.Merge(models.Rewards{Augments: []models.AugmentGrant{{ID: d.ID, Quantity: qty}}})
	}
	return out
}

// rollQuantity defaults to one unit when no positive range is configured.
func rollQuantity(r combat.Rand, min, max int) int {
	if min <= 0 && max <= 0 {
		return 1
	}
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	return combat.UniformInt(r, min, max)
}

// RollRarity draws a rarity proportional to the positive weights, walking the
// tiers from common upward. No positive weight yields common.
func RollRarity(r combat.Rand, weights map[models.Rarity]float64) models.Rarity {
	total := 0.0
	for _, rarity := range models.Rarities {
		if w := weights[rarity]; w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return models.RarityCommon
	}
	roll := r.Float64() * total
	last := models.RarityCommon
	for _, rarity := range models.Rarities {
		w := weights[rarity]
		if w <= 0 {
			continue
		}
		last = rarity
		if roll < w {
			return rarity
		}
		roll -= w
	}
	return last
}
