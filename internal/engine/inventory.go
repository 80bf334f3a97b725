package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tatianab/idle-arena/internal/encounter"
	"github.com/tatianab/idle-arena/internal/events"
	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
	"github.com/tatianab/idle-arena/internal/stats"
)

func newInstanceID() string {
	return uuid.NewString()
}

func (e *Engine) equipmentStats(item models.OwnedEquipment) (models.EquipmentStats, error) {
	def, ok := e.cat.Item(item.ItemID)
	if !ok {
		return models.EquipmentStats{}, gameerr.WithMetadata(gameerr.CodeConfigMissing,
			fmt.Sprintf("unknown item %q", item.ItemID), map[string]string{"item": item.ItemID})
	}
	st, err := models.BuildEquipmentStats(def, item, e.cat.Augment)
	if err != nil {
		return models.EquipmentStats{}, gameerr.Wrap(gameerr.CodeConfigMissing, err.Error(), err)
	}
	return st, nil
}

func (e *Engine) inventoryIndex(instanceID string) int {
	for i, it := range e.inventory {
		if it.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

func (e *Engine) equippedSlot(instanceID string) (models.Slot, bool) {
	for _, slot := range models.Slots {
		if it, ok := e.equipped[slot]; ok && it.InstanceID == instanceID {
			return slot, true
		}
	}
	return "", false
}

// ownedItem finds an instance wherever it lives.
func (e *Engine) ownedItem(instanceID string) (models.OwnedEquipment, models.Slot, int, error) {
	if slot, ok := e.equippedSlot(instanceID); ok {
		return e.equipped[slot].Clone(), slot, -1, nil
	}
	if i := e.inventoryIndex(instanceID); i >= 0 {
		return e.inventory[i].Clone(), "", i, nil
	}
	return models.OwnedEquipment{}, "", -1, gameerr.WithMetadata(gameerr.CodePreconditionFailed,
		fmt.Sprintf("no item %q", instanceID), map[string]string{"instance": instanceID})
}

// store writes back an instance found by ownedItem, refreshing the hero when
// it is equipped. st must already be built for the new state.
func (e *Engine) storeItem(item models.OwnedEquipment, slot models.Slot, index int, st *models.EquipmentStats) {
	if slot != "" {
		e.equipped[slot] = item
		if st != nil {
			e.hero.Equip(*st)
			e.refreshHeroHands()
		}
		return
	}
	e.inventory[index] = item
}

// refreshHeroHands reschedules the hero's hands in the fight it is in.
func (e *Engine) refreshHeroHands() {
	if e.enc == nil || e.hero == nil || e.enc.Source() != encounter.Combatant(e.hero) {
		return
	}
	e.enc.RefreshHands(encounter.SideSource)
}

func (e *Engine) removeInventory(index int) models.OwnedEquipment {
	item := e.inventory[index]
	e.inventory = append(e.inventory[:index:index], e.inventory[index+1:]...)
	return item
}

// Equip moves an inventory item onto the hero. An occupant of the same slot
// goes back to the inventory.
func (e *Engine) Equip(instanceID string) error {
	if err := e.equip(instanceID); err != nil {
		return e.reject("equip", err)
	}
	e.autosave()
	return nil
}

func (e *Engine) equip(instanceID string) error {
	index := e.inventoryIndex(instanceID)
	if index < 0 {
		if _, ok := e.equippedSlot(instanceID); ok {
			return gameerr.Newf(gameerr.CodePreconditionFailed, "item %q is already equipped", instanceID)
		}
		return gameerr.Newf(gameerr.CodePreconditionFailed, "no item %q in inventory", instanceID)
	}
	item := e.inventory[index]
	def, ok := e.cat.Item(item.ItemID)
	if !ok {
		return gameerr.Newf(gameerr.CodeConfigMissing, "unknown item %q", item.ItemID)
	}
	if !def.Equippable() {
		return gameerr.Newf(gameerr.CodePreconditionFailed, "%s cannot be equipped", def.Name)
	}
	st, err := e.equipmentStats(item)
	if err != nil {
		return err
	}
	if _, err := e.hero.Equip(st); err != nil {
		return gameerr.Wrap(gameerr.CodePreconditionFailed, err.Error(), err)
	}

	e.removeInventory(index)
	if prev, ok := e.equipped[def.Slot]; ok {
		e.inventory = append(e.inventory, prev)
		e.emit(events.InventoryChanged{Action: "unequip", InstanceID: prev.InstanceID, ItemID: prev.ItemID})
	}
	e.equipped[def.Slot] = item
	e.refreshHeroHands()
	e.emit(events.InventoryChanged{Action: "equip", InstanceID: item.InstanceID, ItemID: item.ItemID})
	return nil
}

// Unequip returns the occupant of slot to the inventory.
func (e *Engine) Unequip(slot models.Slot) error {
	if !slot.Valid() {
		return e.reject("unequip", gameerr.Newf(gameerr.CodePreconditionFailed, "unknown slot %q", slot))
	}
	item, ok := e.equipped[slot]
	if !ok {
		return e.reject("unequip", gameerr.Newf(gameerr.CodePreconditionFailed, "nothing equipped in %s", slot))
	}
	e.hero.Unequip(slot)
	delete(e.equipped, slot)
	e.refreshHeroHands()
	e.inventory = append(e.inventory, item)
	e.emit(events.InventoryChanged{Action: "unequip", InstanceID: item.InstanceID, ItemID: item.ItemID})
	e.autosave()
	return nil
}

// Upgrade raises an item's upgrade level by one, consuming the level's cost.
func (e *Engine) Upgrade(instanceID string) error {
	item, slot, index, err := e.ownedItem(instanceID)
	if err != nil {
		return e.reject("upgrade", err)
	}
	def, ok := e.cat.Item(item.ItemID)
	if !ok {
		return e.reject("upgrade", gameerr.Newf(gameerr.CodeConfigMissing, "unknown item %q", item.ItemID))
	}
	if item.UpgradeLevel >= def.MaxUpgrade() {
		return e.reject("upgrade", gameerr.WithMetadata(gameerr.CodePreconditionFailed,
			fmt.Sprintf("%s is at max upgrade level %d", def.Name, def.MaxUpgrade()),
			map[string]string{"instance": instanceID}))
	}
	cost := def.UpgradeCost(item.UpgradeLevel)
	if err := e.checkMaterials(cost); err != nil {
		return e.reject("upgrade", err)
	}
	item.UpgradeLevel++
	st, err := e.refreshedStats(item, slot)
	if err != nil {
		return e.reject("upgrade", err)
	}

	e.consumeMaterials(cost)
	e.storeItem(item, slot, index, st)
	e.emit(events.InventoryChanged{Action: "upgrade", InstanceID: item.InstanceID, ItemID: item.ItemID})
	e.autosave()
	return nil
}

// refreshedStats rebuilds combat stats for an equipped instance; inventory
// items need none.
func (e *Engine) refreshedStats(item models.OwnedEquipment, slot models.Slot) (*models.EquipmentStats, error) {
	if slot == "" {
		return nil, nil
	}
	st, err := e.equipmentStats(item)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Socket places one augment from stock into an open socket.
func (e *Engine) Socket(instanceID, augmentID string) error {
	item, slot, index, err := e.ownedItem(instanceID)
	if err != nil {
		return e.reject("socket", err)
	}
	if _, ok := e.cat.Augment(augmentID); !ok {
		return e.reject("socket", gameerr.WithMetadata(gameerr.CodeConfigMissing,
			fmt.Sprintf("unknown augment %q", augmentID), map[string]string{"augment": augmentID}))
	}
	if item.OpenSockets() == 0 {
		return e.reject("socket", gameerr.Newf(gameerr.CodePreconditionFailed, "%s has no open socket", e.cat.ItemName(item.ItemID)))
	}
	if e.consumables[augmentID] < 1 {
		return e.reject("socket", gameerr.Newf(gameerr.CodePreconditionFailed, "no %s in stock", e.cat.ItemName(augmentID)))
	}
	item.Augments = append(item.Augments, augmentID)
	st, err := e.refreshedStats(item, slot)
	if err != nil {
		return e.reject("socket", err)
	}

	e.takeConsumable(augmentID)
	e.storeItem(item, slot, index, st)
	e.emit(events.InventoryChanged{Action: "socket", InstanceID: item.InstanceID, ItemID: item.ItemID})
	e.autosave()
	return nil
}

// PreviewAugment reports the hero's derived stats without and with the
// augment's bonus, as it would apply once socketed into worn gear.
func (e *Engine) PreviewAugment(augmentID string) (before, after stats.Derived, err error) {
	def, ok := e.cat.Augment(augmentID)
	if !ok || def.Augment == nil {
		return before, after, e.reject("preview", gameerr.WithMetadata(gameerr.CodeConfigMissing,
			fmt.Sprintf("unknown augment %q", augmentID), map[string]string{"augment": augmentID}))
	}
	before = e.hero.Derived()
	after = e.hero.PreviewBuff("preview:"+augmentID, def.Augment.Stats)
	return before, after, nil
}

// Salvage destroys an unequipped item for essence.
func (e *Engine) Salvage(instanceID string) error {
	if _, ok := e.equippedSlot(instanceID); ok {
		return e.reject("salvage", gameerr.WithMetadata(gameerr.CodePreconditionFailed,
			"unequip the item before salvaging it", map[string]string{"instance": instanceID}))
	}
	index := e.inventoryIndex(instanceID)
	if index < 0 {
		return e.reject("salvage", gameerr.Newf(gameerr.CodePreconditionFailed, "no item %q in inventory", instanceID))
	}
	item := e.removeInventory(index)
	material, qty := models.SalvageYield(item)
	e.addMaterials(map[string]int{material: qty})
	e.emit(events.InventoryChanged{Action: "salvage", InstanceID: item.InstanceID, ItemID: item.ItemID})
	e.autosave()
	return nil
}

// Craft consumes a recipe's cost and produces its result. The first crafted
// equipment unit is equipped when its slot is empty.
func (e *Engine) Craft(recipeID string) error {
	recipe, ok := e.cat.Recipe(recipeID)
	if !ok {
		return e.reject("craft", gameerr.WithMetadata(gameerr.CodeConfigMissing,
			fmt.Sprintf("unknown recipe %q", recipeID), map[string]string{"recipe": recipeID}))
	}
	def, ok := e.cat.Item(recipe.Result)
	if !ok {
		return e.reject("craft", gameerr.Newf(gameerr.CodeConfigMissing, "recipe %s makes unknown item %q", recipeID, recipe.Result))
	}
	if err := e.checkMaterials(recipe.Cost); err != nil {
		return e.reject("craft", err)
	}
	qty := recipe.ResultQuantity()
	switch recipe.Type {
	case models.RecipeEquipment:
		if !def.Equippable() {
			return e.reject("craft", gameerr.Newf(gameerr.CodeConfigMissing, "recipe %s makes %s which cannot be equipped", recipeID, def.ID))
		}
		e.consumeMaterials(recipe.Cost)
		rarity := recipe.Rarity
		if rarity == "" {
			rarity = models.RarityCommon
		}
		for i := 0; i < qty; i++ {
			item := models.OwnedEquipment{
				InstanceID: newInstanceID(),
				ItemID:     def.ID,
				Rarity:     rarity,
				Sockets:    def.Sockets,
			}
			e.inventory = append(e.inventory, item)
			e.emit(events.InventoryChanged{Action: "craft", InstanceID: item.InstanceID, ItemID: item.ItemID})
			if _, occupied := e.equipped[def.Slot]; i == 0 && !occupied {
				if err := e.equip(item.InstanceID); err != nil {
					e.log.Printf("craft: auto-equip %s: %v", item.InstanceID, err)
				}
			}
		}
	case models.RecipeConsumable:
		e.consumeMaterials(recipe.Cost)
		e.addConsumables(map[string]int{def.ID: qty})
	case models.RecipeMaterial:
		e.consumeMaterials(recipe.Cost)
		e.addMaterials(map[string]int{def.ID: qty})
	default:
		return e.reject("craft", gameerr.Newf(gameerr.CodeConfigMissing, "recipe %s has unknown type %q", recipeID, recipe.Type))
	}
	e.emit(events.CraftCompleted{RecipeID: recipe.ID, Result: def.ID, Quantity: qty})
	e.autosave()
	return nil
}

// UseConsumable spends one unit of a healing consumable on the hero.
func (e *Engine) UseConsumable(id string) error {
	if err := e.useConsumable(id); err != nil {
		return e.reject("use", err)
	}
	e.autosave()
	return nil
}

func (e *Engine) useConsumable(id string) error {
	if e.consumables[id] < 1 {
		return gameerr.Newf(gameerr.CodePreconditionFailed, "no %s in stock", e.cat.ItemName(id))
	}
	def, ok := e.cat.Item(id)
	if !ok {
		return gameerr.Newf(gameerr.CodeConfigMissing, "unknown item %q", id)
	}
	if def.Consumable == nil || def.Consumable.Type != models.EffectHeal {
		return gameerr.Newf(gameerr.CodePreconditionFailed, "%s cannot be used", def.Name)
	}
	if !e.hero.Alive() {
		return gameerr.New(gameerr.CodePreconditionFailed, "hero is not alive")
	}
	e.takeConsumable(id)
	e.hero.Heal(def.Consumable.HealPercent * e.hero.MaxHealth())
	return nil
}

// autoPotion drinks the first available potion when the hero is low.
func (e *Engine) autoPotion() {
	if e.enc == nil || !e.enc.IsRunning() || !e.hero.Alive() || e.hero.HealthRatio() >= AutoPotionThreshold {
		return
	}
	for _, id := range AutoPotions {
		if e.consumables[id] < 1 {
			continue
		}
		if err := e.useConsumable(id); err != nil {
			e.log.Printf("auto potion %s: %v", id, err)
			continue
		}
		return
	}
}

// checkMaterials reports every shortfall in cost.
func (e *Engine) checkMaterials(cost map[string]int) error {
	var short []string
	meta := make(map[string]string)
	for _, id := range sortedIDs(cost) {
		need, have := cost[id], e.materials[id]
		if need > have {
			short = append(short, fmt.Sprintf("%s %d/%d", id, have, need))
			meta[id] = fmt.Sprintf("%d/%d", have, need)
		}
	}
	if len(short) == 0 {
		return nil
	}
	return gameerr.WithMetadata(gameerr.CodePreconditionFailed,
		"insufficient materials: "+strings.Join(short, ", "), meta)
}

func (e *Engine) consumeMaterials(cost map[string]int) {
	delta := make(map[string]int, len(cost))
	for id, qty := range cost {
		if qty <= 0 {
			continue
		}
		e.materials[id] -= qty
		if e.materials[id] == 0 {
			delete(e.materials, id)
		}
		delta[id] = -qty
	}
	if len(delta) > 0 {
		e.emit(events.MaterialsChanged{Delta: delta})
	}
}

func (e *Engine) addMaterials(add map[string]int) {
	delta := make(map[string]int, len(add))
	for id, qty := range add {
		if qty <= 0 {
			continue
		}
		e.materials[id] += qty
		delta[id] = qty
	}
	if len(delta) > 0 {
		e.emit(events.MaterialsChanged{Delta: delta})
	}
}

func (e *Engine) addConsumables(add map[string]int) {
	delta := make(map[string]int, len(add))
	for id, qty := range add {
		if qty <= 0 {
			continue
		}
		e.consumables[id] += qty
		delta[id] = qty
	}
	if len(delta) > 0 {
		e.emit(events.MaterialsChanged{Delta: delta, Consumables: true})
	}
}

func (e *Engine) takeConsumable(id string) {
	e.consumables[id]--
	if e.consumables[id] <= 0 {
		delete(e.consumables, id)
	}
	e.emit(events.MaterialsChanged{Delta: map[string]int{id: -1}, Consumables: true})
}

// applyRewards grants a claimed reward. It is only reached through a
// successful ClaimRewards, so each encounter pays out once.
func (e *Engine) applyRewards(r models.Rewards) {
	e.gold += r.Gold
	e.addMaterials(r.Materials)
	for _, g := range r.Equipment {
		def, ok := e.cat.Item(g.ItemID)
		if !ok {
			e.log.Printf("rewards: unknown item %q", g.ItemID)
			continue
		}
		for i := 0; i < g.Quantity; i++ {
			item := models.OwnedEquipment{
				InstanceID: newInstanceID(),
				ItemID:     g.ItemID,
				Rarity:     g.Rarity,
				Sockets:    def.Sockets,
			}
			e.inventory = append(e.inventory, item)
			e.emit(events.InventoryChanged{Action: "loot", InstanceID: item.InstanceID, ItemID: item.ItemID})
		}
	}
	augments := make(map[string]int)
	for _, g := range r.Augments {
		augments[g.ID] += g.Quantity
	}
	e.addConsumables(augments)

	levelUps := e.hero.GainExperience(r.XP)
	e.lifetime.Merge(r)
	e.last = r.Clone()
	e.emit(events.RewardsClaimed{Rewards: r.Clone(), Lifetime: e.lifetime.Clone(), LevelUps: levelUps})
}

func sortedIDs(m map[string]int) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
