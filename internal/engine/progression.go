package engine

import (
	"fmt"

	"github.com/tatianab/idle-arena/internal/character"
	"github.com/tatianab/idle-arena/internal/encounter"
	"github.com/tatianab/idle-arena/internal/events"
	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
)

var (
	bossFallback   = []models.Tier{models.TierBoss, models.TierMedium, models.TierSmall}
	normalFallback = []models.Tier{models.TierSmall, models.TierMedium, models.TierBoss}
)

// SelectHero switches the hero preset and resets the encounter. The previous
// hero's level and experience are dropped; inventory is kept.
func (e *Engine) SelectHero(id string) error {
	if _, ok := e.cat.Hero(id); !ok {
		return e.reject("select hero", gameerr.WithMetadata(gameerr.CodeConfigMissing,
			fmt.Sprintf("unknown hero %q", id), map[string]string{"hero": id}))
	}
	e.heroID = id
	e.progress = nil
	return e.ResetEncounter(false, e.running)
}

// SelectStage jumps to the stage at index, starting from its first wave.
func (e *Engine) SelectStage(index int) error {
	if _, ok := e.cat.Stage(index); !ok {
		return e.reject("select stage", gameerr.WithMetadata(gameerr.CodeConfigMissing,
			fmt.Sprintf("unknown stage %d", index), map[string]string{"stage": fmt.Sprint(index)}))
	}
	e.stageIndex = index
	e.wavesCompleted = 0
	return e.ResetEncounter(false, e.running)
}

// SelectLoot overrides the loot table for every stage. An empty id restores
// each stage's own table.
func (e *Engine) SelectLoot(id string) error {
	if id != "" {
		if _, ok := e.cat.LootTable(id); !ok {
			return e.reject("select loot", gameerr.WithMetadata(gameerr.CodeConfigMissing,
				fmt.Sprintf("unknown loot table %q", id), map[string]string{"loot_table": id}))
		}
	}
	e.lootID = id
	return e.ResetEncounter(false, e.running)
}

// keepProgress snapshots the hero so a rebuild keeps level and experience.
func (e *Engine) keepProgress() {
	if e.hero == nil {
		return
	}
	p := e.hero.Progress()
	e.progress = &p
}

// ResetEncounter rebuilds the hero and binds a fresh encounter for the current
// wave. With freshHero set it also clears progress, rewards, history and every
// owned item.
func (e *Engine) ResetEncounter(freshHero, autoStart bool) error {
	def, ok := e.cat.Hero(e.heroID)
	if !ok {
		return e.reject("reset", gameerr.Newf(gameerr.CodeConfigMissing, "unknown hero %q", e.heroID))
	}
	if freshHero {
		e.progress = nil
		e.gold = 0
		e.lifetime = models.Rewards{}
		e.last = models.Rewards{}
		e.history = nil
		e.inventory = nil
		e.equipped = make(map[models.Slot]models.OwnedEquipment)
		e.materials = make(map[string]int)
		e.consumables = make(map[string]int)
		e.emit(events.InventoryChanged{Action: "reset"})
	} else if e.hero != nil && e.hero.ID() == e.heroID {
		e.keepProgress()
	}

	hero := character.New(def)
	if e.progress != nil {
		hero.ApplyProgress(*e.progress)
	}
	for _, slot := range models.Slots {
		item, ok := e.equipped[slot]
		if !ok {
			continue
		}
		st, err := e.equipmentStats(item)
		if err != nil {
			// Unknown definitions go back to the bag instead of blocking the rebuild.
			e.log.Printf("reset: cannot equip %s: %v", item.InstanceID, err)
			delete(e.equipped, slot)
			e.inventory = append(e.inventory, item)
			continue
		}
		if _, err := hero.Equip(st); err != nil {
			e.log.Printf("reset: cannot equip %s: %v", item.InstanceID, err)
			delete(e.equipped, slot)
			e.inventory = append(e.inventory, item)
		}
	}
	hero.RestoreVitals()
	e.hero = hero

	if e.enc != nil {
		e.enc.Stop()
	}
	if !autoStart {
		e.setRunning(false, "reset")
	}
	e.enc = nil
	e.enemy = nil
	e.enemyID = ""
	e.queue = nil
	if !e.PrepareNextWave() {
		e.setRunning(false, "no enemies")
		return e.reject("reset", gameerr.Newf(gameerr.CodeExhaustedContent,
			"stage %d has no enemy for wave %d", e.stageIndex, e.wavesCompleted))
	}
	return e.StartNextEncounter(autoStart)
}

// PrepareNextWave fills the enemy queue for the next wave, moving to the next
// stage when the current one is finished. It reports false, leaving the
// pointers untouched, when no enemy can be found for some entry.
func (e *Engine) PrepareNextWave() bool {
	stageIndex, waves := e.stageIndex, e.wavesCompleted
	stage, ok := e.cat.Stage(stageIndex)
	if !ok {
		return false
	}
	replay := false
	if waves >= stage.Waves {
		waves = 0
		if stageIndex+1 < e.cat.StageCount() {
			stageIndex++
			stage, _ = e.cat.Stage(stageIndex)
		} else {
			replay = true
		}
	}

	boss := stage.IsBossWave(waves)
	fallback := normalFallback
	if boss {
		fallback = bossFallback
	}
	var queue []string
	for _, tc := range stage.CompositionFor(waves) {
		for i := 0; i < tc.Count; i++ {
			id, ok := e.pickEnemy(stage, tc.Tier, fallback)
			if !ok {
				return false
			}
			queue = append(queue, id)
		}
	}
	if len(queue) == 0 {
		return false
	}

	e.stageIndex = stageIndex
	e.wavesCompleted = waves
	e.queue = queue
	e.waveBoss = boss
	if replay {
		e.setRunning(false, "final stage cleared")
		e.notify(events.SeverityInfo, gameerr.CodeExhaustedContent,
			fmt.Sprintf("%s cleared; no further stages, replaying it", stage.Name))
	}
	e.emit(events.ProgressChanged{
		Stage:               e.stageIndex,
		StageName:           stage.Name,
		WavesCompleted:      e.wavesCompleted,
		Waves:               stage.Waves,
		TotalWavesCompleted: e.totalWavesCompleted,
	})
	return true
}

// pickEnemy draws uniformly from the requested tier, falling back through
// order when its pool is empty.
func (e *Engine) pickEnemy(stage models.Stage, tier models.Tier, order []models.Tier) (string, bool) {
	tiers := append([]models.Tier{tier}, order...)
	for _, t := range tiers {
		pool := stage.Enemies[t]
		if len(pool) == 0 {
			continue
		}
		return pool[e.rng.IntN(len(pool))], true
	}
	return "", false
}

// currentLootTable resolves the selected loot table, falling back to the
// stage's own.
func (e *Engine) currentLootTable() (models.LootTable, bool) {
	id := e.lootID
	if id == "" {
		id = e.Stage().LootTable
	}
	return e.cat.LootTable(id)
}

// StartNextEncounter binds the next queued enemy to a fresh encounter. The
// hero must be alive.
func (e *Engine) StartNextEncounter(autoStart bool) error {
	if e.hero == nil || !e.hero.Alive() {
		return gameerr.New(gameerr.CodePreconditionFailed, "hero is not alive")
	}
	if len(e.queue) == 0 && !e.PrepareNextWave() {
		e.setRunning(false, "no enemies")
		return gameerr.Newf(gameerr.CodeExhaustedContent, "stage %d has no enemy for wave %d", e.stageIndex, e.wavesCompleted)
	}
	id := e.queue[0]
	def, ok := e.cat.Enemy(id)
	if !ok {
		return gameerr.WithMetadata(gameerr.CodeConfigMissing, fmt.Sprintf("unknown enemy %q", id),
			map[string]string{"enemy": id})
	}
	e.queue = e.queue[1:]

	var opts []encounter.Option
	if loot, ok := e.currentLootTable(); ok {
		opts = append(opts, encounter.WithRewards(loot))
	} else {
		e.log.Printf("stage %d: loot table missing, victories grant nothing", e.stageIndex)
	}
	if e.resolver != nil {
		opts = append(opts, encounter.WithResolver(e.resolver))
	}
	e.enemy = character.New(def)
	e.enemyID = id
	e.enc = encounter.New(e.rng, e.hero, e.enemy, e.interval, opts...)
	e.interval = e.enc.Interval()

	e.emit(events.EncounterStarted{
		Hero:      e.hero.Name(),
		Enemy:     id,
		EnemyName: e.enemy.Name(),
		Stage:     e.stageIndex,
		Wave:      e.wavesCompleted,
		Boss:      e.waveBoss,
		Remaining: len(e.queue),
	})
	if autoStart {
		e.enc.Start()
		e.setRunning(true, "encounter started")
	}
	return nil
}

func (e *Engine) recordHistory(outcome string, sum encounter.Summary) {
	entry := models.HistoryEntry{
		EnemyID:     e.enemyID,
		Outcome:     outcome,
		Stage:       e.stageIndex,
		Wave:        e.wavesCompleted,
		Boss:        e.waveBoss,
		Elapsed:     sum.Elapsed,
		Swings:      sum.Swings,
		DamageDealt: sum.SourceDamage,
		DamageTaken: sum.TargetDamage,
	}
	if e.enemy != nil {
		entry.EnemyName = e.enemy.Name()
	}
	if outcome == models.OutcomeVictory {
		entry.XP = sum.Rewards.XP
		entry.Gold = sum.Rewards.Gold
	}
	e.history = append(e.history, entry)
	if over := len(e.history) - models.MaxHistory; over > 0 {
		e.history = append([]models.HistoryEntry(nil), e.history[over:]...)
	}
}

func (e *Engine) emitSummary(sum encounter.Summary) {
	e.emit(events.EncounterSummary{
		Source:       e.hero.Name(),
		Target:       e.enemy.Name(),
		Elapsed:      sum.Elapsed,
		Swings:       sum.Swings,
		SourceDamage: sum.SourceDamage,
		TargetDamage: sum.TargetDamage,
		Victor:       sum.Victor.String(),
		Rewards:      sum.Rewards,
	})
}

// onVictory claims the encounter rewards and moves to the next enemy, wave or
// stage. Clearing a boss wave pauses play.
func (e *Engine) onVictory() {
	sum := e.enc.Summary()
	e.emitSummary(sum)
	if rewards, ok := e.enc.ClaimRewards(); ok {
		e.applyRewards(rewards)
	}
	e.recordHistory(models.OutcomeVictory, sum)

	wasRunning := e.running
	if len(e.queue) > 0 {
		if err := e.StartNextEncounter(wasRunning); err != nil {
			e.setRunning(false, "no enemies")
			e.reject("next encounter", err)
		}
		e.autosave()
		return
	}

	wasBoss := e.waveBoss
	e.wavesCompleted++
	e.totalWavesCompleted++
	e.queue = nil
	if !e.PrepareNextWave() {
		e.setRunning(false, "no enemies")
		e.notify(events.SeverityWarn, gameerr.CodeExhaustedContent,
			fmt.Sprintf("no enemy available for stage %d wave %d", e.stageIndex, e.wavesCompleted))
		e.autosave()
		return
	}
	if wasBoss {
		e.setRunning(false, "boss defeated")
	}
	if err := e.StartNextEncounter(e.running && wasRunning); err != nil {
		e.setRunning(false, "no enemies")
		e.reject("next encounter", err)
	}
	e.autosave()
}

// onDefeat records the loss, stops play and restores the hero. A lost boss
// wave restarts the stage's wave count; otherwise the same enemy is fought
// again.
func (e *Engine) onDefeat() {
	sum := e.enc.Summary()
	e.emitSummary(sum)
	e.recordHistory(models.OutcomeDefeat, sum)
	e.setRunning(false, "hero defeated")
	e.hero.RestoreVitals()

	if e.waveBoss {
		prev := e.wavesCompleted
		e.wavesCompleted = 0
		e.queue = nil
		if !e.PrepareNextWave() {
			e.wavesCompleted = prev
			e.queue = []string{e.enemyID}
		}
	} else {
		e.queue = append([]string{e.enemyID}, e.queue...)
	}
	if err := e.StartNextEncounter(false); err != nil {
		e.reject("next encounter", err)
	}
	e.autosave()
}
