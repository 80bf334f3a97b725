// Package engine is the progression and economy state machine. It sequences
// stages and waves, binds encounters between the hero and enemies, applies
// rewards, and owns the equipment, material and consumable stock.
//
// An Engine is driven from a single goroutine: the host calls Advance with
// wall-clock deltas and invokes the player operations between frames.
package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/tatianab/idle-arena/internal/catalog"
	"github.com/tatianab/idle-arena/internal/character"
	"github.com/tatianab/idle-arena/internal/combat"
	"github.com/tatianab/idle-arena/internal/encounter"
	"github.com/tatianab/idle-arena/internal/events"
	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
)

// AutoPotionThreshold is the health ratio below which a potion is used
// automatically.
const AutoPotionThreshold = 0.6

// AutoPotions is the order potions are tried by the low-health check.
var AutoPotions = []string{"healing_potion", "greater_healing_potion"}

// Store persists a single saved state. Load returns (nil, nil) when nothing
// has been saved yet.
type Store interface {
	Load(ctx context.Context) (*models.SavedState, error)
	Save(ctx context.Context, state *models.SavedState) error
	Clear(ctx context.Context) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source. The default is seeded from the clock.
func WithRand(r combat.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithStore enables persistence.
func WithStore(s Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLogger sets the logger used for rejected operations and save failures.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithPublisher sets the event sink.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.pub = p
		}
	}
}

// WithTickInterval sets the encounter step in seconds.
func WithTickInterval(seconds float64) Option {
	return func(e *Engine) { e.interval = seconds }
}

// WithHero selects the initial hero preset.
func WithHero(id string) Option {
	return func(e *Engine) { e.heroID = id }
}

// WithResolver replaces the swing resolver of every encounter.
func WithResolver(fn encounter.ResolveFunc) Option {
	return func(e *Engine) { e.resolver = fn }
}

// WithClock sets the clock used to stamp saves.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine is the stateful harness around encounters.
type Engine struct {
	cat      *catalog.Catalog
	rng      combat.Rand
	store    Store
	log      *log.Logger
	pub      events.Publisher
	resolver encounter.ResolveFunc
	now      func() time.Time
	interval float64

	heroID   string
	hero     *character.Character
	progress *models.HeroProgress

	stageIndex          int
	wavesCompleted      int
	totalWavesCompleted int
	lootID              string
	queue               []string
	waveBoss            bool

	enc     *encounter.Encounter
	enemy   *character.Character
	enemyID string
	running bool

	gold        int
	lifetime    models.Rewards
	last        models.Rewards
	history     []models.HistoryEntry
	equipped    map[models.Slot]models.OwnedEquipment
	inventory   []models.OwnedEquipment
	materials   map[string]int
	consumables map[string]int

	batch []events.Event
}

// New builds an engine over cat with the first hero and stage selected and
// the first encounter bound but not started. It does not read the store; call
// Restore for that.
func New(cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, gameerr.New(gameerr.CodeConfigMissing, "catalog is required")
	}
	e := &Engine{
		cat:         cat,
		log:         log.New(io.Discard, "", 0),
		pub:         events.NopPublisher(),
		now:         time.Now,
		interval:    encounter.DefaultTickInterval,
		equipped:    make(map[models.Slot]models.OwnedEquipment),
		materials:   make(map[string]int),
		consumables: make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = combat.NewRand(0)
	}
	if e.heroID == "" {
		if ids := cat.HeroIDs(); len(ids) > 0 {
			e.heroID = ids[0]
		}
	}
	if _, ok := cat.Hero(e.heroID); !ok {
		return nil, gameerr.WithMetadata(gameerr.CodeConfigMissing, "unknown hero "+e.heroID,
			map[string]string{"hero": e.heroID})
	}
	// Running out of enemies leaves a paused engine with a notice; the host
	// stays usable and a different stage can be selected.
	if err := e.ResetEncounter(false, false); err != nil && !errors.Is(err, gameerr.ErrExhaustedContent) {
		return nil, err
	}
	return e, nil
}

// emit publishes ev and records it for the current Advance call.
func (e *Engine) emit(ev events.Event) {
	e.batch = append(e.batch, ev)
	e.pub.Publish(ev)
}

// reject logs a refused operation and surfaces it as a Notice.
func (e *Engine) reject(op string, err error) error {
	e.log.Printf("%s rejected: %v", op, err)
	msg := err.Error()
	if ge, ok := err.(*gameerr.Error); ok {
		msg = ge.Message
	}
	e.emit(events.Notice{Severity: events.SeverityWarn, Code: string(gameerr.CodeOf(err)), Message: msg})
	return err
}

func (e *Engine) notify(severity events.Severity, code gameerr.Code, msg string) {
	e.log.Print(msg)
	e.emit(events.Notice{Severity: severity, Code: string(code), Message: msg})
}

func (e *Engine) setRunning(running bool, reason string) {
	if e.running == running {
		return
	}
	e.running = running
	e.emit(events.ControlChanged{Running: running, Reason: reason})
}

// Advance feeds delta seconds of wall-clock time to the current encounter and
// handles its outcome. It returns every event emitted during the call.
func (e *Engine) Advance(delta float64) []events.Event {
	e.batch = nil
	if e.enc == nil || !e.enc.IsRunning() {
		return nil
	}
	swings := e.enc.Tick(delta)
	for _, s := range swings {
		e.emit(events.Swing{
			Attacker: s.Attacker,
			Defender: s.Defender,
			Result:   string(s.Result),
			Damage:   s.Damage,
			Critical: s.Critical,
			Hand:     string(s.Hand),
			Elapsed:  s.Elapsed,
		})
	}
	switch e.enc.Victor() {
	case encounter.VictorSource:
		e.onVictory()
	case encounter.VictorTarget:
		e.onDefeat()
	default:
		if len(swings) > 0 {
			e.autoPotion()
		}
	}
	out := e.batch
	e.batch = nil
	return out
}

// Start resumes the current encounter, binding a new one if the current one
// is finished.
func (e *Engine) Start() error {
	if e.enc != nil && !e.enc.IsComplete() {
		e.enc.Start()
		e.setRunning(true, "started")
		return nil
	}
	if err := e.StartNextEncounter(true); err != nil {
		return e.reject("start", err)
	}
	return nil
}

// Stop pauses play. The encounter keeps its cooldowns.
func (e *Engine) Stop() {
	if e.enc != nil {
		e.enc.Stop()
	}
	e.setRunning(false, "stopped")
}

// Running reports whether play is automatic.
func (e *Engine) Running() bool { return e.running }

// Hero returns the live hero combatant. Callers must treat it as read-only.
func (e *Engine) Hero() *character.Character { return e.hero }

// HeroID is the selected hero preset.
func (e *Engine) HeroID() string { return e.heroID }

// Enemy returns the current opponent, or nil.
func (e *Engine) Enemy() *character.Character { return e.enemy }

// Encounter returns the bound encounter, or nil.
func (e *Engine) Encounter() *encounter.Encounter { return e.enc }

// Catalog returns the definitions the engine was built with.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// StageIndex is the current stage.
func (e *Engine) StageIndex() int { return e.stageIndex }

// Stage returns the current stage definition.
func (e *Engine) Stage() models.Stage {
	st, _ := e.cat.Stage(e.stageIndex)
	return st
}

// WavesCompleted is the number of waves cleared in the current stage.
func (e *Engine) WavesCompleted() int { return e.wavesCompleted }

// TotalWavesCompleted never decreases.
func (e *Engine) TotalWavesCompleted() int { return e.totalWavesCompleted }

// BossWave reports whether the queued wave is the stage's boss wave.
func (e *Engine) BossWave() bool { return e.waveBoss }

// QueueLength is the number of enemies left in the wave after the current one.
func (e *Engine) QueueLength() int { return len(e.queue) }

// LootTableID is the explicit loot-table selection, or "" for the stage's own.
func (e *Engine) LootTableID() string { return e.lootID }

// TickInterval is the encounter step in seconds.
func (e *Engine) TickInterval() float64 { return e.interval }

// Gold is the current gold balance.
func (e *Engine) Gold() int { return e.gold }

// LifetimeRewards sums every claimed reward since the last fresh start.
func (e *Engine) LifetimeRewards() models.Rewards { return e.lifetime.Clone() }

// LastRewards is the most recent claimed reward.
func (e *Engine) LastRewards() models.Rewards { return e.last.Clone() }

// History returns recent encounters, oldest first.
func (e *Engine) History() []models.HistoryEntry {
	return append([]models.HistoryEntry(nil), e.history...)
}

// Inventory returns the unequipped equipment.
func (e *Engine) Inventory() []models.OwnedEquipment {
	out := make([]models.OwnedEquipment, 0, len(e.inventory))
	for _, it := range e.inventory {
		out = append(out, it.Clone())
	}
	return out
}

// Equipped returns the equipped instances by slot.
func (e *Engine) Equipped() map[models.Slot]models.OwnedEquipment {
	out := make(map[models.Slot]models.OwnedEquipment, len(e.equipped))
	for s, it := range e.equipped {
		out[s] = it.Clone()
	}
	return out
}

// Materials returns the material stock.
func (e *Engine) Materials() map[string]int { return copyStock(e.materials) }

// Consumables returns the consumable and augment stock.
func (e *Engine) Consumables() map[string]int { return copyStock(e.consumables) }

func copyStock(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
