// Package encounter runs a fixed-step fight between two combatants.
package encounter

import (
	"math"

	"github.com/tatianab/idle-arena/internal/combat"
	"github.com/tatianab/idle-arena/internal/models"
)

const (
	// MinTickInterval is the smallest accepted step in seconds.
	MinTickInterval = 0.01
	// DefaultTickInterval is used when a caller passes zero.
	DefaultTickInterval = 0.1
	epsilon             = 1e-9
)

// State is the encounter lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// Side identifies one of the two combatants.
type Side int

const (
	SideSource Side = iota
	SideTarget
)

// Victor is the winning side, if any.
type Victor int

const (
	VictorNone Victor = iota
	VictorSource
	VictorTarget
)

func (v Victor) String() string {
	switch v {
	case VictorSource:
		return "source"
	case VictorTarget:
		return "target"
	}
	return "none"
}

// Combatant is what the loop needs from each side.
type Combatant interface {
	combat.Fighter
	Hands() []combat.Hand
	AttackDelay(h combat.Hand) float64
	ApplyDamage(amount float64) float64
	Alive() bool
}

// ResolveFunc resolves one swing. combat.ResolveAttack is the default.
type ResolveFunc func(r combat.Rand, attacker, defender combat.Fighter, hand combat.Hand) combat.Outcome

// Swing is one resolved attack stamped with the simulated time it happened.
type Swing struct {
	combat.Outcome
	Side           Side
	Elapsed        float64
	DefenderHealth float64
}

// Summary reports the encounter totals.
type Summary struct {
	Elapsed      float64
	Swings       int
	SourceDamage float64
	TargetDamage float64
	Victor       Victor
	Rewards      models.Rewards
}

// HandState exposes a hand's scheduling numbers.
type HandState struct {
	Side     Side
	Hand     combat.Hand
	Delay    float64
	Cooldown float64
}

type handTimer struct {
	side     Side
	hand     combat.Hand
	delay    float64
	cooldown float64
}

// Encounter is the fixed-step state machine. It is not safe for concurrent use.
type Encounter struct {
	rng      combat.Rand
	resolve  ResolveFunc
	source   Combatant
	target   Combatant
	interval float64
	loot     *models.LootTable

	state        State
	accumulator  float64
	elapsed      float64
	swings       int
	sourceDamage float64
	targetDamage float64
	victor       Victor
	hands        []*handTimer

	rewards models.Rewards
	claimed bool
}

// Option configures an Encounter.
type Option func(*Encounter)

// WithRewards attaches the loot table rolled when the source wins.
func WithRewards(table models.LootTable) Option {
	return func(e *Encounter) {
		t := table
		e.loot = &t
	}
}

// WithResolver replaces the swing resolver.
func WithResolver(fn ResolveFunc) Option {
	return func(e *Encounter) {
		if fn != nil {
			e.resolve = fn
		}
	}
}

// New binds two combatants. The interval is clamped to MinTickInterval; zero
// selects DefaultTickInterval.
func New(r combat.Rand, source, target Combatant, interval float64, opts ...Option) *Encounter {
	if interval == 0 || math.IsNaN(interval) {
		interval = DefaultTickInterval
	}
	if interval < MinTickInterval {
		interval = MinTickInterval
	}
	e := &Encounter{
		rng:      r,
		resolve:  combat.ResolveAttack,
		source:   source,
		target:   target,
		interval: interval,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.hands = append(e.hands, buildHands(SideSource, source)...)
	e.hands = append(e.hands, buildHands(SideTarget, target)...)
	return e
}

func buildHands(side Side, c Combatant) []*handTimer {
	var out []*handTimer
	for _, h := range c.Hands() {
		delay := c.AttackDelay(h)
		if delay < MinTickInterval {
			delay = MinTickInterval
		}
		t := &handTimer{side: side, hand: h, delay: delay, cooldown: delay}
		if h == combat.HandOff {
			t.cooldown = delay / 2
		}
		out = append(out, t)
	}
	return out
}

// RefreshHands rebuilds one side's hands after its equipment changed. A hand
// that stays keeps its cooldown, capped at the new delay; a new off hand starts
// at half its delay. Complete encounters are left alone.
func (e *Encounter) RefreshHands(side Side) {
	if e.IsComplete() {
		return
	}
	c := e.source
	if side == SideTarget {
		c = e.target
	}
	old := make(map[combat.Hand]*handTimer)
	for _, h := range e.hands {
		if h.side == side {
			old[h.hand] = h
		}
	}
	fresh := buildHands(side, c)
	for _, h := range fresh {
		if prev, ok := old[h.hand]; ok {
			h.cooldown = math.Min(prev.cooldown, h.delay)
		}
	}
	var hands []*handTimer
	for _, s := range []Side{SideSource, SideTarget} {
		if s == side {
			hands = append(hands, fresh...)
			continue
		}
		for _, h := range e.hands {
			if h.side == s {
				hands = append(hands, h)
			}
		}
	}
	e.hands = hands
}

// Start moves Idle or Paused to Running. It reports whether the encounter is
// now running.
func (e *Encounter) Start() bool {
	switch e.state {
	case StateIdle, StatePaused:
		e.state = StateRunning
	}
	return e.state == StateRunning
}

// Stop pauses a running encounter. Cooldowns and totals are kept as-is.
func (e *Encounter) Stop() {
	if e.state == StateRunning {
		e.state = StatePaused
	}
}

// State returns the lifecycle state.
func (e *Encounter) State() State { return e.state }

// IsRunning reports whether ticks are accepted.
func (e *Encounter) IsRunning() bool { return e.state == StateRunning }

// IsComplete reports whether a victor has been decided.
func (e *Encounter) IsComplete() bool { return e.victor != VictorNone }

// Victor returns the winning side.
func (e *Encounter) Victor() Victor { return e.victor }

// Elapsed is the simulated time in seconds.
func (e *Encounter) Elapsed() float64 { return e.elapsed }

// Interval is the fixed step in seconds.
func (e *Encounter) Interval() float64 { return e.interval }

// Source returns the first combatant.
func (e *Encounter) Source() Combatant { return e.source }

// Target returns the second combatant.
func (e *Encounter) Target() Combatant { return e.target }

// Hands returns the scheduling state of every hand in processing order.
func (e *Encounter) Hands() []HandState {
	out := make([]HandState, 0, len(e.hands))
	for _, h := range e.hands {
		out = append(out, HandState{Side: h.side, Hand: h.hand, Delay: h.delay, Cooldown: h.cooldown})
	}
	return out
}

// Tick banks delta seconds and runs as many fixed steps as fit. It returns the
// swings resolved during this call in order. Ticks outside Running are ignored.
func (e *Encounter) Tick(delta float64) []Swing {
	if e.state != StateRunning || !(delta > 0) || math.IsInf(delta, 0) {
		return nil
	}
	e.accumulator += delta
	var out []Swing
	for e.victor == VictorNone && e.accumulator+epsilon >= e.interval {
		e.accumulator -= e.interval
		if e.accumulator < 0 {
			e.accumulator = 0
		}
		e.elapsed += e.interval
		out = e.step(out)
	}
	if e.victor != VictorNone {
		e.accumulator = 0
	}
	return out
}

func (e *Encounter) step(out []Swing) []Swing {
	for _, h := range e.hands {
		h.cooldown -= e.interval
	}
	for _, h := range e.hands {
		for h.cooldown <= epsilon && e.victor == VictorNone {
			h.cooldown += h.delay
			out = append(out, e.swing(h))
		}
		if e.victor != VictorNone {
			break
		}
	}
	return out
}

func (e *Encounter) swing(h *handTimer) Swing {
	attacker, defender := e.source, e.target
	if h.side == SideTarget {
		attacker, defender = e.target, e.source
	}
	outcome := e.resolve(e.rng, attacker, defender, h.hand)
	remaining := defender.ApplyDamage(outcome.Damage)
	e.swings++
	if h.side == SideSource {
		e.sourceDamage += outcome.Damage
	} else {
		e.targetDamage += outcome.Damage
	}
	if !defender.Alive() {
		e.finish(h.side)
	}
	return Swing{
		Outcome:        outcome,
		Side:           h.side,
		Elapsed:        e.elapsed,
		DefenderHealth: remaining,
	}
}

// finish runs exactly once: the step loop stops as soon as a victor exists.
func (e *Encounter) finish(winner Side) {
	e.state = StateComplete
	if winner == SideSource {
		e.victor = VictorSource
		if e.loot != nil {
			e.rewards = RollRewards(e.rng, *e.loot)
		}
		return
	}
	e.victor = VictorTarget
}

// Rewards returns the rolled rewards without claiming them.
func (e *Encounter) Rewards() models.Rewards {
	return e.rewards.Clone()
}

// ClaimRewards hands out the rewards of a source victory. Only the first call
// returns true.
func (e *Encounter) ClaimRewards() (models.Rewards, bool) {
	if e.victor != VictorSource || e.claimed {
		return models.Rewards{}, false
	}
	e.claimed = true
	return e.rewards.Clone(), true
}

// Claimed reports whether ClaimRewards has succeeded.
func (e *Encounter) Claimed() bool { return e.claimed }

// Summary reports totals so far.
func (e *Encounter) Summary() Summary {
	return Summary{
		Elapsed:      e.elapsed,
		Swings:       e.swings,
		SourceDamage: e.sourceDamage,
		TargetDamage: e.targetDamage,
		Victor:       e.victor,
		Rewards:      e.rewards.Clone(),
	}
}
