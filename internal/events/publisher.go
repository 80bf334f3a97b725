package events

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tatianab/idle-arena/internal/models"
)

// Publisher receives events from the simulation.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) {
	if f == nil {
		return
	}
	f(e)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

// NopPublisher discards every event.
func NopPublisher() Publisher {
	return nopPublisher{}
}

type multiPublisher []Publisher

func (m multiPublisher) Publish(e Event) {
	for _, p := range m {
		p.Publish(e)
	}
}

// Multi fans events out to every non-nil publisher in order.
func Multi(pubs ...Publisher) Publisher {
	out := make(multiPublisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return NopPublisher()
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// Bus delivers events to channel subscribers without ever blocking the
// publisher; a full subscriber loses the event and the drop is counted.
type Bus struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	next    int
	dropped atomic.Uint64
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Publish implements Publisher.
func (b *Bus) Publish(e Event) {
	if e == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a buffered channel. The returned cancel func closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Dropped is the number of deliveries lost to full subscribers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Recorder keeps every event it receives. Useful in tests and headless runs.
type Recorder struct {
	Events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(e Event) {
	r.Events = append(r.Events, e)
}

// OfType returns the recorded events of type t in order.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.Events = nil
}

type logSink struct {
	logger *log.Logger
	skip   map[Type]bool
}

// LogSink writes one line per event. Types listed in skip are ignored.
func LogSink(logger *log.Logger, skip ...Type) Publisher {
	if logger == nil {
		return NopPublisher()
	}
	s := &logSink{logger: logger, skip: make(map[Type]bool, len(skip))}
	for _, t := range skip {
		s.skip[t] = true
	}
	return s
}

func (s *logSink) Publish(e Event) {
	if e == nil || s.skip[e.EventType()] {
		return
	}
	s.logger.Printf("[%s] %s", e.EventType(), Describe(e))
}

// Describe renders an event as a single human-readable line.
func Describe(e Event) string {
	switch ev := e.(type) {
	case Swing:
		switch ev.Result {
		case "hit":
			crit := ""
			if ev.Critical {
				crit = " (critical)"
			}
			return fmt.Sprintf("%6.2fs %s hits %s with %s hand for %.1f%s", ev.Elapsed, ev.Attacker, ev.Defender, ev.Hand, ev.Damage, crit)
		case "miss":
			return fmt.Sprintf("%6.2fs %s misses %s", ev.Elapsed, ev.Attacker, ev.Defender)
		case "parry":
			return fmt.Sprintf("%6.2fs %s parries %s", ev.Elapsed, ev.Defender, ev.Attacker)
		default:
			return fmt.Sprintf("%6.2fs %s %ss %s", ev.Elapsed, ev.Defender, ev.Result, ev.Attacker)
		}
	case EncounterStarted:
		boss := ""
		if ev.Boss {
			boss = " [boss]"
		}
		return fmt.Sprintf("stage %d wave %d: %s engages %s%s (%d more queued)", ev.Stage+1, ev.Wave+1, ev.Hero, ev.EnemyName, boss, ev.Remaining)
	case EncounterSummary:
		return fmt.Sprintf("encounter over after %.1fs, %d swings, dealt %.0f, taken %.0f, victor %s", ev.Elapsed, ev.Swings, ev.SourceDamage, ev.TargetDamage, ev.Victor)
	case RewardsClaimed:
		return fmt.Sprintf("rewards: %s", describeRewards(ev.Rewards))
	case InventoryChanged:
		return fmt.Sprintf("%s %s (%s)", ev.Action, ev.ItemID, shortID(ev.InstanceID))
	case MaterialsChanged:
		return describeDelta(ev.Delta)
	case CraftCompleted:
		return fmt.Sprintf("crafted %d x %s", ev.Quantity, ev.Result)
	case ControlChanged:
		state := "paused"
		if ev.Running {
			state = "running"
		}
		if ev.Reason != "" {
			return fmt.Sprintf("%s: %s", state, ev.Reason)
		}
		return state
	case ProgressChanged:
		return fmt.Sprintf("%s wave %d/%d (total %d)", ev.StageName, ev.WavesCompleted, ev.Waves, ev.TotalWavesCompleted)
	case Notice:
		return ev.Message
	}
	return string(e.EventType())
}

func describeRewards(r models.Rewards) string {
	if r.IsEmpty() {
		return "nothing"
	}
	parts := []string{fmt.Sprintf("%d xp", r.XP), fmt.Sprintf("%d gold", r.Gold)}
	for _, id := range r.MaterialIDs() {
		parts = append(parts, fmt.Sprintf("%d %s", r.Materials[id], id))
	}
	for _, g := range r.Equipment {
		parts = append(parts, fmt.Sprintf("%d %s %s", g.Quantity, g.Rarity, g.ItemID))
	}
	for _, g := range r.Augments {
		parts = append(parts, fmt.Sprintf("%d %s", g.Quantity, g.ID))
	}
	return strings.Join(parts, ", ")
}

func describeDelta(delta map[string]int) string {
	keys := make([]string, 0, len(delta))
	for k := range delta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %+d", k, delta[k]))
	}
	return strings.Join(parts, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
