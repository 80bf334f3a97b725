// Command simulate_game plays the arena headlessly with a fixed seed and
// prints one line per encounter, then the run totals. It equips any drop that
// fits an empty slot and salvages the rest.
package main

import (
	"flag"
	"io"
	"log"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tatianab/idle-arena/internal/catalog"
	"github.com/tatianab/idle-arena/internal/combat"
	"github.com/tatianab/idle-arena/internal/engine"
	"github.com/tatianab/idle-arena/internal/events"
	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
)

const frame = 0.05

func main() {
	encounters := flag.Int("encounters", 40, "number of encounters to play")
	seed := flag.Uint64("seed", 1, "random seed")
	hero := flag.String("hero", "warrior", "hero id")
	dataDir := flag.String("data", "", "directory of data tables; empty uses the built-in set")
	verbose := flag.Bool("v", false, "log engine activity to stderr")
	flag.Parse()

	p := message.NewPrinter(language.English)
	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "sim ", 0)
	}

	cat, err := loadCatalog(*dataDir)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	var finished []events.EncounterSummary
	var started events.EncounterStarted
	pub := events.PublisherFunc(func(ev events.Event) {
		switch e := ev.(type) {
		case events.EncounterStarted:
			started = e
		case events.EncounterSummary:
			finished = append(finished, e)
			p.Printf("%3d  stage %d wave %d  %-10s %-9s %6.1fs %4d swings  dealt %8.0f  taken %8.0f  +%d xp +%d gold\n",
				len(finished), started.Stage+1, started.Wave+1, started.EnemyName, e.Victor,
				e.Elapsed, e.Swings, e.SourceDamage, e.TargetDamage, e.Rewards.XP, e.Rewards.Gold)
		case events.Notice:
			if e.Code == string(gameerr.CodePreconditionFailed) {
				return
			}
			p.Printf("     notice: %s\n", e.Message)
		}
	})

	eng, err := engine.New(cat,
		engine.WithRand(combat.NewRand(*seed)),
		engine.WithHero(*hero),
		engine.WithLogger(logger),
		engine.WithPublisher(pub),
	)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	// A stalled fight would never produce a summary; bound the frames.
	maxFrames := *encounters * 20 * int(1/frame) * 60
	for i := 0; len(finished) < *encounters && i < maxFrames; i++ {
		if !eng.Running() {
			if err := eng.Start(); err != nil {
				log.Fatalf("Failed to start: %v", err)
			}
		}
		before := len(finished)
		eng.Advance(frame)
		if len(finished) > before {
			manageGear(eng)
		}
	}

	h := eng.Hero()
	life := eng.LifetimeRewards()
	p.Printf("\n%s reached level %d after %d encounters\n", h.Name(), h.Level(), len(finished))
	p.Printf("stage %d, %d waves cleared in total\n", eng.StageIndex()+1, eng.TotalWavesCompleted())
	p.Printf("lifetime: %d xp, %d gold, %d equipment drops\n", life.XP, life.Gold, life.EquipmentUnits())
	p.Printf("gold on hand %d, materials %v\n", eng.Gold(), eng.Materials())
	for _, slot := range models.Slots {
		if it, ok := eng.Equipped()[slot]; ok {
			p.Printf("  %-9s %s [%s] +%d\n", slot, cat.ItemName(it.ItemID), it.Rarity, it.UpgradeLevel)
		}
	}
}

func loadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		return catalog.Default()
	}
	return catalog.LoadDir(dir)
}

// manageGear equips drops into empty slots, upgrades what it can afford and
// salvages everything else.
func manageGear(eng *engine.Engine) {
	cat := eng.Catalog()
	for _, it := range eng.Inventory() {
		def, ok := cat.Item(it.ItemID)
		if !ok {
			continue
		}
		if _, taken := eng.Equipped()[def.Slot]; !taken {
			_ = eng.Equip(it.InstanceID)
			continue
		}
		_ = eng.Salvage(it.InstanceID)
	}
	for _, slot := range models.Slots {
		if it, ok := eng.Equipped()[slot]; ok {
			_ = eng.Upgrade(it.InstanceID)
		}
	}
}
