package tui

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tatianab/idle-arena/internal/engine"
	"github.com/tatianab/idle-arena/internal/models"
	"github.com/tatianab/idle-arena/internal/stats"
)

// command is one parsed slash command.
type command struct {
	name string
	args []string
}

var commandHelp = []struct {
	name  string
	usage string
}{
	{"start", "/start"},
	{"stop", "/stop"},
	{"reset", "/reset"},
	{"fresh", "/fresh"},
	{"hero", "/hero <id>"},
	{"stage", "/stage <number>"},
	{"loot", "/loot <table|default>"},
	{"list", "/list <heroes|stages|loot|recipes>"},
	{"inv", "/inv"},
	{"equip", "/equip <item>"},
	{"unequip", "/unequip <slot>"},
	{"upgrade", "/upgrade <item>"},
	{"socket", "/socket <item> <augment>"},
	{"preview", "/preview <augment>"},
	{"salvage", "/salvage <item>"},
	{"craft", "/craft <recipe>"},
	{"use", "/use <consumable>"},
	{"save", "/save"},
	{"help", "/help"},
	{"quit", "/quit"},
}

// arity is the argument count each command takes.
var arity = map[string]int{
	"start": 0, "stop": 0, "reset": 0, "fresh": 0, "inv": 0, "save": 0, "help": 0, "quit": 0,
	"hero": 1, "stage": 1, "loot": 1, "equip": 1, "unequip": 1, "upgrade": 1,
	"salvage": 1, "craft": 1, "use": 1, "list": 1, "preview": 1,
	"socket": 2,
}

func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{}, fmt.Errorf("commands start with '/', try /help")
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command, try /help")
	}
	cmd := command{name: strings.ToLower(fields[0]), args: fields[1:]}
	want, ok := arity[cmd.name]
	if !ok {
		return command{}, fmt.Errorf("unknown command /%s, try /help", cmd.name)
	}
	if len(cmd.args) != want {
		return command{}, fmt.Errorf("usage: %s", usage(cmd.name))
	}
	return cmd, nil
}

func usage(name string) string {
	for _, h := range commandHelp {
		if h.name == name {
			return h.usage
		}
	}
	return "/" + name
}

func helpText() string {
	parts := make([]string, 0, len(commandHelp))
	for _, h := range commandHelp {
		parts = append(parts, h.usage)
	}
	return "commands: " + strings.Join(parts, "  ")
}

// execute runs cmd against the engine and returns a line for the log. Engine
// rejections come back as errors; the engine has already published a notice.
func execute(ctx context.Context, eng *engine.Engine, cmd command) (string, error) {
	switch cmd.name {
	case "start":
		return "", eng.Start()
	case "stop":
		eng.Stop()
		return "", nil
	case "reset":
		return "encounter reset", eng.ResetEncounter(false, eng.Running())
	case "fresh":
		return "started over", eng.ResetEncounter(true, false)
	case "hero":
		return "", eng.SelectHero(cmd.args[0])
	case "stage":
		n, err := strconv.Atoi(cmd.args[0])
		if err != nil {
			return "", fmt.Errorf("stage must be a number: %w", err)
		}
		return "", eng.SelectStage(n - 1)
	case "loot":
		id := cmd.args[0]
		if id == "default" {
			id = ""
		}
		return "", eng.SelectLoot(id)
	case "list":
		return listText(eng, cmd.args[0])
	case "inv":
		return inventoryText(eng), nil
	case "equip":
		id, err := findItem(eng, cmd.args[0])
		if err != nil {
			return "", err
		}
		return "", eng.Equip(id)
	case "unequip":
		return "", eng.Unequip(models.Slot(cmd.args[0]))
	case "upgrade":
		id, err := findItem(eng, cmd.args[0])
		if err != nil {
			return "", err
		}
		return "", eng.Upgrade(id)
	case "socket":
		id, err := findItem(eng, cmd.args[0])
		if err != nil {
			return "", err
		}
		return "", eng.Socket(id, cmd.args[1])
	case "preview":
		before, after, err := eng.PreviewAugment(cmd.args[0])
		if err != nil {
			return "", err
		}
		return previewText(cmd.args[0], before, after), nil
	case "salvage":
		id, err := findItem(eng, cmd.args[0])
		if err != nil {
			return "", err
		}
		return "", eng.Salvage(id)
	case "craft":
		return "", eng.Craft(cmd.args[0])
	case "use":
		return "", eng.UseConsumable(cmd.args[0])
	case "save":
		if err := eng.Save(ctx); err != nil {
			return "", err
		}
		return "saved", nil
	case "help":
		return helpText(), nil
	}
	return "", fmt.Errorf("unknown command /%s", cmd.name)
}

// findItem resolves an instance id prefix or an item id against owned
// equipment. Inventory is searched before equipped items.
func findItem(eng *engine.Engine, ref string) (string, error) {
	var owned []models.OwnedEquipment
	owned = append(owned, eng.Inventory()...)
	equipped := eng.Equipped()
	for _, slot := range models.Slots {
		if it, ok := equipped[slot]; ok {
			owned = append(owned, it)
		}
	}
	var byPrefix, byItem []string
	for _, it := range owned {
		if it.InstanceID == ref {
			return ref, nil
		}
		if strings.HasPrefix(it.InstanceID, ref) {
			byPrefix = append(byPrefix, it.InstanceID)
		}
		if it.ItemID == ref {
			byItem = append(byItem, it.InstanceID)
		}
	}
	switch {
	case len(byPrefix) == 1:
		return byPrefix[0], nil
	case len(byPrefix) > 1:
		return "", fmt.Errorf("%q matches %d items, use more of the id", ref, len(byPrefix))
	case len(byItem) > 0:
		// Several copies of one item: take the first listed.
		return byItem[0], nil
	}
	return "", fmt.Errorf("no owned item matches %q", ref)
}

func listText(eng *engine.Engine, what string) (string, error) {
	cat := eng.Catalog()
	var b strings.Builder
	switch what {
	case "heroes":
		b.WriteString("heroes:")
		for _, id := range cat.HeroIDs() {
			def, _ := cat.Hero(id)
			mark := ""
			if id == eng.HeroID() {
				mark = " *"
			}
			fmt.Fprintf(&b, "\n  %s (%s)%s", id, def.Name, mark)
		}
	case "stages":
		b.WriteString("stages:")
		for i, st := range cat.Stages() {
			mark := ""
			if i == eng.StageIndex() {
				mark = " *"
			}
			fmt.Fprintf(&b, "\n  %d. %s, %d waves, loot %s%s", i+1, st.Name, st.Waves, st.LootTable, mark)
		}
	case "loot":
		b.WriteString("loot tables (default uses each stage's own):")
		for _, id := range cat.LootTableIDs() {
			mark := ""
			if id == eng.LootTableID() {
				mark = " *"
			}
			fmt.Fprintf(&b, "\n  %s%s", id, mark)
		}
	case "recipes":
		b.WriteString("recipes:")
		for _, id := range cat.RecipeIDs() {
			r, _ := cat.Recipe(id)
			fmt.Fprintf(&b, "\n  %s: %d x %s for%s", id, r.ResultQuantity(), cat.ItemName(r.Result), stockText(r.Cost))
		}
	default:
		return "", fmt.Errorf("usage: %s", usage("list"))
	}
	return b.String(), nil
}

func previewText(augmentID string, before, after stats.Derived) string {
	var parts []string
	for _, f := range stats.DerivedFields {
		old, now := f.Get(before), f.Get(after)
		if math.Abs(now-old) < 1e-9 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %.2f -> %.2f", f.Name, old, now))
	}
	if len(parts) == 0 {
		return augmentID + ": no change"
	}
	return augmentID + ": " + strings.Join(parts, ", ")
}

func inventoryText(eng *engine.Engine) string {
	cat := eng.Catalog()
	var b strings.Builder
	b.WriteString("inventory:")
	inv := eng.Inventory()
	if len(inv) == 0 {
		b.WriteString(" (empty)")
	}
	for _, it := range inv {
		fmt.Fprintf(&b, "\n  %s %s", shortID(it.InstanceID), describeItem(cat.ItemName(it.ItemID), it))
	}
	b.WriteString("\nconsumables:")
	b.WriteString(stockText(eng.Consumables()))
	b.WriteString("\nmaterials:")
	b.WriteString(stockText(eng.Materials()))
	return b.String()
}

func describeItem(name string, it models.OwnedEquipment) string {
	s := fmt.Sprintf("%s [%s]", name, it.Rarity)
	if it.UpgradeLevel > 0 {
		s += fmt.Sprintf(" +%d", it.UpgradeLevel)
	}
	if it.Sockets > 0 {
		s += fmt.Sprintf(" %d/%d sockets", len(it.Augments), it.Sockets)
	}
	return s
}

func stockText(stock map[string]int) string {
	if len(stock) == 0 {
		return " (none)"
	}
	ids := make([]string, 0, len(stock))
	for id := range stock {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s x%d", id, stock[id]))
	}
	return " " + strings.Join(parts, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
