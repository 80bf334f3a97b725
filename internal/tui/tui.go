// Package tui hosts the engine in a terminal: a frame loop advances the
// simulation and the combat log, character sheet and command line are drawn
// with bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tatianab/idle-arena/internal/engine"
	"github.com/tatianab/idle-arena/internal/events"
	"github.com/tatianab/idle-arena/internal/gameerr"
	"github.com/tatianab/idle-arena/internal/models"
)

// maxLogLines bounds the combat log kept in memory.
const maxLogLines = 500

var (
	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF8787")).
			Bold(true)

	rewardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD75F"))

	encounterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	swingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BBBBBB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

// Options configure the host.
type Options struct {
	FPS    int
	Events <-chan events.Event
	// Dropped reports events lost by the subscription, when known.
	Dropped func() uint64
}

type model struct {
	engine    *engine.Engine
	events    <-chan events.Event
	dropped   func() uint64
	frame     time.Duration
	last      time.Time
	textInput textinput.Model
	viewport  viewport.Model
	printer   *message.Printer
	lines     []string
	width     int
	height    int
	ready     bool
}

type frameMsg time.Time

func newModel(eng *engine.Engine, opts Options) model {
	ti := textinput.New()
	ti.Placeholder = "/start, /help ..."
	ti.Focus()
	ti.CharLimit = 120
	ti.Width = 40

	fps := opts.FPS
	if fps <= 0 {
		fps = 20
	}
	return model{
		engine:    eng,
		events:    opts.Events,
		dropped:   opts.Dropped,
		frame:     time.Second / time.Duration(fps),
		textInput: ti,
		printer:   message.NewPrinter(language.English),
		lines:     []string{helpStyle.Render(helpText())},
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, m.quit()
		case tea.KeyEnter:
			line := strings.TrimSpace(m.textInput.Value())
			m.textInput.Reset()
			if line == "" {
				return m, nil
			}
			return m.runCommand(line)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logWidth := int(float64(msg.Width) * 0.65)
		if !m.ready {
			m.viewport = viewport.New(logWidth, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = logWidth
			m.viewport.Height = msg.Height - 6
		}
		m.refreshLog()

	case frameMsg:
		now := time.Time(msg)
		if !m.last.IsZero() {
			m.engine.Advance(now.Sub(m.last).Seconds())
		}
		m.last = now
		m.drain()
		return m, m.tick()
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) runCommand(line string) (tea.Model, tea.Cmd) {
	m.appendLine(helpStyle.Render("> " + line))
	cmd, err := parseCommand(line)
	if err != nil {
		m.appendLine(noticeStyle.Render(err.Error()))
		m.refreshLog()
		return m, nil
	}
	if cmd.name == "quit" {
		return m, m.quit()
	}
	out, err := execute(context.Background(), m.engine, cmd)
	if out != "" && err == nil {
		m.appendLine(out)
	}
	m.drain()
	// Engine rejections arrive as notices; anything else is shown here.
	var gerr *gameerr.Error
	if err != nil && (m.events == nil || !errors.As(err, &gerr)) {
		m.appendLine(noticeStyle.Render(err.Error()))
	}
	m.refreshLog()
	return m, nil
}

func (m model) quit() tea.Cmd {
	m.engine.Stop()
	return tea.Quit
}

// drain moves every pending event into the log without blocking.
func (m *model) drain() {
	if m.events == nil {
		return
	}
	changed := false
	for {
		select {
		case ev, ok := <-m.events:
			if !ok {
				m.events = nil
				m.refreshLog()
				return
			}
			m.appendLine(m.renderEvent(ev))
			changed = true
		default:
			if changed {
				m.refreshLog()
			}
			return
		}
	}
}

func (m *model) appendLine(s string) {
	m.lines = append(m.lines, s)
	if over := len(m.lines) - maxLogLines; over > 0 {
		m.lines = m.lines[over:]
	}
}

func (m *model) refreshLog() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m model) renderEvent(ev events.Event) string {
	text := events.Describe(ev)
	switch e := ev.(type) {
	case events.Swing:
		return swingStyle.Render(text)
	case events.EncounterStarted:
		return encounterStyle.Render(text)
	case events.RewardsClaimed:
		if e.LevelUps > 0 {
			text += m.printer.Sprintf(" (level up x%d)", e.LevelUps)
		}
		return rewardStyle.Render(text)
	case events.Notice:
		return noticeStyle.Render(text)
	}
	return text
}

func (m model) View() string {
	if !m.ready {
		return "\n  Loading...\n"
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderState())
	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		"\n"+m.textInput.View(),
		helpStyle.Render("/help for commands, Esc to save and quit"),
	)
}

func (m model) renderState() string {
	eng := m.engine
	p := m.printer
	var b strings.Builder

	status := "paused"
	if eng.Running() {
		status = "running"
	}
	hero := eng.Hero()
	b.WriteString(titleStyle.Render("HERO") + "\n")
	if hero != nil {
		b.WriteString(p.Sprintf("%s  lvl %d  (%s)\n", hero.Name(), hero.Level(), status))
		b.WriteString(p.Sprintf("HP %.0f/%.0f  MP %.0f/%.0f\n", hero.Health(), hero.MaxHealth(), hero.Mana(), hero.MaxMana()))
		d := hero.Derived()
		b.WriteString(p.Sprintf("AP %.1f  Acc %.0f  Eva %.0f  Arm %.0f\n", d.AttackPower, d.Accuracy, d.Evasion, d.Armor))
		b.WriteString(p.Sprintf("Crit %.0f%%  Dodge %.0f%%  Parry %.0f%%\n", d.CritChance*100, d.DodgeChance*100, d.ParryChance*100))
	}

	stage := eng.Stage()
	b.WriteString("\n" + titleStyle.Render("STAGE") + "\n")
	b.WriteString(p.Sprintf("%d. %s  wave %d/%d\n", eng.StageIndex()+1, stage.Name, eng.WavesCompleted()+1, stage.Waves))
	if enemy := eng.Enemy(); enemy != nil {
		boss := ""
		if eng.BossWave() {
			boss = " [boss]"
		}
		b.WriteString(p.Sprintf("vs %s%s  HP %.0f/%.0f\n", enemy.Name(), boss, enemy.Health(), enemy.MaxHealth()))
	}
	b.WriteString(p.Sprintf("waves cleared %d\n", eng.TotalWavesCompleted()))

	b.WriteString("\n" + titleStyle.Render("PURSE") + "\n")
	b.WriteString(p.Sprintf("gold %d  lifetime xp %d\n", eng.Gold(), eng.LifetimeRewards().XP))

	b.WriteString("\n" + titleStyle.Render("EQUIPPED") + "\n")
	equipped := eng.Equipped()
	cat := eng.Catalog()
	for _, slot := range models.Slots {
		it, ok := equipped[slot]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", slot, describeItem(cat.ItemName(it.ItemID), it))
	}
	if len(equipped) == 0 {
		b.WriteString("(nothing)\n")
	}
	if m.dropped != nil {
		if n := m.dropped(); n > 0 {
			b.WriteString(p.Sprintf("\n%d log events dropped\n", n))
		}
	}

	stateWidth := int(float64(m.width) * 0.32)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(b.String())
}

// Run blocks until the player quits.
func Run(eng *engine.Engine, opts Options) error {
	p := tea.NewProgram(newModel(eng, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
