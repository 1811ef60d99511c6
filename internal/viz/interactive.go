package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/config"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// Builder turns a preset into a model ready to step.
type Builder func(cfg *config.Config) (automaton.Model, error)

type entry struct {
	model, preset string
	cfg           *config.Config
}

// Picker lists the presets and opens the chosen one in a Live view.
type Picker struct {
	entries []entry
	cursor  int
	build   Builder
	opts    LiveOptions
	live    *Live
	err     error
}

func NewPicker(build Builder, opts LiveOptions) Picker {
	p := Picker{build: build, opts: opts}
	for _, model := range []string{"sunflower", "aether"} {
		for _, name := range config.ListPresets(model) {
			p.entries = append(p.entries, entry{model: model, preset: name, cfg: config.GetPreset(model, name)})
		}
	}
	return p
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.live != nil {
		next, cmd := p.live.Update(msg)
		l := next.(Live)
		p.live = &l
		return p, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.entries)-1 {
			p.cursor++
		}
	case "enter":
		if len(p.entries) == 0 {
			return p, nil
		}
		e := p.entries[p.cursor]
		m, err := p.build(e.cfg)
		if err != nil {
			p.err = err
			return p, nil
		}
		opts := p.opts
		if e.cfg.Steps > 0 && !e.cfg.UntilStable {
			opts.MaxStep = m.Step() + e.cfg.Steps
		}
		l := NewLive(m, opts)
		p.live = &l
		return p, l.Init()
	}
	return p, nil
}

func (p Picker) View() string {
	if p.live != nil {
		return p.live.View()
	}
	var b strings.Builder
	b.WriteString(cyan.Render("TOPPLE") + dim.Render("  choose a preset") + "\n\n")
	last := ""
	for i, e := range p.entries {
		if e.model != last {
			b.WriteString(white.Render(e.model) + "\n")
			last = e.model
		}
		line := fmt.Sprintf("%-12s %s %s", e.preset, e.cfg.Grid, e.cfg.Initial)
		if i == p.cursor {
			b.WriteString(cyan.Render("  > " + line))
		} else {
			b.WriteString(dim.Render("    " + line))
		}
		b.WriteString("\n")
	}
	if p.err != nil {
		b.WriteString("\n" + StatusStopped.Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n" + dimmer.Render("↑/↓ select  enter start  q quit"))
	return b.String()
}

// RunPicker shows the preset menu and then the live view of the choice.
func RunPicker(build Builder, opts LiveOptions) error {
	_, err := tea.NewProgram(NewPicker(build, opts), tea.WithAltScreen()).Run()
	return err
}
