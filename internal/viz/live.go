package viz

import (
	"fmt"
	"log/slog"
	"math/big"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/sim"
)

const historyCapacity = 600

type LiveOptions struct {
	// StepsPerTick is how many steps one frame advances.
	StepsPerTick int
	// MaxStep pauses the view at this step; zero means never.
	MaxStep       int64
	CheckpointDir string
	Radius        int
	Tick          time.Duration
	Observers     []sim.Observer
	Log           *slog.Logger
}

type TickMsg time.Time

// Live steps a model interactively. Stepping and reading happen on the
// Bubble Tea update loop only.
type Live struct {
	m       automaton.Model
	opts    LiveOptions
	running bool
	stopped bool
	stable  bool
	radius  int
	braille bool
	theme   Theme
	last    sim.Sample
	active  []float64
	sides   []float64
	message string
	err     error
	width   int
}

func NewLive(m automaton.Model, opts LiveOptions) Live {
	if opts.StepsPerTick < 1 {
		opts.StepsPerTick = 1
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second / 30
	}
	if opts.Radius < 1 {
		opts.Radius = 12
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}
	l := Live{
		m:       m,
		opts:    opts,
		running: true,
		radius:  opts.Radius,
		theme:   CurrentTheme,
		last:    sim.Sample{Stats: m.Stats(), Initial: true},
		active:  make([]float64, 0, historyCapacity),
		sides:   make([]float64, 0, historyCapacity),
		width:   120,
	}
	l.record(l.last)
	return l
}

func (l Live) tick() tea.Cmd {
	return tea.Tick(l.opts.Tick, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (l Live) Init() tea.Cmd {
	return l.tick()
}

func (l Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return l, tea.Quit
		case " ":
			if !l.stopped {
				l.running = !l.running
			}
		case "n", "right":
			if !l.running {
				l.step()
			}
		case "b":
			l.backup()
		case "t":
			l.theme = NextTheme(l.theme.Name)
		case "v":
			l.braille = !l.braille
		case "+", "=":
			l.radius++
		case "-", "_":
			if l.radius > 1 {
				l.radius--
			}
		}
	case tea.WindowSizeMsg:
		l.width = msg.Width
	case TickMsg:
		if l.running {
			for i := 0; i < l.opts.StepsPerTick && l.running; i++ {
				l.step()
			}
		}
		return l, l.tick()
	}
	return l, nil
}

func (l *Live) step() {
	if l.stopped {
		return
	}
	side := l.m.Side()
	start := time.Now()
	changed, err := l.m.NextStep()
	if err != nil {
		l.err = err
		l.stopped, l.running = true, false
		l.opts.Log.Error("step failed", "step", l.m.Step()+1, "error", err)
		return
	}
	s := sim.Sample{Stats: l.m.Stats(), Changed: changed, Grew: l.m.Side() > side, Elapsed: time.Since(start)}
	l.last = s
	l.record(s)
	for _, o := range l.opts.Observers {
		o.OnStep(l.m, s)
	}
	if !changed {
		l.stable, l.running = true, false
		l.message = fmt.Sprintf("stable at step %d", l.m.Step())
	}
	if l.opts.MaxStep > 0 && l.m.Step() >= l.opts.MaxStep {
		l.running = false
	}
}

func (l *Live) record(s sim.Sample) {
	l.active = append(l.active, toFloat(s.Active))
	if len(l.active) > historyCapacity {
		l.active = l.active[1:]
	}
	l.sides = append(l.sides, float64(s.Side))
	if len(l.sides) > historyCapacity {
		l.sides = l.sides[1:]
	}
}

func (l *Live) backup() {
	if l.opts.CheckpointDir == "" {
		l.message = "no checkpoint directory"
		return
	}
	path := filepath.Join(l.opts.CheckpointDir, checkpoint.Name(l.m.Identity().Model, l.m.Step()))
	if err := l.m.BackUp(path); err != nil {
		l.message = "backup failed: " + err.Error()
		l.opts.Log.Error("backup failed", "path", path, "error", err)
		return
	}
	for _, o := range l.opts.Observers {
		if co, ok := o.(sim.CheckpointObserver); ok {
			co.OnCheckpoint(l.m, path)
		}
	}
	l.message = "saved " + path
	l.opts.Log.Info("checkpoint written", "path", path, "step", l.m.Step())
}

func (l Live) View() string {
	slice := TakeSlice(l.m, l.radius, nil)
	var grid string
	if l.braille {
		grid = slice.Braille()
	} else {
		grid = slice.Render(l.theme)
	}
	sliceView := sliceStyle.Render(grid)

	id := l.m.Identity()
	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s %dD", strings.ToUpper(id.Model), id.Dimension)) + "\n")
	switch {
	case l.err != nil:
		s.WriteString(StatusStopped.Render("STOPPED") + "\n\n")
	case l.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	case l.stable:
		s.WriteString(StatusPaused.Render("STABLE") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	if len(l.active) > 1 {
		chart := asciigraph.Plot(l.active, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("active cells"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(labelStyle.Render("Side") + Sparkline(l.sides, 24) + "\n\n")

	st := l.last.Stats
	rows := [][2]string{
		{"Step", fmt.Sprintf("%d", l.m.Step())},
		{"Side", fmt.Sprintf("%d", l.m.Side())},
		{"Stored", fmt.Sprintf("%d", st.Cells)},
		{"Active", bigText(st.Active)},
		{"Mass", bigText(st.Mass)},
		{"Min", bigText(st.Min)},
		{"Max", bigText(st.Max)},
		{"Numeric", id.Numeric},
		{"Symmetry", id.Symmetry},
	}
	for _, r := range rows {
		s.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}
	if l.opts.MaxStep > 0 {
		s.WriteString(labelStyle.Render("Progress") + ProgressBar(float64(l.m.Step())/float64(l.opts.MaxStep), 20) + "\n")
	}
	if l.err != nil {
		s.WriteString("\n" + StatusStopped.Render(l.err.Error()) + "\n")
	} else if l.message != "" {
		s.WriteString("\n" + Subtle.Render(l.message) + "\n")
	}
	s.WriteString(helpStyle.Render(Separator(30) + "\nSP:Pause N:Step B:Backup Q:Quit\nT:Theme  V:Dots  +/-:Zoom"))

	return lipgloss.JoinHorizontal(lipgloss.Top, sliceView, statsStyle.Render(s.String()))
}

func bigText(v *big.Int) string {
	if v == nil {
		return "-"
	}
	return v.String()
}

// RunLive runs the live view until the user quits.
func RunLive(m automaton.Model, opts LiveOptions) error {
	_, err := tea.NewProgram(NewLive(m, opts), tea.WithAltScreen()).Run()
	return err
}
