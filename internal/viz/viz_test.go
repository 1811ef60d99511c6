package viz

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/config"
	"github.com/san-kum/topple/internal/numeric"
	"github.com/san-kum/topple/internal/rules"
	"github.com/san-kum/topple/internal/sim"
)

func newModel(t *testing.T, dim int, source int64) automaton.Model {
	t.Helper()
	r, err := rules.NewSunflower[int64](numeric.Checked{}, dim, 0)
	if err != nil {
		t.Fatal(err)
	}
	e, err := automaton.New(automaton.Variant[int64]{Dim: dim, Arith: numeric.Checked{}, Rule: r}, automaton.SingleSource[int64](source, 0))
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTakeSlice(t *testing.T) {
	s := TakeSlice(newModel(t, 2, 40), 3, nil)
	if len(s.Rows) != 7 {
		t.Fatalf("rows = %d", len(s.Rows))
	}
	for i, row := range s.Rows {
		if len(row) != 7 {
			t.Fatalf("row %d has %d cells", i, len(row))
		}
	}
	if s.Rows[3][3].Int64() != 40 || s.Rows[0][0].Sign() != 0 {
		t.Errorf("centre %v corner %v", s.Rows[3][3], s.Rows[0][0])
	}
	if s.Spread.Int64() != 40 {
		t.Errorf("spread = %v", s.Spread)
	}

	line := TakeSlice(newModel(t, 1, 40), 4, nil)
	if len(line.Rows) != 1 || len(line.Rows[0]) != 9 {
		t.Errorf("1D slice shape %dx%d", len(line.Rows), len(line.Rows[0]))
	}
}

func TestSliceRender(t *testing.T) {
	s := TakeSlice(newModel(t, 3, 40), 2, []int{0})
	out := s.Render(ThemeMinimal)
	if strings.Count(out, "\n") != 5 {
		t.Errorf("expected 5 lines:\n%s", out)
	}
	if !strings.Contains(out, "██") || !strings.Contains(out, "·") {
		t.Errorf("missing source or background glyph:\n%s", out)
	}
	if strings.Trim(s.Braille(), "⠀\n") == "" {
		t.Error("braille rendering is blank")
	}
}

func TestCanvas(t *testing.T) {
	c := NewCanvas(4, 8)
	if c.Width != 2 || c.Height != 2 {
		t.Fatalf("canvas %dx%d", c.Width, c.Height)
	}
	c.Set(0, 0)
	c.Set(3, 7)
	c.Set(10, 10)
	if c.Grid[0][0] != 0x2801 || c.Grid[1][1] != 0x2880 {
		t.Errorf("grid %U %U", c.Grid[0][0], c.Grid[1][1])
	}
	c.Clear()
	if c.Grid[0][0] != 0x2800 {
		t.Error("clear left dots behind")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 7, 0}, 8); got != "▁█▁" {
		t.Errorf("sparkline = %q", got)
	}
	if got := []rune(Sparkline([]float64{1, 2, 3, 4}, 2)); len(got) != 2 || got[1] != '█' {
		t.Errorf("truncated sparkline = %q", string(got))
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("empty sparkline = %q", got)
	}
}

func TestPlotTrace(t *testing.T) {
	r := sim.New(nil)
	m := newModel(t, 2, 500)
	res, err := r.Run(context.Background(), m, sim.Config{Steps: 10, Trace: true})
	if err != nil {
		t.Fatal(err)
	}
	out := PlotTrace(res.Trace, FieldActive, 40, 6)
	if !strings.Contains(out, "active, steps 0 to 10") {
		t.Errorf("missing caption:\n%s", out)
	}
	if PlotTrace(nil, FieldMass, 40, 6) != "" {
		t.Error("empty trace should plot nothing")
	}
	if PlotTrace(res.Trace[:1], FieldSide, 20, 3) == "" {
		t.Error("single sample should still plot")
	}

	side := Series(res.Trace, FieldSide)
	for i := 1; i < len(side); i++ {
		if side[i] < side[i-1] {
			t.Fatalf("side shrank at sample %d: %v", i, side)
		}
	}
}

func TestParseField(t *testing.T) {
	for _, f := range Fields {
		got, err := ParseField(string(f))
		if err != nil || got != f {
			t.Errorf("ParseField(%q) = %q, %v", f, got, err)
		}
	}
	if _, err := ParseField("energy"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("ocean").Name != "ocean" || GetTheme("nope").Name != "ember" {
		t.Error("theme lookup")
	}
	seen := map[string]bool{}
	th := ThemeEmber
	for range Themes {
		seen[th.Name] = true
		th = NextTheme(th.Name)
	}
	if len(seen) != len(Themes) {
		t.Errorf("cycled through %d of %d themes", len(seen), len(Themes))
	}
	for _, th := range Themes {
		if len(th.Hot) != len(th.Cold) {
			t.Errorf("%s: ramps differ in length", th.Name)
		}
	}
}

func TestLiveStepping(t *testing.T) {
	var observed []int64
	obs := sim.ObserverFunc(func(_ automaton.Model, s sim.Sample) { observed = append(observed, s.Step) })
	m := newModel(t, 2, 1000)
	var l tea.Model = NewLive(m, LiveOptions{StepsPerTick: 3, Observers: []sim.Observer{obs}})

	l, cmd := l.Update(TickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	if m.Step() != 3 {
		t.Fatalf("step after one tick = %d", m.Step())
	}

	l, _ = l.Update(key(" "))
	l, _ = l.Update(TickMsg(time.Now()))
	if m.Step() != 3 {
		t.Errorf("paused view stepped to %d", m.Step())
	}
	l, _ = l.Update(key("n"))
	if m.Step() != 4 {
		t.Errorf("single step reached %d", m.Step())
	}
	if len(observed) != 4 || observed[3] != 4 {
		t.Errorf("observed %v", observed)
	}

	view := l.View()
	if !strings.Contains(view, "SUNFLOWER 2D") || !strings.Contains(view, "PAUSED") {
		t.Errorf("unexpected view:\n%s", view)
	}

	_, cmd = l.Update(key("q"))
	if cmd == nil {
		t.Fatal("quit key returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key did not quit")
	}
}

func TestLiveStopsWhenStable(t *testing.T) {
	m := newModel(t, 2, 3)
	var l tea.Model = NewLive(m, LiveOptions{StepsPerTick: 5})
	l, _ = l.Update(TickMsg(time.Now()))
	if m.Step() != 1 {
		t.Errorf("stepped past a stable configuration to %d", m.Step())
	}
	if !strings.Contains(l.View(), "STABLE") {
		t.Error("view does not report stability")
	}
}

func TestLiveMaxStep(t *testing.T) {
	m := newModel(t, 2, 1000)
	var l tea.Model = NewLive(m, LiveOptions{StepsPerTick: 10, MaxStep: 4})
	l, _ = l.Update(TickMsg(time.Now()))
	if m.Step() != 4 {
		t.Errorf("step = %d, want 4", m.Step())
	}
	if !strings.Contains(l.View(), "Progress") {
		t.Error("view is missing the progress bar")
	}
}

type ckptRecorder struct {
	paths []string
}

func (r *ckptRecorder) OnStep(automaton.Model, sim.Sample) {}
func (r *ckptRecorder) OnCheckpoint(_ automaton.Model, path string) {
	r.paths = append(r.paths, path)
}

func TestLiveBackup(t *testing.T) {
	dir := t.TempDir()
	rec := &ckptRecorder{}
	m := newModel(t, 2, 1000)
	var l tea.Model = NewLive(m, LiveOptions{CheckpointDir: dir, Observers: []sim.Observer{rec}})
	l, _ = l.Update(key(" "))
	l, _ = l.Update(key("n"))
	l, _ = l.Update(key("n"))
	l, _ = l.Update(key("b"))

	want := filepath.Join(dir, checkpoint.Name("sunflower", 2))
	if _, err := os.Stat(want); err != nil {
		t.Fatal(err)
	}
	if len(rec.paths) != 1 || rec.paths[0] != want {
		t.Errorf("observer saw %v", rec.paths)
	}
	if !strings.Contains(l.View(), "saved") {
		t.Error("view does not confirm the backup")
	}
}

func TestPicker(t *testing.T) {
	var built *config.Config
	build := func(cfg *config.Config) (automaton.Model, error) {
		built = cfg
		return newModel(t, 2, 100), nil
	}
	var p tea.Model = NewPicker(build, LiveOptions{})
	if !strings.Contains(p.View(), "sunflower") || !strings.Contains(p.View(), "aether") {
		t.Fatalf("menu lists no models:\n%s", p.View())
	}

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || built == nil {
		t.Fatal("enter did not start a preset")
	}
	names := config.ListPresets("sunflower")
	if built.Model != "sunflower" || built.Initial != config.GetPreset("sunflower", names[1]).Initial {
		t.Errorf("built %s %s", built.Model, built.Initial)
	}
	if !strings.Contains(p.View(), "RUNNING") {
		t.Error("picker did not switch to the live view")
	}
}
