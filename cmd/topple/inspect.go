package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/config"
	"github.com/san-kum/topple/internal/experiment"
	"github.com/san-kum/topple/internal/export"
	"github.com/san-kum/topple/internal/metrics"
	"github.com/san-kum/topple/internal/sim"
	"github.com/san-kum/topple/internal/storage"
	"github.com/san-kum/topple/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tGRID\tINITIAL\tSTEPS\tSIDE\tSTABLE\tSTARTED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d-%d\t%d\t%v\t%s\n",
			run.ID,
			run.Model,
			run.Grid,
			run.Initial,
			run.StartStep,
			run.FinalStep,
			run.FinalSide,
			run.Stable,
			run.Started.Local().Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	run, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(run)
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fields := []viz.Field{viz.FieldActive, viz.FieldMass, viz.FieldSide}
	if field != "" {
		f, err := viz.ParseField(field)
		if err != nil {
			return err
		}
		fields = []viz.Field{f}
	}

	fmt.Printf("run: %s\n", run.Meta.ID)
	fmt.Printf("model: %s %s %s\n", run.Meta.Model, run.Meta.Grid, run.Meta.Initial)
	fmt.Printf("samples: %d\n\n", len(trace))
	for _, f := range fields {
		fmt.Println(viz.PlotTrace(trace, f, 70, 12))
		fmt.Println()
	}
	if svgFile != "" {
		svg := export.TraceToSVG(trace, fields[0], 800, 300, string(viz.CurrentTheme.Accent))
		if svg == "" {
			return fmt.Errorf("need at least two samples for an svg plot")
		}
		return export.WriteFile(svgFile, os.Stdout, svg)
	}
	return nil
}

// snapshot draws the slice through the origin spanned by axes 0 and 1.
func snapshot(cmd *cobra.Command, args []string) error {
	m, err := experiment.NewRegistry().Restore(args[0], checkpoint.Expect{})
	if err != nil {
		return err
	}
	theme := viz.GetTheme(themeName)
	s := viz.TakeSlice(m, sliceRadius, sliceOffset)
	if svgFile != "" {
		return export.WriteFile(svgFile, os.Stdout, export.SliceToSVG(s, theme, 8))
	}
	id := m.Identity()
	fmt.Printf("%s %dD step %d side %d\n\n", id.Model, id.Dimension, m.Step(), m.Side())
	fmt.Print(s.Render(theme))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	run, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(run)
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.ExportJSON(os.Stdout, run.Meta, trace)
	}
	if err := storage.ExportJSONFile(outFile, run.Meta, trace); err != nil {
		return err
	}
	fmt.Printf("exported %d samples to %s\n", len(trace), outFile)
	return nil
}

func inspectCheckpoint(cmd *cobra.Command, args []string) error {
	h, err := checkpoint.Inspect(args[0])
	if err != nil {
		return err
	}
	id := h.Identity
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "format\t%d\n", h.Format)
	fmt.Fprintf(w, "model\t%s\n", id.Model)
	fmt.Fprintf(w, "dimension\t%d\n", id.Dimension)
	fmt.Fprintf(w, "numeric\t%s\n", id.Numeric)
	fmt.Fprintf(w, "symmetry\t%s\n", id.Symmetry)
	fmt.Fprintf(w, "layout\t%s\n", id.Layout)
	fmt.Fprintf(w, "bounds\t%s\n", id.Bounds)
	if id.Divisor != 0 {
		fmt.Fprintf(w, "divisor\t%d\n", id.Divisor)
	}
	fmt.Fprintf(w, "initial\t%s\n", experiment.ConfigFromIdentity(id).Initial)
	fmt.Fprintf(w, "step\t%d\n", h.Step)
	fmt.Fprintf(w, "side\t%d\n", h.Side)
	fmt.Fprintf(w, "cells\t%d\n", h.Cells)
	fmt.Fprintf(w, "saved\t%s\n", h.SavedAt.Local().Format("2006-01-02 15:04:05"))
	return w.Flush()
}

// readValue prints the value at each coordinate given on the command line,
// or the statistics of the whole lattice when none is given.
func readValue(cmd *cobra.Command, args []string) error {
	m, err := experiment.NewRegistry().Restore(args[0], checkpoint.Expect{})
	if err != nil {
		return err
	}
	if len(args) == 1 {
		printStats(m.Stats())
		return nil
	}

	coords := args[1:]
	if len(coords) != m.Dim() {
		return fmt.Errorf("expected %d coordinates, got %d", m.Dim(), len(coords))
	}
	c := make([]int, len(coords))
	for i, s := range coords {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("coordinate %d: %w", i, err)
		}
		c[i] = v
	}
	fmt.Println(m.Value(c))
	return nil
}

func printStats(st automaton.Stats) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "step\t%d\n", st.Step)
	fmt.Fprintf(w, "side\t%d\n", st.Side)
	fmt.Fprintf(w, "stored cells\t%d\n", st.Cells)
	for _, row := range []struct {
		name string
		v    *big.Int
	}{
		{"active", st.Active},
		{"mass", st.Mass},
		{"min", st.Min},
		{"max", st.Max},
	} {
		fmt.Fprintf(w, "%s\t%v\n", row.name, row.v)
	}
	fmt.Fprintf(w, "peak\t%v\n", []int(st.Peak))
	w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := experiment.NewRegistry().ListModels()
	if len(args) == 1 {
		models = args[:1]
	}
	for _, m := range models {
		presets := config.ListPresets(m)
		if len(presets) == 0 {
			fmt.Printf("no presets for model: %s\n", m)
			continue
		}
		fmt.Printf("presets for %s:\n", m)
		for _, p := range presets {
			cfg := config.GetPreset(m, p)
			fmt.Printf("  %-12s %s %s %s\n", p, cfg.Grid, cfg.Numeric, cfg.Initial)
		}
	}
	return nil
}

// runLive opens a checkpoint, or the configuration given by flags, in the
// interactive view. Without either it shows the preset menu.
func runLive(cmd *cobra.Command, args []string) error {
	log, closer, err := newLogger(config.DefaultConfig().Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	if logFile == "" {
		// the terminal belongs to the view
		log = slog.New(slog.DiscardHandler)
	}

	ctx, stop := signalContext()
	defer stop()

	dir := checkpointDir
	if dir == "" {
		dir = filepath.Join(dataDir, "live", "checkpoints")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	cat, err := storage.OpenCatalog(catalogPath())
	if err != nil {
		return fmt.Errorf("open catalogue: %w", err)
	}
	defer cat.Close()

	observers := []sim.Observer{cat.Observer("live", log)}
	if metricsAddr != "" {
		prom := prometheus.NewRegistry()
		coll, err := metrics.NewCollector(prom, "live")
		if err != nil {
			return err
		}
		observers = append(observers, coll)
		serveMetrics(ctx, prom, log)
	}

	viz.SetTheme(themeName)
	opts := viz.LiveOptions{
		StepsPerTick:  stepsPerFrame,
		CheckpointDir: dir,
		Radius:        sliceRadius,
		Observers:     observers,
		Log:           log,
	}

	f := cmd.Flags()
	switch {
	case len(args) == 1:
		m, err := experiment.NewRegistry().Restore(args[0], checkpoint.Expect{})
		if err != nil {
			return err
		}
		return viz.RunLive(m, opts)
	case preset != "" || configFile != "" || f.Changed("model") || f.Changed("grid") || f.Changed("initial"):
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		m, err := buildModel(cfg)
		if err != nil {
			return err
		}
		if cfg.Steps > 0 && !cfg.UntilStable {
			opts.MaxStep = cfg.Steps
		}
		return viz.RunLive(m, opts)
	default:
		return viz.RunPicker(buildModel, opts)
	}
}

func scanCheckpoints(cmd *cobra.Command, args []string) error {
	root := dataDir
	if len(args) == 1 {
		root = args[0]
	}
	cat, err := storage.OpenCatalog(catalogPath())
	if err != nil {
		return err
	}
	defer cat.Close()

	n, err := cat.Scan(context.Background(), root)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d checkpoints below %s\n", n, root)
	return nil
}

func catalogQuery() storage.Query {
	return storage.Query{
		RunID:     catalogRunID,
		Model:     catalogModel,
		Dimension: catalogDim,
		Numeric:   catalogNumeric,
	}
}

func findCheckpoints(cmd *cobra.Command, args []string) error {
	cat, err := storage.OpenCatalog(catalogPath())
	if err != nil {
		return err
	}
	defer cat.Close()

	entries, err := cat.Find(context.Background(), catalogQuery())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no checkpoints found")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tMODEL\tDIM\tNUMERIC\tINITIAL\tSTEP\tSIDE\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%d\t%d\t%s\n",
			e.RunID, e.Model, e.Dimension, e.Numeric, e.Initial, e.Step, e.Side, e.Path)
	}
	return w.Flush()
}

func latestCheckpoint(cmd *cobra.Command, args []string) error {
	cat, err := storage.OpenCatalog(catalogPath())
	if err != nil {
		return err
	}
	defer cat.Close()

	e, err := cat.Latest(context.Background(), catalogQuery())
	if err != nil {
		return err
	}
	fmt.Println(e.Path)
	return nil
}
