package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/topple/internal/config"
	"github.com/san-kum/topple/internal/logging"
	"github.com/san-kum/topple/internal/storage"
)

var (
	dataDir     string
	metricsAddr string
	logLevel    string
	logFormat   string
	logFile     string

	// automaton description
	model    string
	grid     string
	numKind  string
	symmetry string
	divisor  int64
	initial  string

	// run settings
	steps          int64
	firstStep      int64
	untilStable    bool
	checkpointK    int64
	checkpointT    time.Duration
	checkpointDir  string
	configFile     string
	preset         string
	workers        int
	field          string
	outFile        string
	stepsPerFrame  int
	sliceRadius    int
	catalogRunID   string
	catalogModel   string
	catalogDim     int
	catalogNumeric string
	svgFile        string
	sliceOffset    []int
	themeName      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "topple",
		Short:         "symmetric toppling automata on infinite hypercubic lattices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".topple", "data directory")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a rotated file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run an automaton from an initial configuration",
		Args:  cobra.NoArgs,
		RunE:  runAutomaton,
	}
	addModelFlags(runCmd)
	addRunFlags(runCmd)

	resumeCmd := &cobra.Command{
		Use:   "resume [checkpoint]",
		Short: "continue a run from a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeAutomaton,
	}
	addRunFlags(resumeCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [initial...]",
		Short: "run one automaton per initial configuration in parallel",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSweep,
	}
	addModelFlags(sweepCmd)
	addRunFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "concurrent runs")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the trace of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&field, "field", "", "trace column to plot (default: active, mass and side)")
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write the plot of --field as SVG to this file")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [checkpoint]",
		Short: "draw a slice through a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshot,
	}
	snapshotCmd.Flags().IntVar(&sliceRadius, "radius", 12, "slice radius")
	snapshotCmd.Flags().IntSliceVar(&sliceOffset, "offset", nil, "coordinates of axes 2 and up")
	snapshotCmd.Flags().StringVar(&themeName, "theme", "ember", "colour theme")
	snapshotCmd.Flags().StringVar(&svgFile, "svg", "", "write the slice as SVG to this file (- for stdout)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and trace as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	inspectCmd := &cobra.Command{
		Use:   "inspect [checkpoint]",
		Short: "print a checkpoint header",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectCheckpoint,
	}

	valueCmd := &cobra.Command{
		Use:   "value [checkpoint] [coord...]",
		Short: "read lattice values from a checkpoint",
		Args:  cobra.MinimumNArgs(1),
		RunE:  readValue,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live [checkpoint]",
		Short: "step an automaton interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addModelFlags(liveCmd)
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration of --model")
	liveCmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", "", "where B writes checkpoints")
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 1, "steps per frame")
	liveCmd.Flags().IntVar(&sliceRadius, "radius", 12, "slice radius")
	liveCmd.Flags().StringVar(&themeName, "theme", "ember", "colour theme")

	checkpointsCmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "query the checkpoint catalogue",
	}
	scanCmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "index every checkpoint below a directory (default: data directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  scanCheckpoints,
	}
	findCmd := &cobra.Command{
		Use:   "list",
		Short: "list catalogued checkpoints",
		RunE:  findCheckpoints,
	}
	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "print the path of the latest matching checkpoint",
		RunE:  latestCheckpoint,
	}
	for _, c := range []*cobra.Command{findCmd, latestCmd} {
		c.Flags().StringVar(&catalogRunID, "run", "", "run id")
		c.Flags().StringVar(&catalogModel, "model", "", "model")
		c.Flags().IntVar(&catalogDim, "dim", 0, "lattice dimension")
		c.Flags().StringVar(&catalogNumeric, "numeric", "", "numeric type")
	}
	checkpointsCmd.AddCommand(scanCmd, findCmd, latestCmd)

	rootCmd.AddCommand(runCmd, resumeCmd, sweepCmd, listCmd, plotCmd, exportCmd, inspectCmd, valueCmd, presetsCmd, liveCmd, snapshotCmd, checkpointsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&model, "model", config.DefaultModel, "automaton (sunflower, aether)")
	cmd.Flags().StringVar(&grid, "grid", config.DefaultGrid, "lattice, e.g. 3d_infinite")
	cmd.Flags().StringVar(&numKind, "numeric", "int64", "cell type (int64, bigint)")
	cmd.Flags().StringVar(&symmetry, "symmetry", "hyperoctahedral", "folding symmetry (hyperoctahedral, reflective)")
	cmd.Flags().Int64Var(&divisor, "divisor", 0, "sunflower divisor (default 2D+1)")
	cmd.Flags().StringVar(&initial, "initial", config.DefaultInitial, "initial configuration descriptor")
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&steps, "steps", config.DefaultSteps, "steps to run")
	cmd.Flags().Int64Var(&firstStep, "first-step", 0, "advance to this step before recording")
	cmd.Flags().BoolVar(&untilStable, "until-stable", false, "stop once a step changes nothing")
	cmd.Flags().Int64Var(&checkpointK, "checkpoint-every", 0, "checkpoint every N steps")
	cmd.Flags().DurationVar(&checkpointT, "checkpoint-interval", 0, "checkpoint at this wall-clock interval")
	cmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", "", "checkpoint directory (default: the run's own)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	if cmd.Flags().Lookup("model") != nil {
		cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration of --model")
	}
}

// loadConfig layers defaults, a preset, a config file and finally the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}
	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
	}
	applyModelFlags(cmd, cfg)
	applyRunFlags(cmd, cfg)
	return cfg, cfg.Validate()
}

func applyModelFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("model") && preset == "" {
		cfg.Model = model
	}
	if f.Changed("grid") {
		cfg.Grid = grid
	}
	if f.Changed("numeric") {
		cfg.Numeric = numKind
	}
	if f.Changed("symmetry") {
		cfg.Symmetry = symmetry
	}
	if f.Changed("divisor") {
		cfg.Divisor = divisor
	}
	if f.Changed("initial") {
		cfg.Initial = initial
	}
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("steps") {
		cfg.Steps = steps
	}
	if f.Changed("first-step") {
		cfg.FirstStep = firstStep
	}
	if f.Changed("until-stable") {
		cfg.UntilStable = untilStable
	}
	if f.Changed("checkpoint-every") {
		cfg.Checkpoint.EverySteps = checkpointK
	}
	if f.Changed("checkpoint-interval") {
		cfg.Checkpoint.Every = checkpointT
	}
	if f.Changed("checkpoint-dir") {
		cfg.Checkpoint.Dir = checkpointDir
	}
}

// newLogger honours the logging flags over the configuration's log section.
func newLogger(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	opts := logging.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	if logLevel != "" {
		opts.Level = logLevel
	}
	if logFormat != "" {
		opts.Format = logFormat
	}
	if logFile != "" {
		opts.File = logFile
	}
	if opts.Level == "" {
		opts.Level = "info"
	}
	return logging.New(opts)
}

// serveMetrics exposes reg on --metrics-addr until ctx is done. It returns
// nil when no address is configured.
func serveMetrics(ctx context.Context, reg *prometheus.Registry, log *slog.Logger) *http.Server {
	if metricsAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("serving metrics", "addr", metricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	return srv
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	return st, st.Init()
}

func catalogPath() string {
	return filepath.Join(dataDir, "catalog.db")
}
