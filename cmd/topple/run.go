package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/checkpoint"
	"github.com/san-kum/topple/internal/config"
	"github.com/san-kum/topple/internal/experiment"
	"github.com/san-kum/topple/internal/metrics"
	"github.com/san-kum/topple/internal/sim"
	"github.com/san-kum/topple/internal/storage"
)

// session holds what every recording command opens.
type session struct {
	log     *slog.Logger
	logs    io.Closer
	store   *storage.Store
	catalog *storage.Catalog
	prom    *prometheus.Registry
}

func openSession(ctx context.Context, logCfg config.LogConfig) (*session, error) {
	log, closer, err := newLogger(logCfg)
	if err != nil {
		return nil, err
	}
	s := &session{log: log, logs: closer}
	if s.store, err = openStore(); err != nil {
		s.Close()
		return nil, err
	}
	if s.catalog, err = storage.OpenCatalog(catalogPath()); err != nil {
		s.Close()
		return nil, fmt.Errorf("open catalogue: %w", err)
	}
	if metricsAddr != "" {
		s.prom = prometheus.NewRegistry()
		serveMetrics(ctx, s.prom, log)
	}
	return s, nil
}

func (s *session) Close() {
	if s.catalog != nil {
		_ = s.catalog.Close()
	}
	_ = s.logs.Close()
}

// observers returns the catalogue observer for runID, plus a Prometheus
// collector when metrics are served.
func (s *session) observers(runID string) ([]sim.Observer, error) {
	obs := []sim.Observer{s.catalog.Observer(runID, s.log)}
	if s.prom != nil {
		coll, err := metrics.NewCollector(s.prom, runID)
		if err != nil {
			return nil, err
		}
		obs = append(obs, coll)
	}
	return obs, nil
}

func runAutomaton(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, cfg.Log)
	if err != nil {
		return err
	}
	defer s.Close()

	exp, err := experiment.New(experiment.NewRegistry(), cfg, s.log)
	if err != nil {
		return err
	}
	run, err := s.store.Create(cfg)
	if err != nil {
		return err
	}
	return execute(ctx, s, exp, run)
}

func resumeAutomaton(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	var cfg *config.Config
	logCfg := config.DefaultConfig().Log
	if configFile != "" {
		if cfg, err = config.Load(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logCfg = cfg.Log
	}
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, logCfg)
	if err != nil {
		return err
	}
	defer s.Close()

	exp, err := experiment.Resume(experiment.NewRegistry(), path, cfg, s.log)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, exp.Config())
	if err := exp.Config().Validate(); err != nil {
		return err
	}
	run, err := s.store.Create(exp.Config())
	if err != nil {
		return err
	}
	run.Meta.ResumedFrom = path
	s.log.Info("resuming", "checkpoint", path, "step", exp.Model().Step(), "run", run.Meta.ID)
	return execute(ctx, s, exp, run)
}

// execute runs exp into run. An interrupted run is checkpointed and saved
// so that it can be resumed.
func execute(ctx context.Context, s *session, exp *experiment.Experiment, run *storage.Run) error {
	obs, err := s.observers(run.Meta.ID)
	if err != nil {
		return err
	}
	for _, o := range obs {
		exp.Runner().AddObserver(o)
	}

	m := exp.Model()
	cfg := exp.Config()
	fmt.Printf("running %s on %s from %s...\n", cfg.Model, cfg.Grid, cfg.Initial)

	result, runErr := exp.Run(ctx, run.CheckpointDir())
	if result == nil {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		dir := exp.SimConfig(run.CheckpointDir()).CheckpointDir
		path := filepath.Join(dir, checkpoint.Name(cfg.Model, m.Step()))
		if err := m.BackUp(path); err != nil {
			s.log.Error("final checkpoint failed", "path", path, "error", err)
		} else {
			result.Checkpoints = append(result.Checkpoints, path)
			for _, o := range obs {
				if co, ok := o.(sim.CheckpointObserver); ok {
					co.OnCheckpoint(m, path)
				}
			}
			fmt.Printf("interrupted, checkpoint: %s\n", path)
		}
	}
	if err := s.store.Save(run, m, result); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", run.Meta.ID)
	fmt.Printf("steps: %d (final step %d, side %d)\n", result.StepsTaken, result.FinalStep, m.Side())
	if result.Stable {
		fmt.Println("configuration is stable")
	}
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, values[name])
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, base.Log)
	if err != nil {
		return err
	}
	defer s.Close()

	reg := experiment.NewRegistry()
	jobs := make([]sim.Job, 0, len(args))
	runs := make([]*storage.Run, 0, len(args))
	for _, in := range args {
		cfg := *base
		cfg.Initial = in
		// runs of one model would overwrite each other's checkpoints
		cfg.Checkpoint.Dir = ""
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		exp, err := experiment.New(reg, &cfg, s.log)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		run, err := s.store.Create(&cfg)
		if err != nil {
			return err
		}
		obs, err := s.observers(run.Meta.ID)
		if err != nil {
			return err
		}
		jobs = append(jobs, sim.Job{
			Name:      in,
			Model:     exp.Model(),
			Config:    exp.SimConfig(run.CheckpointDir()),
			Metrics:   metrics.Standard,
			Observers: obs,
		})
		runs = append(runs, run)
	}

	fmt.Printf("sweeping %d configurations of %s on %s with %d workers...\n", len(jobs), base.Model, base.Grid, workers)
	results, runErr := sim.NewEnsemble(s.log, workers).Run(ctx, jobs)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INITIAL\tRUN\tSTEP\tSIDE\tSTABLE\tACTIVE\tELAPSED")
	for i, res := range results {
		if res == nil {
			continue
		}
		if err := s.store.Save(runs[i], jobs[i].Model, res); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%v\t%.0f\t%v\n",
			jobs[i].Name,
			runs[i].Meta.ID,
			res.FinalStep,
			jobs[i].Model.Side(),
			res.Stable,
			res.Metrics["active_cells"],
			res.Elapsed,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

// buildModel resolves cfg for commands that step a model without a run
// directory.
func buildModel(cfg *config.Config) (automaton.Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return experiment.NewRegistry().BuildConfig(cfg)
}
