package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/topple/internal/automaton"
	"github.com/san-kum/topple/internal/config"
	"github.com/san-kum/topple/internal/sim"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
	configFile   = "config.yaml"
	checkpoints  = "checkpoints"
)

var ErrRunNotFound = errors.New("run not found")

// Store keeps one directory per run below
// <base>/<model>/<D>D/<initial>/<background>/<run id>.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Folder      string             `json:"folder"`
	Model       string             `json:"model"`
	Grid        string             `json:"grid"`
	Numeric     string             `json:"numeric"`
	Symmetry    string             `json:"symmetry"`
	Divisor     int64              `json:"divisor,omitempty"`
	Initial     string             `json:"initial"`
	Started     time.Time          `json:"started"`
	Finished    time.Time          `json:"finished,omitempty"`
	StartStep   int64              `json:"start_step"`
	FinalStep   int64              `json:"final_step"`
	FinalSide   int                `json:"final_side"`
	Stable      bool               `json:"stable"`
	ResumedFrom string             `json:"resumed_from,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Checkpoints []string           `json:"checkpoints,omitempty"`
}

// Run is an open run directory.
type Run struct {
	Meta RunMetadata
	Dir  string
}

func (r *Run) CheckpointDir() string {
	return filepath.Join(r.Dir, checkpoints)
}

// Create allocates a run directory for cfg and writes its configuration.
func (s *Store) Create(cfg *config.Config) (*Run, error) {
	folder, err := cfg.Subfolder()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	id := fmt.Sprintf("%s-%s", now.Format("20060102T150405"), uuid.NewString()[:8])
	dir := filepath.Join(s.baseDir, filepath.FromSlash(folder), id)
	if err := os.MkdirAll(filepath.Join(dir, checkpoints), 0755); err != nil {
		return nil, err
	}
	if err := config.Save(filepath.Join(dir, configFile), cfg); err != nil {
		return nil, err
	}
	run := &Run{
		Dir: dir,
		Meta: RunMetadata{
			ID:       id,
			Folder:   folder,
			Model:    cfg.Model,
			Grid:     cfg.Grid,
			Numeric:  cfg.Numeric,
			Symmetry: cfg.Symmetry,
			Divisor:  cfg.Divisor,
			Initial:  cfg.Initial,
			Started:  now,
		},
	}
	return run, writeMetadata(dir, run.Meta)
}

// Save records the outcome of a run: metadata.json and trace.csv.
func (s *Store) Save(run *Run, m automaton.Model, result *sim.Result) error {
	run.Meta.Finished = time.Now().UTC()
	run.Meta.FinalStep = m.Step()
	run.Meta.FinalSide = m.Side()
	run.Meta.Stable = result.Stable
	run.Meta.Metrics = result.Metrics
	for _, p := range result.Checkpoints {
		if rel, err := filepath.Rel(run.Dir, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
		run.Meta.Checkpoints = append(run.Meta.Checkpoints, p)
	}
	if len(result.Trace) > 0 {
		run.Meta.StartStep = result.Trace[0].Step
	}
	if err := writeMetadata(run.Dir, run.Meta); err != nil {
		return err
	}
	return writeTrace(filepath.Join(run.Dir, traceFile), result.Trace)
}

func writeMetadata(dir string, meta RunMetadata) error {
	metaFile, err := os.Create(filepath.Join(dir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

var traceHeader = []string{"step", "side", "cells", "active", "mass", "min", "max", "changed", "grew", "elapsed_ns"}

func writeTrace(path string, trace []sim.Sample) error {
	csvFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(traceHeader); err != nil {
		return err
	}
	for _, smp := range trace {
		row := []string{
			strconv.FormatInt(smp.Step, 10),
			strconv.Itoa(smp.Side),
			strconv.Itoa(smp.Cells),
			bigString(smp.Active),
			bigString(smp.Mass),
			bigString(smp.Min),
			bigString(smp.Max),
			strconv.FormatBool(smp.Changed),
			strconv.FormatBool(smp.Grew),
			strconv.FormatInt(int64(smp.Elapsed), 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// List returns every run below the base directory, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	runs := make([]RunMetadata, 0)
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == s.baseDir {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() && d.Name() == checkpoints {
			return fs.SkipDir
		}
		if d.IsDir() || d.Name() != metadataFile {
			return nil
		}
		meta, err := readMetadata(path)
		if err != nil {
			return nil
		}
		runs = append(runs, *meta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Started.Before(runs[j].Started) })
	return runs, nil
}

// Load finds a run by id. A unique id prefix is accepted.
func (s *Store) Load(runID string) (*Run, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	var found []RunMetadata
	for _, r := range runs {
		if r.ID == runID {
			found = []RunMetadata{r}
			break
		}
		if runID != "" && strings.HasPrefix(r.ID, runID) {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	case 1:
		meta := found[0]
		return &Run{Meta: meta, Dir: filepath.Join(s.baseDir, filepath.FromSlash(meta.Folder), meta.ID)}, nil
	}
	return nil, fmt.Errorf("run id %q is ambiguous: %d matches", runID, len(found))
}

// LoadConfig reads the configuration a run was started with.
func (s *Store) LoadConfig(run *Run) (*config.Config, error) {
	return config.Load(filepath.Join(run.Dir, configFile))
}

func readMetadata(path string) (*RunMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrace reads the per-step samples of a run.
func (s *Store) LoadTrace(run *Run) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(run.Dir, traceFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(traceHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	trace := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		smp, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", traceFile, i+2, err)
		}
		smp.Initial = i == 0
		trace = append(trace, smp)
	}
	return trace, nil
}

func parseSample(rec []string) (sim.Sample, error) {
	var smp sim.Sample
	var err error
	if smp.Step, err = strconv.ParseInt(rec[0], 10, 64); err != nil {
		return smp, err
	}
	if smp.Side, err = strconv.Atoi(rec[1]); err != nil {
		return smp, err
	}
	if smp.Cells, err = strconv.Atoi(rec[2]); err != nil {
		return smp, err
	}
	vals := make([]*big.Int, 4)
	for k := range vals {
		v, ok := new(big.Int).SetString(rec[3+k], 10)
		if !ok {
			return smp, fmt.Errorf("bad integer %q", rec[3+k])
		}
		vals[k] = v
	}
	smp.Active, smp.Mass, smp.Min, smp.Max = vals[0], vals[1], vals[2], vals[3]
	if smp.Changed, err = strconv.ParseBool(rec[7]); err != nil {
		return smp, err
	}
	if smp.Grew, err = strconv.ParseBool(rec[8]); err != nil {
		return smp, err
	}
	ns, err := strconv.ParseInt(rec[9], 10, 64)
	if err != nil {
		return smp, err
	}
	smp.Elapsed = time.Duration(ns)
	return smp, nil
}
