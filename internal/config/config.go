package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/topple/internal/lattice"
	"github.com/san-kum/topple/internal/numeric"
)

const (
	DefaultModel   = "sunflower"
	DefaultGrid    = "2d_infinite"
	DefaultInitial = "single-source_10000"
	DefaultSteps   = 100
)

type Config struct {
	Model    string `yaml:"model"`
	Grid     string `yaml:"grid"`
	Numeric  string `yaml:"numeric"`
	Symmetry string `yaml:"symmetry"`
	// Divisor overrides the sunflower divisor; zero means 2D+1.
	Divisor int64  `yaml:"divisor,omitempty"`
	Initial string `yaml:"initial"`

	Steps       int64 `yaml:"steps"`
	FirstStep   int64 `yaml:"first_step,omitempty"`
	UntilStable bool  `yaml:"until_stable,omitempty"`

	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Log        LogConfig        `yaml:"log"`
}

type CheckpointConfig struct {
	EverySteps int64         `yaml:"every_steps,omitempty"`
	Every      time.Duration `yaml:"every,omitempty"`
	// Dir overrides the run's own checkpoints directory.
	Dir string `yaml:"dir,omitempty"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		Grid:     DefaultGrid,
		Numeric:  string(numeric.Int64),
		Symmetry: lattice.Hyperoctahedral.String(),
		Initial:  DefaultInitial,
		Steps:    DefaultSteps,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Dimension parses the grid descriptor.
func (c *Config) Dimension() (int, error) {
	return ParseGrid(c.Grid)
}

// Validate checks every descriptor without building anything.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := c.Dimension(); err != nil {
		return err
	}
	if _, err := numeric.ParseKind(c.Numeric); err != nil {
		return err
	}
	if _, err := lattice.ParseSymmetry(c.Symmetry); err != nil {
		return err
	}
	if _, err := ParseInitial(c.Initial); err != nil {
		return err
	}
	if c.Divisor < 0 {
		return fmt.Errorf("divisor must be non-negative, got %d", c.Divisor)
	}
	if c.Steps < 0 || c.FirstStep < 0 {
		return fmt.Errorf("steps must be non-negative")
	}
	if c.Steps == 0 && !c.UntilStable {
		return fmt.Errorf("steps must be positive unless until_stable is set")
	}
	if c.Checkpoint.EverySteps < 0 || c.Checkpoint.Every < 0 {
		return fmt.Errorf("checkpoint period must be non-negative")
	}
	return nil
}

// Subfolder is the directory, relative to a data root, that collects every
// run of the same model, dimension and initial configuration:
// <model>/<D>D/<initial>/<background>.
func (c *Config) Subfolder() (string, error) {
	dim, err := c.Dimension()
	if err != nil {
		return "", err
	}
	in, err := ParseInitial(c.Initial)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%dD/%s/%s", c.Model, dim, in.Folder(), in.BackgroundFolder()), nil
}
