package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Run modes.
const (
	ModeSimulate = "simulate"
	ModeReplay   = "replay"
)

// Config captures the runtime knobs for a run.
type Config struct {
	Mode string `yaml:"mode"`

	HiddenSize           int     `yaml:"hidden_size"`
	LearningRate         float64 `yaml:"learning_rate"`
	Momentum             float64 `yaml:"momentum"`
	BufferCapacity       int     `yaml:"buffer_capacity"`
	MinSamplesToTrain    int     `yaml:"min_samples_to_train"`
	TrainFireProbability float64 `yaml:"train_fire_probability"`
	BatchSize            int     `yaml:"batch_size"`
	AccuracyScale        float64 `yaml:"accuracy_scale"`

	Seed     int64 `yaml:"seed"`
	LogEvery int   `yaml:"log_every"`

	Ticks        int     `yaml:"ticks"`
	EpisodeTicks int     `yaml:"episode_ticks"`
	ArenaWidth   float64 `yaml:"arena_width"`
	ArenaHeight  float64 `yaml:"arena_height"`
	RecordDir    string  `yaml:"record_dir"`

	ReplayRoots  []string `yaml:"replay_roots"`
	ReplayPasses int      `yaml:"replay_passes"`
	NumWorkers   int      `yaml:"num_workers"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Mode        string
	Ticks       int
	Seed        int64
	LogEvery    int
	RecordDir   string
	ReplayRoots []string
	NumWorkers  int
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Mode:                 ModeSimulate,
		HiddenSize:           12,
		LearningRate:         0.1,
		Momentum:             0.9,
		BufferCapacity:       100,
		MinSamplesToTrain:    10,
		TrainFireProbability: 0.1,
		BatchSize:            10,
		AccuracyScale:        200,
		Seed:                 42,
		LogEvery:             100,
		Ticks:                5000,
		EpisodeTicks:         1500,
		ArenaWidth:           800,
		ArenaHeight:          600,
		ReplayPasses:         1,
		NumWorkers:           2,
	}
}

// Load reads a Config from YAML. Keys that are absent keep their default
// values. Callers validate once any overrides have been applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML from r on top of the defaults. Unknown keys are errors.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Mode != "" {
		c.Mode = o.Mode
	}
	if o.Ticks > 0 {
		c.Ticks = o.Ticks
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.RecordDir != "" {
		c.RecordDir = o.RecordDir
	}
	if len(o.ReplayRoots) > 0 {
		c.ReplayRoots = o.ReplayRoots
	}
	if o.NumWorkers > 0 {
		c.NumWorkers = o.NumWorkers
	}
}

// Validate verifies the config is runnable. Engine hyperparameters are
// checked by the engine itself.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	switch c.Mode {
	case ModeSimulate:
		if c.Ticks <= 0 {
			return fmt.Errorf("ticks must be > 0 (got %d)", c.Ticks)
		}
		if c.EpisodeTicks <= 0 {
			return fmt.Errorf("episode_ticks must be > 0 (got %d)", c.EpisodeTicks)
		}
		if c.ArenaWidth <= 0 || c.ArenaHeight <= 0 {
			return fmt.Errorf("arena must be positive (got %vx%v)", c.ArenaWidth, c.ArenaHeight)
		}
	case ModeReplay:
		if len(c.ReplayRoots) == 0 {
			return errors.New("replay mode needs at least one replay root")
		}
		if c.ReplayPasses <= 0 {
			return fmt.Errorf("replay_passes must be > 0 (got %d)", c.ReplayPasses)
		}
		if c.NumWorkers <= 0 {
			return fmt.Errorf("num_workers must be > 0 (got %d)", c.NumWorkers)
		}
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden_size must be > 0 (got %d)", c.HiddenSize)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 100
	}
	return nil
}
