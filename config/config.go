// Package config loads run configuration from YAML with CLI overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config captures the knobs for a training run.
type Config struct {
	DataDir      string  `yaml:"data_dir"`
	BatchSize    int     `yaml:"batch_size"`
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Hidden       int     `yaml:"hidden"`
	Seed         int64   `yaml:"seed"`
	GAN          GAN     `yaml:"gan"`
}

// GAN holds the adversarial-training section.
type GAN struct {
	Iterations int `yaml:"iterations"`
	LatentDim  int `yaml:"latent_dim"`
	K          int `yaml:"k"`
	ReportFreq int `yaml:"report_freq"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir:      "data_mnist",
		BatchSize:    64,
		Epochs:       10,
		LearningRate: 0.1,
		Hidden:       128,
		GAN: GAN{
			Iterations: 2000,
			LatentDim:  100,
			K:          1,
			ReportFreq: 40,
		},
	}
}

// Load reads a Config from a YAML file and validates it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg := Default()
	if err := yaml.UnmarshalStrict(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overrides captures CLI-supplied values; zero values leave the config
// untouched.
type Overrides struct {
	DataDir      string
	BatchSize    int
	Epochs       int
	LearningRate float64
	Seed         int64
}

// ApplyOverrides updates cfg from any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.Hidden <= 0 {
		return fmt.Errorf("hidden must be > 0 (got %d)", c.Hidden)
	}
	if c.GAN.Iterations < 0 || c.GAN.LatentDim < 0 || c.GAN.K < 0 || c.GAN.ReportFreq < 0 {
		return fmt.Errorf("gan settings must be >= 0")
	}
	return nil
}
