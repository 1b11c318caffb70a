package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/mnist
batch_size: 32
epochs: 5
learning_rate: 0.01
hidden: 64
seed: 42
gan:
  iterations: 500
  latent_dim: 50
  k: 2
  report_freq: 25
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/mnist" || cfg.BatchSize != 32 || cfg.Epochs != 5 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.GAN.Iterations != 500 || cfg.GAN.LatentDim != 50 || cfg.GAN.K != 2 || cfg.GAN.ReportFreq != 25 {
		t.Fatalf("unexpected gan section %+v", cfg.GAN)
	}
}

func TestLoadKeepsDefaultsForOmittedKeys(t *testing.T) {
	path := writeConfig(t, "epochs: 3\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Epochs != 3 {
		t.Fatalf("epochs %d, want 3", cfg.Epochs)
	}
	def := Default()
	if cfg.BatchSize != def.BatchSize || cfg.DataDir != def.DataDir {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "batchsize: 10\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "batch_size: -1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(Overrides{DataDir: "elsewhere", Epochs: 7, Seed: 3})
	if cfg.DataDir != "elsewhere" || cfg.Epochs != 7 || cfg.Seed != 3 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Zero values leave fields alone.
	before := cfg.BatchSize
	cfg.ApplyOverrides(Overrides{})
	if cfg.BatchSize != before {
		t.Fatal("zero override changed batch size")
	}
}

func TestValidateDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
