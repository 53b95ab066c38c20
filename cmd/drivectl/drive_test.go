package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/drivectl/internal/config"
)

func withConfigFile(t *testing.T, seed int64) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Plant.Seed = seed
	path := filepath.Join(t.TempDir(), "drivectl.yaml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	oldFile, oldPreset := configFile, preset
	configFile, preset = path, ""
	t.Cleanup(func() { configFile, preset = oldFile, oldPreset })
}

func TestLoadConfigKeepsFileSeed(t *testing.T) {
	withConfigFile(t, 42)
	cmd := &cobra.Command{Use: "move"}
	motionFlags(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Plant.Seed != 42 {
		t.Errorf("expected the file seed 42, got %d", cfg.Plant.Seed)
	}
}

func TestLoadConfigSeedFlag(t *testing.T) {
	withConfigFile(t, 42)
	cmd := &cobra.Command{Use: "move"}
	motionFlags(cmd)
	if err := cmd.Flags().Set("seed", "7"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Plant.Seed != 7 {
		t.Errorf("expected the flag seed 7, got %d", cfg.Plant.Seed)
	}
}
