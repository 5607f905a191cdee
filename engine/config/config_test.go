package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPrefersHighestLevelFirst(t *testing.T) {
	cfg := Default()

	levels := cfg.PreferredCapabilityLevels
	if len(levels) != 4 {
		t.Fatalf("got %d default levels, want 4", len(levels))
	}
	if levels[0] != CapabilityLevel13 || levels[len(levels)-1] != CapabilityLevel10 {
		t.Errorf("default levels %v are not in descending preference order", levels)
	}
	if cfg.Backend != "vulkan" {
		t.Errorf("default backend = %q, want vulkan", cfg.Backend)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renderer.toml")
	content := `
application_name = "Sandbox"
backend = "headless"
enable_debug_layer = true
preferred_capability_levels = ["1.1", "1.0"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ApplicationName != "Sandbox" {
		t.Errorf("application name = %q, want Sandbox", cfg.ApplicationName)
	}
	if cfg.Backend != "headless" {
		t.Errorf("backend = %q, want headless", cfg.Backend)
	}
	if !cfg.EnableDebugLayer {
		t.Error("enable_debug_layer not applied")
	}
	if len(cfg.PreferredCapabilityLevels) != 2 || cfg.PreferredCapabilityLevels[0] != CapabilityLevel11 {
		t.Errorf("levels = %v, want [1.1 1.0]", cfg.PreferredCapabilityLevels)
	}
	// Untouched fields keep their defaults.
	if cfg.Width != 1280 || cfg.ShaderPath != "shaders" {
		t.Errorf("defaults lost on partial load: width=%d shader_path=%q", cfg.Width, cfg.ShaderPath)
	}
}

func TestLoadEmptyLevelListFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renderer.toml")
	if err := os.WriteFile(path, []byte(`preferred_capability_levels = []`), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.PreferredCapabilityLevels) != 4 {
		t.Errorf("empty level list should fall back to defaults, got %v", cfg.PreferredCapabilityLevels)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}
