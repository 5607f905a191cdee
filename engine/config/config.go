package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// CapabilityLevel identifies a tier of device functionality. Device creation
// walks RendererConfig.PreferredCapabilityLevels in order and keeps the first
// one the adapter can satisfy.
type CapabilityLevel string

const (
	CapabilityLevel13 CapabilityLevel = "1.3"
	CapabilityLevel12 CapabilityLevel = "1.2"
	CapabilityLevel11 CapabilityLevel = "1.1"
	CapabilityLevel10 CapabilityLevel = "1.0"
)

// DefaultCapabilityLevels is the descending preference order used when the
// configuration does not pin its own.
func DefaultCapabilityLevels() []CapabilityLevel {
	return []CapabilityLevel{
		CapabilityLevel13,
		CapabilityLevel12,
		CapabilityLevel11,
		CapabilityLevel10,
	}
}

// RendererConfig is the single source of renderer toggles. Previous
// incarnations of this layer kept debug and threading switches in globals;
// everything now travels through this struct at device construction.
type RendererConfig struct {
	ApplicationName string `toml:"application_name"`
	Width           uint32 `toml:"width"`
	Height          uint32 `toml:"height"`

	// Backend selects the graphics backend: "vulkan" or "headless".
	Backend string `toml:"backend"`

	// EnableDebugLayer requests validation/debug instrumentation. If the
	// backend cannot provide it, device creation retries without it and
	// logs a warning instead of failing.
	EnableDebugLayer bool `toml:"enable_debug_layer"`

	// EnableMultithreadProtection wraps the backend context with its
	// thread-protection facility. Failure to enable is non-fatal.
	EnableMultithreadProtection bool `toml:"enable_multithread_protection"`

	PreferredCapabilityLevels []CapabilityLevel `toml:"preferred_capability_levels"`

	// ShaderPath is where compiled .spv shader modules are picked up and
	// watched for recompilation.
	ShaderPath string `toml:"shader_path"`
}

func Default() *RendererConfig {
	return &RendererConfig{
		ApplicationName:           "Titan",
		Width:                     1280,
		Height:                    720,
		Backend:                   "vulkan",
		PreferredCapabilityLevels: DefaultCapabilityLevels(),
		ShaderPath:                "shaders",
	}
}

// Load reads a TOML renderer configuration. Missing fields keep their
// defaults.
func Load(path string) (*RendererConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if len(cfg.PreferredCapabilityLevels) == 0 {
		cfg.PreferredCapabilityLevels = DefaultCapabilityLevels()
	}
	return cfg, nil
}
