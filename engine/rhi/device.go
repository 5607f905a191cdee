package rhi

import (
	"github.com/spaghettifunk/titan/engine/config"
	"github.com/spaghettifunk/titan/engine/core"
)

// Device owns the backend's logical device/context. It is created once at
// startup and destroyed once at shutdown; every resource object holds a
// reference to it and fails to operate if it never initialized.
type Device struct {
	backend     GraphicsBackend
	cfg         *config.RendererConfig
	caps        *Capabilities
	initialized bool
	shutdown    bool
}

// NewDevice negotiates a device on the given backend. Failure here is fatal
// to the renderer and not retryable within the same process.
func NewDevice(backend GraphicsBackend, cfg *config.RendererConfig) (*Device, error) {
	if backend == nil {
		return nil, &core.DeviceCreationError{Backend: "none", Reason: core.ErrInvalidParameter}
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if len(cfg.PreferredCapabilityLevels) == 0 {
		cfg.PreferredCapabilityLevels = config.DefaultCapabilityLevels()
	}

	caps, err := backend.Initialize(cfg)
	if err != nil {
		core.LogError("device creation failed: %v", err)
		return nil, &core.DeviceCreationError{Backend: backend.Name(), Reason: err}
	}

	core.LogInfo("Device created on backend '%s' (adapter '%s', capability level %s)",
		backend.Name(), caps.AdapterName, caps.Level)
	if cfg.EnableDebugLayer && !caps.DebugLayerEnabled {
		// The backend already warned once; nothing more to do here.
		core.LogDebug("running without debug instrumentation")
	}

	return &Device{
		backend:     backend,
		cfg:         cfg,
		caps:        caps,
		initialized: true,
	}, nil
}

func (d *Device) Backend() GraphicsBackend { return d.backend }
func (d *Device) Capabilities() *Capabilities { return d.caps }
func (d *Device) IsInitialized() bool { return d.initialized }

// WaitIdle blocks until all queued GPU work is flushed.
func (d *Device) WaitIdle() error {
	if !d.initialized {
		return core.ErrNotInitialized
	}
	return d.backend.WaitIdle()
}

// Shutdown tears the device down. Callers are responsible for releasing all
// resource objects first; the device idle-waits so no native object dies
// while referenced by in-flight work.
func (d *Device) Shutdown() error {
	if !d.initialized || d.shutdown {
		return nil
	}
	d.shutdown = true
	if err := d.backend.WaitIdle(); err != nil {
		core.LogWarn("WaitIdle during shutdown: %v", err)
	}
	err := d.backend.Shutdown()
	d.initialized = false
	return err
}
