package rhi_test

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/titan/engine/config"
	"github.com/spaghettifunk/titan/engine/core"
	"github.com/spaghettifunk/titan/engine/rhi"
	"github.com/spaghettifunk/titan/engine/rhi/headless"
)

func TestNewDeviceNegotiatesHighestCommonLevel(t *testing.T) {
	backend := headless.New(headless.Options{
		SupportedLevels: []config.CapabilityLevel{
			config.CapabilityLevel11,
			config.CapabilityLevel10,
		},
	})
	device, err := rhi.NewDevice(backend, config.Default())
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer device.Shutdown()

	if got := device.Capabilities().Level; got != config.CapabilityLevel11 {
		t.Errorf("negotiated level = %s, want %s", got, config.CapabilityLevel11)
	}
}

func TestNewDeviceFailsWithoutCommonLevel(t *testing.T) {
	backend := headless.New(headless.Options{
		SupportedLevels: []config.CapabilityLevel{config.CapabilityLevel10},
	})
	cfg := config.Default()
	cfg.PreferredCapabilityLevels = []config.CapabilityLevel{config.CapabilityLevel13}

	_, err := rhi.NewDevice(backend, cfg)
	if err == nil {
		t.Fatal("NewDevice succeeded with no capability level in common")
	}
	var creationErr *core.DeviceCreationError
	if !errors.As(err, &creationErr) {
		t.Fatalf("error type = %T, want *core.DeviceCreationError", err)
	}
	if creationErr.Backend != "headless" {
		t.Errorf("error backend = %q, want %q", creationErr.Backend, "headless")
	}
}

func TestNewDeviceAdapterMissingIsFatal(t *testing.T) {
	backend := headless.New(headless.Options{AdapterMissing: true})

	_, err := rhi.NewDevice(backend, config.Default())
	if err == nil {
		t.Fatal("NewDevice succeeded with no adapter present")
	}
	var creationErr *core.DeviceCreationError
	if !errors.As(err, &creationErr) {
		t.Fatalf("error type = %T, want *core.DeviceCreationError", err)
	}
	if !errors.Is(err, core.ErrNoAdapter) {
		t.Errorf("error chain does not carry ErrNoAdapter: %v", err)
	}
}

func TestNewDeviceNilBackendRejected(t *testing.T) {
	_, err := rhi.NewDevice(nil, config.Default())
	if err == nil {
		t.Fatal("NewDevice accepted a nil backend")
	}
	if !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("error chain does not carry ErrInvalidParameter: %v", err)
	}
}

func TestDebugLayerUnavailableDegradesWithOneWarning(t *testing.T) {
	backend := headless.New(headless.Options{DebugLayerUnavailable: true})
	cfg := config.Default()
	cfg.EnableDebugLayer = true

	device, err := rhi.NewDevice(backend, cfg)
	if err != nil {
		t.Fatalf("NewDevice failed where it should degrade: %v", err)
	}
	defer device.Shutdown()

	if device.Capabilities().DebugLayerEnabled {
		t.Error("capabilities report a debug layer that does not exist")
	}
	if backend.DebugWarnings != 1 {
		t.Errorf("degradation warned %d times, want exactly 1", backend.DebugWarnings)
	}
}

func TestDebugLayerEnabledWhenAvailable(t *testing.T) {
	backend := headless.New(headless.Options{})
	cfg := config.Default()
	cfg.EnableDebugLayer = true

	device, err := rhi.NewDevice(backend, cfg)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	defer device.Shutdown()

	if !device.Capabilities().DebugLayerEnabled {
		t.Error("debug layer requested and available but not enabled")
	}
	if backend.DebugWarnings != 0 {
		t.Errorf("healthy adapter produced %d warnings, want 0", backend.DebugWarnings)
	}
}

func TestResourceCreationFailsBeforeInitialize(t *testing.T) {
	backend := headless.New(headless.Options{})
	// The backend alone, never initialized through a device.
	_, err := backend.CreateVertexBuffer(make([]byte, 24), 24)
	if !errors.Is(err, core.ErrNotInitialized) {
		t.Errorf("got %v, want ErrNotInitialized", err)
	}
}

func TestDeviceShutdownIsIdempotent(t *testing.T) {
	device, _ := newTestDevice(t, headless.Options{})

	if err := device.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if device.IsInitialized() {
		t.Error("device reports initialized after shutdown")
	}
	if err := device.Shutdown(); err != nil {
		t.Errorf("second Shutdown errored: %v", err)
	}
	if _, err := device.CreateIndexBuffer([]uint32{0}); !errors.Is(err, core.ErrNotInitialized) {
		t.Errorf("resource creation after shutdown: got %v, want ErrNotInitialized", err)
	}
}

func TestWideLineWidthDegradesToSupportedWidth(t *testing.T) {
	device, _ := newTestDevice(t, headless.Options{})
	if device.Capabilities().SupportsWideLines {
		t.Fatal("headless adapter unexpectedly reports wide-line support")
	}

	state := device.CreateRasterizerState(rhi.CullModeBack, rhi.FillModeWireframe, 4.0)
	if state.LineWidth != 1.0 {
		t.Errorf("line width = %g, want 1.0 on an adapter without wide lines", state.LineWidth)
	}

	// Zero and negative widths normalize instead of failing.
	if w := device.CreateRasterizerState(rhi.CullModeBack, rhi.FillModeSolid, 0).LineWidth; w != 1.0 {
		t.Errorf("zero line width normalized to %g, want 1.0", w)
	}
}

func TestDeviceWaitIdleDrainsInflightWork(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})

	backend.SubmitWork()
	backend.CompleteWork()
	if err := device.WaitIdle(); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
}
