// Package headless implements the immediate-context backend variant against
// a purely in-memory device. It models the mutable-context binding style:
// every category call lands directly on a context record, no pipeline
// objects are compiled ahead of time. It backs CI runs and the test
// harness, and doubles as the reference for what the bind surface must do.
package headless

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/titan/engine/config"
	"github.com/spaghettifunk/titan/engine/containers"
	"github.com/spaghettifunk/titan/engine/core"
	"github.com/spaghettifunk/titan/engine/rhi"
)

// Command is one recorded backend call, kept in issue order.
type Command struct {
	Category string
	Detail   string
}

// Options shape the simulated adapter. The zero value is a healthy adapter
// with a debug layer and every capability level available.
type Options struct {
	AdapterMissing        bool
	DebugLayerUnavailable bool
	SupportedLevels       []config.CapabilityLevel

	// Failure injection for commit-path tests, keyed by category name
	// ("index_buffer", "textures", ...).
	FailCategories map[string]bool
}

var _ rhi.GraphicsBackend = (*Backend)(nil)

type Backend struct {
	opts        Options
	cfg         *config.RendererConfig
	ctx         *Context
	commands    *containers.RingQueue[Command]
	initialized bool

	protect sync.Mutex
	useLock bool

	// In-flight work simulation. WaitIdle blocks until the counter drains.
	inflightMu   sync.Mutex
	inflightCond *sync.Cond
	inflight     int

	// DebugWarnings counts degraded-capability warnings emitted during
	// Initialize, so tests can assert on exactly-one semantics.
	DebugWarnings int
}

func New(opts Options) *Backend {
	b := &Backend{
		opts:     opts,
		ctx:      NewContext(),
		commands: containers.NewRingQueue[Command](1024),
	}
	b.inflightCond = sync.NewCond(&b.inflightMu)
	return b
}

func (b *Backend) Kind() rhi.BackendKind { return rhi.BackendImmediate }
func (b *Backend) Name() string { return "headless" }

func (b *Backend) Initialize(cfg *config.RendererConfig) (*rhi.Capabilities, error) {
	if b.opts.AdapterMissing {
		return nil, core.ErrNoAdapter
	}
	b.cfg = cfg
	b.useLock = cfg.EnableMultithreadProtection

	supported := b.opts.SupportedLevels
	if len(supported) == 0 {
		supported = config.DefaultCapabilityLevels()
	}
	var level config.CapabilityLevel
	for _, preferred := range cfg.PreferredCapabilityLevels {
		for _, s := range supported {
			if preferred == s {
				level = preferred
				break
			}
		}
		if level != "" {
			break
		}
	}
	if level == "" {
		return nil, fmt.Errorf("no capability level from the preference list is supported")
	}

	debugEnabled := false
	if cfg.EnableDebugLayer {
		if b.opts.DebugLayerUnavailable {
			core.LogWarn("debug layer requested but unavailable on this adapter, continuing without it")
			b.DebugWarnings++
		} else {
			debugEnabled = true
		}
	}

	b.initialized = true
	return &rhi.Capabilities{
		Level:                 level,
		AdapterName:           "Titan Headless Adapter",
		MaxTextureDimension2D: 16384,
		SupportsWideLines:     false,
		MaxLineWidth:          1.0,
		MaxAnisotropy:         16.0,
		DebugLayerEnabled:     debugEnabled,
		MultithreadProtected:  cfg.EnableMultithreadProtection,
	}, nil
}

func (b *Backend) Shutdown() error {
	b.initialized = false
	return nil
}

// safeCall is the thread-protection facility of this backend: a plain mutex
// around context mutation, engaged only when the configuration asked for it.
func (b *Backend) safeCall(fn func() error) error {
	if b.useLock {
		b.protect.Lock()
		defer b.protect.Unlock()
	}
	return fn()
}

func (b *Backend) record(category, detail string) {
	if b.commands.IsFull() {
		// Oldest entries give way; the ring is a debugging aid, not a log.
		b.commands.Dequeue()
	}
	b.commands.Enqueue(Command{Category: category, Detail: detail})
}

// Commands drains and returns every recorded call in issue order.
func (b *Backend) Commands() []Command {
	out := make([]Command, 0, b.commands.Len())
	for !b.commands.IsEmpty() {
		cmd, _ := b.commands.Dequeue()
		out = append(out, cmd)
	}
	return out
}

func (b *Backend) Context() *Context { return b.ctx }

func (b *Backend) failure(category string) error {
	if b.opts.FailCategories[category] {
		return fmt.Errorf("injected %s failure", category)
	}
	return nil
}

// SubmitWork marks one unit of GPU work in flight. Test harnesses pair it
// with CompleteWork to exercise the idle-wait paths.
func (b *Backend) SubmitWork() {
	b.inflightMu.Lock()
	b.inflight++
	b.inflightMu.Unlock()
}

func (b *Backend) CompleteWork() {
	b.inflightMu.Lock()
	if b.inflight > 0 {
		b.inflight--
	}
	b.inflightCond.Broadcast()
	b.inflightMu.Unlock()
}

// WaitIdle blocks until every submitted unit of work has completed. There is
// no timeout; a hang here means device loss, which is beyond this layer.
func (b *Backend) WaitIdle() error {
	b.inflightMu.Lock()
	defer b.inflightMu.Unlock()
	for b.inflight > 0 {
		b.inflightCond.Wait()
	}
	return nil
}
