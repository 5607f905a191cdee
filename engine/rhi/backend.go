package rhi

import (
	"github.com/spaghettifunk/titan/engine/config"
)

/** @brief Tags the binding model a backend implements. */
type BackendKind int

const (
	/** @brief Mutable-context model: state is set directly on the device context. */
	BackendImmediate BackendKind = 0x1
	/** @brief Immutable precompiled pipeline objects plus descriptor sets. */
	BackendExplicit BackendKind = 0x2
)

// Capabilities is what the adapter negotiation settled on. Downstream
// components must consult it before setting state the hardware cannot
// express; the device clamps silently instead of erroring.
type Capabilities struct {
	Level                 config.CapabilityLevel
	AdapterName           string
	MaxTextureDimension2D uint32
	SupportsWideLines     bool
	MaxLineWidth          float32
	MaxAnisotropy         float32
	DebugLayerEnabled     bool
	MultithreadProtected  bool
}

/** @brief A single constant buffer binding: buffer, slot and scope. */
type ConstantBufferBinding struct {
	Buffer *ConstantBuffer
	Slot   uint32
	Scope  BufferScope
}

// GraphicsBackend is the surface a native graphics API implements. It is
// consumed by PipelineState and Pipeline, never called directly by higher
// layers.
//
// Both backend kinds implement the whole surface: an immediate backend
// realizes CompilePipeline as a recorded snapshot whose BindPipeline replays
// the category binds, an explicit backend accumulates category binds into
// the pending pipeline realization. Both honor the same commit order.
type GraphicsBackend interface {
	Kind() BackendKind
	Name() string

	// Initialize enumerates adapters, picks the primary one, negotiates the
	// highest level in cfg.PreferredCapabilityLevels that the adapter
	// supports and creates the logical device/context. A debug layer that
	// was requested but is unavailable degrades with one warning; it never
	// fails creation on its own.
	Initialize(cfg *config.RendererConfig) (*Capabilities, error)
	Shutdown() error

	// WaitIdle blocks until all queued GPU work has completed. No timeout:
	// a hang here indicates device loss, which is out of this layer's hands.
	WaitIdle() error

	CreateVertexBuffer(data []byte, stride uint32) (interface{}, error)
	CreateIndexBuffer(indices []uint32) (interface{}, error)
	CreateConstantBuffer(stride, elementCount uint32, dynamic bool) (interface{}, error)
	CreateTexture(desc *TextureDescription, mips [][]byte) (interface{}, error)
	CreateSampler(desc *SamplerDescription) (interface{}, error)
	CreateShaderModule(stage ShaderStage, bytecode []byte, entryPoint string) (interface{}, error)
	DestroyResource(native interface{}) error

	// Category bind surface, one call per dirty category per commit.
	SetViewport(v Viewport) error
	SetScissor(r ScissorRect) error
	BindVertexShader(m *ShaderModule) error
	BindPixelShader(m *ShaderModule) error
	SetPrimitiveTopology(t PrimitiveTopology) error
	SetInputLayout(l *InputLayout) error
	SetCullMode(c CullMode) error
	SetFillMode(f FillMode) error
	BindSamplers(startSlot uint32, samplers []*Sampler) error
	BindTextures(startSlot uint32, textures []*Texture) error
	BindIndexBuffer(b *IndexBuffer) error
	BindVertexBuffer(b *VertexBuffer) error
	BindConstantBuffers(bindings []ConstantBufferBinding) error

	// Explicit-pipeline surface.
	CompilePipeline(desc *PipelineDescription) (interface{}, error)
	DestroyPipeline(native interface{}) error
	BindPipeline(native interface{}) error
}
