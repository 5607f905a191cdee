package rhi

import (
	"fmt"

	"github.com/spaghettifunk/titan/engine/core"
)

/** @brief A single programmable stage. */
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = 0x1
	ShaderStagePixel  ShaderStage = 0x2
)

/** @brief One attribute of a vertex input layout. */
type VertexAttribute struct {
	Name     string
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

// InputLayout describes how a vertex buffer feeds the vertex shader. It is
// derived from the vertex shader's reflection metadata, never set
// independently by callers.
type InputLayout struct {
	id         string
	Attributes []VertexAttribute
	Stride     uint32
}

func NewInputLayout(attributes []VertexAttribute, stride uint32) *InputLayout {
	return &InputLayout{
		id:         core.IdentifierNew(),
		Attributes: attributes,
		Stride:     stride,
	}
}

func (l *InputLayout) ID() string { return l.id }

/** @brief The kind of resource a shader declares at a binding slot. */
type ResourceBindingType int

const (
	ResourceBindingUniformBuffer ResourceBindingType = 0x1
	ResourceBindingSampler       ResourceBindingType = 0x2
	ResourceBindingTexture       ResourceBindingType = 0x3
)

/** @brief A resource binding a shader pair declares, used to derive descriptor set layouts. */
type ResourceBinding struct {
	Type  ResourceBindingType
	Slot  uint32
	Stage ShaderStage
	Count uint32
}

// ShaderModule wraps one already-compiled shader stage. Compilation belongs
// to an external subsystem; this layer only binds the result.
type ShaderModule struct {
	resourceObject
	Stage      ShaderStage
	EntryPoint string
	Name       string
	// Path is the file the bytecode was loaded from, if any. The assets
	// watcher uses it to map recompile events back to this module.
	Path string
}

func (d *Device) CreateShaderModule(name string, stage ShaderStage, bytecode []byte, entryPoint string) (*ShaderModule, error) {
	if !d.initialized {
		return nil, core.ErrNotInitialized
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("shader module '%s': %w", name, core.ErrInvalidParameter)
	}
	if entryPoint == "" {
		entryPoint = "main"
	}
	native, err := d.backend.CreateShaderModule(stage, bytecode, entryPoint)
	if err != nil {
		return nil, fmt.Errorf("shader module '%s': %w", name, err)
	}
	return &ShaderModule{
		resourceObject: newResourceObject(d, native),
		Stage:          stage,
		EntryPoint:     entryPoint,
		Name:           name,
	}, nil
}

// Shader is a vertex+pixel module pair plus the reflection metadata the
// compiler declared for it: the vertex input layout, an optional constant
// buffer and the resource bindings needed for descriptor layout derivation.
type Shader struct {
	Vertex *ShaderModule
	Pixel  *ShaderModule

	layout   *InputLayout
	bindings []ResourceBinding

	constantBuffer *ConstantBuffer
	bufferSlot     uint32
	bufferScope    BufferScope
}

// ShaderConfig carries the reflection metadata handed over by the shader
// compilation collaborator.
type ShaderConfig struct {
	Attributes []VertexAttribute
	Stride     uint32
	Bindings   []ResourceBinding

	// Optional constant buffer the shader declares for itself; registered
	// automatically when the shader is set on a pipeline state.
	ConstantBufferStride   uint32
	ConstantBufferElements uint32
	ConstantBufferSlot     uint32
	ConstantBufferScope    BufferScope
}

func (d *Device) CreateShader(vertex, pixel *ShaderModule, cfg *ShaderConfig) (*Shader, error) {
	if vertex == nil || pixel == nil || cfg == nil {
		return nil, fmt.Errorf("CreateShader: %w", core.ErrInvalidParameter)
	}
	if vertex.Stage != ShaderStageVertex || pixel.Stage != ShaderStagePixel {
		return nil, fmt.Errorf("CreateShader: stage mismatch: %w", core.ErrInvalidParameter)
	}

	shader := &Shader{
		Vertex:      vertex,
		Pixel:       pixel,
		layout:      NewInputLayout(cfg.Attributes, cfg.Stride),
		bindings:    cfg.Bindings,
		bufferSlot:  cfg.ConstantBufferSlot,
		bufferScope: cfg.ConstantBufferScope,
	}

	if cfg.ConstantBufferStride > 0 {
		elements := cfg.ConstantBufferElements
		if elements == 0 {
			elements = 1
		}
		buffer, err := d.CreateConstantBuffer(cfg.ConstantBufferStride, elements, false)
		if err != nil {
			return nil, err
		}
		shader.constantBuffer = buffer
	}
	return shader, nil
}

func (s *Shader) InputLayout() *InputLayout { return s.layout }
func (s *Shader) Bindings() []ResourceBinding { return s.bindings }
func (s *Shader) ConstantBuffer() *ConstantBuffer { return s.constantBuffer }
func (s *Shader) BufferSlot() uint32 { return s.bufferSlot }
func (s *Shader) BufferScope() BufferScope { return s.bufferScope }

func (s *Shader) Release() error {
	if s.constantBuffer != nil {
		if err := s.constantBuffer.Release(); err != nil {
			return err
		}
	}
	if err := s.Vertex.Release(); err != nil {
		return err
	}
	return s.Pixel.Release()
}
