package rhi

import (
	"github.com/spaghettifunk/titan/engine/core"
)

// BindDiagnostics records the per-category backend failures a commit
// swallowed. The frame those failures produced is still accepted; the
// record exists for observability only.
type BindDiagnostics struct {
	FailedCategories []string
}

func (bd *BindDiagnostics) record(category string, err error) {
	core.LogWarn("PipelineState.Bind: %s failed: %v", category, err)
	bd.FailedCategories = append(bd.FailedCategories, category)
}

// PipelineState is the mutable description of everything needed to draw.
// Setters flag the categories they touch; Bind diffs against the flags and
// issues one backend call per dirty category, in a fixed order.
type PipelineState struct {
	device *Device

	shader       *Shader
	vertexShader *ShaderModule
	pixelShader  *ShaderModule

	vertexBuffer *VertexBuffer
	indexBuffer  *IndexBuffer

	constantBufferInfos []ConstantBufferBinding
	samplers            []*Sampler
	textures            []*Texture

	primitiveTopology PrimitiveTopology
	inputLayout       *InputLayout
	cullMode          CullMode
	fillMode          FillMode

	rasterizerState   *RasterizerState
	blendState        *BlendState
	depthStencilState *DepthStencilState

	viewport Viewport
	scissor  ScissorRect

	renderTargetColors    []*Texture
	renderTargetDepth     *Texture
	renderTargetSwapchain bool

	// Slots whose constant buffer binds with a per-draw dynamic offset.
	// Tracks the last-appended binding per slot, matching the commit-time
	// dedupe.
	dynamicConstantBufferSlots map[uint32]bool

	viewportDirty       bool
	scissorDirty        bool
	vertexShaderDirty   bool
	pixelShaderDirty    bool
	topologyDirty       bool
	inputLayoutDirty    bool
	cullModeDirty       bool
	fillModeDirty       bool
	samplersDirty       bool
	texturesDirty       bool
	indexBufferDirty    bool
	vertexBufferDirty   bool
	constantBufferDirty bool

	diagnostics BindDiagnostics
}

func NewPipelineState(device *Device) *PipelineState {
	return &PipelineState{
		device:                     device,
		primitiveTopology:          PrimitiveTopologyNotAssigned,
		cullMode:                   CullModeNotAssigned,
		fillMode:                   FillModeNotAssigned,
		dynamicConstantBufferSlots: make(map[uint32]bool),
	}
}

// SetShader installs a vertex+pixel pair. As a side effect it derives the
// input layout from the vertex shader and, if the shader declares a constant
// buffer, registers that binding automatically.
func (ps *PipelineState) SetShader(shader *Shader) bool {
	if shader == nil || shader.Vertex == nil || shader.Pixel == nil {
		core.LogWarn("PipelineState.SetShader: invalid parameter")
		return false
	}

	// A false return here means the layout was already active, which is a
	// benign no-change signal, not an error in the broader bind flow.
	ps.SetInputLayout(shader.InputLayout())
	if shader.ConstantBuffer() != nil {
		ps.SetConstantBuffer(shader.ConstantBuffer(), shader.BufferSlot(), shader.BufferScope())
	}

	ps.shader = shader

	ps.vertexShader = shader.Vertex
	ps.vertexShaderDirty = true

	ps.pixelShader = shader.Pixel
	ps.pixelShaderDirty = true

	return true
}

func (ps *PipelineState) SetIndexBuffer(indexBuffer *IndexBuffer) bool {
	if indexBuffer == nil {
		core.LogWarn("PipelineState.SetIndexBuffer: invalid parameter")
		return false
	}

	ps.indexBuffer = indexBuffer
	ps.indexBufferDirty = true

	return true
}

func (ps *PipelineState) SetVertexBuffer(vertexBuffer *VertexBuffer) bool {
	if vertexBuffer == nil {
		core.LogWarn("PipelineState.SetVertexBuffer: invalid parameter")
		return false
	}
	if ps.inputLayout != nil && vertexBuffer.Stride != ps.inputLayout.Stride {
		core.LogWarn("PipelineState.SetVertexBuffer: stride %d does not match input layout stride %d",
			vertexBuffer.Stride, ps.inputLayout.Stride)
		return false
	}

	ps.vertexBuffer = vertexBuffer
	ps.vertexBufferDirty = true

	return true
}

func (ps *PipelineState) SetSampler(sampler *Sampler) bool {
	if sampler == nil {
		core.LogWarn("PipelineState.SetSampler: invalid parameter")
		return false
	}

	ps.samplers = append(ps.samplers, sampler)
	ps.samplersDirty = true

	return true
}

// SetTexture appends a texture in call order; the slot is its position in
// the list. A nil texture is a valid unbind placeholder that keeps later
// textures at their intended slots.
func (ps *PipelineState) SetTexture(texture *Texture) bool {
	ps.textures = append(ps.textures, texture)
	ps.texturesDirty = true

	return true
}

// SetConstantBuffer appends a binding. Rebinding the same slot before a
// commit is allowed; the last-appended binding wins at bind time.
func (ps *PipelineState) SetConstantBuffer(constantBuffer *ConstantBuffer, slot uint32, scope BufferScope) bool {
	if constantBuffer == nil {
		core.LogWarn("PipelineState.SetConstantBuffer: invalid parameter")
		return false
	}

	ps.constantBufferInfos = append(ps.constantBufferInfos, ConstantBufferBinding{
		Buffer: constantBuffer,
		Slot:   slot,
		Scope:  scope,
	})
	// A non-dynamic rebind of a slot clears its dynamic mark: the last
	// appended binding decides, same as the commit-time dedupe.
	if constantBuffer.IsDynamic() {
		ps.dynamicConstantBufferSlots[slot] = true
	} else {
		delete(ps.dynamicConstantBufferSlots, slot)
	}
	ps.constantBufferDirty = true

	return true
}

func (ps *PipelineState) SetPrimitiveTopology(primitiveTopology PrimitiveTopology) {
	if ps.primitiveTopology == primitiveTopology {
		return
	}

	ps.primitiveTopology = primitiveTopology
	ps.topologyDirty = true
}

// SetInputLayout returns false if the requested layout is already active.
func (ps *PipelineState) SetInputLayout(inputLayout *InputLayout) bool {
	if inputLayout == nil {
		core.LogWarn("PipelineState.SetInputLayout: invalid parameter")
		return false
	}
	if ps.inputLayout != nil && ps.inputLayout.ID() == inputLayout.ID() {
		return false
	}

	ps.inputLayout = inputLayout
	ps.inputLayoutDirty = true

	return true
}

func (ps *PipelineState) SetCullMode(cullMode CullMode) {
	if ps.cullMode == cullMode {
		return
	}

	ps.cullMode = cullMode
	ps.cullModeDirty = true
}

func (ps *PipelineState) SetFillMode(fillMode FillMode) {
	if ps.fillMode == fillMode {
		return
	}

	ps.fillMode = fillMode
	ps.fillModeDirty = true
}

func (ps *PipelineState) SetViewport(viewport Viewport) {
	if ps.viewport == viewport {
		return
	}

	ps.viewport = viewport
	ps.viewportDirty = true
}

func (ps *PipelineState) SetScissor(scissor ScissorRect) {
	if ps.scissor == scissor {
		return
	}

	ps.scissor = scissor
	ps.scissorDirty = true
}

func (ps *PipelineState) SetRasterizerState(state *RasterizerState) bool {
	if state == nil {
		core.LogWarn("PipelineState.SetRasterizerState: invalid parameter")
		return false
	}
	ps.rasterizerState = state
	ps.SetCullMode(state.CullMode)
	ps.SetFillMode(state.FillMode)
	return true
}

func (ps *PipelineState) SetBlendState(state *BlendState) bool {
	if state == nil {
		core.LogWarn("PipelineState.SetBlendState: invalid parameter")
		return false
	}
	ps.blendState = state
	return true
}

func (ps *PipelineState) SetDepthStencilState(state *DepthStencilState) bool {
	if state == nil {
		core.LogWarn("PipelineState.SetDepthStencilState: invalid parameter")
		return false
	}
	ps.depthStencilState = state
	return true
}

// SetRenderTargets points the state at color attachments plus an optional
// depth attachment. Mutually exclusive with the swapchain backbuffer flag.
func (ps *PipelineState) SetRenderTargets(colors []*Texture, depth *Texture) bool {
	if len(colors) == 0 && depth == nil {
		core.LogWarn("PipelineState.SetRenderTargets: invalid parameter")
		return false
	}
	ps.renderTargetColors = colors
	ps.renderTargetDepth = depth
	ps.renderTargetSwapchain = false
	return true
}

func (ps *PipelineState) SetRenderTargetSwapchain() {
	ps.renderTargetColors = nil
	ps.renderTargetDepth = nil
	ps.renderTargetSwapchain = true
}

// IsViewportDynamic reports whether the viewport will be resolved per-draw
// instead of committed as fixed state.
func (ps *PipelineState) IsViewportDynamic() bool { return !ps.viewport.IsDefined() }

// Diagnostics returns the swallowed-failure record of the last Bind.
func (ps *PipelineState) Diagnostics() BindDiagnostics { return ps.diagnostics }

// validate checks the cross-field invariants that must hold before a commit.
func (ps *PipelineState) validate() bool {
	hasTargets := len(ps.renderTargetColors) > 0 || ps.renderTargetDepth != nil
	if hasTargets == ps.renderTargetSwapchain {
		core.LogWarn("PipelineState.Bind: exactly one of render targets or the swapchain backbuffer must be set")
		return false
	}
	if ps.vertexBuffer != nil && ps.inputLayout != nil && ps.vertexBuffer.Stride != ps.inputLayout.Stride {
		core.LogWarn("PipelineState.Bind: vertex buffer stride %d does not match input layout stride %d",
			ps.vertexBuffer.Stride, ps.inputLayout.Stride)
		return false
	}
	return true
}

// resolveConstantBuffers deduplicates appended bindings by slot, last
// appended wins, and returns them in ascending slot order.
func (ps *PipelineState) resolveConstantBuffers() []ConstantBufferBinding {
	bySlot := make(map[uint32]int, len(ps.constantBufferInfos))
	resolved := make([]ConstantBufferBinding, 0, len(ps.constantBufferInfos))
	for _, info := range ps.constantBufferInfos {
		if i, seen := bySlot[info.Slot]; seen {
			resolved[i] = info
			continue
		}
		bySlot[info.Slot] = len(resolved)
		resolved = append(resolved, info)
	}
	// Insertion order above is first-seen order; sort by slot for a
	// deterministic batch.
	for i := 1; i < len(resolved); i++ {
		for j := i; j > 0 && resolved[j-1].Slot > resolved[j].Slot; j-- {
			resolved[j-1], resolved[j] = resolved[j], resolved[j-1]
		}
	}
	return resolved
}

// Bind commits every dirty category to the backend, in a fixed order, one
// batched call per category. Only index and vertex buffer bind failures fail
// the commit as a whole; all other category failures are logged and the
// frame proceeds with whatever partial state landed. A bound-wrong frame is
// preferable to aborting the draw.
func (ps *PipelineState) Bind() bool {
	if ps.device == nil || !ps.device.IsInitialized() {
		core.LogError("PipelineState.Bind: invalid device")
		return false
	}
	if !ps.validate() {
		return false
	}

	backend := ps.device.Backend()
	metrics := core.Metrics()
	ps.diagnostics = BindDiagnostics{}

	// Viewport. An undefined viewport stays dynamic and is never committed
	// as fixed state.
	if ps.viewportDirty {
		if ps.viewport.IsDefined() {
			if err := backend.SetViewport(ps.viewport); err != nil {
				ps.diagnostics.record("viewport", err)
			}
			metrics.BindViewportCount++
		}
		ps.viewportDirty = false
	}

	// Scissor rides with the viewport region.
	if ps.scissorDirty {
		if err := backend.SetScissor(ps.scissor); err != nil {
			ps.diagnostics.record("scissor", err)
		}
		ps.scissorDirty = false
	}

	// Vertex shader
	if ps.vertexShaderDirty {
		if err := backend.BindVertexShader(ps.vertexShader); err != nil {
			ps.diagnostics.record("vertex_shader", err)
		}
		metrics.BindVertexShaderCount++
		ps.vertexShaderDirty = false
	}

	// Pixel shader
	if ps.pixelShaderDirty {
		if err := backend.BindPixelShader(ps.pixelShader); err != nil {
			ps.diagnostics.record("pixel_shader", err)
		}
		metrics.BindPixelShaderCount++
		ps.pixelShaderDirty = false
	}

	// Primitive topology
	if ps.topologyDirty {
		if err := backend.SetPrimitiveTopology(ps.primitiveTopology); err != nil {
			ps.diagnostics.record("primitive_topology", err)
		}
		metrics.BindTopologyCount++
		ps.topologyDirty = false
	}

	// Input layout
	if ps.inputLayoutDirty {
		if err := backend.SetInputLayout(ps.inputLayout); err != nil {
			ps.diagnostics.record("input_layout", err)
		}
		metrics.BindInputLayoutCount++
		ps.inputLayoutDirty = false
	}

	// Cull mode
	if ps.cullModeDirty {
		if err := backend.SetCullMode(ps.cullMode); err != nil {
			ps.diagnostics.record("cull_mode", err)
		}
		metrics.BindCullModeCount++
		ps.cullModeDirty = false
	}

	// Fill mode
	if ps.fillModeDirty {
		if err := backend.SetFillMode(ps.fillMode); err != nil {
			ps.diagnostics.record("fill_mode", err)
		}
		metrics.BindFillModeCount++
		ps.fillModeDirty = false
	}

	// Samplers, one batched call, list released after it.
	if ps.samplersDirty {
		if err := backend.BindSamplers(0, ps.samplers); err != nil {
			ps.diagnostics.record("samplers", err)
		}
		metrics.BindSamplerCount++
		ps.samplers = nil
		ps.samplersDirty = false
	}

	// Textures, same batching.
	if ps.texturesDirty {
		if err := backend.BindTextures(0, ps.textures); err != nil {
			ps.diagnostics.record("textures", err)
		}
		metrics.BindTextureCount++
		ps.textures = nil
		ps.texturesDirty = false
	}

	// Index buffer
	resultIndexBuffer := true
	if ps.indexBufferDirty {
		if err := backend.BindIndexBuffer(ps.indexBuffer); err != nil {
			core.LogWarn("PipelineState.Bind: index buffer bind failed: %v", err)
			resultIndexBuffer = false
		}
		metrics.BindBufferIndexCount++
		ps.indexBufferDirty = false
	}

	// Vertex buffer
	resultVertexBuffer := true
	if ps.vertexBufferDirty {
		if err := backend.BindVertexBuffer(ps.vertexBuffer); err != nil {
			core.LogWarn("PipelineState.Bind: vertex buffer bind failed: %v", err)
			resultVertexBuffer = false
		}
		metrics.BindBufferVertexCount++
		ps.vertexBufferDirty = false
	}

	// Constant buffers: duplicate slots collapse, last appended wins, and
	// the whole batch goes out in one call.
	if ps.constantBufferDirty {
		if err := backend.BindConstantBuffers(ps.resolveConstantBuffers()); err != nil {
			ps.diagnostics.record("constant_buffers", err)
		}
		metrics.BindConstantBufferCount++
		ps.constantBufferInfos = nil
		ps.constantBufferDirty = false
	}

	return resultIndexBuffer && resultVertexBuffer
}
