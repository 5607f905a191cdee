package rhi

import (
	"fmt"
	"hash/fnv"
	"slices"
	"sync"

	"github.com/spaghettifunk/titan/engine/core"
)

/** @brief Pipeline state resolved per-draw instead of baked at creation. */
type DynamicState int

const (
	DynamicStateViewport DynamicState = 0x1
	DynamicStateScissor  DynamicState = 0x2
)

/** @brief One descriptor-set layout entry derived from shader reflection. */
type DescriptorBinding struct {
	ResourceBinding
	// DynamicOffset marks slots whose constant buffer binds with a
	// per-draw dynamic offset.
	DynamicOffset bool
}

// PipelineDescription is the backend-agnostic compiled form of one
// PipelineState snapshot: everything an explicit backend needs to assemble
// an immutable native pipeline object, already validated and with dynamic
// state resolved.
type PipelineDescription struct {
	VertexShader *ShaderModule
	PixelShader  *ShaderModule

	Attributes []VertexAttribute
	Stride     uint32

	Topology     PrimitiveTopology
	Rasterizer   *RasterizerState
	Blend        *BlendState
	DepthStencil *DepthStencilState

	Viewport Viewport
	Scissor  ScissorRect

	DynamicStates      []DynamicState
	DescriptorBindings []DescriptorBinding

	// Render target format combination the pipeline is bound to.
	ColorFormats    []Format
	DepthFormat     Format
	HasDepth        bool
	SwapchainTarget bool
}

// Pipeline is the compiled realization of one PipelineState snapshot. On an
// explicit backend it owns an immutable native pipeline object, layout and
// descriptor-set layout; on an immediate backend the native object is a
// recorded snapshot whose bind replays the category calls. Once constructed
// it never changes: a changed PipelineState needs a new Pipeline.
type Pipeline struct {
	device   *Device
	desc     *PipelineDescription
	native   interface{}
	hash     uint64
	released bool
}

// NewPipeline compiles a pipeline from a snapshot of state. Every build step
// is a hard precondition: the first failure aborts construction and the
// caller must not draw with the result.
func NewPipeline(device *Device, state *PipelineState) (*Pipeline, error) {
	if device == nil || !device.IsInitialized() {
		return nil, &core.PipelineCreationError{Step: "device", Native: "device not initialized"}
	}
	if state == nil || !state.validate() {
		return nil, &core.PipelineCreationError{Step: "state validation", Native: "invalid pipeline state"}
	}

	desc, err := describe(state)
	if err != nil {
		return nil, err
	}

	native, err := device.Backend().CompilePipeline(desc)
	if err != nil {
		return nil, &core.PipelineCreationError{Step: "backend compile", Native: err.Error()}
	}

	return &Pipeline{
		device: device,
		desc:   desc,
		native: native,
		hash:   state.Hash(),
	}, nil
}

// describe turns a state snapshot into a PipelineDescription, running the
// backend-agnostic build steps: dynamic-state resolution, attribute
// translation and descriptor layout derivation.
func describe(state *PipelineState) (*PipelineDescription, error) {
	if state.vertexShader == nil || state.pixelShader == nil {
		return nil, &core.PipelineCreationError{Step: "shader stages", Native: "vertex and pixel shaders are required"}
	}
	if state.inputLayout == nil {
		return nil, &core.PipelineCreationError{Step: "input layout", Native: "no input layout derived from vertex shader"}
	}
	if state.rasterizerState == nil || state.blendState == nil || state.depthStencilState == nil {
		return nil, &core.PipelineCreationError{Step: "sub-states", Native: "rasterizer, blend and depth-stencil states are required"}
	}
	if state.primitiveTopology == PrimitiveTopologyNotAssigned {
		return nil, &core.PipelineCreationError{Step: "topology", Native: "primitive topology not assigned"}
	}

	desc := &PipelineDescription{
		VertexShader:    state.vertexShader,
		PixelShader:     state.pixelShader,
		Attributes:      state.inputLayout.Attributes,
		Stride:          state.inputLayout.Stride,
		Topology:        state.primitiveTopology,
		Rasterizer:      state.rasterizerState,
		Blend:           state.blendState,
		DepthStencil:    state.depthStencilState,
		Viewport:        state.viewport,
		Scissor:         state.scissor,
		HasDepth:        state.renderTargetDepth != nil,
		SwapchainTarget: state.renderTargetSwapchain,
	}

	// Viewport and scissor not pinned by the snapshot are set per-draw.
	if !state.viewport.IsDefined() {
		desc.DynamicStates = append(desc.DynamicStates, DynamicStateViewport)
	}
	if !state.scissor.IsDefined() {
		desc.DynamicStates = append(desc.DynamicStates, DynamicStateScissor)
	}

	for _, rt := range state.renderTargetColors {
		desc.ColorFormats = append(desc.ColorFormats, rt.Description.Format)
	}
	if state.renderTargetDepth != nil {
		desc.DepthFormat = state.renderTargetDepth.Description.Format
	}
	if state.renderTargetSwapchain {
		desc.ColorFormats = append(desc.ColorFormats, FormatB8G8R8A8Unorm)
	}

	// Descriptor layout: the shader pair's declared bindings, with dynamic
	// offsets marked where the state requires them.
	if state.shader != nil {
		for _, binding := range state.shader.Bindings() {
			desc.DescriptorBindings = append(desc.DescriptorBindings, DescriptorBinding{
				ResourceBinding: binding,
				DynamicOffset: binding.Type == ResourceBindingUniformBuffer &&
					state.dynamicConstantBufferSlots[binding.Slot],
			})
		}
	}

	return desc, nil
}

func (p *Pipeline) Description() *PipelineDescription { return p.desc }
func (p *Pipeline) Hash() uint64 { return p.hash }

// Resource exposes the opaque native pipeline handle.
func (p *Pipeline) Resource() interface{} { return p.native }

func (p *Pipeline) Bind() error {
	if p.released || p.native == nil {
		return fmt.Errorf("pipeline: bind after release")
	}
	return p.device.Backend().BindPipeline(p.native)
}

// Release waits for all in-flight GPU work referencing the pipeline to
// complete, then destroys the native objects. Never destroy-while-in-use.
func (p *Pipeline) Release() error {
	if p.released || p.native == nil {
		return nil
	}
	p.released = true

	if err := p.device.WaitIdle(); err != nil {
		core.LogWarn("Pipeline.Release: WaitIdle failed: %v", err)
	}

	err := p.device.Backend().DestroyPipeline(p.native)
	p.native = nil
	return err
}

// Hash is the deterministic key of this state's compiled form. Two states
// with equal hashes compile to interchangeable pipelines; unchanged hashes
// must not trigger a rebuild.
func (ps *PipelineState) Hash() uint64 {
	h := fnv.New64a()

	if ps.vertexShader != nil {
		fmt.Fprintf(h, "vs:%s;", ps.vertexShader.ID())
	}
	if ps.pixelShader != nil {
		fmt.Fprintf(h, "ps:%s;", ps.pixelShader.ID())
	}
	if ps.inputLayout != nil {
		fmt.Fprintf(h, "il:%s;", ps.inputLayout.ID())
	}
	fmt.Fprintf(h, "top:%d;cull:%d;fill:%d;", ps.primitiveTopology, ps.cullMode, ps.fillMode)
	if ps.rasterizerState != nil {
		fmt.Fprintf(h, "rs:%s;", ps.rasterizerState.ID())
	}
	if ps.blendState != nil {
		fmt.Fprintf(h, "bs:%s;", ps.blendState.ID())
	}
	if ps.depthStencilState != nil {
		fmt.Fprintf(h, "ds:%s;", ps.depthStencilState.ID())
	}
	fmt.Fprintf(h, "vp:%v;sc:%v;", ps.viewport, ps.scissor)
	for _, rt := range ps.renderTargetColors {
		fmt.Fprintf(h, "rt:%d;", rt.Description.Format)
	}
	if ps.renderTargetDepth != nil {
		fmt.Fprintf(h, "depth:%d;", ps.renderTargetDepth.Description.Format)
	}
	fmt.Fprintf(h, "swap:%t;", ps.renderTargetSwapchain)

	dynSlots := make([]uint32, 0, len(ps.dynamicConstantBufferSlots))
	for slot := range ps.dynamicConstantBufferSlots {
		dynSlots = append(dynSlots, slot)
	}
	slices.Sort(dynSlots)
	for _, slot := range dynSlots {
		fmt.Fprintf(h, "dyn:%d;", slot)
	}

	return h.Sum64()
}

// PipelineCache builds pipelines on demand and reuses them by state hash.
// The assets watcher evicts entries from its own goroutine when a shader
// module is recompiled, so every map access takes the lock.
type PipelineCache struct {
	device   *Device
	mutex    sync.Mutex
	entries  map[uint64]*Pipeline
	byModule map[string][]uint64
}

func NewPipelineCache(device *Device) *PipelineCache {
	return &PipelineCache{
		device:   device,
		entries:  make(map[uint64]*Pipeline),
		byModule: make(map[string][]uint64),
	}
}

// Get returns the cached pipeline for the state's hash, compiling it on a
// miss.
func (pc *PipelineCache) Get(state *PipelineState) (*Pipeline, error) {
	key := state.Hash()

	pc.mutex.Lock()
	defer pc.mutex.Unlock()
	if pipeline, ok := pc.entries[key]; ok {
		return pipeline, nil
	}

	pipeline, err := NewPipeline(pc.device, state)
	if err != nil {
		return nil, err
	}
	pc.entries[key] = pipeline
	if state.vertexShader != nil {
		pc.byModule[state.vertexShader.ID()] = append(pc.byModule[state.vertexShader.ID()], key)
	}
	if state.pixelShader != nil {
		pc.byModule[state.pixelShader.ID()] = append(pc.byModule[state.pixelShader.ID()], key)
	}
	return pipeline, nil
}

func (pc *PipelineCache) Len() int {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()
	return len(pc.entries)
}

// InvalidateModule releases every pipeline built from the given shader
// module. Used when a compiled module file changes on disk.
func (pc *PipelineCache) InvalidateModule(moduleID string) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()
	for _, key := range pc.byModule[moduleID] {
		if pipeline, ok := pc.entries[key]; ok {
			if err := pipeline.Release(); err != nil {
				core.LogWarn("pipeline cache: release during invalidation: %v", err)
			}
			delete(pc.entries, key)
		}
	}
	delete(pc.byModule, moduleID)
}

// Clear releases everything, idle-waiting per pipeline.
func (pc *PipelineCache) Clear() {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()
	for key, pipeline := range pc.entries {
		if err := pipeline.Release(); err != nil {
			core.LogWarn("pipeline cache: release during clear: %v", err)
		}
		delete(pc.entries, key)
	}
	pc.byModule = make(map[string][]uint64)
}
