package rhi_test

import (
	"testing"

	"github.com/spaghettifunk/titan/engine/config"
	"github.com/spaghettifunk/titan/engine/core"
	"github.com/spaghettifunk/titan/engine/rhi"
	"github.com/spaghettifunk/titan/engine/rhi/headless"
)

const testStride = 24 // position vec3 + color vec3

func newTestDevice(t *testing.T, opts headless.Options) (*rhi.Device, *headless.Backend) {
	t.Helper()
	backend := headless.New(opts)
	device, err := rhi.NewDevice(backend, config.Default())
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	t.Cleanup(func() { device.Shutdown() })
	return device, backend
}

func newTestShader(t *testing.T, device *rhi.Device) *rhi.Shader {
	t.Helper()
	vs, err := device.CreateShaderModule("triangle_vs", rhi.ShaderStageVertex, make([]byte, 64), "main")
	if err != nil {
		t.Fatalf("CreateShaderModule(vertex): %v", err)
	}
	ps, err := device.CreateShaderModule("triangle_ps", rhi.ShaderStagePixel, make([]byte, 64), "main")
	if err != nil {
		t.Fatalf("CreateShaderModule(pixel): %v", err)
	}
	shader, err := device.CreateShader(vs, ps, &rhi.ShaderConfig{
		Attributes: []rhi.VertexAttribute{
			{Name: "position", Location: 0, Format: rhi.FormatR32G32B32Float, Offset: 0},
			{Name: "color", Location: 1, Format: rhi.FormatR32G32B32Float, Offset: 12},
		},
		Stride: testStride,
	})
	if err != nil {
		t.Fatalf("CreateShader: %v", err)
	}
	return shader
}

// populateState installs every bindable category so a commit has to touch
// each one.
func populateState(t *testing.T, device *rhi.Device, state *rhi.PipelineState) {
	t.Helper()

	if !state.SetShader(newTestShader(t, device)) {
		t.Fatal("SetShader returned false")
	}

	vb, err := device.CreateVertexBuffer(make([]byte, testStride*3), testStride)
	if err != nil {
		t.Fatalf("CreateVertexBuffer: %v", err)
	}
	if !state.SetVertexBuffer(vb) {
		t.Fatal("SetVertexBuffer returned false")
	}

	ib, err := device.CreateIndexBuffer([]uint32{0, 1, 2})
	if err != nil {
		t.Fatalf("CreateIndexBuffer: %v", err)
	}
	if !state.SetIndexBuffer(ib) {
		t.Fatal("SetIndexBuffer returned false")
	}

	sampler, err := device.CreateSampler(rhi.SamplerDescription{
		MinFilter: rhi.FilterLinear,
		MagFilter: rhi.FilterLinear,
	})
	if err != nil {
		t.Fatalf("CreateSampler: %v", err)
	}
	state.SetSampler(sampler)

	texture, err := device.CreateTexture(rhi.TextureDescription{
		Width:  4,
		Height: 4,
		Format: rhi.FormatR8G8B8A8Unorm,
		Usage:  rhi.TextureUsageSampled,
	}, [][]byte{make([]byte, 4*4*4)})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	state.SetTexture(texture)

	cb, err := device.CreateConstantBuffer(64, 1, false)
	if err != nil {
		t.Fatalf("CreateConstantBuffer: %v", err)
	}
	state.SetConstantBuffer(cb, 0, rhi.BufferScopePerDraw)

	state.SetPrimitiveTopology(rhi.PrimitiveTopologyTriangleList)
	state.SetCullMode(rhi.CullModeBack)
	state.SetFillMode(rhi.FillModeSolid)
	state.SetViewport(rhi.Viewport{Width: 1280, Height: 720, DepthMax: 1})
	state.SetScissor(rhi.ScissorRect{Right: 1280, Bottom: 720})
	state.SetRenderTargetSwapchain()
}

func commandCounts(cmds []headless.Command) map[string]int {
	counts := make(map[string]int, len(cmds))
	for _, cmd := range cmds {
		counts[cmd.Category]++
	}
	return counts
}

func TestBindCommitsEachDirtyCategoryOnce(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)
	backend.Commands()

	if !state.Bind() {
		t.Fatal("Bind returned false")
	}

	counts := commandCounts(backend.Commands())
	for _, category := range []string{
		"viewport", "scissor", "vertex_shader", "pixel_shader",
		"primitive_topology", "input_layout", "cull_mode", "fill_mode",
		"samplers", "textures", "index_buffer", "vertex_buffer",
		"constant_buffers",
	} {
		if got := counts[category]; got != 1 {
			t.Errorf("category %q committed %d times, want 1", category, got)
		}
	}
}

func TestBindCommitOrderIsFixed(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)
	backend.Commands()

	if !state.Bind() {
		t.Fatal("Bind returned false")
	}

	want := []string{
		"viewport", "scissor", "vertex_shader", "pixel_shader",
		"primitive_topology", "input_layout", "cull_mode", "fill_mode",
		"samplers", "textures", "index_buffer", "vertex_buffer",
		"constant_buffers",
	}
	cmds := backend.Commands()
	if len(cmds) != len(want) {
		t.Fatalf("got %d commands, want %d", len(cmds), len(want))
	}
	for i, category := range want {
		if cmds[i].Category != category {
			t.Errorf("command %d is %q, want %q", i, cmds[i].Category, category)
		}
	}
}

func TestSecondBindWithoutChangesIsEmpty(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)

	if !state.Bind() {
		t.Fatal("first Bind returned false")
	}
	backend.Commands()

	if !state.Bind() {
		t.Fatal("second Bind returned false")
	}
	if cmds := backend.Commands(); len(cmds) != 0 {
		t.Errorf("clean state committed %d commands, want 0: %v", len(cmds), cmds)
	}
}

func TestEqualValueWritesStayClean(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	backend.Commands()

	// Re-applying the currently active values must not re-dirty anything.
	state.SetCullMode(rhi.CullModeBack)
	state.SetFillMode(rhi.FillModeSolid)
	state.SetPrimitiveTopology(rhi.PrimitiveTopologyTriangleList)
	state.SetViewport(rhi.Viewport{Width: 1280, Height: 720, DepthMax: 1})
	state.SetScissor(rhi.ScissorRect{Right: 1280, Bottom: 720})

	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	if cmds := backend.Commands(); len(cmds) != 0 {
		t.Errorf("equal-value writes committed %d commands, want 0: %v", len(cmds), cmds)
	}
}

func TestChangedCategoryRecommitsAlone(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	backend.Commands()

	state.SetCullMode(rhi.CullModeFront)
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}

	cmds := backend.Commands()
	if len(cmds) != 1 || cmds[0].Category != "cull_mode" {
		t.Fatalf("got commands %v, want exactly one cull_mode commit", cmds)
	}
	if backend.Context().CullMode != rhi.CullModeFront {
		t.Errorf("context cull mode = %d, want %d", backend.Context().CullMode, rhi.CullModeFront)
	}
}

func TestUndefinedViewportIsSkippedButCleared(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	backend.Commands()

	// A zero-extent viewport differs from the active one, so the category
	// dirties, but an undefined extent must never land as fixed state.
	state.SetViewport(rhi.Viewport{X: 1})
	if !state.IsViewportDynamic() {
		t.Fatal("zero-extent viewport should report dynamic")
	}
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	if counts := commandCounts(backend.Commands()); counts["viewport"] != 0 {
		t.Error("undefined viewport was committed to the backend")
	}

	// The flag must have cleared: a further clean bind stays empty.
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	if cmds := backend.Commands(); len(cmds) != 0 {
		t.Errorf("viewport flag survived the skipped commit: %v", cmds)
	}
}

func TestNilTexturePreservesSlotOrder(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}

	texA, err := device.CreateTexture(rhi.TextureDescription{
		Width: 2, Height: 2, Format: rhi.FormatR8G8B8A8Unorm, Usage: rhi.TextureUsageSampled,
	}, [][]byte{make([]byte, 16)})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	texC, err := device.CreateTexture(rhi.TextureDescription{
		Width: 2, Height: 2, Format: rhi.FormatR8G8B8A8Unorm, Usage: rhi.TextureUsageSampled,
	}, [][]byte{make([]byte, 16)})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}

	state.SetTexture(texA)
	state.SetTexture(nil) // unbind placeholder holds slot 1
	state.SetTexture(texC)
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}

	bound := backend.Context().Textures
	if len(bound) != 3 {
		t.Fatalf("got %d bound textures, want 3", len(bound))
	}
	if bound[0] != texA || bound[1] != nil || bound[2] != texC {
		t.Errorf("texture slots out of order: [%v %v %v]", bound[0], bound[1], bound[2])
	}
}

func TestSetVertexBufferRejectsStrideMismatch(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	backend.Commands()

	narrow, err := device.CreateVertexBuffer(make([]byte, 12*3), 12)
	if err != nil {
		t.Fatalf("CreateVertexBuffer: %v", err)
	}
	if state.SetVertexBuffer(narrow) {
		t.Error("SetVertexBuffer accepted a stride that contradicts the input layout")
	}
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	if counts := commandCounts(backend.Commands()); counts["vertex_buffer"] != 0 {
		t.Error("rejected vertex buffer still reached the backend")
	}
}

func TestBindRequiresExactlyOneTargetKind(t *testing.T) {
	device, _ := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	state.SetShader(newTestShader(t, device))

	if state.Bind() {
		t.Error("Bind succeeded with no render target and no swapchain flag")
	}

	state.SetRenderTargetSwapchain()
	if !state.Bind() {
		t.Error("Bind failed with the swapchain backbuffer selected")
	}

	depth, err := device.CreateTexture(rhi.TextureDescription{
		Width: 64, Height: 64, Format: rhi.FormatD32Float, Usage: rhi.TextureUsageDepthStencil,
	}, nil)
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if !state.SetRenderTargets(nil, depth) {
		t.Fatal("SetRenderTargets rejected a depth-only target")
	}
	if !state.Bind() {
		t.Error("Bind failed with a depth-only render target")
	}
}

func TestBindSwallowsNonBufferFailures(t *testing.T) {
	device, _ := newTestDevice(t, headless.Options{
		FailCategories: map[string]bool{"textures": true, "cull_mode": true},
	})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)

	if !state.Bind() {
		t.Fatal("Bind failed outright; category failures should be swallowed")
	}

	failed := state.Diagnostics().FailedCategories
	if len(failed) != 2 {
		t.Fatalf("got %d failed categories %v, want 2", len(failed), failed)
	}
	// Fixed commit order puts cull_mode before textures.
	if failed[0] != "cull_mode" || failed[1] != "textures" {
		t.Errorf("failed categories = %v, want [cull_mode textures]", failed)
	}
}

func TestBindFailsOnBufferBindFailure(t *testing.T) {
	for _, category := range []string{"index_buffer", "vertex_buffer"} {
		t.Run(category, func(t *testing.T) {
			device, _ := newTestDevice(t, headless.Options{
				FailCategories: map[string]bool{category: true},
			})
			state := rhi.NewPipelineState(device)
			populateState(t, device, state)

			if state.Bind() {
				t.Errorf("Bind succeeded despite %s failure", category)
			}
		})
	}
}

func TestDiagnosticsResetPerBind(t *testing.T) {
	device, _ := newTestDevice(t, headless.Options{
		FailCategories: map[string]bool{"scissor": true},
	})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)

	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	if failed := state.Diagnostics().FailedCategories; len(failed) != 1 || failed[0] != "scissor" {
		t.Fatalf("first bind diagnostics = %v, want [scissor]", failed)
	}

	// Nothing is dirty now, so the second commit touches nothing and the
	// record must come back empty.
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	if failed := state.Diagnostics().FailedCategories; len(failed) != 0 {
		t.Errorf("stale diagnostics survived a clean bind: %v", failed)
	}
}

func TestConstantBufferSlotDedupeLastWins(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}

	first, err := device.CreateConstantBuffer(64, 1, false)
	if err != nil {
		t.Fatalf("CreateConstantBuffer: %v", err)
	}
	second, err := device.CreateConstantBuffer(64, 1, false)
	if err != nil {
		t.Fatalf("CreateConstantBuffer: %v", err)
	}
	other, err := device.CreateConstantBuffer(128, 1, false)
	if err != nil {
		t.Fatalf("CreateConstantBuffer: %v", err)
	}

	state.SetConstantBuffer(other, 2, rhi.BufferScopeGlobal)
	state.SetConstantBuffer(first, 1, rhi.BufferScopePerDraw)
	state.SetConstantBuffer(second, 1, rhi.BufferScopePerDraw)
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}

	bound := backend.Context().ConstantBuffers
	if len(bound) != 2 {
		t.Fatalf("got %d constant buffer bindings, want 2 after dedupe", len(bound))
	}
	if bound[0].Slot != 1 || bound[1].Slot != 2 {
		t.Errorf("binding slots = [%d %d], want ascending [1 2]", bound[0].Slot, bound[1].Slot)
	}
	if bound[0].Buffer != second {
		t.Error("slot 1 kept the earlier binding; the last appended must win")
	}
}

func TestBindMetricsCountOnePerCategory(t *testing.T) {
	device, _ := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)
	populateState(t, device, state)

	core.MetricsReset()
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	m := core.Metrics()
	checks := map[string]uint64{
		"viewport":         m.BindViewportCount,
		"vertex shader":    m.BindVertexShaderCount,
		"pixel shader":     m.BindPixelShaderCount,
		"topology":         m.BindTopologyCount,
		"input layout":     m.BindInputLayoutCount,
		"cull mode":        m.BindCullModeCount,
		"fill mode":        m.BindFillModeCount,
		"samplers":         m.BindSamplerCount,
		"textures":         m.BindTextureCount,
		"index buffer":     m.BindBufferIndexCount,
		"vertex buffer":    m.BindBufferVertexCount,
		"constant buffers": m.BindConstantBufferCount,
	}
	for name, count := range checks {
		if count != 1 {
			t.Errorf("%s bind count = %d, want 1", name, count)
		}
	}

	// A clean second commit must not touch any counter.
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}
	if m.BindCullModeCount != 1 || m.BindBufferVertexCount != 1 {
		t.Error("clean bind incremented counters")
	}
}

func TestSetShaderDerivesLayoutAndConstantBuffer(t *testing.T) {
	device, backend := newTestDevice(t, headless.Options{})

	vs, _ := device.CreateShaderModule("vs", rhi.ShaderStageVertex, make([]byte, 32), "main")
	ps, _ := device.CreateShaderModule("ps", rhi.ShaderStagePixel, make([]byte, 32), "main")
	shader, err := device.CreateShader(vs, ps, &rhi.ShaderConfig{
		Attributes:           []rhi.VertexAttribute{{Name: "position", Format: rhi.FormatR32G32B32Float}},
		Stride:               12,
		ConstantBufferStride: 64,
		ConstantBufferSlot:   3,
	})
	if err != nil {
		t.Fatalf("CreateShader: %v", err)
	}
	if shader.ConstantBuffer() == nil {
		t.Fatal("shader with a declared constant buffer stride has no buffer")
	}

	state := rhi.NewPipelineState(device)
	if !state.SetShader(shader) {
		t.Fatal("SetShader returned false")
	}
	state.SetRenderTargetSwapchain()
	if !state.Bind() {
		t.Fatal("Bind returned false")
	}

	ctx := backend.Context()
	if ctx.InputLayout == nil || ctx.InputLayout.Stride != 12 {
		t.Error("input layout was not derived from the vertex shader")
	}
	bound := ctx.ConstantBuffers
	if len(bound) != 1 || bound[0].Slot != 3 || bound[0].Buffer != shader.ConstantBuffer() {
		t.Errorf("shader-declared constant buffer not auto-registered: %v", bound)
	}
}

func TestSetterNilParameterRejected(t *testing.T) {
	device, _ := newTestDevice(t, headless.Options{})
	state := rhi.NewPipelineState(device)

	if state.SetShader(nil) {
		t.Error("SetShader accepted nil")
	}
	if state.SetVertexBuffer(nil) {
		t.Error("SetVertexBuffer accepted nil")
	}
	if state.SetIndexBuffer(nil) {
		t.Error("SetIndexBuffer accepted nil")
	}
	if state.SetSampler(nil) {
		t.Error("SetSampler accepted nil")
	}
	if state.SetConstantBuffer(nil, 0, rhi.BufferScopePerDraw) {
		t.Error("SetConstantBuffer accepted nil")
	}
	if state.SetInputLayout(nil) {
		t.Error("SetInputLayout accepted nil")
	}
	if state.SetRenderTargets(nil, nil) {
		t.Error("SetRenderTargets accepted an empty target set")
	}
}
