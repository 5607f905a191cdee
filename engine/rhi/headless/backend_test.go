package headless

import (
	"testing"

	"github.com/spaghettifunk/titan/engine/config"
	"github.com/spaghettifunk/titan/engine/rhi"
)

func newInitializedBackend(t *testing.T, opts Options) *Backend {
	t.Helper()
	b := New(opts)
	if _, err := b.Initialize(config.Default()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return b
}

func testDescription() *rhi.PipelineDescription {
	return &rhi.PipelineDescription{
		VertexShader: &rhi.ShaderModule{Stage: rhi.ShaderStageVertex, Name: "vs"},
		PixelShader:  &rhi.ShaderModule{Stage: rhi.ShaderStagePixel, Name: "ps"},
		Topology:     rhi.PrimitiveTopologyTriangleList,
		Rasterizer:   &rhi.RasterizerState{CullMode: rhi.CullModeBack, FillMode: rhi.FillModeSolid},
	}
}

func TestCompilePipelineRejectsUnmappedEnums(t *testing.T) {
	b := newInitializedBackend(t, Options{})

	cases := []struct {
		name   string
		mutate func(*rhi.PipelineDescription)
	}{
		{"topology", func(d *rhi.PipelineDescription) { d.Topology = rhi.PrimitiveTopologyNotAssigned }},
		{"cull mode", func(d *rhi.PipelineDescription) { d.Rasterizer.CullMode = rhi.CullModeNotAssigned }},
		{"fill mode", func(d *rhi.PipelineDescription) { d.Rasterizer.FillMode = rhi.FillModeNotAssigned }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			desc := testDescription()
			tc.mutate(desc)
			if _, err := b.CompilePipeline(desc); err == nil {
				t.Errorf("CompilePipeline accepted an unmapped %s", tc.name)
			}
		})
	}

	if _, err := b.CompilePipeline(testDescription()); err != nil {
		t.Errorf("CompilePipeline rejected a fully mapped description: %v", err)
	}
}

func TestBindPipelineAfterDestroyErrors(t *testing.T) {
	b := newInitializedBackend(t, Options{})

	native, err := b.CompilePipeline(testDescription())
	if err != nil {
		t.Fatalf("CompilePipeline: %v", err)
	}
	if err := b.BindPipeline(native); err != nil {
		t.Fatalf("BindPipeline: %v", err)
	}
	if err := b.DestroyPipeline(native); err != nil {
		t.Fatalf("DestroyPipeline: %v", err)
	}
	if err := b.BindPipeline(native); err == nil {
		t.Error("destroyed pipeline still binds")
	}
}

func TestCommandRingDropsOldestWhenFull(t *testing.T) {
	b := newInitializedBackend(t, Options{})

	// Two distinguishable call batches, together exceeding the ring.
	for i := 0; i < 600; i++ {
		if err := b.SetViewport(rhi.Viewport{Width: 1, Height: float32(i + 1)}); err != nil {
			t.Fatalf("SetViewport: %v", err)
		}
	}
	for i := 0; i < 600; i++ {
		if err := b.SetScissor(rhi.ScissorRect{Right: 1, Bottom: int32(i + 1)}); err != nil {
			t.Fatalf("SetScissor: %v", err)
		}
	}

	cmds := b.Commands()
	if len(cmds) != 1024 {
		t.Fatalf("ring drained %d commands, want capacity 1024", len(cmds))
	}
	// The oldest viewport calls gave way; the newest scissor call survived.
	if cmds[0].Category != "viewport" {
		t.Errorf("oldest surviving command is %q, want a later viewport call", cmds[0].Category)
	}
	if last := cmds[len(cmds)-1]; last.Category != "scissor" {
		t.Errorf("newest command is %q, want scissor", last.Category)
	}
}

func TestCommandsDrainInIssueOrder(t *testing.T) {
	b := newInitializedBackend(t, Options{})

	if err := b.SetCullMode(rhi.CullModeBack); err != nil {
		t.Fatalf("SetCullMode: %v", err)
	}
	if err := b.SetFillMode(rhi.FillModeWireframe); err != nil {
		t.Fatalf("SetFillMode: %v", err)
	}

	cmds := b.Commands()
	if len(cmds) != 2 || cmds[0].Category != "cull_mode" || cmds[1].Category != "fill_mode" {
		t.Fatalf("commands out of order: %v", cmds)
	}
	if again := b.Commands(); len(again) != 0 {
		t.Errorf("drain left %d commands behind", len(again))
	}
}

func TestDestroyResourceFlagsRelease(t *testing.T) {
	b := newInitializedBackend(t, Options{})

	native, err := b.CreateVertexBuffer(make([]byte, 24), 24)
	if err != nil {
		t.Fatalf("CreateVertexBuffer: %v", err)
	}
	buf := native.(*Buffer)
	if buf.Released {
		t.Fatal("fresh buffer already flagged released")
	}
	if err := b.DestroyResource(native); err != nil {
		t.Fatalf("DestroyResource: %v", err)
	}
	if !buf.Released {
		t.Error("destroyed buffer not flagged released")
	}

	if err := b.DestroyResource("not a resource"); err == nil {
		t.Error("DestroyResource accepted a foreign payload")
	}
}

func TestWaitIdleReturnsImmediatelyWhenIdle(t *testing.T) {
	b := newInitializedBackend(t, Options{})
	if err := b.WaitIdle(); err != nil {
		t.Fatalf("WaitIdle on an idle backend: %v", err)
	}
}
