package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/titan/engine/config"
	"github.com/spaghettifunk/titan/engine/rhi"
)

func TestConvTopology(t *testing.T) {
	for _, tc := range []struct {
		in   rhi.PrimitiveTopology
		want vk.PrimitiveTopology
	}{
		{rhi.PrimitiveTopologyTriangleList, vk.PrimitiveTopologyTriangleList},
		{rhi.PrimitiveTopologyLineList, vk.PrimitiveTopologyLineList},
		{rhi.PrimitiveTopologyPointList, vk.PrimitiveTopologyPointList},
	} {
		got, err := convTopology(tc.in)
		if err != nil {
			t.Fatalf("convTopology(%d): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("convTopology(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestConvTopologyUnassigned(t *testing.T) {
	if _, err := convTopology(rhi.PrimitiveTopologyNotAssigned); err == nil {
		t.Fatal("expected error for unassigned topology")
	}
}

func TestConvCullMode(t *testing.T) {
	for _, tc := range []struct {
		in   rhi.CullMode
		want vk.CullModeFlagBits
	}{
		{rhi.CullModeNone, vk.CullModeNone},
		{rhi.CullModeFront, vk.CullModeFrontBit},
		{rhi.CullModeBack, vk.CullModeBackBit},
	} {
		got, err := convCullMode(tc.in)
		if err != nil {
			t.Fatalf("convCullMode(%d): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("convCullMode(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if _, err := convCullMode(rhi.CullModeNotAssigned); err == nil {
		t.Fatal("expected error for unassigned cull mode")
	}
}

func TestConvPolygonMode(t *testing.T) {
	if got, _ := convPolygonMode(rhi.FillModeSolid); got != vk.PolygonModeFill {
		t.Errorf("solid fill = %d, want %d", got, vk.PolygonModeFill)
	}
	if got, _ := convPolygonMode(rhi.FillModeWireframe); got != vk.PolygonModeLine {
		t.Errorf("wireframe = %d, want %d", got, vk.PolygonModeLine)
	}
	if _, err := convPolygonMode(rhi.FillModeNotAssigned); err == nil {
		t.Fatal("expected error for unassigned fill mode")
	}
}

// Every engine format except Undefined must translate.
func TestConvFormatExhaustive(t *testing.T) {
	formats := []rhi.Format{
		rhi.FormatR32Float,
		rhi.FormatR32G32Float,
		rhi.FormatR32G32B32Float,
		rhi.FormatR32G32B32A32Float,
		rhi.FormatR8G8B8A8Unorm,
		rhi.FormatB8G8R8A8Unorm,
		rhi.FormatD32Float,
	}
	for _, format := range formats {
		if _, err := convFormat(format); err != nil {
			t.Errorf("convFormat(%d): %v", format, err)
		}
	}
	if _, err := convFormat(rhi.FormatUndefined); err == nil {
		t.Fatal("expected error for undefined format")
	}
}

func TestConvCompareOpExhaustive(t *testing.T) {
	ops := []rhi.CompareOp{
		rhi.CompareOpNever, rhi.CompareOpLess, rhi.CompareOpEqual,
		rhi.CompareOpLessEqual, rhi.CompareOpGreater, rhi.CompareOpNotEqual,
		rhi.CompareOpGreaterEqual, rhi.CompareOpAlways,
	}
	for _, op := range ops {
		if _, err := convCompareOp(op); err != nil {
			t.Errorf("convCompareOp(%d): %v", op, err)
		}
	}
}

func TestConvBlendExhaustive(t *testing.T) {
	factors := []rhi.BlendFactor{
		rhi.BlendFactorZero, rhi.BlendFactorOne,
		rhi.BlendFactorSrcColor, rhi.BlendFactorOneMinusSrcColor,
		rhi.BlendFactorSrcAlpha, rhi.BlendFactorOneMinusSrcAlpha,
		rhi.BlendFactorDstAlpha, rhi.BlendFactorOneMinusDstAlpha,
	}
	for _, factor := range factors {
		if _, err := convBlendFactor(factor); err != nil {
			t.Errorf("convBlendFactor(%d): %v", factor, err)
		}
	}
	ops := []rhi.BlendOp{rhi.BlendOpAdd, rhi.BlendOpSubtract, rhi.BlendOpReverseSubtract, rhi.BlendOpMin, rhi.BlendOpMax}
	for _, op := range ops {
		if _, err := convBlendOp(op); err != nil {
			t.Errorf("convBlendOp(%d): %v", op, err)
		}
	}
}

func TestConvSamplerMaps(t *testing.T) {
	if got, _ := convFilter(rhi.FilterLinear); got != vk.FilterLinear {
		t.Errorf("linear filter = %d, want %d", got, vk.FilterLinear)
	}
	if got, _ := convAddressMode(rhi.AddressClampToEdge); got != vk.SamplerAddressModeClampToEdge {
		t.Errorf("clamp to edge = %d, want %d", got, vk.SamplerAddressModeClampToEdge)
	}
}

func TestRenderPassKeyDistinguishesTargets(t *testing.T) {
	a := &rhi.PipelineDescription{ColorFormats: []rhi.Format{rhi.FormatR8G8B8A8Unorm}}
	b := &rhi.PipelineDescription{ColorFormats: []rhi.Format{rhi.FormatR8G8B8A8Unorm}, HasDepth: true, DepthFormat: rhi.FormatD32Float}
	c := &rhi.PipelineDescription{ColorFormats: []rhi.Format{rhi.FormatR8G8B8A8Unorm}, SwapchainTarget: true}

	if renderPassKey(a) == renderPassKey(b) {
		t.Error("depth attachment must change the render pass key")
	}
	if renderPassKey(a) == renderPassKey(c) {
		t.Error("swapchain target must change the render pass key")
	}
	if renderPassKey(a) != renderPassKey(&rhi.PipelineDescription{ColorFormats: []rhi.Format{rhi.FormatR8G8B8A8Unorm}}) {
		t.Error("identical target sets must share a render pass key")
	}
}

func TestNegotiateLevel(t *testing.T) {
	v11 := uint32(vk.MakeVersion(1, 1, 0))

	level, err := negotiateLevel([]config.CapabilityLevel{config.CapabilityLevel13, config.CapabilityLevel11, config.CapabilityLevel10}, v11)
	if err != nil {
		t.Fatalf("negotiateLevel: %v", err)
	}
	if level != config.CapabilityLevel11 {
		t.Errorf("negotiated %s, want %s", level, config.CapabilityLevel11)
	}

	if _, err := negotiateLevel([]config.CapabilityLevel{config.CapabilityLevel13}, v11); err == nil {
		t.Fatal("expected negotiation failure when no preferred level fits")
	}
}
