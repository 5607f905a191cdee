package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/titan/engine/rhi"
)

// Engine enum to Vulkan enum translation. The tables are exhaustive over
// the engine enums; hitting a missing entry is a programming error and
// fails pipeline construction immediately instead of defaulting.

var vulkanPrimitiveTopology = map[rhi.PrimitiveTopology]vk.PrimitiveTopology{
	rhi.PrimitiveTopologyTriangleList: vk.PrimitiveTopologyTriangleList,
	rhi.PrimitiveTopologyLineList:     vk.PrimitiveTopologyLineList,
	rhi.PrimitiveTopologyPointList:    vk.PrimitiveTopologyPointList,
}

var vulkanCullMode = map[rhi.CullMode]vk.CullModeFlagBits{
	rhi.CullModeNone:  vk.CullModeNone,
	rhi.CullModeFront: vk.CullModeFrontBit,
	rhi.CullModeBack:  vk.CullModeBackBit,
}

var vulkanPolygonMode = map[rhi.FillMode]vk.PolygonMode{
	rhi.FillModeSolid:     vk.PolygonModeFill,
	rhi.FillModeWireframe: vk.PolygonModeLine,
}

var vulkanFormat = map[rhi.Format]vk.Format{
	rhi.FormatR32Float:          vk.FormatR32Sfloat,
	rhi.FormatR32G32Float:       vk.FormatR32g32Sfloat,
	rhi.FormatR32G32B32Float:    vk.FormatR32g32b32Sfloat,
	rhi.FormatR32G32B32A32Float: vk.FormatR32g32b32a32Sfloat,
	rhi.FormatR8G8B8A8Unorm:     vk.FormatR8g8b8a8Unorm,
	rhi.FormatB8G8R8A8Unorm:     vk.FormatB8g8r8a8Unorm,
	rhi.FormatD32Float:          vk.FormatD32Sfloat,
}

var vulkanCompareOp = map[rhi.CompareOp]vk.CompareOp{
	rhi.CompareOpNever:        vk.CompareOpNever,
	rhi.CompareOpLess:         vk.CompareOpLess,
	rhi.CompareOpEqual:        vk.CompareOpEqual,
	rhi.CompareOpLessEqual:    vk.CompareOpLessOrEqual,
	rhi.CompareOpGreater:      vk.CompareOpGreater,
	rhi.CompareOpNotEqual:     vk.CompareOpNotEqual,
	rhi.CompareOpGreaterEqual: vk.CompareOpGreaterOrEqual,
	rhi.CompareOpAlways:       vk.CompareOpAlways,
}

var vulkanBlendFactor = map[rhi.BlendFactor]vk.BlendFactor{
	rhi.BlendFactorZero:             vk.BlendFactorZero,
	rhi.BlendFactorOne:              vk.BlendFactorOne,
	rhi.BlendFactorSrcColor:         vk.BlendFactorSrcColor,
	rhi.BlendFactorOneMinusSrcColor: vk.BlendFactorOneMinusSrcColor,
	rhi.BlendFactorSrcAlpha:         vk.BlendFactorSrcAlpha,
	rhi.BlendFactorOneMinusSrcAlpha: vk.BlendFactorOneMinusSrcAlpha,
	rhi.BlendFactorDstAlpha:         vk.BlendFactorDstAlpha,
	rhi.BlendFactorOneMinusDstAlpha: vk.BlendFactorOneMinusDstAlpha,
}

var vulkanBlendOp = map[rhi.BlendOp]vk.BlendOp{
	rhi.BlendOpAdd:             vk.BlendOpAdd,
	rhi.BlendOpSubtract:        vk.BlendOpSubtract,
	rhi.BlendOpReverseSubtract: vk.BlendOpReverseSubtract,
	rhi.BlendOpMin:             vk.BlendOpMin,
	rhi.BlendOpMax:             vk.BlendOpMax,
}

var vulkanStencilOp = map[rhi.StencilOp]vk.StencilOp{
	rhi.StencilOpKeep:           vk.StencilOpKeep,
	rhi.StencilOpZero:           vk.StencilOpZero,
	rhi.StencilOpReplace:        vk.StencilOpReplace,
	rhi.StencilOpIncrementClamp: vk.StencilOpIncrementAndClamp,
	rhi.StencilOpDecrementClamp: vk.StencilOpDecrementAndClamp,
	rhi.StencilOpInvert:         vk.StencilOpInvert,
}

var vulkanFilter = map[rhi.FilterMode]vk.Filter{
	rhi.FilterNearest: vk.FilterNearest,
	rhi.FilterLinear:  vk.FilterLinear,
}

var vulkanAddressMode = map[rhi.AddressMode]vk.SamplerAddressMode{
	rhi.AddressRepeat:      vk.SamplerAddressModeRepeat,
	rhi.AddressMirror:      vk.SamplerAddressModeMirroredRepeat,
	rhi.AddressClampToEdge: vk.SamplerAddressModeClampToEdge,
}

func convTopology(t rhi.PrimitiveTopology) (vk.PrimitiveTopology, error) {
	out, ok := vulkanPrimitiveTopology[t]
	if !ok {
		return 0, fmt.Errorf("unmapped primitive topology %d", t)
	}
	return out, nil
}

func convCullMode(c rhi.CullMode) (vk.CullModeFlagBits, error) {
	out, ok := vulkanCullMode[c]
	if !ok {
		return 0, fmt.Errorf("unmapped cull mode %d", c)
	}
	return out, nil
}

func convPolygonMode(f rhi.FillMode) (vk.PolygonMode, error) {
	out, ok := vulkanPolygonMode[f]
	if !ok {
		return 0, fmt.Errorf("unmapped fill mode %d", f)
	}
	return out, nil
}

func convFormat(f rhi.Format) (vk.Format, error) {
	out, ok := vulkanFormat[f]
	if !ok {
		return 0, fmt.Errorf("unmapped format %d", f)
	}
	return out, nil
}

func convCompareOp(op rhi.CompareOp) (vk.CompareOp, error) {
	out, ok := vulkanCompareOp[op]
	if !ok {
		return 0, fmt.Errorf("unmapped compare op %d", op)
	}
	return out, nil
}

func convBlendFactor(f rhi.BlendFactor) (vk.BlendFactor, error) {
	out, ok := vulkanBlendFactor[f]
	if !ok {
		return 0, fmt.Errorf("unmapped blend factor %d", f)
	}
	return out, nil
}

func convBlendOp(op rhi.BlendOp) (vk.BlendOp, error) {
	out, ok := vulkanBlendOp[op]
	if !ok {
		return 0, fmt.Errorf("unmapped blend op %d", op)
	}
	return out, nil
}

func convStencilOp(op rhi.StencilOp) (vk.StencilOp, error) {
	out, ok := vulkanStencilOp[op]
	if !ok {
		return 0, fmt.Errorf("unmapped stencil op %d", op)
	}
	return out, nil
}

func convFilter(f rhi.FilterMode) (vk.Filter, error) {
	out, ok := vulkanFilter[f]
	if !ok {
		return 0, fmt.Errorf("unmapped filter mode %d", f)
	}
	return out, nil
}

func convAddressMode(m rhi.AddressMode) (vk.SamplerAddressMode, error) {
	out, ok := vulkanAddressMode[m]
	if !ok {
		return 0, fmt.Errorf("unmapped address mode %d", m)
	}
	return out, nil
}
