package rhi

import "github.com/spaghettifunk/titan/engine/core"

// The fixed-function sub-states. On an immediate backend these translate to
// native state objects bound on the context; on an explicit backend they are
// baked into the compiled pipeline. Either way they are immutable after
// creation, so sharing one across many pipeline states is safe.

type RasterizerState struct {
	id                 string
	CullMode           CullMode
	FillMode           FillMode
	LineWidth          float32
	DepthClampEnabled  bool
	MultisampleEnabled bool
}

// CreateRasterizerState clamps the line width to what the adapter supports;
// wide lines on hardware without wide-line support degrade to 1.0 with a
// warning rather than an error.
func (d *Device) CreateRasterizerState(cull CullMode, fill FillMode, lineWidth float32) *RasterizerState {
	if lineWidth <= 0 {
		lineWidth = 1.0
	}
	if lineWidth > 1.0 && !d.caps.SupportsWideLines {
		core.LogWarn("rasterizer state: wide lines unsupported by adapter, clamping width %.1f to 1.0", lineWidth)
		lineWidth = 1.0
	} else if lineWidth > d.caps.MaxLineWidth {
		lineWidth = d.caps.MaxLineWidth
	}
	return &RasterizerState{
		id:        core.IdentifierNew(),
		CullMode:  cull,
		FillMode:  fill,
		LineWidth: lineWidth,
	}
}

func (s *RasterizerState) ID() string { return s.id }

type BlendState struct {
	id             string
	Enabled        bool
	SrcBlend       BlendFactor
	DstBlend       BlendFactor
	Op             BlendOp
	SrcBlendAlpha  BlendFactor
	DstBlendAlpha  BlendFactor
	OpAlpha        BlendOp
	BlendFactorRGB float32
}

func (d *Device) CreateBlendState(enabled bool, src, dst BlendFactor, op BlendOp, srcAlpha, dstAlpha BlendFactor, opAlpha BlendOp, factor float32) *BlendState {
	return &BlendState{
		id:             core.IdentifierNew(),
		Enabled:        enabled,
		SrcBlend:       src,
		DstBlend:       dst,
		Op:             op,
		SrcBlendAlpha:  srcAlpha,
		DstBlendAlpha:  dstAlpha,
		OpAlpha:        opAlpha,
		BlendFactorRGB: factor,
	}
}

func (s *BlendState) ID() string { return s.id }

type DepthStencilState struct {
	id                 string
	DepthTestEnabled   bool
	DepthWriteEnabled  bool
	DepthFunction      CompareOp
	StencilTestEnabled bool
	StencilFunction    CompareOp
	StencilFailOp      StencilOp
	StencilDepthFailOp StencilOp
	StencilPassOp      StencilOp
}

func (d *Device) CreateDepthStencilState(depthTest, depthWrite bool, depthFunc CompareOp) *DepthStencilState {
	return &DepthStencilState{
		id:                 core.IdentifierNew(),
		DepthTestEnabled:   depthTest,
		DepthWriteEnabled:  depthWrite,
		DepthFunction:      depthFunc,
		StencilFunction:    CompareOpAlways,
		StencilFailOp:      StencilOpKeep,
		StencilDepthFailOp: StencilOpKeep,
		StencilPassOp:      StencilOpKeep,
	}
}

func (s *DepthStencilState) ID() string { return s.id }
