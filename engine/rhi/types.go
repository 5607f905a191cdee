package rhi

/** @brief Determines face culling mode during rendering. */
type CullMode int

const (
	CullModeNotAssigned CullMode = 0x0
	/** @brief No faces are culled. */
	CullModeNone CullMode = 0x1
	/** @brief Only front faces are culled. */
	CullModeFront CullMode = 0x2
	/** @brief Only back faces are culled. */
	CullModeBack CullMode = 0x3
)

/** @brief Polygon fill mode used by the rasterizer. */
type FillMode int

const (
	FillModeNotAssigned FillMode = 0x0
	FillModeSolid       FillMode = 0x1
	FillModeWireframe   FillMode = 0x2
)

/** @brief How vertices are assembled into primitives. */
type PrimitiveTopology int

const (
	PrimitiveTopologyNotAssigned  PrimitiveTopology = 0x0
	PrimitiveTopologyTriangleList PrimitiveTopology = 0x1
	PrimitiveTopologyLineList     PrimitiveTopology = 0x2
	PrimitiveTopologyPointList    PrimitiveTopology = 0x3
)

/** @brief Visibility classification of a constant buffer binding. */
type BufferScope int

const (
	/** @brief Bound for the draws that explicitly request it. */
	BufferScopePerDraw BufferScope = 0x0
	/** @brief Shared across many draws within a frame. */
	BufferScopeGlobal BufferScope = 0x1
)

/** @brief Vertex attribute / texture data format. */
type Format int

const (
	FormatUndefined Format = iota
	FormatR32Float
	FormatR32G32Float
	FormatR32G32B32Float
	FormatR32G32B32A32Float
	FormatR8G8B8A8Unorm
	FormatB8G8R8A8Unorm
	FormatD32Float
)

// FormatSize returns the per-element byte size of a format.
func FormatSize(f Format) uint32 {
	switch f {
	case FormatR32Float:
		return 4
	case FormatR32G32Float:
		return 8
	case FormatR32G32B32Float:
		return 12
	case FormatR32G32B32A32Float:
		return 16
	case FormatR8G8B8A8Unorm, FormatB8G8R8A8Unorm, FormatD32Float:
		return 4
	}
	return 0
}

type CompareOp int

const (
	CompareOpNever CompareOp = iota
	CompareOpLess
	CompareOpEqual
	CompareOpLessEqual
	CompareOpGreater
	CompareOpNotEqual
	CompareOpGreaterEqual
	CompareOpAlways
)

type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcColor
	BlendFactorOneMinusSrcColor
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDstAlpha
	BlendFactorOneMinusDstAlpha
)

type BlendOp int

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax
)

type StencilOp int

const (
	StencilOpKeep StencilOp = iota
	StencilOpZero
	StencilOpReplace
	StencilOpIncrementClamp
	StencilOpDecrementClamp
	StencilOpInvert
)

/** @brief Viewport region, including the depth range. */
type Viewport struct {
	X        float32
	Y        float32
	Width    float32
	Height   float32
	DepthMin float32
	DepthMax float32
}

// IsDefined reports whether the viewport was ever given an extent. An
// undefined viewport means "resolve per-draw" (dynamic state) on explicit
// pipeline backends.
func (v Viewport) IsDefined() bool {
	return v.Width > 0 && v.Height > 0
}

/** @brief Scissor rectangle. Absence means full viewport, no clipping. */
type ScissorRect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

func (s ScissorRect) IsDefined() bool {
	return s.Right > s.Left && s.Bottom > s.Top
}

func (s ScissorRect) Width() int32 { return s.Right - s.Left }
func (s ScissorRect) Height() int32 { return s.Bottom - s.Top }
