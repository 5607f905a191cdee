package headless

import "github.com/spaghettifunk/titan/engine/rhi"

// Context is the mutable device context of the immediate model: the current
// value of every bindable category. Tests read it to assert what state a
// commit actually landed.
type Context struct {
	Viewport     rhi.Viewport
	Scissor      rhi.ScissorRect
	VertexShader *rhi.ShaderModule
	PixelShader  *rhi.ShaderModule
	Topology     rhi.PrimitiveTopology
	InputLayout  *rhi.InputLayout
	CullMode     rhi.CullMode
	FillMode     rhi.FillMode

	Samplers        []*rhi.Sampler
	Textures        []*rhi.Texture
	IndexBuffer     *rhi.IndexBuffer
	VertexBuffer    *rhi.VertexBuffer
	ConstantBuffers []rhi.ConstantBufferBinding

	BoundPipeline *Pipeline
}

func NewContext() *Context {
	return &Context{
		Topology: rhi.PrimitiveTopologyNotAssigned,
		CullMode: rhi.CullModeNotAssigned,
		FillMode: rhi.FillModeNotAssigned,
	}
}

// Native resource payloads. Releasing twice is caught by the wrapping
// resource objects, so these only flag themselves for test visibility.

type Buffer struct {
	Data     []byte
	Indices  []uint32
	Stride   uint32
	Elements uint32
	Dynamic  bool
	Released bool
}

type Image struct {
	Description rhi.TextureDescription
	Mips        [][]byte
	Released    bool
}

type SamplerState struct {
	Description rhi.SamplerDescription
	Released    bool
}

type ShaderBlob struct {
	Stage      rhi.ShaderStage
	Bytecode   []byte
	EntryPoint string
	Released   bool
}

// Pipeline is what "compiling" means on an immediate backend: a retained
// snapshot whose bind replays the category calls.
type Pipeline struct {
	Description *rhi.PipelineDescription
	Released    bool
}
