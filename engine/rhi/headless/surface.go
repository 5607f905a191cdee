package headless

import (
	"fmt"

	"github.com/spaghettifunk/titan/engine/core"
	"github.com/spaghettifunk/titan/engine/rhi"
)

// Resource creation. Everything is host memory here.

func (b *Backend) CreateVertexBuffer(data []byte, stride uint32) (interface{}, error) {
	if !b.initialized {
		return nil, core.ErrNotInitialized
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Buffer{Data: buf, Stride: stride}, nil
}

func (b *Backend) CreateIndexBuffer(indices []uint32) (interface{}, error) {
	if !b.initialized {
		return nil, core.ErrNotInitialized
	}
	idx := make([]uint32, len(indices))
	copy(idx, indices)
	return &Buffer{Indices: idx, Stride: 4}, nil
}

func (b *Backend) CreateConstantBuffer(stride, elementCount uint32, dynamic bool) (interface{}, error) {
	if !b.initialized {
		return nil, core.ErrNotInitialized
	}
	return &Buffer{
		Data:     make([]byte, stride*elementCount),
		Stride:   stride,
		Elements: elementCount,
		Dynamic:  dynamic,
	}, nil
}

func (b *Backend) CreateTexture(desc *rhi.TextureDescription, mips [][]byte) (interface{}, error) {
	if !b.initialized {
		return nil, core.ErrNotInitialized
	}
	return &Image{Description: *desc, Mips: mips}, nil
}

func (b *Backend) CreateSampler(desc *rhi.SamplerDescription) (interface{}, error) {
	if !b.initialized {
		return nil, core.ErrNotInitialized
	}
	return &SamplerState{Description: *desc}, nil
}

func (b *Backend) CreateShaderModule(stage rhi.ShaderStage, bytecode []byte, entryPoint string) (interface{}, error) {
	if !b.initialized {
		return nil, core.ErrNotInitialized
	}
	code := make([]byte, len(bytecode))
	copy(code, bytecode)
	return &ShaderBlob{Stage: stage, Bytecode: code, EntryPoint: entryPoint}, nil
}

func (b *Backend) DestroyResource(native interface{}) error {
	switch res := native.(type) {
	case *Buffer:
		res.Released = true
	case *Image:
		res.Released = true
	case *SamplerState:
		res.Released = true
	case *ShaderBlob:
		res.Released = true
	default:
		return fmt.Errorf("headless: unknown native resource %T", native)
	}
	return nil
}

// Category bind surface. Each call mutates the context record and is logged
// to the command ring in issue order.

func (b *Backend) SetViewport(v rhi.Viewport) error {
	if err := b.failure("viewport"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.Viewport = v
		b.record("viewport", fmt.Sprintf("%gx%g", v.Width, v.Height))
		return nil
	})
}

func (b *Backend) SetScissor(r rhi.ScissorRect) error {
	if err := b.failure("scissor"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.Scissor = r
		b.record("scissor", fmt.Sprintf("%dx%d", r.Width(), r.Height()))
		return nil
	})
}

func (b *Backend) BindVertexShader(m *rhi.ShaderModule) error {
	if err := b.failure("vertex_shader"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.VertexShader = m
		b.record("vertex_shader", m.Name)
		return nil
	})
}

func (b *Backend) BindPixelShader(m *rhi.ShaderModule) error {
	if err := b.failure("pixel_shader"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.PixelShader = m
		b.record("pixel_shader", m.Name)
		return nil
	})
}

func (b *Backend) SetPrimitiveTopology(t rhi.PrimitiveTopology) error {
	if err := b.failure("primitive_topology"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.Topology = t
		b.record("primitive_topology", fmt.Sprintf("%d", t))
		return nil
	})
}

func (b *Backend) SetInputLayout(l *rhi.InputLayout) error {
	if err := b.failure("input_layout"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.InputLayout = l
		b.record("input_layout", l.ID())
		return nil
	})
}

func (b *Backend) SetCullMode(c rhi.CullMode) error {
	if err := b.failure("cull_mode"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.CullMode = c
		b.record("cull_mode", fmt.Sprintf("%d", c))
		return nil
	})
}

func (b *Backend) SetFillMode(f rhi.FillMode) error {
	if err := b.failure("fill_mode"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.FillMode = f
		b.record("fill_mode", fmt.Sprintf("%d", f))
		return nil
	})
}

func (b *Backend) BindSamplers(startSlot uint32, samplers []*rhi.Sampler) error {
	if err := b.failure("samplers"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.Samplers = append([]*rhi.Sampler(nil), samplers...)
		b.record("samplers", fmt.Sprintf("start=%d count=%d", startSlot, len(samplers)))
		return nil
	})
}

func (b *Backend) BindTextures(startSlot uint32, textures []*rhi.Texture) error {
	if err := b.failure("textures"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.Textures = append([]*rhi.Texture(nil), textures...)
		b.record("textures", fmt.Sprintf("start=%d count=%d", startSlot, len(textures)))
		return nil
	})
}

func (b *Backend) BindIndexBuffer(buf *rhi.IndexBuffer) error {
	if err := b.failure("index_buffer"); err != nil {
		return err
	}
	if buf == nil {
		return core.ErrInvalidParameter
	}
	return b.safeCall(func() error {
		b.ctx.IndexBuffer = buf
		b.record("index_buffer", buf.ID())
		return nil
	})
}

func (b *Backend) BindVertexBuffer(buf *rhi.VertexBuffer) error {
	if err := b.failure("vertex_buffer"); err != nil {
		return err
	}
	if buf == nil {
		return core.ErrInvalidParameter
	}
	return b.safeCall(func() error {
		b.ctx.VertexBuffer = buf
		b.record("vertex_buffer", buf.ID())
		return nil
	})
}

func (b *Backend) BindConstantBuffers(bindings []rhi.ConstantBufferBinding) error {
	if err := b.failure("constant_buffers"); err != nil {
		return err
	}
	return b.safeCall(func() error {
		b.ctx.ConstantBuffers = append([]rhi.ConstantBufferBinding(nil), bindings...)
		b.record("constant_buffers", fmt.Sprintf("count=%d", len(bindings)))
		return nil
	})
}

// Explicit-pipeline surface. Compilation on an immediate backend retains
// the description; binding replays it onto the context.

func (b *Backend) CompilePipeline(desc *rhi.PipelineDescription) (interface{}, error) {
	if !b.initialized {
		return nil, core.ErrNotInitialized
	}
	if err := validateDescription(desc); err != nil {
		return nil, err
	}
	b.record("compile_pipeline", desc.VertexShader.Name+"-"+desc.PixelShader.Name)
	return &Pipeline{Description: desc}, nil
}

// validateDescription is this backend's equivalent of the explicit
// backends' enum translation tables: an unmapped value is a programming
// error and must fail construction immediately.
func validateDescription(desc *rhi.PipelineDescription) error {
	switch desc.Topology {
	case rhi.PrimitiveTopologyTriangleList, rhi.PrimitiveTopologyLineList, rhi.PrimitiveTopologyPointList:
	default:
		return fmt.Errorf("unmapped primitive topology %d", desc.Topology)
	}
	switch desc.Rasterizer.CullMode {
	case rhi.CullModeNone, rhi.CullModeFront, rhi.CullModeBack:
	default:
		return fmt.Errorf("unmapped cull mode %d", desc.Rasterizer.CullMode)
	}
	switch desc.Rasterizer.FillMode {
	case rhi.FillModeSolid, rhi.FillModeWireframe:
	default:
		return fmt.Errorf("unmapped fill mode %d", desc.Rasterizer.FillMode)
	}
	return nil
}

func (b *Backend) DestroyPipeline(native interface{}) error {
	pipeline, ok := native.(*Pipeline)
	if !ok {
		return fmt.Errorf("headless: unknown native pipeline %T", native)
	}
	pipeline.Released = true
	b.record("destroy_pipeline", "")
	return nil
}

func (b *Backend) BindPipeline(native interface{}) error {
	pipeline, ok := native.(*Pipeline)
	if !ok {
		return fmt.Errorf("headless: unknown native pipeline %T", native)
	}
	if pipeline.Released {
		return fmt.Errorf("headless: pipeline bound after release")
	}
	return b.safeCall(func() error {
		desc := pipeline.Description
		b.ctx.BoundPipeline = pipeline
		b.ctx.Topology = desc.Topology
		b.ctx.CullMode = desc.Rasterizer.CullMode
		b.ctx.FillMode = desc.Rasterizer.FillMode
		b.ctx.VertexShader = desc.VertexShader
		b.ctx.PixelShader = desc.PixelShader
		if desc.Viewport.IsDefined() {
			b.ctx.Viewport = desc.Viewport
		}
		if desc.Scissor.IsDefined() {
			b.ctx.Scissor = desc.Scissor
		}
		b.record("bind_pipeline", desc.VertexShader.Name+"-"+desc.PixelShader.Name)
		return nil
	})
}
