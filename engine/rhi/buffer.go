package rhi

import (
	"fmt"

	"github.com/spaghettifunk/titan/engine/core"
)

// VertexBuffer owns one native vertex buffer. Its stride must match the
// stride declared by the bound vertex shader's input layout.
type VertexBuffer struct {
	resourceObject
	Stride      uint32
	VertexCount uint32
}

func (d *Device) CreateVertexBuffer(data []byte, stride uint32) (*VertexBuffer, error) {
	if !d.initialized {
		return nil, core.ErrNotInitialized
	}
	if len(data) == 0 || stride == 0 || uint32(len(data))%stride != 0 {
		return nil, fmt.Errorf("CreateVertexBuffer: %w", core.ErrInvalidParameter)
	}
	native, err := d.backend.CreateVertexBuffer(data, stride)
	if err != nil {
		return nil, err
	}
	return &VertexBuffer{
		resourceObject: newResourceObject(d, native),
		Stride:         stride,
		VertexCount:    uint32(len(data)) / stride,
	}, nil
}

type IndexBuffer struct {
	resourceObject
	IndexCount uint32
}

func (d *Device) CreateIndexBuffer(indices []uint32) (*IndexBuffer, error) {
	if !d.initialized {
		return nil, core.ErrNotInitialized
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("CreateIndexBuffer: %w", core.ErrInvalidParameter)
	}
	native, err := d.backend.CreateIndexBuffer(indices)
	if err != nil {
		return nil, err
	}
	return &IndexBuffer{
		resourceObject: newResourceObject(d, native),
		IndexCount:     uint32(len(indices)),
	}, nil
}

// ConstantBuffer owns one native uniform buffer of elementCount elements of
// stride bytes each.
//
// Two offset accessors exist and they are not interchangeable. The static
// offset is for callers that re-upload data before each bind. The dynamic
// offset assumes the memory is already up to date and only moves the read
// position per draw, so the same underlying buffer serves many logical
// instances without a re-upload. Mixing them silently reads stale data.
type ConstantBuffer struct {
	resourceObject
	Stride       uint32
	ElementCount uint32

	isDynamic          bool
	offsetIndex        uint32
	offsetDynamicIndex uint32
}

func (d *Device) CreateConstantBuffer(stride, elementCount uint32, dynamic bool) (*ConstantBuffer, error) {
	if !d.initialized {
		return nil, core.ErrNotInitialized
	}
	if stride == 0 || elementCount == 0 {
		return nil, fmt.Errorf("CreateConstantBuffer: %w", core.ErrInvalidParameter)
	}
	native, err := d.backend.CreateConstantBuffer(stride, elementCount, dynamic)
	if err != nil {
		return nil, err
	}
	return &ConstantBuffer{
		resourceObject: newResourceObject(d, native),
		Stride:         stride,
		ElementCount:   elementCount,
		isDynamic:      dynamic,
	}, nil
}

// Static offset accessors.
func (b *ConstantBuffer) Offset() uint32 { return b.offsetIndex * b.Stride }
func (b *ConstantBuffer) OffsetIndex() uint32 { return b.offsetIndex }
func (b *ConstantBuffer) SetOffsetIndex(index uint32) {
	b.offsetIndex = index
}

// Dynamic offset accessors.
func (b *ConstantBuffer) IsDynamic() bool { return b.isDynamic }
func (b *ConstantBuffer) OffsetDynamic() uint32 { return b.offsetDynamicIndex * b.Stride }
func (b *ConstantBuffer) OffsetIndexDynamic() uint32 { return b.offsetDynamicIndex }
func (b *ConstantBuffer) SetOffsetIndexDynamic(index uint32) {
	b.offsetDynamicIndex = index
}
