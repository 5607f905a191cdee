package rhi

import (
	"github.com/spaghettifunk/titan/engine/core"
	"github.com/spaghettifunk/titan/engine/math"
)

type FilterMode int

const (
	FilterNearest FilterMode = 0x0
	FilterLinear  FilterMode = 0x1
)

type AddressMode int

const (
	AddressRepeat      AddressMode = 0x0
	AddressMirror      AddressMode = 0x1
	AddressClampToEdge AddressMode = 0x2
)

type SamplerDescription struct {
	MinFilter     FilterMode
	MagFilter     FilterMode
	AddressU      AddressMode
	AddressV      AddressMode
	AddressW      AddressMode
	MaxAnisotropy float32
	CompareOp     CompareOp
}

type Sampler struct {
	resourceObject
	Description SamplerDescription
}

// CreateSampler allocates a native sampler. Anisotropy beyond the adapter's
// maximum is clamped silently.
func (d *Device) CreateSampler(desc SamplerDescription) (*Sampler, error) {
	if !d.initialized {
		return nil, core.ErrNotInitialized
	}
	if desc.MaxAnisotropy > d.caps.MaxAnisotropy {
		desc.MaxAnisotropy = math.Clamp(desc.MaxAnisotropy, 1, d.caps.MaxAnisotropy)
	}
	native, err := d.backend.CreateSampler(&desc)
	if err != nil {
		return nil, err
	}
	return &Sampler{
		resourceObject: newResourceObject(d, native),
		Description:    desc,
	}, nil
}
